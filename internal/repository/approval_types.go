package repository

import "time"

// ── Request types and permissions ─────────────────────────────────────────────

// RequestType identifies the kind of approvable request being resolved.
type RequestType string

const (
	RequestTypePTO             RequestType = "pto"
	RequestTypeManualTimeEntry RequestType = "manual_time_entry"
	RequestTypeTimeBank        RequestType = "time_bank"
	RequestTypeExpense         RequestType = "expense"
)

// RequestTypes lists every supported request type.
var RequestTypes = []RequestType{
	RequestTypePTO,
	RequestTypeManualTimeEntry,
	RequestTypeTimeBank,
	RequestTypeExpense,
}

// IsValid reports whether t is a known request type.
func (t RequestType) IsValid() bool {
	switch t {
	case RequestTypePTO, RequestTypeManualTimeEntry, RequestTypeTimeBank, RequestTypeExpense:
		return true
	}
	return false
}

// Permission is an area-responsibility permission flag.
type Permission string

const (
	PermissionApprovePTORequests Permission = "approve_pto_requests"
	PermissionManageTimeEntries  Permission = "manage_time_entries"
	PermissionApproveExpenses    Permission = "approve_expenses"
)

// Permission returns the permission an area responsible must hold to approve
// requests of this type.
func (t RequestType) Permission() Permission {
	switch t {
	case RequestTypeManualTimeEntry:
		return PermissionManageTimeEntries
	case RequestTypeExpense:
		return PermissionApproveExpenses
	}
	// PTO and time-bank requests share the PTO approval permission.
	return PermissionApprovePTORequests
}

// ── Workflow configuration ────────────────────────────────────────────────────

// WorkflowMode selects how approvers are resolved for a request type.
type WorkflowMode string

const (
	ModeHierarchy WorkflowMode = "hierarchy"
	ModeList      WorkflowMode = "list"
)

// Criterion is one named rule in the hierarchy cascade.
type Criterion string

const (
	CriterionDirectManager         Criterion = "direct_manager"
	CriterionTeamResponsible       Criterion = "team_responsible"
	CriterionDepartmentResponsible Criterion = "department_responsible"
	CriterionCostCenterResponsible Criterion = "cost_center_responsible"
	CriterionHRAdmin               Criterion = "hr_admin"
	CriterionGroupHR               Criterion = "group_hr"
)

// IsValid reports whether c is a known criterion tag.
func (c Criterion) IsValid() bool {
	switch c {
	case CriterionDirectManager, CriterionTeamResponsible, CriterionDepartmentResponsible,
		CriterionCostCenterResponsible, CriterionHRAdmin, CriterionGroupHR:
		return true
	}
	return false
}

// ApprovalWorkflowConfig is the per-request-type resolution configuration.
// ApproverList is meaningful only in list mode but is retained in hierarchy
// mode so a mode switch round-trips without losing the configured list.
type ApprovalWorkflowConfig struct {
	Mode          WorkflowMode `json:"mode"`
	CriteriaOrder []Criterion  `json:"criteriaOrder"`
	ApproverList  []string     `json:"approverList"`
}

// ApprovalSettings is the whole per-organization configuration blob.
type ApprovalSettings struct {
	Version   int                                    `json:"version"`
	Workflows map[RequestType]ApprovalWorkflowConfig `json:"workflows"`
}

// ── Resolution output ─────────────────────────────────────────────────────────

// ApproverSource records which criterion or fallback produced a candidate.
type ApproverSource string

const (
	SourceDirectManager         ApproverSource = "direct_manager"
	SourceTeamResponsible       ApproverSource = "team_responsible"
	SourceDepartmentResponsible ApproverSource = "department_responsible"
	SourceCostCenterResponsible ApproverSource = "cost_center_responsible"
	SourceApproverList          ApproverSource = "approver_list"
	SourceHRAdmin               ApproverSource = "hr_admin"
	SourceGroupHR               ApproverSource = "group_hr"
	SourceOrgAdmin              ApproverSource = "org_admin"
)

// AuthorizedApprover is one candidate produced by a resolution. Level is a
// priority hint: 1 = closest/most specific, 5 = organization-wide.
type AuthorizedApprover struct {
	UserID string         `json:"userId"`
	Name   string         `json:"name"`
	Email  string         `json:"email"`
	Role   string         `json:"role,omitempty"`
	Source ApproverSource `json:"source"`
	Level  int            `json:"level"`
}

// ── Expense approval chain ────────────────────────────────────────────────────

// Expense approval decisions.
const (
	DecisionPending  = "pending"
	DecisionApproved = "approved"
	DecisionRejected = "rejected"
)

// ExpenseApproval is one level of a multi-step expense sign-off chain,
// created exactly once per expense at submission time.
type ExpenseApproval struct {
	ID             string     `json:"id"`
	ExpenseID      string     `json:"expenseId"`
	OrganizationID string     `json:"organizationId"`
	ApproverID     string     `json:"approverId"`
	Level          int        `json:"level"`
	Decision       string     `json:"decision"`
	DecidedAt      *time.Time `json:"decidedAt,omitempty"`
	Notes          *string    `json:"notes,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}
