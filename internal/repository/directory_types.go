package repository

import "time"

// ── Role vocabulary ───────────────────────────────────────────────────────────

// Roles shared by the legacy users.role column and the modern membership
// tables. super_admin is a system role and is never a valid approver.
const (
	RoleSuperAdmin = "super_admin"
	RoleAdmin      = "admin"
	RoleHR         = "hr"
	RoleMember     = "member"
)

// ── Directory entities (read-only lookups) ────────────────────────────────────

// User is one account in the platform directory. Role and OrganizationID are
// the legacy direct-role representation; organizations migrated to the
// membership model leave them unset.
type User struct {
	ID             string
	Name           string
	Email          string
	Role           *string
	OrganizationID *string
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsSuperAdmin reports whether the user's legacy role is super_admin.
func (u *User) IsSuperAdmin() bool {
	return u.Role != nil && *u.Role == RoleSuperAdmin
}

// Member is a user together with their role within one organization, resolved
// from either membership representation.
type Member struct {
	User User
	Role string
}

// Employee links a user to an organization and optionally a team.
type Employee struct {
	ID             string
	UserID         string
	OrganizationID string
	TeamID         *string
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// EmploymentContract carries the management and cost-allocation fields of one
// contract. At most one contract per employee is active at a time.
type EmploymentContract struct {
	ID            string
	EmployeeID    string
	ManagerUserID *string
	DepartmentID  string
	CostCenterID  *string
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// EmployeeApprovalContext is the per-resolution snapshot of an employee's
// organizational position. Derived fresh on every resolution, never persisted.
type EmployeeApprovalContext struct {
	EmployeeID     string
	OrganizationID string
	TeamID         *string
	ManagerUserID  *string
	DepartmentID   *string
	CostCenterID   *string
}

// Organization is the tenant record. ApprovalSettings holds the raw JSONB
// configuration blob; normalization happens in the service layer.
type Organization struct {
	ID                      string
	Name                    string
	ApprovalSettings        []byte
	GroupHRApprovalsEnabled bool
	IsActive                bool
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// OrganizationGroup is a conglomerate of organizations.
type OrganizationGroup struct {
	ID        string
	Name      string
	IsActive  bool
	CreatedAt time.Time
}

// ── Area responsibility ───────────────────────────────────────────────────────

// ScopeType is the organizational grouping level a responsibility applies to.
type ScopeType string

const (
	ScopeTeam         ScopeType = "team"
	ScopeDepartment   ScopeType = "department"
	ScopeCostCenter   ScopeType = "cost_center"
	ScopeOrganization ScopeType = "organization"
)

// AreaResponsible grants a user a set of permissions over one scope,
// independent of their formal role.
type AreaResponsible struct {
	ID             string
	OrganizationID string
	ScopeType      ScopeType
	ScopeID        string
	UserID         string
	Permissions    []string
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
