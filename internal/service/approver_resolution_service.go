package service

import (
	"context"

	"github.com/kadro-hq/be-hr-approvals/internal/platform/errors"
	"github.com/kadro-hq/be-hr-approvals/internal/platform/logger"
	"github.com/kadro-hq/be-hr-approvals/internal/repository"
)

// DirectoryStore reads employees and user accounts.
type DirectoryStore interface {
	GetByID(ctx context.Context, id string) (*repository.Employee, error)
	GetApprovalContext(ctx context.Context, employeeID string) (*repository.EmployeeApprovalContext, error)
	// GetUser returns nil (no error) when the user does not exist.
	GetUser(ctx context.Context, userID string) (*repository.User, error)
}

// MembershipStore is the merged dual-representation role membership directory.
type MembershipStore interface {
	UsersWithRoles(ctx context.Context, organizationID string, roles []string) ([]*repository.Member, error)
	// GetMember returns nil (no error) when the user has no active membership.
	GetMember(ctx context.Context, organizationID, userID string) (*repository.Member, error)
}

// ResponsibleStore looks up area responsibles per scope and permission.
type ResponsibleStore interface {
	UsersForScope(ctx context.Context, organizationID string, scopeType repository.ScopeType, scopeID string, permission repository.Permission) ([]*repository.User, error)
}

// GroupStore reads the organization-group graph.
type GroupStore interface {
	ActiveGroupsForOrganization(ctx context.Context, organizationID string) ([]string, error)
	GroupHRUsers(ctx context.Context, groupID, excludeOrgID string) ([]*repository.User, error)
}

// Level hints attached to resolved candidates. The winning hierarchy
// criterion is always the most specific match that produced a result, so its
// candidates carry level 1; organization-wide fallbacks rank behind it.
const (
	levelCriterion = 1
	levelHR        = 4
	levelOrgAdmin  = 5
)

// ApproverResolutionService answers "who may approve this request" by
// evaluating the organization's workflow configuration against the
// employee's organizational context. It never caches: every call re-reads
// the current organizational graph.
type ApproverResolutionService struct {
	directory    DirectoryStore
	memberships  MembershipStore
	responsibles ResponsibleStore
	groups       GroupStore
	orgs         OrganizationStore
	log          *logger.Logger
}

// NewApproverResolutionService creates a new ApproverResolutionService.
func NewApproverResolutionService(
	directory DirectoryStore,
	memberships MembershipStore,
	responsibles ResponsibleStore,
	groups GroupStore,
	orgs OrganizationStore,
	log *logger.Logger,
) *ApproverResolutionService {
	return &ApproverResolutionService{
		directory:    directory,
		memberships:  memberships,
		responsibles: responsibles,
		groups:       groups,
		orgs:         orgs,
		log:          log,
	}
}

// GetAuthorizedApprovers resolves approvers for an employee, deriving the
// organization from the employee record.
func (s *ApproverResolutionService) GetAuthorizedApprovers(
	ctx context.Context,
	employeeID string,
	requestType repository.RequestType,
) ([]repository.AuthorizedApprover, error) {
	emp, err := s.directory.GetByID(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	return s.ResolveApproverUsers(ctx, employeeID, emp.OrganizationID, requestType)
}

// ResolveApproverUsers returns the priority-ordered candidate approvers for a
// request. An empty result is valid and means "no approver configured";
// callers decide what that means for their flow.
func (s *ApproverResolutionService) ResolveApproverUsers(
	ctx context.Context,
	employeeID, organizationID string,
	requestType repository.RequestType,
) ([]repository.AuthorizedApprover, error) {
	if !requestType.IsValid() {
		return nil, errors.InvalidInput("request_type", "unknown request type")
	}

	org, err := s.orgs.GetByID(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	cfg := LoadApprovalSettings(org.ApprovalSettings, org.ID, s.log)
	wf := cfg.Workflows[requestType]

	// Static list mode short-circuits hierarchy evaluation entirely; it only
	// falls through when every configured user has dropped out (deactivated,
	// left the organization).
	if wf.Mode == repository.ModeList {
		listed, err := s.resolveStaticList(ctx, organizationID, wf.ApproverList)
		if err != nil {
			return nil, err
		}
		if len(listed) > 0 {
			return listed, nil
		}
		s.log.Warn().
			Str("organization_id", organizationID).
			Str("request_type", string(requestType)).
			Msg("Configured approver list resolved to no active users; falling back to hierarchy")
	}

	ec, err := s.directory.GetApprovalContext(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	permission := requestType.Permission()

	// Strict priority cascade: the first criterion with a non-empty result
	// wins and later resolvers are never invoked.
	for _, criterion := range wf.CriteriaOrder {
		candidates, err := s.evaluateCriterion(ctx, criterion, org, ec, permission)
		if err != nil {
			return nil, err
		}
		if len(candidates) > 0 {
			return candidates, nil
		}
	}

	return s.fallbackChain(ctx, org)
}

// ── Static list resolution ────────────────────────────────────────────────────

// resolveStaticList filters the configured user ids to active organization
// members, preserving the configured order. Unknown, inactive and super-admin
// users are dropped silently.
func (s *ApproverResolutionService) resolveStaticList(
	ctx context.Context,
	organizationID string,
	userIDs []string,
) ([]repository.AuthorizedApprover, error) {
	var approvers []repository.AuthorizedApprover
	seen := make(map[string]struct{}, len(userIDs))

	for _, id := range userIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		m, err := s.memberships.GetMember(ctx, organizationID, id)
		if err != nil {
			return nil, err
		}
		if m == nil || !m.User.IsActive || m.User.IsSuperAdmin() || m.Role == repository.RoleSuperAdmin {
			continue
		}
		seen[id] = struct{}{}
		approvers = append(approvers, repository.AuthorizedApprover{
			UserID: m.User.ID,
			Name:   m.User.Name,
			Email:  m.User.Email,
			Role:   m.Role,
			Source: repository.SourceApproverList,
			Level:  len(approvers) + 1,
		})
	}
	return approvers, nil
}

// ── Per-criterion resolvers ───────────────────────────────────────────────────

func (s *ApproverResolutionService) evaluateCriterion(
	ctx context.Context,
	criterion repository.Criterion,
	org *repository.Organization,
	ec *repository.EmployeeApprovalContext,
	permission repository.Permission,
) ([]repository.AuthorizedApprover, error) {
	switch criterion {
	case repository.CriterionDirectManager:
		return s.resolveDirectManager(ctx, ec)

	case repository.CriterionTeamResponsible:
		return s.resolveScopeResponsible(ctx, ec, repository.ScopeTeam, ec.TeamID, permission, repository.SourceTeamResponsible)

	case repository.CriterionDepartmentResponsible:
		return s.resolveScopeResponsible(ctx, ec, repository.ScopeDepartment, ec.DepartmentID, permission, repository.SourceDepartmentResponsible)

	case repository.CriterionCostCenterResponsible:
		return s.resolveScopeResponsible(ctx, ec, repository.ScopeCostCenter, ec.CostCenterID, permission, repository.SourceCostCenterResponsible)

	case repository.CriterionHRAdmin:
		members, err := s.localHRUsers(ctx, org.ID)
		if err != nil {
			return nil, err
		}
		return membersToApprovers(members, repository.SourceHRAdmin, levelHR), nil

	case repository.CriterionGroupHR:
		users, err := s.groupHRUsers(ctx, org)
		if err != nil {
			return nil, err
		}
		return usersToApprovers(users, repository.SourceGroupHR, levelHR), nil
	}

	return nil, errors.New(errors.ErrCodeInternal, "unhandled approval criterion "+string(criterion))
}

// resolveDirectManager yields the contract-assigned manager if that account is
// active; no manager or a deactivated one yields empty without error.
func (s *ApproverResolutionService) resolveDirectManager(
	ctx context.Context,
	ec *repository.EmployeeApprovalContext,
) ([]repository.AuthorizedApprover, error) {
	if ec.ManagerUserID == nil {
		return nil, nil
	}
	u, err := s.directory.GetUser(ctx, *ec.ManagerUserID)
	if err != nil {
		return nil, err
	}
	if u == nil || !u.IsActive || u.IsSuperAdmin() {
		return nil, nil
	}
	return usersToApprovers([]*repository.User{u}, repository.SourceDirectManager, levelCriterion), nil
}

// resolveScopeResponsible delegates to the area-responsible lookup; a nil
// scope id (employee has no team / cost center / active contract) yields
// empty without error.
func (s *ApproverResolutionService) resolveScopeResponsible(
	ctx context.Context,
	ec *repository.EmployeeApprovalContext,
	scopeType repository.ScopeType,
	scopeID *string,
	permission repository.Permission,
	source repository.ApproverSource,
) ([]repository.AuthorizedApprover, error) {
	if scopeID == nil {
		return nil, nil
	}
	users, err := s.responsibles.UsersForScope(ctx, ec.OrganizationID, scopeType, *scopeID, permission)
	if err != nil {
		return nil, err
	}
	return usersToApprovers(users, source, levelCriterion), nil
}

// ── Fallback chain ────────────────────────────────────────────────────────────

// fallbackChain applies local HR → group HR (flag-gated) → org admins and
// stops at the first non-empty tier. An exhausted chain returns an empty
// slice, which callers must surface as "no approver configured".
func (s *ApproverResolutionService) fallbackChain(
	ctx context.Context,
	org *repository.Organization,
) ([]repository.AuthorizedApprover, error) {
	hr, err := s.localHRUsers(ctx, org.ID)
	if err != nil {
		return nil, err
	}
	if len(hr) > 0 {
		return membersToApprovers(hr, repository.SourceHRAdmin, levelHR), nil
	}

	groupHR, err := s.groupHRUsers(ctx, org)
	if err != nil {
		return nil, err
	}
	if len(groupHR) > 0 {
		return usersToApprovers(groupHR, repository.SourceGroupHR, levelHR), nil
	}

	admins, err := s.memberships.UsersWithRoles(ctx, org.ID, []string{repository.RoleAdmin})
	if err != nil {
		return nil, err
	}
	if len(admins) > 0 {
		return membersToApprovers(admins, repository.SourceOrgAdmin, levelOrgAdmin), nil
	}

	s.log.Warn().
		Str("organization_id", org.ID).
		Msg("Approver resolution exhausted all fallback tiers")
	return []repository.AuthorizedApprover{}, nil
}

// localHRUsers is shared by the HR_ADMIN criterion and the fallback chain.
func (s *ApproverResolutionService) localHRUsers(ctx context.Context, organizationID string) ([]*repository.Member, error) {
	return s.memberships.UsersWithRoles(ctx, organizationID, []string{repository.RoleHR})
}

// groupHRUsers returns HR users from sibling organizations in the org's
// active groups. The per-organization toggle is a circuit breaker: disabled
// means no cross-tenant lookup happens at all.
func (s *ApproverResolutionService) groupHRUsers(ctx context.Context, org *repository.Organization) ([]*repository.User, error) {
	if !org.GroupHRApprovalsEnabled {
		return nil, nil
	}
	groupIDs, err := s.groups.ActiveGroupsForOrganization(ctx, org.ID)
	if err != nil {
		return nil, err
	}
	if len(groupIDs) == 0 {
		return nil, nil
	}

	seen := make(map[string]struct{})
	var users []*repository.User
	for _, groupID := range groupIDs {
		groupUsers, err := s.groups.GroupHRUsers(ctx, groupID, org.ID)
		if err != nil {
			return nil, err
		}
		for _, u := range groupUsers {
			if _, ok := seen[u.ID]; ok {
				continue
			}
			seen[u.ID] = struct{}{}
			users = append(users, u)
		}
	}
	return users, nil
}

// ── Output mapping ────────────────────────────────────────────────────────────

func usersToApprovers(users []*repository.User, source repository.ApproverSource, level int) []repository.AuthorizedApprover {
	var approvers []repository.AuthorizedApprover
	seen := make(map[string]struct{}, len(users))
	for _, u := range users {
		if _, ok := seen[u.ID]; ok {
			continue
		}
		if u.IsSuperAdmin() {
			continue
		}
		seen[u.ID] = struct{}{}
		role := ""
		if u.Role != nil {
			role = *u.Role
		}
		approvers = append(approvers, repository.AuthorizedApprover{
			UserID: u.ID,
			Name:   u.Name,
			Email:  u.Email,
			Role:   role,
			Source: source,
			Level:  level,
		})
	}
	return approvers
}

func membersToApprovers(members []*repository.Member, source repository.ApproverSource, level int) []repository.AuthorizedApprover {
	var approvers []repository.AuthorizedApprover
	seen := make(map[string]struct{}, len(members))
	for _, m := range members {
		if _, ok := seen[m.User.ID]; ok {
			continue
		}
		if m.User.IsSuperAdmin() || m.Role == repository.RoleSuperAdmin {
			continue
		}
		seen[m.User.ID] = struct{}{}
		approvers = append(approvers, repository.AuthorizedApprover{
			UserID: m.User.ID,
			Name:   m.User.Name,
			Email:  m.User.Email,
			Role:   m.Role,
			Source: source,
			Level:  level,
		})
	}
	return approvers
}
