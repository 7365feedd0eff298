package service

import (
	"context"

	"github.com/kadro-hq/be-hr-approvals/internal/platform/errors"
	"github.com/kadro-hq/be-hr-approvals/internal/repository"
)

// In-memory fakes implementing the store interfaces. Call counters back the
// short-circuit assertions: a later resolver must never have run once an
// earlier tier produced candidates.

type fakeDirectory struct {
	employees map[string]*repository.Employee
	contexts  map[string]*repository.EmployeeApprovalContext
	users     map[string]*repository.User

	contextCalls int
	getUserCalls int
}

func (f *fakeDirectory) GetByID(_ context.Context, id string) (*repository.Employee, error) {
	if e, ok := f.employees[id]; ok {
		return e, nil
	}
	return nil, errors.NotFound("employee", id)
}

func (f *fakeDirectory) GetApprovalContext(_ context.Context, employeeID string) (*repository.EmployeeApprovalContext, error) {
	f.contextCalls++
	if ec, ok := f.contexts[employeeID]; ok {
		return ec, nil
	}
	return nil, errors.NotFound("employee", employeeID)
}

func (f *fakeDirectory) GetUser(_ context.Context, userID string) (*repository.User, error) {
	f.getUserCalls++
	return f.users[userID], nil
}

type fakeMemberships struct {
	// organization id → role → members
	byRole map[string]map[string][]*repository.Member
	// organization id + "/" + user id → member
	members map[string]*repository.Member

	usersWithRolesCalls int
	getMemberCalls      int
}

func (f *fakeMemberships) UsersWithRoles(_ context.Context, organizationID string, roles []string) ([]*repository.Member, error) {
	f.usersWithRolesCalls++
	var out []*repository.Member
	for _, role := range roles {
		out = append(out, f.byRole[organizationID][role]...)
	}
	return out, nil
}

func (f *fakeMemberships) GetMember(_ context.Context, organizationID, userID string) (*repository.Member, error) {
	f.getMemberCalls++
	return f.members[organizationID+"/"+userID], nil
}

type fakeResponsibles struct {
	// organization id + "/" + scope type + "/" + scope id + "/" + permission → users
	byScope map[string][]*repository.User

	calls int
}

func responsibleKey(orgID string, scope repository.ScopeType, scopeID string, perm repository.Permission) string {
	return orgID + "/" + string(scope) + "/" + scopeID + "/" + string(perm)
}

func (f *fakeResponsibles) UsersForScope(_ context.Context, organizationID string, scopeType repository.ScopeType, scopeID string, permission repository.Permission) ([]*repository.User, error) {
	f.calls++
	return f.byScope[responsibleKey(organizationID, scopeType, scopeID, permission)], nil
}

type fakeGroups struct {
	groupsByOrg map[string][]string
	// group id → HR users; home org is User.OrganizationID
	hrByGroup map[string][]*repository.User

	hrCalls int
}

func (f *fakeGroups) ActiveGroupsForOrganization(_ context.Context, organizationID string) ([]string, error) {
	return f.groupsByOrg[organizationID], nil
}

func (f *fakeGroups) GroupHRUsers(_ context.Context, groupID, excludeOrgID string) ([]*repository.User, error) {
	f.hrCalls++
	var out []*repository.User
	for _, u := range f.hrByGroup[groupID] {
		if u.OrganizationID != nil && *u.OrganizationID == excludeOrgID {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

type fakeOrgs struct {
	orgs    map[string]*repository.Organization
	updated map[string][]byte
}

func (f *fakeOrgs) GetByID(_ context.Context, id string) (*repository.Organization, error) {
	if o, ok := f.orgs[id]; ok {
		return o, nil
	}
	return nil, errors.NotFound("organization", id)
}

func (f *fakeOrgs) UpdateApprovalSettings(_ context.Context, id string, settings []byte) error {
	if _, ok := f.orgs[id]; !ok {
		return errors.NotFound("organization", id)
	}
	if f.updated == nil {
		f.updated = make(map[string][]byte)
	}
	f.updated[id] = settings
	return nil
}

type fakeExpenseApprovals struct {
	byExpense map[string][]*repository.ExpenseApproval

	createCalls int
}

func (f *fakeExpenseApprovals) GetByExpenseID(_ context.Context, expenseID string) ([]*repository.ExpenseApproval, error) {
	return f.byExpense[expenseID], nil
}

func (f *fakeExpenseApprovals) CreateChain(_ context.Context, expenseID, organizationID string, approverIDs []string) ([]*repository.ExpenseApproval, error) {
	f.createCalls++
	if existing := f.byExpense[expenseID]; len(existing) > 0 {
		return existing, nil
	}
	var chain []*repository.ExpenseApproval
	for i, approverID := range approverIDs {
		chain = append(chain, &repository.ExpenseApproval{
			ID:             expenseID + "-" + approverID,
			ExpenseID:      expenseID,
			OrganizationID: organizationID,
			ApproverID:     approverID,
			Level:          i + 1,
			Decision:       repository.DecisionPending,
		})
	}
	if f.byExpense == nil {
		f.byExpense = make(map[string][]*repository.ExpenseApproval)
	}
	f.byExpense[expenseID] = chain
	return chain, nil
}

func (f *fakeExpenseApprovals) GetPendingForUser(_ context.Context, organizationID, userID string) ([]*repository.ExpenseApproval, error) {
	var out []*repository.ExpenseApproval
	for _, chain := range f.byExpense {
		for _, a := range chain {
			if a.OrganizationID == organizationID && a.ApproverID == userID && a.Decision == repository.DecisionPending {
				out = append(out, a)
			}
		}
	}
	return out, nil
}

// ── fixture helpers ───────────────────────────────────────────────────────────

func activeUser(id, name string) *repository.User {
	return &repository.User{ID: id, Name: name, Email: name + "@example.com", IsActive: true}
}

func userWithRole(id, name, role string) *repository.User {
	u := activeUser(id, name)
	u.Role = &role
	return u
}

func userInOrg(id, name, orgID string) *repository.User {
	u := activeUser(id, name)
	u.OrganizationID = &orgID
	return u
}

func member(u *repository.User, role string) *repository.Member {
	return &repository.Member{User: *u, Role: role}
}

func strPtr(s string) *string { return &s }
