package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadro-hq/be-hr-approvals/internal/platform/logger"
	"github.com/kadro-hq/be-hr-approvals/internal/repository"
)

func newAuthzFixture() (*resolverFixture, *AuthorizationService) {
	f := newResolverFixture()
	authz := NewAuthorizationService(f.resolver, f.directory, f.memberships, f.groups, f.orgs, logger.Nop())
	return f, authz
}

func TestHasHRApprovalAccessLocalHR(t *testing.T) {
	f, authz := newAuthzFixture()
	f.memberships.members[testOrg+"/hr-1"] = member(activeUser("hr-1", "Hana"), repository.RoleHR)

	// Local HR access does not depend on the group toggle.
	require.False(t, f.orgs.orgs[testOrg].GroupHRApprovalsEnabled)

	got, err := authz.HasHRApprovalAccess(context.Background(), "hr-1", testOrg)
	require.NoError(t, err)
	assert.True(t, got)
}

func TestHasHRApprovalAccessNonHRMember(t *testing.T) {
	f, authz := newAuthzFixture()
	f.memberships.members[testOrg+"/usr-1"] = member(activeUser("usr-1", "Uri"), repository.RoleMember)

	got, err := authz.HasHRApprovalAccess(context.Background(), "usr-1", testOrg)
	require.NoError(t, err)
	assert.False(t, got)
}

func TestHasHRApprovalAccessGroupHRRequiresFlagAndSharedGroup(t *testing.T) {
	f, authz := newAuthzFixture()
	f.groups.groupsByOrg[testOrg] = []string{"grp-1"}
	f.groups.hrByGroup["grp-1"] = []*repository.User{userInOrg("hr-sib", "Sia", "org-2")}

	// Flag off: cross-org HR has no access.
	got, err := authz.HasHRApprovalAccess(context.Background(), "hr-sib", testOrg)
	require.NoError(t, err)
	assert.False(t, got)

	// Flag on and shared active group: access granted.
	f.orgs.orgs[testOrg].GroupHRApprovalsEnabled = true
	got, err = authz.HasHRApprovalAccess(context.Background(), "hr-sib", testOrg)
	require.NoError(t, err)
	assert.True(t, got)

	// Flag on but no shared group membership for this user.
	got, err = authz.HasHRApprovalAccess(context.Background(), "hr-stranger", testOrg)
	require.NoError(t, err)
	assert.False(t, got)
}

func TestCanUserApproveHRShortcut(t *testing.T) {
	f, authz := newAuthzFixture()
	f.memberships.members[testOrg+"/hr-1"] = member(activeUser("hr-1", "Hana"), repository.RoleHR)
	f.setContext(repository.EmployeeApprovalContext{})

	// HR is implicitly authorized even though the resolved chain is empty.
	got, err := authz.CanUserApprove(context.Background(), "hr-1", testEmployee, repository.RequestTypePTO)
	require.NoError(t, err)
	assert.True(t, got)
}

func TestCanUserApproveResolvedChainMember(t *testing.T) {
	f, authz := newAuthzFixture()
	f.directory.users["mgr-1"] = activeUser("mgr-1", "Mara")
	f.setContext(repository.EmployeeApprovalContext{ManagerUserID: strPtr("mgr-1")})

	got, err := authz.CanUserApprove(context.Background(), "mgr-1", testEmployee, repository.RequestTypePTO)
	require.NoError(t, err)
	assert.True(t, got)

	// Someone outside the chain (and without HR access) is refused.
	got, err = authz.CanUserApprove(context.Background(), "usr-other", testEmployee, repository.RequestTypePTO)
	require.NoError(t, err)
	assert.False(t, got)
}
