package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadro-hq/be-hr-approvals/internal/platform/errors"
	"github.com/kadro-hq/be-hr-approvals/internal/platform/logger"
	"github.com/kadro-hq/be-hr-approvals/internal/repository"
)

type capturedEvent struct {
	eventType  string
	resourceID string
	recipients []string
}

type fakePublisher struct {
	events []capturedEvent
}

func (f *fakePublisher) PublishApprovalEvent(_ context.Context, eventType, resourceID, _, _ string, recipients []string, _ map[string]interface{}) {
	f.events = append(f.events, capturedEvent{eventType: eventType, resourceID: resourceID, recipients: recipients})
}

func newExpenseFixture() (*resolverFixture, *fakeExpenseApprovals, *fakePublisher, *ExpenseService) {
	f := newResolverFixture()
	approvals := &fakeExpenseApprovals{byExpense: map[string][]*repository.ExpenseApproval{}}
	publisher := &fakePublisher{}
	svc := NewExpenseService(f.resolver, approvals, publisher, logger.Nop())
	return f, approvals, publisher, svc
}

func expenseCtx(creator string) ExpenseContext {
	return ExpenseContext{
		ID:              "exp-1",
		OrganizationID:  testOrg,
		EmployeeID:      testEmployee,
		CreatedByUserID: creator,
	}
}

func TestBuildApprovalChainExcludesCreator(t *testing.T) {
	f, _, _, svc := newExpenseFixture()
	// The creator is their own department responsible; they still may not
	// approve their own expense.
	f.setContext(repository.EmployeeApprovalContext{DepartmentID: strPtr("dept-1")})
	f.responsibles.byScope[responsibleKey(testOrg, repository.ScopeDepartment, "dept-1", repository.PermissionApproveExpenses)] =
		[]*repository.User{activeUser("user-creator", "Cro"), activeUser("resp-2", "Rita")}

	chain, err := svc.BuildApprovalChain(context.Background(), expenseCtx("user-creator"))
	require.NoError(t, err)
	assert.Equal(t, []string{"resp-2"}, chain)
}

func TestBuildApprovalChainFailsWhenEmpty(t *testing.T) {
	f, _, _, svc := newExpenseFixture()
	f.setContext(repository.EmployeeApprovalContext{DepartmentID: strPtr("dept-1")})
	// Only candidate is the creator themselves.
	f.responsibles.byScope[responsibleKey(testOrg, repository.ScopeDepartment, "dept-1", repository.PermissionApproveExpenses)] =
		[]*repository.User{activeUser("user-creator", "Cro")}

	_, err := svc.BuildApprovalChain(context.Background(), expenseCtx("user-creator"))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeUnprocessable, errors.Code(err))
}

func TestBuildApprovalChainFailsWithNoApproversAtAll(t *testing.T) {
	f, _, _, svc := newExpenseFixture()
	// No hierarchy matches, no HR, no admins.
	f.setContext(repository.EmployeeApprovalContext{})

	_, err := svc.BuildApprovalChain(context.Background(), expenseCtx("user-creator"))
	require.ErrorIs(t, err, ErrNoApproverAvailable)
}

func TestSubmitForApprovalCreatesLeveledRecords(t *testing.T) {
	f, approvals, publisher, svc := newExpenseFixture()
	f.memberships.members[testOrg+"/usr-a"] = member(activeUser("usr-a", "Ada"), repository.RoleMember)
	f.memberships.members[testOrg+"/usr-b"] = member(activeUser("usr-b", "Ben"), repository.RoleMember)

	s := DefaultApprovalSettings()
	wf := s.Workflows[repository.RequestTypeExpense]
	wf.Mode = repository.ModeList
	wf.ApproverList = []string{"usr-a", "usr-b"}
	s.Workflows[repository.RequestTypeExpense] = wf
	raw, err := json.Marshal(s)
	require.NoError(t, err)
	f.orgs.orgs[testOrg].ApprovalSettings = raw

	records, err := svc.SubmitForApproval(context.Background(), expenseCtx("user-creator"))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "usr-a", records[0].ApproverID)
	assert.Equal(t, 1, records[0].Level)
	assert.Equal(t, "usr-b", records[1].ApproverID)
	assert.Equal(t, 2, records[1].Level)
	assert.Equal(t, repository.DecisionPending, records[0].Decision)
	assert.Equal(t, 1, approvals.createCalls)

	require.Len(t, publisher.events, 1)
	assert.Equal(t, "expense_approval_required", publisher.events[0].eventType)
	assert.Equal(t, []string{"usr-a", "usr-b"}, publisher.events[0].recipients)
}

func TestSubmitForApprovalIsIdempotent(t *testing.T) {
	f, approvals, _, svc := newExpenseFixture()
	f.directory.users["mgr-1"] = activeUser("mgr-1", "Mara")
	f.setContext(repository.EmployeeApprovalContext{ManagerUserID: strPtr("mgr-1")})

	first, err := svc.SubmitForApproval(context.Background(), expenseCtx("user-creator"))
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := svc.SubmitForApproval(context.Background(), expenseCtx("user-creator"))
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, approvals.createCalls)
}

func TestSubmitForApprovalValidatesInput(t *testing.T) {
	_, _, _, svc := newExpenseFixture()

	_, err := svc.SubmitForApproval(context.Background(), ExpenseContext{OrganizationID: testOrg, EmployeeID: testEmployee})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidInput, errors.Code(err))
}

func TestGetPendingApprovals(t *testing.T) {
	f, _, _, svc := newExpenseFixture()
	f.directory.users["mgr-1"] = activeUser("mgr-1", "Mara")
	f.setContext(repository.EmployeeApprovalContext{ManagerUserID: strPtr("mgr-1")})

	_, err := svc.SubmitForApproval(context.Background(), expenseCtx("user-creator"))
	require.NoError(t, err)

	pending, err := svc.GetPendingApprovals(context.Background(), testOrg, "mgr-1")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "exp-1", pending[0].ExpenseID)

	pending, err = svc.GetPendingApprovals(context.Background(), testOrg, "someone-else")
	require.NoError(t, err)
	assert.Empty(t, pending)
}
