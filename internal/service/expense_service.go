package service

import (
	"context"

	"github.com/kadro-hq/be-hr-approvals/internal/platform/errors"
	"github.com/kadro-hq/be-hr-approvals/internal/platform/logger"
	"github.com/kadro-hq/be-hr-approvals/internal/repository"
)

// ErrNoApproverAvailable is returned when resolution yields nobody who can
// approve. Expense submission has a stricter contract than the raw engine:
// it must not proceed without an approval chain.
var ErrNoApproverAvailable = errors.New(errors.ErrCodeUnprocessable,
	"no approver available for this expense, contact HR")

// ExpenseContext is the slice of an expense the approval engine needs.
type ExpenseContext struct {
	ID              string `json:"id"`
	OrganizationID  string `json:"organizationId"`
	EmployeeID      string `json:"employeeId"`
	CreatedByUserID string `json:"createdByUserId"`
}

// ExpenseApprovalStore persists the approval-level records.
type ExpenseApprovalStore interface {
	GetByExpenseID(ctx context.Context, expenseID string) ([]*repository.ExpenseApproval, error)
	CreateChain(ctx context.Context, expenseID, organizationID string, approverIDs []string) ([]*repository.ExpenseApproval, error)
	GetPendingForUser(ctx context.Context, organizationID, userID string) ([]*repository.ExpenseApproval, error)
}

// EventPublisher emits approval events for notification delivery. Publishing
// is best-effort and never fails the approval operation.
type EventPublisher interface {
	PublishApprovalEvent(ctx context.Context, eventType, resourceID, organizationID, actorID string, recipients []string, payload map[string]interface{})
}

// ExpenseService instantiates multi-step expense sign-off chains from the
// resolution engine's output.
type ExpenseService struct {
	resolver  *ApproverResolutionService
	approvals ExpenseApprovalStore
	events    EventPublisher
	log       *logger.Logger
}

// NewExpenseService creates a new ExpenseService.
func NewExpenseService(
	resolver *ApproverResolutionService,
	approvals ExpenseApprovalStore,
	events EventPublisher,
	log *logger.Logger,
) *ExpenseService {
	return &ExpenseService{
		resolver:  resolver,
		approvals: approvals,
		events:    events,
		log:       log,
	}
}

// BuildApprovalChain resolves the expense's approvers, strips the expense's
// own creator (self-approval is never permitted) and returns the ordered user
// ids. Returns ErrNoApproverAvailable when the remaining list is empty.
func (s *ExpenseService) BuildApprovalChain(ctx context.Context, expense ExpenseContext) ([]string, error) {
	approvers, err := s.resolver.ResolveApproverUsers(ctx, expense.EmployeeID, expense.OrganizationID, repository.RequestTypeExpense)
	if err != nil {
		return nil, err
	}

	var chain []string
	for _, a := range approvers {
		if a.UserID == expense.CreatedByUserID {
			continue
		}
		chain = append(chain, a.UserID)
	}
	if len(chain) == 0 {
		return nil, ErrNoApproverAvailable
	}
	return chain, nil
}

// SubmitForApproval creates the expense's approval records, one per level in
// chain order. Idempotent: records already created for this expense are
// returned as-is instead of being recreated.
func (s *ExpenseService) SubmitForApproval(ctx context.Context, expense ExpenseContext) ([]*repository.ExpenseApproval, error) {
	if expense.ID == "" {
		return nil, errors.InvalidInput("id", "expense id is required")
	}
	if expense.OrganizationID == "" {
		return nil, errors.InvalidInput("organizationId", "organization id is required")
	}
	if expense.EmployeeID == "" {
		return nil, errors.InvalidInput("employeeId", "employee id is required")
	}

	existing, err := s.approvals.GetByExpenseID(ctx, expense.ID)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		s.log.Debug().
			Str("expense_id", expense.ID).
			Int("levels", len(existing)).
			Msg("Approval chain already exists; skipping creation")
		return existing, nil
	}

	chain, err := s.BuildApprovalChain(ctx, expense)
	if err != nil {
		return nil, err
	}

	records, err := s.approvals.CreateChain(ctx, expense.ID, expense.OrganizationID, chain)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("expense_id", expense.ID).
		Str("organization_id", expense.OrganizationID).
		Int("levels", len(records)).
		Msg("Expense approval chain created")

	if s.events != nil {
		s.events.PublishApprovalEvent(ctx, "expense_approval_required",
			expense.ID, expense.OrganizationID, expense.CreatedByUserID, chain,
			map[string]interface{}{"levels": len(records)})
	}

	return records, nil
}

// GetPendingApprovals returns the expense approval records currently awaiting
// a user's decision within one organization.
func (s *ExpenseService) GetPendingApprovals(ctx context.Context, organizationID, userID string) ([]*repository.ExpenseApproval, error) {
	return s.approvals.GetPendingForUser(ctx, organizationID, userID)
}
