package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/kadro-hq/be-hr-approvals/internal/platform/database"
	"github.com/kadro-hq/be-hr-approvals/internal/platform/errors"
)

// ExpenseApprovalRepository owns the expense approval-level records. The only
// mutation in the approval subsystem is the one-time chain creation done here.
type ExpenseApprovalRepository struct {
	db *database.DB
}

// NewExpenseApprovalRepository creates a new ExpenseApprovalRepository.
func NewExpenseApprovalRepository(db *database.DB) *ExpenseApprovalRepository {
	return &ExpenseApprovalRepository{db: db}
}

// GetByExpenseID returns all approval records for an expense ordered by level.
func (r *ExpenseApprovalRepository) GetByExpenseID(ctx context.Context, expenseID string) ([]*ExpenseApproval, error) {
	query := `
		SELECT id, expense_id, organization_id, approver_id, level,
		       decision, decided_at, notes, created_at, updated_at
		FROM expense_approvals
		WHERE expense_id = $1
		ORDER BY level ASC
	`

	rows, err := r.db.Query(ctx, query, expenseID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to get expense approvals")
	}
	defer rows.Close()

	return scanApprovals(rows)
}

// CreateChain inserts one pending approval record per approver, level = 1-based
// position in approverIDs. Idempotent: if records already exist for the
// expense, the existing chain is returned untouched. The read and inserts run
// in one transaction; UNIQUE(expense_id, approver_id, level) backstops races.
func (r *ExpenseApprovalRepository) CreateChain(
	ctx context.Context,
	expenseID, organizationID string,
	approverIDs []string,
) ([]*ExpenseApproval, error) {
	if len(approverIDs) == 0 {
		return nil, errors.InvalidInput("approvers", "approval chain cannot be empty")
	}

	var chain []*ExpenseApproval
	err := r.db.InTransaction(ctx, func(tx pgx.Tx) error {
		existingQuery := `
			SELECT id, expense_id, organization_id, approver_id, level,
			       decision, decided_at, notes, created_at, updated_at
			FROM expense_approvals
			WHERE expense_id = $1
			ORDER BY level ASC
			FOR UPDATE
		`
		rows, err := tx.Query(ctx, existingQuery, expenseID)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeInternal, "failed to check existing approvals")
		}
		existing, err := scanApprovals(rows)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			chain = existing
			return nil
		}

		insertQuery := `
			INSERT INTO expense_approvals
			    (expense_id, organization_id, approver_id, level, decision)
			VALUES ($1, $2, $3, $4, 'pending')
			RETURNING id, expense_id, organization_id, approver_id, level,
			          decision, decided_at, notes, created_at, updated_at
		`
		for i, approverID := range approverIDs {
			a := &ExpenseApproval{}
			err := tx.QueryRow(ctx, insertQuery, expenseID, organizationID, approverID, i+1).Scan(
				&a.ID,
				&a.ExpenseID,
				&a.OrganizationID,
				&a.ApproverID,
				&a.Level,
				&a.Decision,
				&a.DecidedAt,
				&a.Notes,
				&a.CreatedAt,
				&a.UpdatedAt,
			)
			if err != nil {
				return errors.Wrap(err, errors.ErrCodeInternal, "failed to create expense approval")
			}
			chain = append(chain, a)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return chain, nil
}

// GetPendingForUser returns pending approval records assigned to a user in an
// organization, oldest first.
func (r *ExpenseApprovalRepository) GetPendingForUser(ctx context.Context, organizationID, userID string) ([]*ExpenseApproval, error) {
	query := `
		SELECT id, expense_id, organization_id, approver_id, level,
		       decision, decided_at, notes, created_at, updated_at
		FROM expense_approvals
		WHERE organization_id = $1
		  AND approver_id = $2
		  AND decision = 'pending'
		ORDER BY created_at ASC, level ASC
	`

	rows, err := r.db.Query(ctx, query, organizationID, userID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to get pending approvals")
	}
	defer rows.Close()

	return scanApprovals(rows)
}

// ── scan helpers ──────────────────────────────────────────────────────────────

func scanApprovals(rows pgx.Rows) ([]*ExpenseApproval, error) {
	defer rows.Close()

	var approvals []*ExpenseApproval
	for rows.Next() {
		a := &ExpenseApproval{}
		err := rows.Scan(
			&a.ID,
			&a.ExpenseID,
			&a.OrganizationID,
			&a.ApproverID,
			&a.Level,
			&a.Decision,
			&a.DecidedAt,
			&a.Notes,
			&a.CreatedAt,
			&a.UpdatedAt,
		)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to scan expense approval")
		}
		approvals = append(approvals, a)
	}
	return approvals, nil
}
