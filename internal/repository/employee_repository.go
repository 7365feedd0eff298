package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/kadro-hq/be-hr-approvals/internal/platform/database"
	"github.com/kadro-hq/be-hr-approvals/internal/platform/errors"
)

// EmployeeRepository reads the employee directory and derives the
// organizational context used by approver resolution.
type EmployeeRepository struct {
	db *database.DB
}

// NewEmployeeRepository creates a new EmployeeRepository.
func NewEmployeeRepository(db *database.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

// GetByID retrieves an active employee by primary key.
func (r *EmployeeRepository) GetByID(ctx context.Context, id string) (*Employee, error) {
	query := `
		SELECT id, user_id, organization_id, team_id, is_active,
		       created_at, updated_at
		FROM employees
		WHERE id = $1 AND is_active = TRUE
	`

	e := &Employee{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&e.ID,
		&e.UserID,
		&e.OrganizationID,
		&e.TeamID,
		&e.IsActive,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("employee", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to get employee")
	}
	return e, nil
}

// GetApprovalContext builds the employee's organizational snapshot: team from
// the employee record, manager / department / cost center from the active
// employment contract. A missing employee is a terminal error; a missing
// active contract leaves the contract-derived fields nil.
func (r *EmployeeRepository) GetApprovalContext(ctx context.Context, employeeID string) (*EmployeeApprovalContext, error) {
	query := `
		SELECT e.id, e.organization_id, e.team_id,
		       c.manager_user_id, c.department_id, c.cost_center_id
		FROM employees e
		LEFT JOIN employment_contracts c
		       ON c.employee_id = e.id AND c.is_active = TRUE
		WHERE e.id = $1 AND e.is_active = TRUE
	`

	ec := &EmployeeApprovalContext{}
	err := r.db.QueryRow(ctx, query, employeeID).Scan(
		&ec.EmployeeID,
		&ec.OrganizationID,
		&ec.TeamID,
		&ec.ManagerUserID,
		&ec.DepartmentID,
		&ec.CostCenterID,
	)
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("employee", employeeID)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to load approval context")
	}
	return ec, nil
}

// GetUser retrieves a user by primary key. Returns nil (no error) when the
// user does not exist, so callers can treat a vanished manager as an empty
// criterion rather than a failure.
func (r *EmployeeRepository) GetUser(ctx context.Context, userID string) (*User, error) {
	query := `
		SELECT id, name, email, role, organization_id, is_active,
		       created_at, updated_at
		FROM users
		WHERE id = $1
	`

	u := &User{}
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.Role,
		&u.OrganizationID,
		&u.IsActive,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to get user")
	}
	return u, nil
}
