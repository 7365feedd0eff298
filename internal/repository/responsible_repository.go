package repository

import (
	"context"

	"github.com/kadro-hq/be-hr-approvals/internal/platform/database"
	"github.com/kadro-hq/be-hr-approvals/internal/platform/errors"
)

// ResponsibleRepository looks up area responsibles: users explicitly granted
// permissions over a team, department or cost center.
type ResponsibleRepository struct {
	db *database.DB
}

// NewResponsibleRepository creates a new ResponsibleRepository.
func NewResponsibleRepository(db *database.DB) *ResponsibleRepository {
	return &ResponsibleRepository{db: db}
}

// UsersForScope returns active users holding the given permission at one
// scope. Super-admin users are excluded.
func (r *ResponsibleRepository) UsersForScope(
	ctx context.Context,
	organizationID string,
	scopeType ScopeType,
	scopeID string,
	permission Permission,
) ([]*User, error) {
	query := `
		SELECT u.id, u.name, u.email, u.role, u.organization_id, u.is_active,
		       u.created_at, u.updated_at
		FROM users u
		JOIN area_responsibles ar ON ar.user_id = u.id
		WHERE ar.organization_id = $1
		  AND ar.scope_type = $2
		  AND ar.scope_id = $3
		  AND $4 = ANY(ar.permissions)
		  AND ar.is_active = TRUE
		  AND u.is_active = TRUE
		  AND COALESCE(u.role, '') <> 'super_admin'
		ORDER BY u.name ASC
	`

	rows, err := r.db.Query(ctx, query, organizationID, string(scopeType), scopeID, string(permission))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to query area responsibles")
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		u := &User{}
		err := rows.Scan(
			&u.ID,
			&u.Name,
			&u.Email,
			&u.Role,
			&u.OrganizationID,
			&u.IsActive,
			&u.CreatedAt,
			&u.UpdatedAt,
		)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to scan area responsible")
		}
		users = append(users, u)
	}
	return users, nil
}
