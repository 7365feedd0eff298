package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/kadro-hq/be-hr-approvals/internal/platform/database"
	"github.com/kadro-hq/be-hr-approvals/internal/platform/errors"
)

// OrganizationRepository reads organization records (including the approval
// settings blob) and the organization-group graph.
type OrganizationRepository struct {
	db *database.DB
}

// NewOrganizationRepository creates a new OrganizationRepository.
func NewOrganizationRepository(db *database.DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

// GetByID retrieves an organization by primary key.
func (r *OrganizationRepository) GetByID(ctx context.Context, id string) (*Organization, error) {
	query := `
		SELECT id, name, approval_settings, group_hr_approvals_enabled,
		       is_active, created_at, updated_at
		FROM organizations
		WHERE id = $1
	`

	o := &Organization{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&o.ID,
		&o.Name,
		&o.ApprovalSettings,
		&o.GroupHRApprovalsEnabled,
		&o.IsActive,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("organization", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to get organization")
	}
	return o, nil
}

// UpdateApprovalSettings persists a validated settings blob.
func (r *OrganizationRepository) UpdateApprovalSettings(ctx context.Context, id string, settings []byte) error {
	query := `
		UPDATE organizations
		SET approval_settings = $2,
		    updated_at        = NOW()
		WHERE id = $1
		RETURNING id
	`

	var returnedID string
	err := r.db.QueryRow(ctx, query, id, settings).Scan(&returnedID)
	if err == pgx.ErrNoRows {
		return errors.NotFound("organization", id)
	}
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to update approval settings")
	}
	return nil
}

// ActiveGroupsForOrganization returns ids of active organization groups in
// which the organization has an active membership.
func (r *OrganizationRepository) ActiveGroupsForOrganization(ctx context.Context, organizationID string) ([]string, error) {
	query := `
		SELECT g.id
		FROM organization_groups g
		JOIN organization_group_members gm ON gm.group_id = g.id
		WHERE gm.organization_id = $1
		  AND gm.status = 'active'
		  AND g.is_active = TRUE
		ORDER BY g.id ASC
	`

	rows, err := r.db.Query(ctx, query, organizationID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to query organization groups")
	}
	defer rows.Close()

	var groupIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to scan organization group")
		}
		groupIDs = append(groupIDs, id)
	}
	return groupIDs, nil
}

// GroupHRUsers returns active users who hold an active HR role membership in
// the group and belong (via an active org membership in an active group
// member org) to a different organization than excludeOrgID.
func (r *OrganizationRepository) GroupHRUsers(ctx context.Context, groupID, excludeOrgID string) ([]*User, error) {
	query := `
		SELECT DISTINCT u.id, u.name, u.email, u.role, u.organization_id,
		       u.is_active, u.created_at, u.updated_at
		FROM users u
		JOIN organization_group_memberships gm
		     ON gm.user_id = u.id
		    AND gm.group_id = $1
		    AND gm.role = 'hr'
		    AND gm.is_active = TRUE
		JOIN organization_memberships m
		     ON m.user_id = u.id
		    AND m.is_active = TRUE
		JOIN organization_group_members ogm
		     ON ogm.organization_id = m.organization_id
		    AND ogm.group_id = $1
		    AND ogm.status = 'active'
		WHERE m.organization_id <> $2
		  AND u.is_active = TRUE
		  AND COALESCE(u.role, '') <> 'super_admin'
		ORDER BY u.id ASC
	`

	rows, err := r.db.Query(ctx, query, groupID, excludeOrgID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to query group HR users")
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
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to scan group HR user")
		}
		users = append(users, u)
	}
	return users, nil
}
