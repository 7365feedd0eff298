package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/kadro-hq/be-hr-approvals/internal/platform/database"
	"github.com/kadro-hq/be-hr-approvals/internal/platform/errors"
)

// RoleMembershipProvider returns active users holding any of the given roles
// in an organization. Two concrete implementations exist: the modern
// organization_memberships model and the legacy direct-role-on-user model.
// Call sites never distinguish them; MembershipRepository merges both.
type RoleMembershipProvider interface {
	UsersWithRoles(ctx context.Context, organizationID string, roles []string) ([]*Member, error)
	MemberOf(ctx context.Context, organizationID, userID string) (*Member, error)
}

// ── Modern representation ─────────────────────────────────────────────────────

// OrgMembershipProvider reads the organization_memberships join table.
type OrgMembershipProvider struct {
	db *database.DB
}

// NewOrgMembershipProvider creates a provider over the modern membership model.
func NewOrgMembershipProvider(db *database.DB) *OrgMembershipProvider {
	return &OrgMembershipProvider{db: db}
}

// UsersWithRoles returns active users with an active membership in one of the
// given roles.
func (p *OrgMembershipProvider) UsersWithRoles(ctx context.Context, organizationID string, roles []string) ([]*Member, error) {
	query := `
		SELECT u.id, u.name, u.email, u.role, u.organization_id, u.is_active,
		       u.created_at, u.updated_at,
		       m.role
		FROM users u
		JOIN organization_memberships m ON m.user_id = u.id
		WHERE m.organization_id = $1
		  AND m.role = ANY($2)
		  AND m.is_active = TRUE
		  AND u.is_active = TRUE
		ORDER BY u.name ASC
	`

	rows, err := p.db.Query(ctx, query, organizationID, roles)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to query organization memberships")
	}
	defer rows.Close()

	return scanMembers(rows)
}

// MemberOf returns the user's active membership in the organization, or nil.
func (p *OrgMembershipProvider) MemberOf(ctx context.Context, organizationID, userID string) (*Member, error) {
	query := `
		SELECT u.id, u.name, u.email, u.role, u.organization_id, u.is_active,
		       u.created_at, u.updated_at,
		       m.role
		FROM users u
		JOIN organization_memberships m ON m.user_id = u.id
		WHERE m.organization_id = $1
		  AND m.user_id = $2
		  AND m.is_active = TRUE
		  AND u.is_active = TRUE
	`

	m, err := scanMember(p.db.QueryRow(ctx, query, organizationID, userID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to query organization membership")
	}
	return m, nil
}

// ── Legacy representation ─────────────────────────────────────────────────────

// LegacyRoleProvider reads the pre-migration role column on the users table.
// Kept until every organization's memberships are backfilled into the modern
// model.
type LegacyRoleProvider struct {
	db *database.DB
}

// NewLegacyRoleProvider creates a provider over the legacy direct-role model.
func NewLegacyRoleProvider(db *database.DB) *LegacyRoleProvider {
	return &LegacyRoleProvider{db: db}
}

// UsersWithRoles returns active users whose legacy role matches and whose
// legacy home organization is the one requested.
func (p *LegacyRoleProvider) UsersWithRoles(ctx context.Context, organizationID string, roles []string) ([]*Member, error) {
	query := `
		SELECT id, name, email, role, organization_id, is_active,
		       created_at, updated_at,
		       role
		FROM users
		WHERE organization_id = $1
		  AND role = ANY($2)
		  AND is_active = TRUE
		ORDER BY name ASC
	`

	rows, err := p.db.Query(ctx, query, organizationID, roles)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to query legacy user roles")
	}
	defer rows.Close()

	return scanMembers(rows)
}

// MemberOf returns the user as a legacy member of the organization, or nil.
func (p *LegacyRoleProvider) MemberOf(ctx context.Context, organizationID, userID string) (*Member, error) {
	query := `
		SELECT id, name, email, role, organization_id, is_active,
		       created_at, updated_at,
		       COALESCE(role, 'member')
		FROM users
		WHERE organization_id = $1
		  AND id = $2
		  AND is_active = TRUE
	`

	m, err := scanMember(p.db.QueryRow(ctx, query, organizationID, userID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to query legacy membership")
	}
	return m, nil
}

// ── Merged directory ──────────────────────────────────────────────────────────

// MembershipRepository merges the two membership representations. On a user id
// collision the modern provider wins; super-admin users are excluded entirely.
type MembershipRepository struct {
	providers []RoleMembershipProvider
}

// NewMembershipRepository creates the merged directory over the modern and
// legacy providers, in that priority order.
func NewMembershipRepository(modern *OrgMembershipProvider, legacy *LegacyRoleProvider) *MembershipRepository {
	return &MembershipRepository{providers: []RoleMembershipProvider{modern, legacy}}
}

// NewMembershipRepositoryFromProviders wires arbitrary providers in priority
// order. Used by tests with synthetic fixtures for both representations.
func NewMembershipRepositoryFromProviders(providers ...RoleMembershipProvider) *MembershipRepository {
	return &MembershipRepository{providers: providers}
}

// UsersWithRoles returns the deduplicated union of both representations,
// higher-priority providers first.
func (r *MembershipRepository) UsersWithRoles(ctx context.Context, organizationID string, roles []string) ([]*Member, error) {
	seen := make(map[string]struct{})
	var merged []*Member

	for _, p := range r.providers {
		members, err := p.UsersWithRoles(ctx, organizationID, roles)
		if err != nil {
			return nil, err
		}
		for _, m := range members {
			if _, ok := seen[m.User.ID]; ok {
				continue
			}
			if m.User.IsSuperAdmin() || m.Role == RoleSuperAdmin {
				continue
			}
			seen[m.User.ID] = struct{}{}
			merged = append(merged, m)
		}
	}
	return merged, nil
}

// GetMember returns the user's active membership in the organization from the
// first representation that knows it, or nil when none does.
func (r *MembershipRepository) GetMember(ctx context.Context, organizationID, userID string) (*Member, error) {
	for _, p := range r.providers {
		m, err := p.MemberOf(ctx, organizationID, userID)
		if err != nil {
			return nil, err
		}
		if m != nil {
			return m, nil
		}
	}
	return nil, nil
}

// ── scan helpers ──────────────────────────────────────────────────────────────

type memberScanner interface {
	Scan(dest ...any) error
}

func scanMember(sc memberScanner) (*Member, error) {
	m := &Member{}
	err := sc.Scan(
		&m.User.ID,
		&m.User.Name,
		&m.User.Email,
		&m.User.Role,
		&m.User.OrganizationID,
		&m.User.IsActive,
		&m.User.CreatedAt,
		&m.User.UpdatedAt,
		&m.Role,
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func scanMembers(rows pgx.Rows) ([]*Member, error) {
	var members []*Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to scan member")
		}
		members = append(members, m)
	}
	return members, nil
}
