package service

import (
	"context"

	"github.com/kadro-hq/be-hr-approvals/internal/platform/logger"
	"github.com/kadro-hq/be-hr-approvals/internal/repository"
)

// AuthorizationService decides whether a specific user may act on a specific
// request. It is evaluated synchronously at the moment of an approve/reject
// attempt, independent of whatever list populated the UI.
type AuthorizationService struct {
	resolver    *ApproverResolutionService
	directory   DirectoryStore
	memberships MembershipStore
	groups      GroupStore
	orgs        OrganizationStore
	log         *logger.Logger
}

// NewAuthorizationService creates a new AuthorizationService.
func NewAuthorizationService(
	resolver *ApproverResolutionService,
	directory DirectoryStore,
	memberships MembershipStore,
	groups GroupStore,
	orgs OrganizationStore,
	log *logger.Logger,
) *AuthorizationService {
	return &AuthorizationService{
		resolver:    resolver,
		directory:   directory,
		memberships: memberships,
		groups:      groups,
		orgs:        orgs,
		log:         log,
	}
}

// HasHRApprovalAccess reports whether a user holds HR-level approval access
// over an organization: an active local HR membership (either representation),
// or, when the organization's group-HR toggle is on, an HR role in a shared
// active group from a sibling organization.
func (s *AuthorizationService) HasHRApprovalAccess(ctx context.Context, userID, organizationID string) (bool, error) {
	m, err := s.memberships.GetMember(ctx, organizationID, userID)
	if err != nil {
		return false, err
	}
	if m != nil && m.Role == repository.RoleHR && m.User.IsActive && !m.User.IsSuperAdmin() {
		return true, nil
	}

	org, err := s.orgs.GetByID(ctx, organizationID)
	if err != nil {
		return false, err
	}
	if !org.GroupHRApprovalsEnabled {
		return false, nil
	}

	groupIDs, err := s.groups.ActiveGroupsForOrganization(ctx, organizationID)
	if err != nil {
		return false, err
	}
	for _, groupID := range groupIDs {
		users, err := s.groups.GroupHRUsers(ctx, groupID, organizationID)
		if err != nil {
			return false, err
		}
		for _, u := range users {
			if u.ID == userID {
				return true, nil
			}
		}
	}
	return false, nil
}

// CanUserApprove reports whether approverUserID may approve or reject the
// given employee's request. HR users are implicitly authorized for any
// request in their organization; everyone else is authorized only when the
// resolved approver chain actually names them.
func (s *AuthorizationService) CanUserApprove(
	ctx context.Context,
	approverUserID, employeeID string,
	requestType repository.RequestType,
) (bool, error) {
	emp, err := s.directory.GetByID(ctx, employeeID)
	if err != nil {
		return false, err
	}

	hr, err := s.HasHRApprovalAccess(ctx, approverUserID, emp.OrganizationID)
	if err != nil {
		return false, err
	}
	if hr {
		return true, nil
	}

	approvers, err := s.resolver.ResolveApproverUsers(ctx, employeeID, emp.OrganizationID, requestType)
	if err != nil {
		return false, err
	}
	for _, a := range approvers {
		if a.UserID == approverUserID {
			return true, nil
		}
	}
	return false, nil
}
