package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kadro-hq/be-hr-approvals/internal/platform/errors"
	"github.com/kadro-hq/be-hr-approvals/internal/platform/logger"
	"github.com/kadro-hq/be-hr-approvals/internal/repository"
)

// defaultCriteriaOrder is the hierarchy cascade applied when an organization
// has no (valid) configuration.
var defaultCriteriaOrder = []repository.Criterion{
	repository.CriterionDirectManager,
	repository.CriterionTeamResponsible,
	repository.CriterionDepartmentResponsible,
	repository.CriterionCostCenterResponsible,
}

// DefaultApprovalSettings returns the hard-coded configuration covering every
// request type.
func DefaultApprovalSettings() repository.ApprovalSettings {
	workflows := make(map[repository.RequestType]repository.ApprovalWorkflowConfig, len(repository.RequestTypes))
	for _, rt := range repository.RequestTypes {
		order := make([]repository.Criterion, len(defaultCriteriaOrder))
		copy(order, defaultCriteriaOrder)
		workflows[rt] = repository.ApprovalWorkflowConfig{
			Mode:          repository.ModeHierarchy,
			CriteriaOrder: order,
			ApproverList:  []string{},
		}
	}
	return repository.ApprovalSettings{Version: 1, Workflows: workflows}
}

// ValidateApprovalSettings checks the whole settings object against the
// expected shape. Validation is all-or-nothing: any structural problem fails
// the object as a whole, there is no partial merge with defaults.
func ValidateApprovalSettings(s *repository.ApprovalSettings) error {
	if s.Workflows == nil {
		return fmt.Errorf("workflows missing")
	}
	for _, rt := range repository.RequestTypes {
		wf, ok := s.Workflows[rt]
		if !ok {
			return fmt.Errorf("workflow for %q missing", rt)
		}
		if wf.Mode != repository.ModeHierarchy && wf.Mode != repository.ModeList {
			return fmt.Errorf("workflow %q: unknown mode %q", rt, wf.Mode)
		}
		if len(wf.CriteriaOrder) == 0 {
			return fmt.Errorf("workflow %q: criteria order is empty", rt)
		}
		seen := make(map[repository.Criterion]struct{}, len(wf.CriteriaOrder))
		for _, c := range wf.CriteriaOrder {
			if !c.IsValid() {
				return fmt.Errorf("workflow %q: unknown criterion %q", rt, c)
			}
			if _, dup := seen[c]; dup {
				return fmt.Errorf("workflow %q: duplicate criterion %q", rt, c)
			}
			seen[c] = struct{}{}
		}
	}
	for rt := range s.Workflows {
		if !rt.IsValid() {
			return fmt.Errorf("unknown request type %q", rt)
		}
	}
	return nil
}

// LoadApprovalSettings parses an organization's raw settings blob, falling
// back to the full default on any structural mismatch. The fallback is
// silent towards the caller: a corrupt settings record must not take the
// approval pipeline down, so the only trace is a logged warning.
func LoadApprovalSettings(raw []byte, organizationID string, log *logger.Logger) repository.ApprovalSettings {
	if len(raw) == 0 {
		return DefaultApprovalSettings()
	}

	var s repository.ApprovalSettings
	if err := json.Unmarshal(raw, &s); err != nil {
		log.Warn().Err(err).
			Str("organization_id", organizationID).
			Msg("Approval settings blob is malformed; using defaults")
		return DefaultApprovalSettings()
	}
	if err := ValidateApprovalSettings(&s); err != nil {
		log.Warn().Err(err).
			Str("organization_id", organizationID).
			Msg("Approval settings failed validation; using defaults")
		return DefaultApprovalSettings()
	}
	return s
}

// OrganizationStore reads and writes organization records.
type OrganizationStore interface {
	GetByID(ctx context.Context, id string) (*repository.Organization, error)
	UpdateApprovalSettings(ctx context.Context, id string, settings []byte) error
}

// ApprovalSettingsService exposes the per-organization workflow configuration.
type ApprovalSettingsService struct {
	organizations OrganizationStore
	log           *logger.Logger
}

// NewApprovalSettingsService creates a new ApprovalSettingsService.
func NewApprovalSettingsService(organizations OrganizationStore, log *logger.Logger) *ApprovalSettingsService {
	return &ApprovalSettingsService{organizations: organizations, log: log}
}

// GetForOrganization returns the organization's normalized settings, never nil
// and never failing on configuration problems.
func (s *ApprovalSettingsService) GetForOrganization(ctx context.Context, organizationID string) (repository.ApprovalSettings, error) {
	org, err := s.organizations.GetByID(ctx, organizationID)
	if err != nil {
		return repository.ApprovalSettings{}, err
	}
	return LoadApprovalSettings(org.ApprovalSettings, org.ID, s.log), nil
}

// Update validates and persists new settings. Unlike the read path, writes
// are strict: invalid settings are rejected so a misconfiguration cannot be
// saved in the first place.
func (s *ApprovalSettingsService) Update(ctx context.Context, organizationID string, settings repository.ApprovalSettings) error {
	if err := ValidateApprovalSettings(&settings); err != nil {
		return errors.InvalidInput("settings", err.Error())
	}

	raw, err := json.Marshal(settings)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to marshal approval settings")
	}
	if err := s.organizations.UpdateApprovalSettings(ctx, organizationID, raw); err != nil {
		return err
	}

	s.log.Info().
		Str("organization_id", organizationID).
		Msg("Approval settings updated")
	return nil
}
