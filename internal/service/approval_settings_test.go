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

func TestDefaultApprovalSettingsCoversAllRequestTypes(t *testing.T) {
	s := DefaultApprovalSettings()

	require.Len(t, s.Workflows, len(repository.RequestTypes))
	for _, rt := range repository.RequestTypes {
		wf, ok := s.Workflows[rt]
		require.True(t, ok, "workflow for %s", rt)
		assert.Equal(t, repository.ModeHierarchy, wf.Mode)
		assert.Equal(t, []repository.Criterion{
			repository.CriterionDirectManager,
			repository.CriterionTeamResponsible,
			repository.CriterionDepartmentResponsible,
			repository.CriterionCostCenterResponsible,
		}, wf.CriteriaOrder)
	}
}

func TestLoadApprovalSettingsFallsBackToDefaults(t *testing.T) {
	log := logger.Nop()
	defaults := DefaultApprovalSettings()

	tests := []struct {
		name string
		raw  string
	}{
		{"empty blob", ""},
		{"malformed json", `{"workflows": `},
		{"workflows missing", `{"version": 1}`},
		{"workflow entry missing", `{"version":1,"workflows":{"pto":{"mode":"hierarchy","criteriaOrder":["direct_manager"],"approverList":[]}}}`},
		{"unknown mode", mutateDefault(t, func(s *repository.ApprovalSettings) {
			wf := s.Workflows[repository.RequestTypePTO]
			wf.Mode = "committee"
			s.Workflows[repository.RequestTypePTO] = wf
		})},
		{"unknown criterion", mutateDefault(t, func(s *repository.ApprovalSettings) {
			wf := s.Workflows[repository.RequestTypePTO]
			wf.CriteriaOrder = []repository.Criterion{"astrology"}
			s.Workflows[repository.RequestTypePTO] = wf
		})},
		{"empty criteria", mutateDefault(t, func(s *repository.ApprovalSettings) {
			wf := s.Workflows[repository.RequestTypeExpense]
			wf.CriteriaOrder = nil
			s.Workflows[repository.RequestTypeExpense] = wf
		})},
		{"duplicate criterion", mutateDefault(t, func(s *repository.ApprovalSettings) {
			wf := s.Workflows[repository.RequestTypeExpense]
			wf.CriteriaOrder = []repository.Criterion{
				repository.CriterionDirectManager,
				repository.CriterionDirectManager,
			}
			s.Workflows[repository.RequestTypeExpense] = wf
		})},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := LoadApprovalSettings([]byte(tc.raw), "org-1", log)
			assert.Equal(t, defaults, got)
		})
	}
}

func TestLoadApprovalSettingsKeepsValidCustomConfig(t *testing.T) {
	s := DefaultApprovalSettings()
	wf := s.Workflows[repository.RequestTypeExpense]
	wf.Mode = repository.ModeList
	wf.ApproverList = []string{"usr-a", "usr-b"}
	s.Workflows[repository.RequestTypeExpense] = wf

	raw, err := json.Marshal(s)
	require.NoError(t, err)

	got := LoadApprovalSettings(raw, "org-1", logger.Nop())
	assert.Equal(t, s, got)
}

func TestApproverListSurvivesModeSwitchRoundTrip(t *testing.T) {
	// Hierarchy mode keeps the configured list so switching back to list
	// mode restores it.
	s := DefaultApprovalSettings()
	wf := s.Workflows[repository.RequestTypePTO]
	wf.Mode = repository.ModeHierarchy
	wf.ApproverList = []string{"usr-a", "usr-b"}
	s.Workflows[repository.RequestTypePTO] = wf

	raw, err := json.Marshal(s)
	require.NoError(t, err)

	got := LoadApprovalSettings(raw, "org-1", logger.Nop())
	assert.Equal(t, []string{"usr-a", "usr-b"}, got.Workflows[repository.RequestTypePTO].ApproverList)
}

func TestSettingsServiceUpdateRejectsInvalid(t *testing.T) {
	orgs := &fakeOrgs{orgs: map[string]*repository.Organization{
		"org-1": {ID: "org-1", Name: "Acme"},
	}}
	svc := NewApprovalSettingsService(orgs, logger.Nop())

	bad := DefaultApprovalSettings()
	wf := bad.Workflows[repository.RequestTypePTO]
	wf.CriteriaOrder = nil
	bad.Workflows[repository.RequestTypePTO] = wf

	err := svc.Update(context.Background(), "org-1", bad)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidInput, errors.Code(err))
	assert.Empty(t, orgs.updated)
}

func TestSettingsServiceUpdatePersistsValid(t *testing.T) {
	orgs := &fakeOrgs{orgs: map[string]*repository.Organization{
		"org-1": {ID: "org-1", Name: "Acme"},
	}}
	svc := NewApprovalSettingsService(orgs, logger.Nop())

	s := DefaultApprovalSettings()
	require.NoError(t, svc.Update(context.Background(), "org-1", s))

	raw, ok := orgs.updated["org-1"]
	require.True(t, ok)

	var persisted repository.ApprovalSettings
	require.NoError(t, json.Unmarshal(raw, &persisted))
	assert.Equal(t, s, persisted)
}

func TestSettingsServiceGetNeverFailsOnCorruptBlob(t *testing.T) {
	orgs := &fakeOrgs{orgs: map[string]*repository.Organization{
		"org-1": {ID: "org-1", Name: "Acme", ApprovalSettings: []byte(`{{{`)},
	}}
	svc := NewApprovalSettingsService(orgs, logger.Nop())

	got, err := svc.GetForOrganization(context.Background(), "org-1")
	require.NoError(t, err)
	assert.Equal(t, DefaultApprovalSettings(), got)
}

func mutateDefault(t *testing.T, mutate func(*repository.ApprovalSettings)) string {
	t.Helper()
	s := DefaultApprovalSettings()
	mutate(&s)
	raw, err := json.Marshal(s)
	require.NoError(t, err)
	return string(raw)
}
