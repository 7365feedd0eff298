package handler

import (
	"encoding/json"
	"net/http"

	"github.com/kadro-hq/be-hr-approvals/internal/platform/errors"
	"github.com/kadro-hq/be-hr-approvals/internal/platform/logger"
	"github.com/kadro-hq/be-hr-approvals/internal/repository"
	"github.com/kadro-hq/be-hr-approvals/internal/service"
)

// HTTPHandler handles HTTP requests
type HTTPHandler struct {
	resolver *service.ApproverResolutionService
	authz    *service.AuthorizationService
	settings *service.ApprovalSettingsService
	expenses *service.ExpenseService
	log      *logger.Logger
}

// NewHTTPHandler creates a new HTTP handler
func NewHTTPHandler(
	resolver *service.ApproverResolutionService,
	authz *service.AuthorizationService,
	settings *service.ApprovalSettingsService,
	expenses *service.ExpenseService,
	log *logger.Logger,
) *HTTPHandler {
	return &HTTPHandler{
		resolver: resolver,
		authz:    authz,
		settings: settings,
		expenses: expenses,
		log:      log,
	}
}

// ResolveApprovers handles GET /api/v1/approvers/resolve
func (h *HTTPHandler) ResolveApprovers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	employeeID := r.URL.Query().Get("employee_id")
	organizationID := r.URL.Query().Get("organization_id")
	requestType := repository.RequestType(r.URL.Query().Get("request_type"))

	if employeeID == "" || organizationID == "" {
		http.Error(w, "employee_id and organization_id are required", http.StatusBadRequest)
		return
	}
	if !requestType.IsValid() {
		http.Error(w, "invalid request_type", http.StatusBadRequest)
		return
	}

	approvers, err := h.resolver.ResolveApproverUsers(r.Context(), employeeID, organizationID, requestType)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"approvers": approvers})
}

// AuthorizedApprovers handles GET /api/v1/approvers/authorized. The
// organization is derived from the employee record.
func (h *HTTPHandler) AuthorizedApprovers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	employeeID := r.URL.Query().Get("employee_id")
	requestType := repository.RequestType(r.URL.Query().Get("request_type"))

	if employeeID == "" {
		http.Error(w, "employee_id is required", http.StatusBadRequest)
		return
	}
	if !requestType.IsValid() {
		http.Error(w, "invalid request_type", http.StatusBadRequest)
		return
	}

	approvers, err := h.resolver.GetAuthorizedApprovers(r.Context(), employeeID, requestType)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"approvers": approvers})
}

// CanApprove handles GET /api/v1/approvals/can-approve
func (h *HTTPHandler) CanApprove(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID := r.URL.Query().Get("user_id")
	employeeID := r.URL.Query().Get("employee_id")
	requestType := repository.RequestType(r.URL.Query().Get("request_type"))

	if userID == "" || employeeID == "" {
		http.Error(w, "user_id and employee_id are required", http.StatusBadRequest)
		return
	}
	if !requestType.IsValid() {
		http.Error(w, "invalid request_type", http.StatusBadRequest)
		return
	}

	allowed, err := h.authz.CanUserApprove(r.Context(), userID, employeeID, requestType)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]bool{"can_approve": allowed})
}

// HRAccess handles GET /api/v1/approvals/hr-access
func (h *HTTPHandler) HRAccess(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID := r.URL.Query().Get("user_id")
	organizationID := r.URL.Query().Get("organization_id")

	if userID == "" || organizationID == "" {
		http.Error(w, "user_id and organization_id are required", http.StatusBadRequest)
		return
	}

	access, err := h.authz.HasHRApprovalAccess(r.Context(), userID, organizationID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]bool{"hr_access": access})
}

// GetApprovalSettings handles GET /api/v1/approval-settings
func (h *HTTPHandler) GetApprovalSettings(w http.ResponseWriter, r *http.Request) {
	organizationID := r.URL.Query().Get("organization_id")
	if organizationID == "" {
		http.Error(w, "organization_id is required", http.StatusBadRequest)
		return
	}

	settings, err := h.settings.GetForOrganization(r.Context(), organizationID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, settings)
}

// UpdateApprovalSettings handles PUT /api/v1/approval-settings
func (h *HTTPHandler) UpdateApprovalSettings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OrganizationID string                      `json:"organizationId"`
		Settings       repository.ApprovalSettings `json:"settings"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.OrganizationID == "" {
		http.Error(w, "organizationId is required", http.StatusBadRequest)
		return
	}

	if err := h.settings.Update(r.Context(), req.OrganizationID, req.Settings); err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// SubmitExpense handles POST /api/v1/expenses/submit
func (h *HTTPHandler) SubmitExpense(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var expense service.ExpenseContext
	if err := json.NewDecoder(r.Body).Decode(&expense); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	records, err := h.expenses.SubmitForApproval(r.Context(), expense)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]interface{}{"approvals": records})
}

// PendingExpenseApprovals handles GET /api/v1/expenses/pending
func (h *HTTPHandler) PendingExpenseApprovals(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	organizationID := r.URL.Query().Get("organization_id")
	userID := r.URL.Query().Get("user_id")

	if organizationID == "" || userID == "" {
		http.Error(w, "organization_id and user_id are required", http.StatusBadRequest)
		return
	}

	records, err := h.expenses.GetPendingApprovals(r.Context(), organizationID, userID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"approvals": records})
}

// ── response helpers ──────────────────────────────────────────────────────────

func (h *HTTPHandler) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Warn().Err(err).Msg("Failed to encode response body")
	}
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch errors.Code(err) {
	case errors.ErrCodeNotFound:
		status = http.StatusNotFound
	case errors.ErrCodeInvalidInput:
		status = http.StatusBadRequest
	case errors.ErrCodeConflict:
		status = http.StatusConflict
	case errors.ErrCodeUnauthorized:
		status = http.StatusForbidden
	case errors.ErrCodeUnprocessable:
		status = http.StatusUnprocessableEntity
	}

	if status == http.StatusInternalServerError {
		h.log.Error().Err(err).Msg("Request failed")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
