package http

import (
	"context"
	"net/http"

	"github.com/Huzai911/workspaced/internal/adapter/litellm"
	"github.com/Huzai911/workspaced/internal/adapter/ws"
	"github.com/Huzai911/workspaced/internal/domain/suggestion"
	"github.com/Huzai911/workspaced/internal/domain/task"
	"github.com/Huzai911/workspaced/internal/service"
)

// Handlers holds the HTTP handler dependencies.
type Handlers struct {
	Workspace  *service.WorkspaceService
	Onboarding *service.OnboardingService
	Chat       *service.ChatService
	Boost      *service.BoostService
	Usage      *service.UsageService
	LiteLLM    *litellm.Client
	Hub        *ws.Hub
}

// appliedResponse reports whether a budget-advisory or task operation found
// its target. Missing targets are a no-op, not an error.
type appliedResponse struct {
	Applied bool `json:"applied"`
}

// ListOrganizations handles GET /api/v1/organizations
func (h *Handlers) ListOrganizations(w http.ResponseWriter, r *http.Request) {
	handleList(h.Workspace.ListOrganizations)(w, r)
}

// GetOrganization handles GET /api/v1/organizations/{id}
func (h *Handlers) GetOrganization(w http.ResponseWriter, r *http.Request) {
	handleGet(h.Workspace.GetOrganization, "organization not found")(w, r)
}

// DeleteOrganization handles DELETE /api/v1/organizations/{id}
func (h *Handlers) DeleteOrganization(w http.ResponseWriter, r *http.Request) {
	handleDelete(h.Workspace.DeleteOrganization, "organization not found")(w, r)
}

// CreateOrganization handles POST /api/v1/organizations
func (h *Handlers) CreateOrganization(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[struct {
		Name          string                         `json:"name"`
		Description   string                         `json:"description"`
		OwnerID       string                         `json:"ownerId"`
		MonthlyBudget float64                        `json:"monthlyBudget"`
		Channels      []suggestion.ChannelSuggestion `json:"channels"`
	}](w, r)
	if !ok {
		return
	}

	org, err := h.Workspace.CreateOrganization(r.Context(), req.Name, req.Description, req.OwnerID, req.MonthlyBudget, req.Channels)
	if err != nil {
		writeDomainError(w, err, "organization creation failed")
		return
	}
	writeJSON(w, http.StatusCreated, org)
}

// CurrentOrganization handles GET /api/v1/organizations/current
func (h *Handlers) CurrentOrganization(w http.ResponseWriter, r *http.Request) {
	org, err := h.Workspace.CurrentOrganization(r.Context())
	if err != nil {
		writeDomainError(w, err, "no current organization")
		return
	}
	writeJSON(w, http.StatusOK, org)
}

// SetCurrentOrganization handles PUT /api/v1/organizations/current
func (h *Handlers) SetCurrentOrganization(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[struct {
		OrganizationID string `json:"organizationId"`
	}](w, r)
	if !ok {
		return
	}
	if !requireField(w, req.OrganizationID, "organizationId") {
		return
	}

	if err := h.Workspace.SetCurrentOrganization(r.Context(), req.OrganizationID); err != nil {
		writeDomainError(w, err, "organization not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetMonthlyBudget handles PUT /api/v1/organizations/{id}/budget
func (h *Handlers) SetMonthlyBudget(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	req, ok := readJSON[struct {
		Amount float64 `json:"amount"`
	}](w, r)
	if !ok {
		return
	}

	org, err := h.Workspace.SetMonthlyBudget(r.Context(), id, req.Amount)
	if err != nil {
		writeDomainError(w, err, "organization not found")
		return
	}
	writeJSON(w, http.StatusOK, org)
}

// CreateChannel handles POST /api/v1/organizations/{id}/channels
func (h *Handlers) CreateChannel(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	sug, ok := readJSON[suggestion.ChannelSuggestion](w, r)
	if !ok {
		return
	}
	if !requireField(w, sug.Name, "name") {
		return
	}

	org, err := h.Workspace.CreateChannel(r.Context(), id, sug)
	if err != nil {
		writeDomainError(w, err, "organization not found")
		return
	}
	writeJSON(w, http.StatusCreated, org)
}

// SetChannelBudget handles PUT /api/v1/organizations/{id}/channels/{channelID}/budget
func (h *Handlers) SetChannelBudget(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	channelID := urlParam(r, "channelID")
	req, ok := readJSON[struct {
		Amount float64 `json:"amount"`
	}](w, r)
	if !ok {
		return
	}

	applied, err := h.Workspace.SetChannelBudget(r.Context(), id, channelID, req.Amount)
	if err != nil {
		writeDomainError(w, err, "organization not found")
		return
	}
	writeJSON(w, http.StatusOK, appliedResponse{Applied: applied})
}

// ClaimTask handles POST /api/v1/organizations/{id}/tasks/{taskID}/claim
func (h *Handlers) ClaimTask(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	taskID := urlParam(r, "taskID")
	req, ok := readJSON[struct {
		ChannelID string `json:"channelId"`
		ClaimedBy string `json:"claimedBy"`
	}](w, r)
	if !ok {
		return
	}
	if !requireField(w, req.ChannelID, "channelId") {
		return
	}

	applied, err := h.Workspace.ClaimTask(r.Context(), id, req.ChannelID, taskID, req.ClaimedBy)
	if err != nil {
		writeDomainError(w, err, "organization not found")
		return
	}
	writeJSON(w, http.StatusOK, appliedResponse{Applied: applied})
}

// AdvanceTaskStatus handles PUT /api/v1/organizations/{id}/tasks/{taskID}/status
func (h *Handlers) AdvanceTaskStatus(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	taskID := urlParam(r, "taskID")
	req, ok := readJSON[struct {
		ChannelID string `json:"channelId"`
		Status    string `json:"status"`
	}](w, r)
	if !ok {
		return
	}
	if !requireField(w, req.ChannelID, "channelId") {
		return
	}

	applied, err := h.Workspace.AdvanceTaskStatus(r.Context(), id, req.ChannelID, taskID, task.Status(req.Status))
	if err != nil {
		writeDomainError(w, err, "organization not found")
		return
	}
	writeJSON(w, http.StatusOK, appliedResponse{Applied: applied})
}

// UpdateTask handles PATCH /api/v1/organizations/{id}/tasks/{taskID}
func (h *Handlers) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	taskID := urlParam(r, "taskID")
	req, ok := readJSON[struct {
		ChannelID string `json:"channelId"`
		task.Update
	}](w, r)
	if !ok {
		return
	}
	if !requireField(w, req.ChannelID, "channelId") {
		return
	}

	applied, err := h.Workspace.UpdateTask(r.Context(), id, req.ChannelID, taskID, req.Update)
	if err != nil {
		writeDomainError(w, err, "organization not found")
		return
	}
	writeJSON(w, http.StatusOK, appliedResponse{Applied: applied})
}

// ApproveProposal handles POST /api/v1/organizations/{id}/proposals/{taskID}/approve
func (h *Handlers) ApproveProposal(w http.ResponseWriter, r *http.Request) {
	h.resolveProposal(w, r, h.Workspace.ApproveProposal)
}

// RejectProposal handles POST /api/v1/organizations/{id}/proposals/{taskID}/reject
func (h *Handlers) RejectProposal(w http.ResponseWriter, r *http.Request) {
	h.resolveProposal(w, r, h.Workspace.RejectProposal)
}

func (h *Handlers) resolveProposal(w http.ResponseWriter, r *http.Request, resolve func(ctx context.Context, orgID, channelID, taskID string) (bool, error)) {
	id := urlParam(r, "id")
	taskID := urlParam(r, "taskID")
	req, ok := readJSON[struct {
		ChannelID string `json:"channelId"`
	}](w, r)
	if !ok {
		return
	}
	if !requireField(w, req.ChannelID, "channelId") {
		return
	}

	applied, err := resolve(r.Context(), id, req.ChannelID, taskID)
	if err != nil {
		writeDomainError(w, err, "organization not found")
		return
	}
	writeJSON(w, http.StatusOK, appliedResponse{Applied: applied})
}
