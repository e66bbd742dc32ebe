package http

import (
	"net/http"

	"github.com/Huzai911/workspaced/internal/domain/boost"
)

// SuggestBoostTargets handles POST /api/v1/boosts/suggest-targets
func (h *Handlers) SuggestBoostTargets(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[struct {
		OrganizationID    string   `json:"organizationId"`
		ChannelID         string   `json:"channelId"`
		UserContext       string   `json:"userContext"`
		AvailableChannels []string `json:"availableChannelIds"`
	}](w, r)
	if !ok {
		return
	}
	if !requireField(w, req.OrganizationID, "organizationId") {
		return
	}
	if !requireField(w, req.ChannelID, "channelId") {
		return
	}

	targets, err := h.Boost.SuggestTargets(r.Context(), req.OrganizationID, req.ChannelID, req.UserContext, req.AvailableChannels)
	if err != nil {
		writeDomainError(w, err, "organization not found")
		return
	}
	if targets == nil {
		targets = []boost.TargetSuggestion{}
	}
	writeJSON(w, http.StatusOK, targets)
}

// PurchaseBoost handles POST /api/v1/boosts
func (h *Handlers) PurchaseBoost(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[boost.PurchaseRequest](w, r)
	if !ok {
		return
	}
	if !requireField(w, req.OrganizationID, "organizationId") {
		return
	}
	if !requireField(w, req.ChannelID, "channelId") {
		return
	}

	resp, err := h.Boost.Purchase(r.Context(), req)
	if err != nil {
		writeDomainError(w, err, "organization not found")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetBoost handles GET /api/v1/boosts/{id}
func (h *Handlers) GetBoost(w http.ResponseWriter, r *http.Request) {
	handleGet(h.Boost.Get, "boost not found")(w, r)
}

// ListBoosts handles GET /api/v1/organizations/{id}/boosts
func (h *Handlers) ListBoosts(w http.ResponseWriter, r *http.Request) {
	handleListByParam("id", h.Boost.List, "organization not found")(w, r)
}

// ConfirmBoost handles POST /api/v1/boosts/{id}/confirm
func (h *Handlers) ConfirmBoost(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	req, ok := readJSON[struct {
		SessionID string `json:"sessionId"`
	}](w, r)
	if !ok {
		return
	}

	b, err := h.Boost.Confirm(r.Context(), id, req.SessionID)
	if err != nil {
		writeDomainError(w, err, "boost not found")
		return
	}
	writeJSON(w, http.StatusOK, b)
}
