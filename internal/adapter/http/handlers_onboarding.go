package http

import (
	"net/http"

	"github.com/Huzai911/workspaced/internal/domain/suggestion"
)

// AnalyzeBusiness handles POST /api/v1/onboarding/analyze
func (h *Handlers) AnalyzeBusiness(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[struct {
		BusinessDescription string  `json:"businessDescription"`
		MonthlyBudget       float64 `json:"monthlyBudget"`
	}](w, r)
	if !ok {
		return
	}

	analysis, err := h.Onboarding.AnalyzeBusiness(r.Context(), req.BusinessDescription, req.MonthlyBudget)
	if err != nil {
		writeDomainError(w, err, "business analysis failed")
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

// CreateWorkspace handles POST /api/v1/onboarding/workspace
func (h *Handlers) CreateWorkspace(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[struct {
		Name          string                       `json:"name"`
		Description   string                       `json:"description"`
		OwnerID       string                       `json:"ownerId"`
		MonthlyBudget float64                      `json:"monthlyBudget"`
		Analysis      *suggestion.BusinessAnalysis `json:"analysis"`
	}](w, r)
	if !ok {
		return
	}

	org, err := h.Onboarding.CreateWorkspace(r.Context(), req.Name, req.Description, req.OwnerID, req.MonthlyBudget, req.Analysis)
	if err != nil {
		writeDomainError(w, err, "workspace creation failed")
		return
	}
	writeJSON(w, http.StatusCreated, org)
}
