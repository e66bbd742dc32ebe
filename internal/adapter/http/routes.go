package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MountRoutes registers all API routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Route("/api/v1", func(r chi.Router) {
		// Version
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"version":"0.1.0"}`))
		})

		// Organizations
		r.Get("/organizations", h.ListOrganizations)
		r.Post("/organizations", h.CreateOrganization)
		r.Get("/organizations/current", h.CurrentOrganization)
		r.Put("/organizations/current", h.SetCurrentOrganization)
		r.Get("/organizations/{id}", h.GetOrganization)
		r.Delete("/organizations/{id}", h.DeleteOrganization)
		r.Put("/organizations/{id}/budget", h.SetMonthlyBudget)

		// Channels (nested under organizations)
		r.Post("/organizations/{id}/channels", h.CreateChannel)
		r.Put("/organizations/{id}/channels/{channelID}/budget", h.SetChannelBudget)
		r.Post("/organizations/{id}/channels/{channelID}/chat", h.SendChatMessage)
		r.Post("/organizations/{id}/channel-suggestions", h.SuggestChannels)

		// Tasks (nested under organizations)
		r.Post("/organizations/{id}/tasks/{taskID}/claim", h.ClaimTask)
		r.Put("/organizations/{id}/tasks/{taskID}/status", h.AdvanceTaskStatus)
		r.Patch("/organizations/{id}/tasks/{taskID}", h.UpdateTask)

		// Proposals (nested under organizations)
		r.Post("/organizations/{id}/proposals/{taskID}/approve", h.ApproveProposal)
		r.Post("/organizations/{id}/proposals/{taskID}/reject", h.RejectProposal)

		// Onboarding
		r.Post("/onboarding/analyze", h.AnalyzeBusiness)
		r.Post("/onboarding/workspace", h.CreateWorkspace)

		// Boosts
		r.Post("/boosts/suggest-targets", h.SuggestBoostTargets)
		r.Post("/boosts", h.PurchaseBoost)
		r.Get("/boosts/{id}", h.GetBoost)
		r.Post("/boosts/{id}/confirm", h.ConfirmBoost)
		r.Get("/organizations/{id}/boosts", h.ListBoosts)

		// Usage accounting
		r.Get("/usage/summary", h.UsageSummary)
		r.Get("/usage/daily", h.UsageDaily)

		// LLM gateway
		r.Get("/llm/health", h.LLMHealth)
	})

	// WebSocket endpoint for real-time ledger events
	r.Get("/ws", h.Hub.HandleWS)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}
