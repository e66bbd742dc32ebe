package http

import (
	"net/http"
	"strconv"

	"github.com/Huzai911/workspaced/internal/domain/usage"
)

func queryDays(r *http.Request, fallback int) int {
	days := fallback
	if d := r.URL.Query().Get("days"); d != "" {
		if parsed, err := strconv.Atoi(d); err == nil && parsed > 0 {
			days = parsed
		}
	}
	return days
}

// UsageSummary handles GET /api/v1/usage/summary
func (h *Handlers) UsageSummary(w http.ResponseWriter, r *http.Request) {
	days := queryDays(r, 30)
	tokens, cost := h.Usage.Totals(days)
	writeJSON(w, http.StatusOK, map[string]any{
		"days":             days,
		"workspaceTokens":  tokens,
		"totalCost":        cost,
		"currentMonthCost": h.Usage.CurrentMonthCost(),
	})
}

// UsageDaily handles GET /api/v1/usage/daily
func (h *Handlers) UsageDaily(w http.ResponseWriter, r *http.Request) {
	days := queryDays(r, 7)
	daily := h.Usage.DailyUsage(days)
	if daily == nil {
		daily = []usage.Daily{}
	}
	writeJSON(w, http.StatusOK, daily)
}

// LLMHealth handles GET /api/v1/llm/health
func (h *Handlers) LLMHealth(w http.ResponseWriter, r *http.Request) {
	healthy, err := h.LiteLLM.Health(r.Context())
	status := "healthy"
	if !healthy || err != nil {
		status = "unhealthy"
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}
