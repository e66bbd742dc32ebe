// Package usage defines LLM token usage accounting in WorkspaceTokens.
package usage

import (
	"math"
	"time"
)

// One WorkspaceToken covers 50 raw LLM tokens and costs $0.001.
const (
	WorkspaceTokenRatio    = 50
	WorkspaceTokenPriceUSD = 0.001
)

// Record is a single tracked LLM call.
type Record struct {
	PromptTokens     int       `json:"promptTokens"`
	CompletionTokens int       `json:"completionTokens"`
	TotalTokens      int       `json:"totalTokens"`
	WorkspaceTokens  int       `json:"workspaceTokens"`
	CostUSD          float64   `json:"cost"`
	Timestamp        time.Time `json:"timestamp"`
	Model            string    `json:"model"`
	Operation        string    `json:"operation"`
}

// Daily aggregates records by calendar day.
type Daily struct {
	Date            string  `json:"date"`
	TotalTokens     int     `json:"totalTokens"`
	WorkspaceTokens int     `json:"totalWorkspaceTokens"`
	CostUSD         float64 `json:"totalCost"`
	Operations      int     `json:"operations"`
}

// ToWorkspaceTokens converts raw LLM tokens, rounding up so partial tokens
// are still billed.
func ToWorkspaceTokens(llmTokens int) int {
	return int(math.Ceil(float64(llmTokens) / WorkspaceTokenRatio))
}

// NewRecord builds a record from raw token counts, computing the
// workspace-token cost.
func NewRecord(promptTokens, completionTokens int, model, operation string) Record {
	total := promptTokens + completionTokens
	wst := ToWorkspaceTokens(total)
	return Record{
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		TotalTokens:      total,
		WorkspaceTokens:  wst,
		CostUSD:          float64(wst) * WorkspaceTokenPriceUSD,
		Timestamp:        time.Now().UTC(),
		Model:            model,
		Operation:        operation,
	}
}
