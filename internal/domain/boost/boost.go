// Package boost defines the agent boost domain: paid cross-channel
// agent-to-agent conversations that can generate task proposals.
package boost

import (
	"time"

	"github.com/Huzai911/workspaced/internal/domain/chat"
	"github.com/Huzai911/workspaced/internal/domain/task"
)

// Status values for a boost and its conversations.
type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Conversation is one agent-to-agent exchange between the initiator channel
// and a single target channel.
type Conversation struct {
	ID                 string         `json:"id"`
	BoostID            string         `json:"boostId"`
	InitiatorChannelID string         `json:"initiatorChannelId"`
	TargetChannelID    string         `json:"targetChannelId"`
	Messages           []chat.Message `json:"messages"`
	Status             Status         `json:"status"`
	CreatedAt          time.Time      `json:"createdAt"`
	GeneratedTasks     []task.Task    `json:"generatedTasks,omitempty"`
}

// Boost is a purchased cross-channel collaboration session. Payment is
// confirmed before any conversation is generated; generated tasks pass
// through the proposal approval gate like any other suggestion.
type Boost struct {
	ID             string         `json:"id"`
	OrganizationID string         `json:"organizationId"`
	ChannelID      string         `json:"channelId"`
	TargetChannels []string       `json:"targetChannels"`
	Status         Status         `json:"status"`
	CostUSD        float64        `json:"cost"`
	Conversations  []Conversation `json:"conversations"`
	InitiatedAt    time.Time      `json:"initiatedAt"`
	CompletedAt    *time.Time     `json:"completedAt,omitempty"`
	UserPrompt     string         `json:"userPrompt"`
	AutoMode       bool           `json:"autoMode"`
	GeneratedTasks []task.Task    `json:"generatedTasks,omitempty"`
}

// TargetSuggestion ranks a candidate collaboration channel.
type TargetSuggestion struct {
	ChannelID string `json:"channelId"`
	Reasoning string `json:"reasoning"`
	Priority  int    `json:"priority"`
}

// PurchaseRequest starts a boost purchase.
type PurchaseRequest struct {
	OrganizationID string   `json:"organizationId"`
	ChannelID      string   `json:"channelId"`
	TargetChannels []string `json:"targetChannelIds"`
	Prompt         string   `json:"prompt"`
	AutoMode       bool     `json:"autoMode"`
}

// PurchaseResponse reports the outcome of a boost purchase.
type PurchaseResponse struct {
	Success    bool   `json:"success"`
	BoostID    string `json:"boostId,omitempty"`
	PaymentURL string `json:"paymentUrl,omitempty"`
	Error      string `json:"error,omitempty"`
}
