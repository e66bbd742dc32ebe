package ws

import (
	"context"
	"encoding/json"
	"log/slog"
)

// Event type constants for WebSocket messages.
const (
	EventTaskStatus       = "task.status"
	EventTaskClaimed      = "task.claimed"
	EventProposalsAdded   = "proposals.added"
	EventProposalResolved = "proposals.resolved"
	EventBudgetChanged    = "budget.changed"
	EventChannelCreated   = "channel.created"
	EventChatMessage      = "chat.message"
	EventBoostStatus      = "boost.status"
)

// TaskStatusEvent is broadcast when a task's status changes.
type TaskStatusEvent struct {
	OrganizationID string  `json:"organization_id"`
	ChannelID      string  `json:"channel_id"`
	TaskID         string  `json:"task_id"`
	Status         string  `json:"status"`
	ChannelSpent   float64 `json:"channel_spent"`
	TotalSpent     float64 `json:"total_spent"`
}

// TaskClaimedEvent is broadcast when an open task is claimed.
type TaskClaimedEvent struct {
	OrganizationID string `json:"organization_id"`
	ChannelID      string `json:"channel_id"`
	TaskID         string `json:"task_id"`
	ClaimedBy      string `json:"claimed_by"`
}

// ProposalsEvent is broadcast when proposals are added, approved, or rejected.
type ProposalsEvent struct {
	OrganizationID string `json:"organization_id"`
	ChannelID      string `json:"channel_id"`
	TaskID         string `json:"task_id,omitempty"`
	Count          int    `json:"count,omitempty"`
	Resolution     string `json:"resolution,omitempty"` // "approved" or "rejected"
}

// BudgetChangedEvent is broadcast when an allocation or the monthly budget
// changes.
type BudgetChangedEvent struct {
	OrganizationID string  `json:"organization_id"`
	ChannelID      string  `json:"channel_id,omitempty"`
	Allocated      float64 `json:"allocated"`
	Remaining      float64 `json:"remaining"`
}

// ChatMessageEvent is broadcast when a message lands in a channel's history.
type ChatMessageEvent struct {
	OrganizationID string `json:"organization_id"`
	ChannelID      string `json:"channel_id"`
	MessageID      string `json:"message_id"`
	Sender         string `json:"sender"`
	Type           string `json:"type"`
}

// BoostStatusEvent is broadcast on boost lifecycle transitions.
type BoostStatusEvent struct {
	OrganizationID string `json:"organization_id"`
	BoostID        string `json:"boost_id"`
	Status         string `json:"status"`
	GeneratedTasks int    `json:"generated_tasks,omitempty"`
}

// BroadcastEvent marshals a typed event and broadcasts it.
func (h *Hub) BroadcastEvent(ctx context.Context, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal ws event payload", "type", eventType, "error", err)
		return
	}

	h.Broadcast(ctx, Message{
		Type:    eventType,
		Payload: json.RawMessage(data),
	})
}
