// Package chat defines chat message domain types.
package chat

import (
	"encoding/json"
	"time"
)

// Sender type constants for Message.Type.
const (
	TypeUser  = "user"
	TypeAgent = "agent"
)

// Attachment kinds carried alongside an agent message.
const (
	AttachmentTaskProposals      = "task-proposals"
	AttachmentChannelSuggestions = "channel-suggestions"
)

// Message is a single entry in a channel's chat history.
type Message struct {
	ID           string      `json:"id"`
	SenderID     string      `json:"senderId"`
	SenderName   string      `json:"senderName"`
	SenderAvatar string      `json:"senderAvatar,omitempty"`
	Content      string      `json:"content"`
	Timestamp    time.Time   `json:"timestamp"`
	Type         string      `json:"type"` // "user" or "agent"
	Attachments  *Attachment `json:"attachments,omitempty"`
}

// Attachment carries structured data (proposals or suggestions) attached to
// an agent message.
type Attachment struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}
