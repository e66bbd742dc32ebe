// Package task defines the Task domain entity.
package task

import "time"

// Status represents the current state of a task.
type Status string

const (
	StatusProposed   Status = "proposed"
	StatusOpen       Status = "open"
	StatusClaimed    Status = "claimed"
	StatusInProgress Status = "in-progress"
	StatusSubmitted  Status = "submitted"
	StatusCompleted  Status = "completed"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusProposed, StatusOpen, StatusClaimed, StatusInProgress, StatusSubmitted, StatusCompleted:
		return true
	}
	return false
}

// Task represents a unit of work inside a channel. A task charges its
// EstimatedPay to the channel budget exactly once, the first time its status
// reaches completed.
type Task struct {
	ID            string     `json:"id"`
	ChannelID     string     `json:"channelId"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	UserNotes     string     `json:"userNotes,omitempty"`
	EstimatedPay  float64    `json:"estimatedPay"`
	EstimatedTime string     `json:"estimatedTime"`
	Status        Status     `json:"status"`
	ClaimedBy     string     `json:"claimedBy,omitempty"`
	Deadline      *time.Time `json:"deadline,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
	IsProposed    bool       `json:"isProposed,omitempty"`
}

// Update holds optional fields for a partial task update. Nil fields are
// left untouched.
type Update struct {
	Title         *string    `json:"title,omitempty"`
	Description   *string    `json:"description,omitempty"`
	UserNotes     *string    `json:"userNotes,omitempty"`
	EstimatedPay  *float64   `json:"estimatedPay,omitempty"`
	EstimatedTime *string    `json:"estimatedTime,omitempty"`
	Deadline      *time.Time `json:"deadline,omitempty"`
}

// Apply merges non-nil fields of u into t.
func (u Update) Apply(t *Task) {
	if u.Title != nil {
		t.Title = *u.Title
	}
	if u.Description != nil {
		t.Description = *u.Description
	}
	if u.UserNotes != nil {
		t.UserNotes = *u.UserNotes
	}
	if u.EstimatedPay != nil {
		t.EstimatedPay = *u.EstimatedPay
	}
	if u.EstimatedTime != nil {
		t.EstimatedTime = *u.EstimatedTime
	}
	if u.Deadline != nil {
		t.Deadline = u.Deadline
	}
}
