// Package channel defines the Channel ledger: a department staffed by one
// agent, owning tasks, proposed tasks, chat history, and a budget triple.
package channel

import (
	"time"

	"github.com/google/uuid"

	"github.com/Huzai911/workspaced/internal/domain/chat"
	"github.com/Huzai911/workspaced/internal/domain/suggestion"
	"github.com/Huzai911/workspaced/internal/domain/task"
)

// Agent is the simulated staff member assigned to a channel.
type Agent struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Avatar      string `json:"avatar,omitempty"`
	Personality string `json:"personality"`
	Role        string `json:"role"`
	IsActive    bool   `json:"isActive"`
	Context     string `json:"context,omitempty"`
}

// Channel owns its tasks, proposals, and chat history exclusively. The budget
// triple satisfies BudgetRemaining == BudgetAllocated - BudgetSpent after
// every mutation; remaining may go negative (over budget is advisory, never
// an error).
type Channel struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	Folder          string         `json:"folder"`
	Description     string         `json:"description"`
	UserNotes       string         `json:"userNotes,omitempty"`
	PinnedMessage   string         `json:"pinnedMessage,omitempty"`
	Agent           Agent          `json:"agent"`
	Tasks           []task.Task    `json:"tasks"`
	ProposedTasks   []task.Task    `json:"proposedTasks"`
	ChatHistory     []chat.Message `json:"chatHistory"`
	BudgetAllocated float64        `json:"budgetAllocated"`
	BudgetSpent     float64        `json:"budgetSpent"`
	BudgetRemaining float64        `json:"budgetRemaining"`
}

// FromSuggestion materializes an approved suggestion into a new channel.
// Initial tasks become open tasks; the budget starts unspent with
// BudgetAllocated = EstimatedBudget.
func FromSuggestion(s suggestion.ChannelSuggestion) Channel {
	ch := Channel{
		ID:              uuid.NewString(),
		Name:            s.Name,
		Folder:          s.Folder,
		Description:     s.Description,
		BudgetAllocated: s.EstimatedBudget,
		BudgetSpent:     0,
		BudgetRemaining: s.EstimatedBudget,
		Tasks:           []task.Task{},
		ProposedTasks:   []task.Task{},
		ChatHistory:     []chat.Message{},
	}
	ch.Agent = Agent{
		ID:          uuid.NewString(),
		Name:        s.DisplayAgentName(),
		Avatar:      s.Avatar(),
		Personality: s.AgentPersonality,
		Role:        s.AgentRole,
		IsActive:    true,
	}
	now := time.Now().UTC()
	for _, it := range s.InitialTasks {
		ch.Tasks = append(ch.Tasks, task.Task{
			ID:            uuid.NewString(),
			ChannelID:     ch.ID,
			Title:         it.Title,
			Description:   it.Description,
			EstimatedPay:  it.EstimatedPay,
			EstimatedTime: it.EstimatedTime,
			Status:        task.StatusOpen,
			CreatedAt:     now,
		})
	}
	return ch
}

// SetAllocated replaces the allocation and recomputes remaining. No lower
// bound is enforced; readers must tolerate negative remaining.
func (c *Channel) SetAllocated(amount float64) {
	c.BudgetAllocated = amount
	c.BudgetRemaining = amount - c.BudgetSpent
}

// Claim marks an open task as claimed by claimant. Missing or non-open tasks
// are a silent no-op; callers must not assume existence.
func (c *Channel) Claim(taskID, claimant string) bool {
	t := c.findTask(taskID)
	if t == nil || t.Status != task.StatusOpen {
		return false
	}
	t.Status = task.StatusClaimed
	t.ClaimedBy = claimant
	return true
}

// AdvanceStatus writes newStatus onto the task. The transition itself is not
// validated; the caller drives the legal sequence. The first transition into
// completed charges the task's pay to BudgetSpent and stamps CompletedAt;
// re-completing an already completed task changes nothing financially.
// Returns the amount charged (zero unless this was the first completion).
func (c *Channel) AdvanceStatus(taskID string, newStatus task.Status) (charged float64, found bool) {
	t := c.findTask(taskID)
	if t == nil {
		return 0, false
	}
	wasCompleted := t.Status == task.StatusCompleted
	t.Status = newStatus
	if newStatus == task.StatusCompleted && !wasCompleted {
		now := time.Now().UTC()
		t.CompletedAt = &now
		c.BudgetSpent += t.EstimatedPay
		c.BudgetRemaining -= t.EstimatedPay
		return t.EstimatedPay, true
	}
	return 0, true
}

// ApproveProposal moves a task out of ProposedTasks into Tasks with status
// open. Budgets are untouched; proposals never count as spend.
func (c *Channel) ApproveProposal(taskID string) bool {
	for i := range c.ProposedTasks {
		if c.ProposedTasks[i].ID != taskID {
			continue
		}
		t := c.ProposedTasks[i]
		t.Status = task.StatusOpen
		t.IsProposed = false
		c.ProposedTasks = append(c.ProposedTasks[:i], c.ProposedTasks[i+1:]...)
		c.Tasks = append(c.Tasks, t)
		return true
	}
	return false
}

// RejectProposal removes a task from ProposedTasks permanently.
func (c *Channel) RejectProposal(taskID string) bool {
	for i := range c.ProposedTasks {
		if c.ProposedTasks[i].ID == taskID {
			c.ProposedTasks = append(c.ProposedTasks[:i], c.ProposedTasks[i+1:]...)
			return true
		}
	}
	return false
}

// AddProposals appends tasks to ProposedTasks. Duplicate ids are the caller's
// responsibility.
func (c *Channel) AddProposals(tasks []task.Task) {
	c.ProposedTasks = append(c.ProposedTasks, tasks...)
}

// UpdateTask shallow-merges upd into whichever list holds taskID, searching
// both Tasks and ProposedTasks.
func (c *Channel) UpdateTask(taskID string, upd task.Update) bool {
	if t := c.findTask(taskID); t != nil {
		upd.Apply(t)
		return true
	}
	for i := range c.ProposedTasks {
		if c.ProposedTasks[i].ID == taskID {
			upd.Apply(&c.ProposedTasks[i])
			return true
		}
	}
	return false
}

// Task returns the task with the given id from either list, or nil.
func (c *Channel) Task(taskID string) *task.Task {
	if t := c.findTask(taskID); t != nil {
		return t
	}
	for i := range c.ProposedTasks {
		if c.ProposedTasks[i].ID == taskID {
			return &c.ProposedTasks[i]
		}
	}
	return nil
}

func (c *Channel) findTask(taskID string) *task.Task {
	for i := range c.Tasks {
		if c.Tasks[i].ID == taskID {
			return &c.Tasks[i]
		}
	}
	return nil
}

// OpenTaskCount returns the number of open tasks.
func (c *Channel) OpenTaskCount() int {
	n := 0
	for i := range c.Tasks {
		if c.Tasks[i].Status == task.StatusOpen {
			n++
		}
	}
	return n
}

// ActiveTaskCount returns the number of claimed, in-progress, or submitted tasks.
func (c *Channel) ActiveTaskCount() int {
	n := 0
	for i := range c.Tasks {
		switch c.Tasks[i].Status {
		case task.StatusClaimed, task.StatusInProgress, task.StatusSubmitted:
			n++
		}
	}
	return n
}

// Normalize repairs a channel loaded from untrusted storage: nil collections
// become empty, missing spend defaults to zero, and the remaining figure is
// recomputed from the other two.
func (c *Channel) Normalize() {
	if c.Tasks == nil {
		c.Tasks = []task.Task{}
	}
	if c.ProposedTasks == nil {
		c.ProposedTasks = []task.Task{}
	}
	if c.ChatHistory == nil {
		c.ChatHistory = []chat.Message{}
	}
	if c.BudgetSpent < 0 {
		c.BudgetSpent = 0
	}
	c.BudgetRemaining = c.BudgetAllocated - c.BudgetSpent
	for i := range c.Tasks {
		if c.Tasks[i].ChannelID == "" {
			c.Tasks[i].ChannelID = c.ID
		}
	}
	for i := range c.ProposedTasks {
		if c.ProposedTasks[i].ChannelID == "" {
			c.ProposedTasks[i].ChannelID = c.ID
		}
		c.ProposedTasks[i].IsProposed = true
		c.ProposedTasks[i].Status = task.StatusProposed
	}
}
