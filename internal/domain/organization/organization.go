// Package organization defines the Organization aggregate: the workspace-wide
// ledger owning a set of channels and the monthly budget rollup.
package organization

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/Huzai911/workspaced/internal/domain"
	"github.com/Huzai911/workspaced/internal/domain/channel"
	"github.com/Huzai911/workspaced/internal/domain/suggestion"
	"github.com/Huzai911/workspaced/internal/domain/task"
)

// Organization is the root of the workspace ledger. TotalSpent always equals
// the sum of channel spend; TotalRemaining always equals
// MonthlyBudget - TotalSpent. Every task mutation goes through this aggregate
// so channel and organization totals move in the same state update.
type Organization struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Description    string            `json:"description"`
	OwnerID        string            `json:"ownerId"`
	Channels       []channel.Channel `json:"channels"`
	MonthlyBudget  float64           `json:"monthlyBudget"`
	TotalSpent     float64           `json:"totalSpent"`
	TotalRemaining float64           `json:"totalRemaining"`
	CreatedAt      time.Time         `json:"createdAt"`
	LastAccessed   time.Time         `json:"lastAccessed"`
}

// New creates an organization seeded from a set of channel suggestions.
// Suggestions without a budget get an even share of the monthly budget. The
// sum of allocations is advisory: over-allocation relative to MonthlyBudget
// is permitted and only surfaces through Unallocated.
func New(name, description, ownerID string, monthlyBudget float64, suggestions []suggestion.ChannelSuggestion) *Organization {
	now := time.Now().UTC()
	org := &Organization{
		ID:             uuid.NewString(),
		Name:           name,
		Description:    description,
		OwnerID:        ownerID,
		Channels:       []channel.Channel{},
		MonthlyBudget:  monthlyBudget,
		TotalSpent:     0,
		TotalRemaining: monthlyBudget,
		CreatedAt:      now,
		LastAccessed:   now,
	}
	var evenShare float64
	if len(suggestions) > 0 {
		evenShare = math.Floor(monthlyBudget / float64(len(suggestions)))
	}
	for _, s := range suggestions {
		if s.EstimatedBudget <= 0 {
			s.EstimatedBudget = evenShare
		}
		org.Channels = append(org.Channels, channel.FromSuggestion(s))
	}
	return org
}

// Channel returns the channel with the given id, or nil.
func (o *Organization) Channel(channelID string) *channel.Channel {
	for i := range o.Channels {
		if o.Channels[i].ID == channelID {
			return &o.Channels[i]
		}
	}
	return nil
}

// ChannelByName returns the channel with the given name, or nil.
func (o *Organization) ChannelByName(name string) *channel.Channel {
	for i := range o.Channels {
		if o.Channels[i].Name == name {
			return &o.Channels[i]
		}
	}
	return nil
}

// FindTaskChannel returns the channel containing taskID in either of its task
// lists. Task ids are unique across the organization, so the first match wins.
func (o *Organization) FindTaskChannel(taskID string) *channel.Channel {
	for i := range o.Channels {
		if o.Channels[i].Task(taskID) != nil {
			return &o.Channels[i]
		}
	}
	return nil
}

// SetMonthlyBudget replaces the monthly budget and recomputes TotalRemaining.
// TotalSpent only ever changes through task completion.
func (o *Organization) SetMonthlyBudget(amount float64) {
	o.MonthlyBudget = amount
	o.TotalRemaining = amount - o.TotalSpent
}

// SetChannelBudget delegates to the channel's SetAllocated. Allocation is
// advisory, so organization totals are untouched.
func (o *Organization) SetChannelBudget(channelID string, amount float64) bool {
	ch := o.Channel(channelID)
	if ch == nil {
		return false
	}
	ch.SetAllocated(amount)
	return true
}

// CreateChannel materializes a suggestion and appends it. The monthly budget
// is not deducted; allocation bookkeeping is not a hard cap.
func (o *Organization) CreateChannel(s suggestion.ChannelSuggestion) *channel.Channel {
	ch := channel.FromSuggestion(s)
	o.Channels = append(o.Channels, ch)
	return &o.Channels[len(o.Channels)-1]
}

// ClaimTask claims an open task anywhere in the organization. Silent no-op
// when the task is missing or not open.
func (o *Organization) ClaimTask(channelID, taskID, claimant string) bool {
	ch := o.Channel(channelID)
	if ch == nil {
		return false
	}
	return ch.Claim(taskID, claimant)
}

// AdvanceTaskStatus writes the caller-supplied status onto the task. When the
// task completes for the first time, the channel spend and the organization
// totals are charged within this single mutation so the rollup can never
// drift from the channel figures.
func (o *Organization) AdvanceTaskStatus(channelID, taskID string, newStatus task.Status) bool {
	ch := o.Channel(channelID)
	if ch == nil {
		return false
	}
	charged, found := ch.AdvanceStatus(taskID, newStatus)
	if !found {
		return false
	}
	if charged != 0 {
		o.TotalSpent += charged
		o.TotalRemaining -= charged
	}
	return true
}

// ApproveProposal promotes a proposed task to an open task. Never touches any
// budget field.
func (o *Organization) ApproveProposal(channelID, taskID string) bool {
	ch := o.Channel(channelID)
	if ch == nil {
		return false
	}
	return ch.ApproveProposal(taskID)
}

// RejectProposal drops a proposed task permanently.
func (o *Organization) RejectProposal(channelID, taskID string) bool {
	ch := o.Channel(channelID)
	if ch == nil {
		return false
	}
	return ch.RejectProposal(taskID)
}

// AddProposals appends proposals to a channel's pending list.
func (o *Organization) AddProposals(channelID string, tasks []task.Task) bool {
	ch := o.Channel(channelID)
	if ch == nil {
		return false
	}
	ch.AddProposals(tasks)
	return true
}

// UpdateTask shallow-merges fields into the task, wherever it lives.
func (o *Organization) UpdateTask(channelID, taskID string, upd task.Update) bool {
	ch := o.Channel(channelID)
	if ch == nil {
		return false
	}
	return ch.UpdateTask(taskID, upd)
}

// Allocated returns the sum of channel allocations.
func (o *Organization) Allocated() float64 {
	var sum float64
	for i := range o.Channels {
		sum += o.Channels[i].BudgetAllocated
	}
	return sum
}

// Unallocated returns the monthly budget minus the sum of allocations. A
// negative value means the workspace is over-allocated; that is surfaced for
// display, not rejected.
func (o *Organization) Unallocated() float64 {
	return o.MonthlyBudget - o.Allocated()
}

// Normalize repairs an organization loaded from untrusted storage and
// recomputes both rollup figures from the channel spend.
func (o *Organization) Normalize() {
	if o.Channels == nil {
		o.Channels = []channel.Channel{}
	}
	var spent float64
	for i := range o.Channels {
		o.Channels[i].Normalize()
		spent += o.Channels[i].BudgetSpent
	}
	o.TotalSpent = spent
	o.TotalRemaining = o.MonthlyBudget - spent
}

// CheckInvariants verifies the two rollup invariants. It is used by tests and
// defensive assertions; a healthy ledger always passes.
func (o *Organization) CheckInvariants() error {
	var spent float64
	for i := range o.Channels {
		ch := &o.Channels[i]
		if diff := ch.BudgetRemaining - (ch.BudgetAllocated - ch.BudgetSpent); math.Abs(diff) > 1e-9 {
			return fmt.Errorf("%w: channel %s budget triple inconsistent", domain.ErrValidation, ch.ID)
		}
		spent += ch.BudgetSpent
	}
	if math.Abs(o.TotalSpent-spent) > 1e-9 {
		return fmt.Errorf("%w: totalSpent %v != channel spend sum %v", domain.ErrValidation, o.TotalSpent, spent)
	}
	if math.Abs(o.TotalRemaining-(o.MonthlyBudget-o.TotalSpent)) > 1e-9 {
		return fmt.Errorf("%w: totalRemaining inconsistent with monthlyBudget", domain.ErrValidation)
	}
	return nil
}
