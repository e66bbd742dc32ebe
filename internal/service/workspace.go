package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/Huzai911/workspaced/internal/adapter/otel"
	"github.com/Huzai911/workspaced/internal/adapter/ws"
	"github.com/Huzai911/workspaced/internal/domain"
	"github.com/Huzai911/workspaced/internal/domain/organization"
	"github.com/Huzai911/workspaced/internal/domain/suggestion"
	"github.com/Huzai911/workspaced/internal/domain/task"
	"github.com/Huzai911/workspaced/internal/port/broadcast"
	"github.com/Huzai911/workspaced/internal/port/cache"
	"github.com/Huzai911/workspaced/internal/port/database"
	"github.com/Huzai911/workspaced/internal/port/messagequeue"
)

// WorkspaceService owns all organization ledger operations. Every mutation
// loads the aggregate, applies a domain method, and flushes the whole record
// back through the store; events go out only after the write succeeds.
type WorkspaceService struct {
	store       database.Store
	cache       cache.Cache
	queue       messagequeue.Queue
	broadcaster broadcast.Broadcaster
	metrics     *otel.Metrics
	cacheTTL    time.Duration
}

// NewWorkspaceService creates a WorkspaceService. cache, queue, broadcaster,
// and metrics may be nil; the service degrades to store-only operation.
func NewWorkspaceService(store database.Store, c cache.Cache, q messagequeue.Queue, b broadcast.Broadcaster, m *otel.Metrics, cacheTTL time.Duration) *WorkspaceService {
	return &WorkspaceService{
		store:       store,
		cache:       c,
		queue:       q,
		broadcaster: b,
		metrics:     m,
		cacheTTL:    cacheTTL,
	}
}

// CreateOrganization builds a new organization from approved suggestions and
// persists it as the current workspace.
func (s *WorkspaceService) CreateOrganization(ctx context.Context, name, description, ownerID string, monthlyBudget float64, suggestions []suggestion.ChannelSuggestion) (*organization.Organization, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: organization name is required", domain.ErrValidation)
	}
	if monthlyBudget < 0 {
		return nil, fmt.Errorf("%w: monthly budget must not be negative", domain.ErrValidation)
	}

	org := organization.New(name, description, ownerID, monthlyBudget, suggestions)
	if err := s.save(ctx, org); err != nil {
		return nil, err
	}

	s.publish(ctx, messagequeue.SubjectOrganizationNew, map[string]any{
		"organization_id": org.ID,
		"channels":        len(org.Channels),
		"monthly_budget":  org.MonthlyBudget,
	})
	return org, nil
}

// GetOrganization loads an organization, serving hot reads from cache.
func (s *WorkspaceService) GetOrganization(ctx context.Context, id string) (*organization.Organization, error) {
	if s.cache != nil {
		if data, ok, err := s.cache.Get(ctx, cache.OrganizationKey(id)); err == nil && ok {
			var org organization.Organization
			if err := json.Unmarshal(data, &org); err == nil {
				return &org, nil
			}
			// Corrupt cache entry; fall through to the store.
			_ = s.cache.Delete(ctx, cache.OrganizationKey(id))
		}
	}

	org, err := s.store.GetOrganization(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, org)
	return org, nil
}

// ListOrganizations returns all organizations, most recently accessed first.
func (s *WorkspaceService) ListOrganizations(ctx context.Context) ([]organization.Organization, error) {
	return s.store.ListOrganizations(ctx)
}

// DeleteOrganization removes the organization and evicts it from cache.
func (s *WorkspaceService) DeleteOrganization(ctx context.Context, id string) error {
	if err := s.store.DeleteOrganization(ctx, id); err != nil {
		return err
	}
	if s.cache != nil {
		_ = s.cache.Delete(ctx, cache.OrganizationKey(id))
	}
	return nil
}

// CurrentOrganization returns the workspace the current pointer names, or
// ErrNotFound when no pointer is set.
func (s *WorkspaceService) CurrentOrganization(ctx context.Context) (*organization.Organization, error) {
	id, err := s.store.CurrentOrganizationID(ctx)
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, fmt.Errorf("%w: no current organization", domain.ErrNotFound)
	}
	return s.GetOrganization(ctx, id)
}

// SetCurrentOrganization switches the current workspace pointer.
func (s *WorkspaceService) SetCurrentOrganization(ctx context.Context, id string) error {
	return s.store.SetCurrentOrganization(ctx, id)
}

// SetMonthlyBudget replaces the organization's monthly budget.
func (s *WorkspaceService) SetMonthlyBudget(ctx context.Context, orgID string, amount float64) (*organization.Organization, error) {
	if amount < 0 {
		return nil, fmt.Errorf("%w: monthly budget must not be negative", domain.ErrValidation)
	}
	org, err := s.store.GetOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}
	org.SetMonthlyBudget(amount)
	if err := s.save(ctx, org); err != nil {
		return nil, err
	}

	s.publishBudgetChanged(ctx, org.ID, "", org.MonthlyBudget, org.TotalRemaining)
	return org, nil
}

// SetChannelBudget replaces a channel's allocation. Allocation is advisory,
// so organization totals are untouched.
func (s *WorkspaceService) SetChannelBudget(ctx context.Context, orgID, channelID string, amount float64) (bool, error) {
	if amount < 0 {
		return false, fmt.Errorf("%w: allocation must not be negative", domain.ErrValidation)
	}
	org, err := s.store.GetOrganization(ctx, orgID)
	if err != nil {
		return false, err
	}
	if !org.SetChannelBudget(channelID, amount) {
		return false, nil
	}
	if err := s.save(ctx, org); err != nil {
		return false, err
	}

	ch := org.Channel(channelID)
	s.publishBudgetChanged(ctx, org.ID, channelID, ch.BudgetAllocated, ch.BudgetRemaining)
	return true, nil
}

// CreateChannel materializes a suggestion into a new channel.
func (s *WorkspaceService) CreateChannel(ctx context.Context, orgID string, sug suggestion.ChannelSuggestion) (*organization.Organization, error) {
	if sug.Name == "" {
		return nil, fmt.Errorf("%w: channel name is required", domain.ErrValidation)
	}
	org, err := s.store.GetOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}
	ch := org.CreateChannel(sug)
	if err := s.save(ctx, org); err != nil {
		return nil, err
	}

	s.publish(ctx, messagequeue.SubjectChannelCreated, map[string]any{
		"organization_id": org.ID,
		"channel_id":      ch.ID,
		"name":            ch.Name,
	})
	s.broadcastEvent(ctx, ws.EventChannelCreated, ws.BudgetChangedEvent{
		OrganizationID: org.ID,
		ChannelID:      ch.ID,
		Allocated:      ch.BudgetAllocated,
		Remaining:      ch.BudgetRemaining,
	})
	return org, nil
}

// ClaimTask claims an open task. A missing or non-open task is a silent
// no-op reported through the bool, never an error.
func (s *WorkspaceService) ClaimTask(ctx context.Context, orgID, channelID, taskID, claimant string) (bool, error) {
	org, err := s.store.GetOrganization(ctx, orgID)
	if err != nil {
		return false, err
	}
	if !org.ClaimTask(channelID, taskID, claimant) {
		return false, nil
	}
	if err := s.save(ctx, org); err != nil {
		return false, err
	}

	s.publish(ctx, messagequeue.SubjectTaskClaimed, messagequeue.TaskClaimedPayload{
		OrganizationID: org.ID,
		ChannelID:      channelID,
		TaskID:         taskID,
		ClaimedBy:      claimant,
	})
	s.broadcastEvent(ctx, ws.EventTaskClaimed, ws.TaskClaimedEvent{
		OrganizationID: org.ID,
		ChannelID:      channelID,
		TaskID:         taskID,
		ClaimedBy:      claimant,
	})
	if s.metrics != nil {
		s.metrics.TasksClaimed.Add(ctx, 1)
	}
	return true, nil
}

// AdvanceTaskStatus writes the requested status onto the task. The first
// transition into completed charges the task's pay to the channel and the
// organization rollup in the same persisted update.
func (s *WorkspaceService) AdvanceTaskStatus(ctx context.Context, orgID, channelID, taskID string, newStatus task.Status) (bool, error) {
	if !newStatus.Valid() {
		return false, fmt.Errorf("%w: unknown task status %q", domain.ErrValidation, newStatus)
	}
	org, err := s.store.GetOrganization(ctx, orgID)
	if err != nil {
		return false, err
	}

	spentBefore := org.TotalSpent
	if !org.AdvanceTaskStatus(channelID, taskID, newStatus) {
		return false, nil
	}
	if err := s.save(ctx, org); err != nil {
		return false, err
	}

	ch := org.Channel(channelID)
	charged := org.TotalSpent - spentBefore
	if charged != 0 {
		s.publish(ctx, messagequeue.SubjectTaskCompleted, messagequeue.TaskCompletedPayload{
			OrganizationID: org.ID,
			ChannelID:      channelID,
			TaskID:         taskID,
			EstimatedPay:   charged,
			ChannelSpent:   ch.BudgetSpent,
			TotalSpent:     org.TotalSpent,
		})
		if s.metrics != nil {
			s.metrics.TasksCompleted.Add(ctx, 1)
			s.metrics.TaskSpend.Record(ctx, charged, metric.WithAttributes(
				attribute.String("channel", ch.Name),
			))
		}
	}
	s.broadcastEvent(ctx, ws.EventTaskStatus, ws.TaskStatusEvent{
		OrganizationID: org.ID,
		ChannelID:      channelID,
		TaskID:         taskID,
		Status:         string(newStatus),
		ChannelSpent:   ch.BudgetSpent,
		TotalSpent:     org.TotalSpent,
	})
	return true, nil
}

// UpdateTask shallow-merges fields into the task.
func (s *WorkspaceService) UpdateTask(ctx context.Context, orgID, channelID, taskID string, upd task.Update) (bool, error) {
	org, err := s.store.GetOrganization(ctx, orgID)
	if err != nil {
		return false, err
	}
	if !org.UpdateTask(channelID, taskID, upd) {
		return false, nil
	}
	if err := s.save(ctx, org); err != nil {
		return false, err
	}
	return true, nil
}

// AddProposals appends proposed tasks to a channel's pending list. Proposals
// never touch any budget figure.
func (s *WorkspaceService) AddProposals(ctx context.Context, orgID, channelID string, tasks []task.Task, source string) (bool, error) {
	if len(tasks) == 0 {
		return false, nil
	}
	org, err := s.store.GetOrganization(ctx, orgID)
	if err != nil {
		return false, err
	}
	if !org.AddProposals(channelID, tasks) {
		return false, nil
	}
	if err := s.save(ctx, org); err != nil {
		return false, err
	}

	s.notifyProposalsAdded(ctx, org.ID, channelID, len(tasks), source)
	return true, nil
}

// ApproveProposal promotes a proposed task to an open task.
func (s *WorkspaceService) ApproveProposal(ctx context.Context, orgID, channelID, taskID string) (bool, error) {
	return s.resolveProposal(ctx, orgID, channelID, taskID, "approved")
}

// RejectProposal drops a proposed task permanently.
func (s *WorkspaceService) RejectProposal(ctx context.Context, orgID, channelID, taskID string) (bool, error) {
	return s.resolveProposal(ctx, orgID, channelID, taskID, "rejected")
}

func (s *WorkspaceService) resolveProposal(ctx context.Context, orgID, channelID, taskID, resolution string) (bool, error) {
	org, err := s.store.GetOrganization(ctx, orgID)
	if err != nil {
		return false, err
	}

	var done bool
	if resolution == "approved" {
		done = org.ApproveProposal(channelID, taskID)
	} else {
		done = org.RejectProposal(channelID, taskID)
	}
	if !done {
		return false, nil
	}
	if err := s.save(ctx, org); err != nil {
		return false, err
	}

	s.broadcastEvent(ctx, ws.EventProposalResolved, ws.ProposalsEvent{
		OrganizationID: org.ID,
		ChannelID:      channelID,
		TaskID:         taskID,
		Resolution:     resolution,
	})
	return true, nil
}

// notifyProposalsAdded emits the queue and websocket events for new proposals.
func (s *WorkspaceService) notifyProposalsAdded(ctx context.Context, orgID, channelID string, count int, source string) {
	s.publish(ctx, messagequeue.SubjectProposalsAdded, messagequeue.ProposalsAddedPayload{
		OrganizationID: orgID,
		ChannelID:      channelID,
		Count:          count,
		Source:         source,
	})
	s.broadcastEvent(ctx, ws.EventProposalsAdded, ws.ProposalsEvent{
		OrganizationID: orgID,
		ChannelID:      channelID,
		Count:          count,
	})
	if s.metrics != nil {
		s.metrics.ProposalsAdded.Add(ctx, int64(count), metric.WithAttributes(
			attribute.String("source", source),
		))
	}
}

// save persists the aggregate and refreshes the cache entry.
func (s *WorkspaceService) save(ctx context.Context, org *organization.Organization) error {
	if err := s.store.SaveOrganization(ctx, org); err != nil {
		return fmt.Errorf("save organization: %w", err)
	}
	s.cacheSet(ctx, org)
	return nil
}

func (s *WorkspaceService) cacheSet(ctx context.Context, org *organization.Organization) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(org)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cache.OrganizationKey(org.ID), data, s.cacheTTL); err != nil {
		slog.Debug("cache set failed", "org_id", org.ID, "error", err)
	}
}

func (s *WorkspaceService) publish(ctx context.Context, subject string, payload any) {
	if s.queue == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal queue payload", "subject", subject, "error", err)
		return
	}
	if err := s.queue.Publish(ctx, subject, data); err != nil {
		slog.Warn("publish failed", "subject", subject, "error", err)
	}
}

func (s *WorkspaceService) publishBudgetChanged(ctx context.Context, orgID, channelID string, allocated, remaining float64) {
	s.publish(ctx, messagequeue.SubjectBudgetChanged, messagequeue.BudgetChangedPayload{
		OrganizationID: orgID,
		ChannelID:      channelID,
		Allocated:      allocated,
		Remaining:      remaining,
	})
	s.broadcastEvent(ctx, ws.EventBudgetChanged, ws.BudgetChangedEvent{
		OrganizationID: orgID,
		ChannelID:      channelID,
		Allocated:      allocated,
		Remaining:      remaining,
	})
}

func (s *WorkspaceService) broadcastEvent(ctx context.Context, eventType string, payload any) {
	if s.broadcaster == nil {
		return
	}
	s.broadcaster.BroadcastEvent(ctx, eventType, payload)
}
