package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Huzai911/workspaced/internal/adapter/ws"
	"github.com/Huzai911/workspaced/internal/domain"
	"github.com/Huzai911/workspaced/internal/domain/boost"
	"github.com/Huzai911/workspaced/internal/domain/channel"
	"github.com/Huzai911/workspaced/internal/domain/chat"
	"github.com/Huzai911/workspaced/internal/domain/task"
	"github.com/Huzai911/workspaced/internal/port/llm"
	"github.com/Huzai911/workspaced/internal/port/messagequeue"
	"github.com/Huzai911/workspaced/internal/port/payments"
)

// BoostConfig tunes the agent boost collaborator. MaxRounds is the number of
// follow-up questions the initiator appends after the opening exchange.
type BoostConfig struct {
	Model      string
	CostUSD    float64
	MaxTargets int
	MaxRounds  int
}

// BoostService sells and runs cross-channel agent collaborations. A boost is
// paid before any conversation is generated, and every task it produces goes
// through the proposal approval gate like any other suggestion.
type BoostService struct {
	llm       llm.Client
	payments  payments.Provider
	workspace *WorkspaceService
	usage     *UsageService
	cfg       BoostConfig
}

// NewBoostService creates a BoostService.
func NewBoostService(client llm.Client, provider payments.Provider, workspace *WorkspaceService, usage *UsageService, cfg BoostConfig) *BoostService {
	return &BoostService{llm: client, payments: provider, workspace: workspace, usage: usage, cfg: cfg}
}

// SuggestTargets ranks collaboration candidates for the initiating channel.
// allowed, when non-empty, restricts candidates to the given channel ids.
// A model failure degrades to a deterministic ranking of the first channels.
func (s *BoostService) SuggestTargets(ctx context.Context, orgID, channelID, userContext string, allowed []string) ([]boost.TargetSuggestion, error) {
	org, err := s.workspace.GetOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}
	current := org.Channel(channelID)
	if current == nil {
		return nil, fmt.Errorf("%w: channel %s", domain.ErrNotFound, channelID)
	}

	allowedSet := make(map[string]bool, len(allowed))
	for _, id := range allowed {
		allowedSet[id] = true
	}

	var candidates []channel.Channel
	for i := range org.Channels {
		c := &org.Channels[i]
		if c.ID == channelID {
			continue
		}
		if len(allowedSet) > 0 && !allowedSet[c.ID] {
			continue
		}
		candidates = append(candidates, *c)
	}
	if len(candidates) == 0 {
		return []boost.TargetSuggestion{}, nil
	}

	resp, err := s.llm.ChatCompletion(ctx, llm.ChatCompletionRequest{
		Model: s.cfg.Model,
		Messages: []llm.ChatMessage{
			{Role: "system", Content: buildCollaborationPrompt(current, candidates, userContext, s.cfg.MaxTargets)},
			{Role: "user", Content: "Analyze all available channels and recommend the top targets for strategic collaboration based on the evaluation criteria."},
		},
		Temperature: 0.7,
		MaxTokens:   400,
	})
	if err != nil {
		slog.Warn("collaboration suggestions failed, using fallback ranking", "error", err)
		return fallbackTargets(candidates, s.cfg.MaxTargets), nil
	}

	s.usage.Track(ctx, resp.PromptTokens, resp.CompletionTokens, resp.Model, "agent-collaboration-suggestions")

	var suggestions []boost.TargetSuggestion
	if err := json.Unmarshal([]byte(extractJSONArray(resp.Content)), &suggestions); err != nil {
		slog.Warn("collaboration suggestions were not valid JSON")
		return fallbackTargets(candidates, s.cfg.MaxTargets), nil
	}

	// Drop suggestions naming channels that do not exist.
	valid := make(map[string]bool, len(candidates))
	for i := range candidates {
		valid[candidates[i].ID] = true
	}
	filtered := suggestions[:0]
	for _, sug := range suggestions {
		if valid[sug.ChannelID] {
			filtered = append(filtered, sug)
		}
	}
	if len(filtered) > s.cfg.MaxTargets {
		filtered = filtered[:s.cfg.MaxTargets]
	}
	return filtered, nil
}

func fallbackTargets(candidates []channel.Channel, maxTargets int) []boost.TargetSuggestion {
	n := min(maxTargets, len(candidates))
	out := make([]boost.TargetSuggestion, 0, n)
	for i := range n {
		c := &candidates[i]
		out = append(out, boost.TargetSuggestion{
			ChannelID: c.ID,
			Reasoning: fmt.Sprintf("%s has expertise in %s that could complement your work.", c.Agent.Name, c.Description),
			Priority:  i + 1,
		})
	}
	return out
}

// Purchase creates a pending boost and a checkout session for it. The boost
// stays pending until Confirm verifies payment.
func (s *BoostService) Purchase(ctx context.Context, req boost.PurchaseRequest) (*boost.PurchaseResponse, error) {
	if len(req.TargetChannels) == 0 {
		return nil, fmt.Errorf("%w: at least one target channel is required", domain.ErrValidation)
	}
	if len(req.TargetChannels) > s.cfg.MaxTargets {
		return nil, fmt.Errorf("%w: at most %d target channels per boost", domain.ErrValidation, s.cfg.MaxTargets)
	}

	org, err := s.workspace.GetOrganization(ctx, req.OrganizationID)
	if err != nil {
		return nil, err
	}
	if org.Channel(req.ChannelID) == nil {
		return nil, fmt.Errorf("%w: channel %s", domain.ErrNotFound, req.ChannelID)
	}
	for _, id := range req.TargetChannels {
		if org.Channel(id) == nil {
			return nil, fmt.Errorf("%w: target channel %s", domain.ErrNotFound, id)
		}
	}

	b := &boost.Boost{
		ID:             uuid.NewString(),
		OrganizationID: req.OrganizationID,
		ChannelID:      req.ChannelID,
		TargetChannels: req.TargetChannels,
		Status:         boost.StatusPending,
		CostUSD:        s.cfg.CostUSD,
		Conversations:  []boost.Conversation{},
		InitiatedAt:    time.Now().UTC(),
		UserPrompt:     req.Prompt,
		AutoMode:       req.AutoMode,
	}

	// Persist the pending boost before opening a checkout session, so no
	// live session ever references a boost that was never stored.
	if err := s.workspace.store.SaveBoost(ctx, b); err != nil {
		return nil, fmt.Errorf("save boost: %w", err)
	}

	session, err := s.payments.CreateBoostCheckout(ctx, b.ID, b.CostUSD)
	if err != nil {
		slog.Error("boost checkout failed", "boost_id", b.ID, "error", err)
		b.Status = boost.StatusFailed
		if saveErr := s.workspace.store.SaveBoost(ctx, b); saveErr != nil {
			slog.Error("save failed boost", "boost_id", b.ID, "error", saveErr)
		}
		return &boost.PurchaseResponse{Success: false, Error: "failed to process boost purchase"}, nil
	}

	s.workspace.publish(ctx, messagequeue.SubjectBoostPurchased, messagequeue.BoostLifecyclePayload{
		OrganizationID: b.OrganizationID,
		BoostID:        b.ID,
		ChannelID:      b.ChannelID,
		Status:         string(b.Status),
		CostUSD:        b.CostUSD,
	})
	if s.workspace.metrics != nil {
		s.workspace.metrics.BoostsPurchased.Add(ctx, 1)
	}

	return &boost.PurchaseResponse{
		Success:    true,
		BoostID:    b.ID,
		PaymentURL: session.URL,
	}, nil
}

// Confirm verifies payment and, once paid, runs the agent conversations.
// Generated tasks land in each target channel's proposal list.
func (s *BoostService) Confirm(ctx context.Context, boostID, sessionID string) (*boost.Boost, error) {
	b, err := s.workspace.store.GetBoost(ctx, boostID)
	if err != nil {
		return nil, err
	}
	if b.Status != boost.StatusPending {
		return nil, fmt.Errorf("%w: boost %s is %s, not pending", domain.ErrConflict, boostID, b.Status)
	}

	paid, err := s.payments.ConfirmPayment(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("confirm payment: %w", err)
	}
	if !paid {
		return nil, fmt.Errorf("%w: payment not confirmed for boost %s", domain.ErrConflict, boostID)
	}

	b.Status = boost.StatusActive
	if err := s.workspace.store.SaveBoost(ctx, b); err != nil {
		return nil, fmt.Errorf("save boost: %w", err)
	}
	s.broadcastBoost(ctx, b)

	if err := s.runConversations(ctx, b); err != nil {
		b.Status = boost.StatusFailed
		if saveErr := s.workspace.store.SaveBoost(ctx, b); saveErr != nil {
			slog.Error("save failed boost", "boost_id", b.ID, "error", saveErr)
		}
		s.broadcastBoost(ctx, b)
		return nil, err
	}

	now := time.Now().UTC()
	b.Status = boost.StatusCompleted
	b.CompletedAt = &now
	if err := s.workspace.store.SaveBoost(ctx, b); err != nil {
		return nil, fmt.Errorf("save boost: %w", err)
	}

	s.workspace.publish(ctx, messagequeue.SubjectBoostCompleted, messagequeue.BoostLifecyclePayload{
		OrganizationID: b.OrganizationID,
		BoostID:        b.ID,
		ChannelID:      b.ChannelID,
		Status:         string(b.Status),
		CostUSD:        b.CostUSD,
		GeneratedTasks: len(b.GeneratedTasks),
	})
	if s.workspace.metrics != nil {
		s.workspace.metrics.BoostsCompleted.Add(ctx, 1)
	}
	s.broadcastBoost(ctx, b)

	return b, nil
}

// Get returns a boost by id.
func (s *BoostService) Get(ctx context.Context, boostID string) (*boost.Boost, error) {
	return s.workspace.store.GetBoost(ctx, boostID)
}

// List returns all boosts for an organization.
func (s *BoostService) List(ctx context.Context, orgID string) ([]boost.Boost, error) {
	return s.workspace.store.ListBoosts(ctx, orgID)
}

// runConversations fans out one conversation per target channel, then files
// all generated tasks into their channels' proposal lists in one save.
func (s *BoostService) runConversations(ctx context.Context, b *boost.Boost) error {
	org, err := s.workspace.store.GetOrganization(ctx, b.OrganizationID)
	if err != nil {
		return err
	}
	initiator := org.Channel(b.ChannelID)
	if initiator == nil {
		return fmt.Errorf("%w: initiator channel %s", domain.ErrNotFound, b.ChannelID)
	}

	var (
		mu            sync.Mutex
		conversations []boost.Conversation
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, targetID := range b.TargetChannels {
		target := org.Channel(targetID)
		if target == nil {
			slog.Warn("boost target channel missing, skipping", "boost_id", b.ID, "channel_id", targetID)
			continue
		}
		g.Go(func() error {
			conv := s.runConversation(gctx, b, initiator, target)
			mu.Lock()
			conversations = append(conversations, conv)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	b.Conversations = conversations
	b.GeneratedTasks = nil
	for i := range conversations {
		b.GeneratedTasks = append(b.GeneratedTasks, conversations[i].GeneratedTasks...)
	}

	// File proposals per target channel in a single aggregate save.
	byChannel := make(map[string][]task.Task)
	for _, t := range b.GeneratedTasks {
		byChannel[t.ChannelID] = append(byChannel[t.ChannelID], t)
	}
	if len(byChannel) > 0 {
		for channelID, tasks := range byChannel {
			org.AddProposals(channelID, tasks)
		}
		if err := s.workspace.save(ctx, org); err != nil {
			return err
		}
		for channelID, tasks := range byChannel {
			s.workspace.notifyProposalsAdded(ctx, org.ID, channelID, len(tasks), "boost")
		}
	}
	return nil
}

// runConversation generates the full exchange with one target: opening
// outreach, reply, follow-up questions, and optional task proposals.
func (s *BoostService) runConversation(ctx context.Context, b *boost.Boost, initiator, target *channel.Channel) boost.Conversation {
	opening := s.generateMessage(ctx, b, initiator, target, "")
	reply := s.generateMessage(ctx, b, target, initiator, opening.Content)

	messages := []chat.Message{opening, reply}
	messages = append(messages, s.generateFollowUps(ctx, initiator, reply.Content)...)

	generated := s.generateTasks(ctx, target, opening.Content+" "+reply.Content)

	return boost.Conversation{
		ID:                 uuid.NewString(),
		BoostID:            b.ID,
		InitiatorChannelID: initiator.ID,
		TargetChannelID:    target.ID,
		Messages:           messages,
		Status:             boost.StatusCompleted,
		CreatedAt:          time.Now().UTC(),
		GeneratedTasks:     generated,
	}
}

// generateMessage produces one agent-to-agent message. previousMessage is
// empty for the opening message. Failures fall back to a canned greeting so
// a paid boost always yields a conversation.
func (s *BoostService) generateMessage(ctx context.Context, b *boost.Boost, from, to *channel.Channel, previousMessage string) chat.Message {
	kind := "initial"
	if previousMessage != "" {
		kind = "response"
	}

	content := fmt.Sprintf("Hi %s! This is %s from %s. %s How has your department been progressing?",
		to.Agent.Name, from.Agent.Name, from.Name, truncate(b.UserPrompt, 50))

	resp, err := s.llm.ChatCompletion(ctx, llm.ChatCompletionRequest{
		Model: s.cfg.Model,
		Messages: []llm.ChatMessage{
			{Role: "system", Content: buildOutreachPrompt(from, to, b.UserPrompt, previousMessage)},
			{Role: "user", Content: fmt.Sprintf("Write a concise, focused %s message.", kind)},
		},
		Temperature: 0.7,
		MaxTokens:   120,
	})
	if err != nil {
		slog.Warn("boost message generation failed", "boost_id", b.ID, "kind", kind, "error", err)
	} else {
		s.usage.Track(ctx, resp.PromptTokens, resp.CompletionTokens, resp.Model, "agent-boost-"+kind)
		if resp.Content != "" {
			content = resp.Content
		}
	}

	return chat.Message{
		ID:           uuid.NewString(),
		SenderID:     from.Agent.ID,
		SenderName:   from.Agent.Name,
		SenderAvatar: from.Agent.Avatar,
		Content:      content,
		Timestamp:    time.Now().UTC(),
		Type:         chat.TypeAgent,
	}
}

// generateFollowUps asks the initiator for short follow-up questions,
// bounded by MaxRounds. Failures fall back to canned questions.
func (s *BoostService) generateFollowUps(ctx context.Context, initiator *channel.Channel, replyContent string) []chat.Message {
	questions := []string{
		"What's been your biggest challenge recently?",
		"Any tools or strategies you'd recommend?",
		"How could our departments collaborate better?",
	}

	resp, err := s.llm.ChatCompletion(ctx, llm.ChatCompletionRequest{
		Model: s.cfg.Model,
		Messages: []llm.ChatMessage{
			{Role: "system", Content: buildFollowUpPrompt(initiator, replyContent)},
			{Role: "user", Content: "Generate 3 strategic follow-up questions based on their response."},
		},
		Temperature: 0.7,
		MaxTokens:   100,
	})
	if err != nil {
		slog.Warn("boost follow-up generation failed", "error", err)
	} else {
		s.usage.Track(ctx, resp.PromptTokens, resp.CompletionTokens, resp.Model, "agent-boost-followup")
		var parsed []string
		if err := json.Unmarshal([]byte(extractJSONArray(resp.Content)), &parsed); err == nil && len(parsed) > 0 {
			questions = parsed
		}
	}

	if len(questions) > s.cfg.MaxRounds {
		questions = questions[:s.cfg.MaxRounds]
	}
	out := make([]chat.Message, 0, len(questions))
	for _, q := range questions {
		out = append(out, chat.Message{
			ID:           uuid.NewString(),
			SenderID:     initiator.Agent.ID,
			SenderName:   initiator.Agent.Name,
			SenderAvatar: initiator.Agent.Avatar,
			Content:      q,
			Timestamp:    time.Now().UTC(),
			Type:         chat.TypeAgent,
		})
	}
	return out
}

// generateTasks asks the target agent whether the conversation warrants new
// proposals. An empty or unusable reply simply produces no tasks.
func (s *BoostService) generateTasks(ctx context.Context, target *channel.Channel, conversationContent string) []task.Task {
	resp, err := s.llm.ChatCompletion(ctx, llm.ChatCompletionRequest{
		Model: s.cfg.Model,
		Messages: []llm.ChatMessage{
			{Role: "system", Content: buildTaskGenPrompt(target, conversationContent)},
			{Role: "user", Content: "Analyze conversation for potential tasks."},
		},
		Temperature: 0.7,
		MaxTokens:   400,
	})
	if err != nil {
		slog.Warn("boost task generation failed", "channel", target.Name, "error", err)
		return nil
	}

	s.usage.Track(ctx, resp.PromptTokens, resp.CompletionTokens, resp.Model, "conversation-task-generation")

	var drafts []proposedTask
	if err := json.Unmarshal([]byte(extractJSONArray(resp.Content)), &drafts); err != nil {
		return nil
	}

	out := make([]task.Task, 0, len(drafts))
	for _, d := range drafts {
		out = append(out, task.Task{
			ID:            uuid.NewString(),
			ChannelID:     target.ID,
			Title:         d.Title,
			Description:   d.Description,
			EstimatedPay:  d.EstimatedPay,
			EstimatedTime: d.EstimatedTime,
			Status:        task.StatusProposed,
			CreatedAt:     time.Now().UTC(),
			IsProposed:    true,
		})
	}
	return out
}

func (s *BoostService) broadcastBoost(ctx context.Context, b *boost.Boost) {
	s.workspace.broadcastEvent(ctx, ws.EventBoostStatus, ws.BoostStatusEvent{
		OrganizationID: b.OrganizationID,
		BoostID:        b.ID,
		Status:         string(b.Status),
		GeneratedTasks: len(b.GeneratedTasks),
	})
}
