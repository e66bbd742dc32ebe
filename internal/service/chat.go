package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Huzai911/workspaced/internal/adapter/ws"
	"github.com/Huzai911/workspaced/internal/domain"
	"github.com/Huzai911/workspaced/internal/domain/channel"
	"github.com/Huzai911/workspaced/internal/domain/chat"
	"github.com/Huzai911/workspaced/internal/domain/organization"
	"github.com/Huzai911/workspaced/internal/domain/suggestion"
	"github.com/Huzai911/workspaced/internal/domain/task"
	"github.com/Huzai911/workspaced/internal/port/llm"
)

// fallbackAgentMessage is returned when the model reply cannot be used.
const fallbackAgentMessage = "I'm having trouble processing your request right now. Could you try rephrasing that?"

// Action types an agent reply can carry.
const (
	ActionChat               = "chat"
	ActionTaskProposals      = "task-proposals"
	ActionChannelSuggestions = "channel-suggestions"
	ActionBoth               = "both"
)

// ChatConfig tunes the chat collaborator.
type ChatConfig struct {
	Model         string
	MaxTokens     int
	HistoryWindow int
}

// ChatService runs channel agent conversations: each turn appends the user
// message, asks the model in the agent's persona, and applies any proposals
// the reply carries.
type ChatService struct {
	llm       llm.Client
	workspace *WorkspaceService
	usage     *UsageService
	cfg       ChatConfig
}

// NewChatService creates a ChatService.
func NewChatService(client llm.Client, workspace *WorkspaceService, usage *UsageService, cfg ChatConfig) *ChatService {
	return &ChatService{llm: client, workspace: workspace, usage: usage, cfg: cfg}
}

// agentReply is the JSON envelope the chat prompt asks the model for.
type agentReply struct {
	Message           string                         `json:"message"`
	ActionType        string                         `json:"actionType"`
	ProposedTasks     []proposedTask                 `json:"proposedTasks,omitempty"`
	SuggestedChannels []suggestion.ChannelSuggestion `json:"suggestedChannels,omitempty"`
}

type proposedTask struct {
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	EstimatedPay  float64 `json:"estimatedPay"`
	EstimatedTime string  `json:"estimatedTime"`
}

// ChatResult is the outcome of one chat turn. Both messages are already
// persisted in the channel history; suggested channels are transient and
// only materialize if the caller approves them.
type ChatResult struct {
	UserMessage       chat.Message                   `json:"userMessage"`
	AgentMessage      chat.Message                   `json:"agentMessage"`
	ProposedTasks     []task.Task                    `json:"proposedTasks,omitempty"`
	SuggestedChannels []suggestion.ChannelSuggestion `json:"suggestedChannels,omitempty"`
}

// SendMessage runs one chat turn against a channel's agent. A model failure
// or malformed reply never fails the turn; the agent answers with a fallback
// message instead.
func (s *ChatService) SendMessage(ctx context.Context, orgID, channelID, senderID, senderName, content string) (*ChatResult, error) {
	if content == "" {
		return nil, fmt.Errorf("%w: message content is required", domain.ErrValidation)
	}

	org, err := s.workspace.store.GetOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}
	ch := org.Channel(channelID)
	if ch == nil {
		return nil, fmt.Errorf("%w: channel %s", domain.ErrNotFound, channelID)
	}

	now := time.Now().UTC()
	userMsg := chat.Message{
		ID:         uuid.NewString(),
		SenderID:   senderID,
		SenderName: senderName,
		Content:    content,
		Timestamp:  now,
		Type:       chat.TypeUser,
	}

	reply := s.askAgent(ctx, org, ch, userMsg)

	agentMsg := chat.Message{
		ID:           uuid.NewString(),
		SenderID:     ch.Agent.ID,
		SenderName:   ch.Agent.Name,
		SenderAvatar: ch.Agent.Avatar,
		Content:      reply.Message,
		Timestamp:    time.Now().UTC(),
		Type:         chat.TypeAgent,
	}

	// Stamp proposals with identities before they enter the approval gate.
	proposals := make([]task.Task, 0, len(reply.ProposedTasks))
	for _, p := range reply.ProposedTasks {
		proposals = append(proposals, task.Task{
			ID:            uuid.NewString(),
			ChannelID:     ch.ID,
			Title:         p.Title,
			Description:   p.Description,
			EstimatedPay:  p.EstimatedPay,
			EstimatedTime: p.EstimatedTime,
			Status:        task.StatusProposed,
			CreatedAt:     time.Now().UTC(),
			IsProposed:    true,
		})
	}

	if len(proposals) > 0 {
		if data, err := json.Marshal(proposals); err == nil {
			agentMsg.Attachments = &chat.Attachment{Type: chat.AttachmentTaskProposals, Data: data}
		}
		ch.AddProposals(proposals)
	} else if len(reply.SuggestedChannels) > 0 {
		if data, err := json.Marshal(reply.SuggestedChannels); err == nil {
			agentMsg.Attachments = &chat.Attachment{Type: chat.AttachmentChannelSuggestions, Data: data}
		}
	}

	ch.ChatHistory = append(ch.ChatHistory, userMsg, agentMsg)

	if err := s.workspace.save(ctx, org); err != nil {
		return nil, err
	}

	if len(proposals) > 0 {
		s.workspace.notifyProposalsAdded(ctx, org.ID, ch.ID, len(proposals), "chat")
	}
	s.workspace.broadcastEvent(ctx, ws.EventChatMessage, ws.ChatMessageEvent{
		OrganizationID: org.ID,
		ChannelID:      ch.ID,
		MessageID:      agentMsg.ID,
		Sender:         agentMsg.SenderName,
		Type:           chat.TypeAgent,
	})

	return &ChatResult{
		UserMessage:       userMsg,
		AgentMessage:      agentMsg,
		ProposedTasks:     proposals,
		SuggestedChannels: reply.SuggestedChannels,
	}, nil
}

// askAgent calls the model and parses the structured reply. Any failure
// degrades to a plain-chat fallback.
func (s *ChatService) askAgent(ctx context.Context, org *organization.Organization, ch *channel.Channel, userMsg chat.Message) agentReply {
	messages := make([]llm.ChatMessage, 0, s.cfg.HistoryWindow+2)
	messages = append(messages, llm.ChatMessage{
		Role:    "system",
		Content: buildAgentChatPrompt(ch, org),
	})
	for _, m := range recentHistory(ch.ChatHistory, s.cfg.HistoryWindow) {
		role := "assistant"
		if m.Type == chat.TypeUser {
			role = "user"
		}
		messages = append(messages, llm.ChatMessage{Role: role, Content: m.Content})
	}
	messages = append(messages, llm.ChatMessage{Role: "user", Content: userMsg.Content})

	resp, err := s.llm.ChatCompletion(ctx, llm.ChatCompletionRequest{
		Model:       s.cfg.Model,
		Messages:    messages,
		Temperature: 0.7,
		MaxTokens:   s.cfg.MaxTokens,
	})
	if err != nil {
		slog.Warn("agent chat completion failed", "channel", ch.Name, "error", err)
		return agentReply{Message: fallbackAgentMessage, ActionType: ActionChat}
	}

	s.usage.Track(ctx, resp.PromptTokens, resp.CompletionTokens, resp.Model, "agent-chat")

	var reply agentReply
	if err := json.Unmarshal([]byte(extractJSONObject(resp.Content)), &reply); err != nil || reply.Message == "" {
		slog.Warn("agent reply was not valid JSON", "channel", ch.Name)
		return agentReply{Message: fallbackAgentMessage, ActionType: ActionChat}
	}
	return reply
}

// recentHistory returns the last n messages of a channel's history.
func recentHistory(history []chat.Message, n int) []chat.Message {
	if len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}

// SuggestChannels asks the consultant model for channels addressing a stated
// need. Model failures return an empty list, never an error.
func (s *ChatService) SuggestChannels(ctx context.Context, orgID, need string) ([]suggestion.ChannelSuggestion, error) {
	if need == "" {
		return nil, fmt.Errorf("%w: need description is required", domain.ErrValidation)
	}
	org, err := s.workspace.GetOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}

	resp, err := s.llm.ChatCompletion(ctx, llm.ChatCompletionRequest{
		Model: s.cfg.Model,
		Messages: []llm.ChatMessage{
			{Role: "system", Content: buildChannelNeedPrompt(need, org.Channels, org.TotalRemaining)},
			{Role: "user", Content: "I need: " + need},
		},
		Temperature: 0.7,
		MaxTokens:   s.cfg.MaxTokens,
	})
	if err != nil {
		slog.Warn("channel suggestion completion failed", "error", err)
		return []suggestion.ChannelSuggestion{}, nil
	}

	s.usage.Track(ctx, resp.PromptTokens, resp.CompletionTokens, resp.Model, "channel-suggestions")

	var suggestions []suggestion.ChannelSuggestion
	if err := json.Unmarshal([]byte(extractJSONArray(resp.Content)), &suggestions); err != nil {
		slog.Warn("channel suggestions were not valid JSON")
		return []suggestion.ChannelSuggestion{}, nil
	}
	return suggestions, nil
}
