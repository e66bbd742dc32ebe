package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Huzai911/workspaced/internal/domain"
	"github.com/Huzai911/workspaced/internal/domain/organization"
	"github.com/Huzai911/workspaced/internal/domain/suggestion"
	"github.com/Huzai911/workspaced/internal/port/llm"
)

// minAnalysisChannels is the floor below which a business analysis is
// rejected as incomplete. The prompt asks for 12; minor shortfalls pass.
const minAnalysisChannels = 10

// OnboardingConfig tunes the business analysis collaborator.
type OnboardingConfig struct {
	Model     string
	MaxTokens int
}

// OnboardingService turns a business description into a fully staffed
// workspace: a structured analysis first, then an organization seeded from
// the analysis's suggested channels.
type OnboardingService struct {
	llm       llm.Client
	workspace *WorkspaceService
	usage     *UsageService
	cfg       OnboardingConfig
}

// NewOnboardingService creates an OnboardingService.
func NewOnboardingService(client llm.Client, workspace *WorkspaceService, usage *UsageService, cfg OnboardingConfig) *OnboardingService {
	return &OnboardingService{llm: client, workspace: workspace, usage: usage, cfg: cfg}
}

// AnalyzeBusiness asks the model for a channel layout matching the business.
// Unlike chat, an unusable reply here is an error: the caller retries rather
// than seeding a half-built workspace.
func (s *OnboardingService) AnalyzeBusiness(ctx context.Context, businessDescription string, monthlyBudget float64) (*suggestion.BusinessAnalysis, error) {
	if businessDescription == "" {
		return nil, fmt.Errorf("%w: business description is required", domain.ErrValidation)
	}
	if monthlyBudget <= 0 {
		return nil, fmt.Errorf("%w: monthly budget must be positive", domain.ErrValidation)
	}

	resp, err := s.llm.ChatCompletion(ctx, llm.ChatCompletionRequest{
		Model: s.cfg.Model,
		Messages: []llm.ChatMessage{
			{Role: "system", Content: analysisSystemPrompt},
			{Role: "user", Content: buildBusinessAnalysisPrompt(businessDescription, monthlyBudget)},
		},
		Temperature: 0.6,
		MaxTokens:   s.cfg.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("business analysis: %w", err)
	}

	s.usage.Track(ctx, resp.PromptTokens, resp.CompletionTokens, resp.Model, "business-analysis")

	var analysis suggestion.BusinessAnalysis
	if err := json.Unmarshal([]byte(extractJSONObject(resp.Content)), &analysis); err != nil {
		return nil, fmt.Errorf("parse business analysis: %w", err)
	}
	if len(analysis.SuggestedChannels) < minAnalysisChannels {
		return nil, fmt.Errorf("analysis generated only %d channels, expected at least %d",
			len(analysis.SuggestedChannels), minAnalysisChannels)
	}
	return &analysis, nil
}

// CreateWorkspace materializes an analysis into a persisted organization and
// makes it the current workspace.
func (s *OnboardingService) CreateWorkspace(ctx context.Context, name, description, ownerID string, monthlyBudget float64, analysis *suggestion.BusinessAnalysis) (*organization.Organization, error) {
	if analysis == nil {
		return nil, fmt.Errorf("%w: analysis is required", domain.ErrValidation)
	}
	return s.workspace.CreateOrganization(ctx, name, description, ownerID, monthlyBudget, analysis.SuggestedChannels)
}
