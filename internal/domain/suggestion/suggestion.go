// Package suggestion defines transient channel suggestion types emitted by
// the agent collaborator. Suggestions are not persisted; approval materializes
// them into channels.
package suggestion

import "strings"

// InitialTask is a seed task carried by a channel suggestion. On approval it
// becomes an open task in the new channel.
type InitialTask struct {
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	EstimatedPay  float64 `json:"estimatedPay"`
	EstimatedTime string  `json:"estimatedTime"`
}

// ChannelSuggestion is a proposal for a new channel, including the agent that
// would staff it.
type ChannelSuggestion struct {
	Name             string        `json:"name"`
	Folder           string        `json:"folder"`
	Description      string        `json:"description"`
	AgentName        string        `json:"agentName"`
	AgentPersonality string        `json:"agentPersonality"`
	AgentRole        string        `json:"agentRole"`
	EstimatedBudget  float64       `json:"estimatedBudget"`
	Reasoning        string        `json:"reasoning,omitempty"`
	InitialTasks     []InitialTask `json:"initialTasks"`
}

// BusinessAnalysis is the structured onboarding result: a classification of
// the business plus the channel set to seed the workspace with.
type BusinessAnalysis struct {
	BusinessType      string              `json:"businessType"`
	KeyAreas          []string            `json:"keyAreas"`
	RecommendedBudget float64             `json:"recommendedBudget"`
	SuggestedChannels []ChannelSuggestion `json:"suggestedChannels"`
}

// avatarByTopic maps channel/agent topics to display avatars.
var avatarByTopic = []struct {
	topic  string
	avatar string
}{
	{"marketing", "🎯"},
	{"content", "✍️"},
	{"design", "🎨"},
	{"social", "📱"},
	{"ads", "📢"},
	{"seo", "🔍"},
	{"operations", "⚙️"},
	{"sales", "💼"},
	{"support", "🎧"},
	{"development", "💻"},
	{"research", "🔬"},
	{"analytics", "📊"},
	{"email", "📧"},
	{"finance", "💰"},
	{"community", "👥"},
	{"product", "📦"},
}

// Avatar derives a display avatar from the suggestion's channel and agent
// names. Unknown topics fall back to a generic robot.
func (s ChannelSuggestion) Avatar() string {
	name := strings.ToLower(s.Name)
	agent := strings.ToLower(s.AgentName)
	for _, m := range avatarByTopic {
		if strings.Contains(name, m.topic) || strings.Contains(agent, m.topic) {
			return m.avatar
		}
	}
	return "🤖"
}

// DisplayAgentName returns the suggested agent name, defaulting to a name
// derived from the channel when the collaborator omitted one.
func (s ChannelSuggestion) DisplayAgentName() string {
	if s.AgentName != "" {
		return s.AgentName
	}
	if s.Name == "" {
		return "Agent"
	}
	parts := strings.Split(s.Name, "-")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ") + " Agent"
}
