// Package llm defines the chat-completion collaborator port (interface).
package llm

import "context"

// ChatMessage is one turn in a chat-completion request.
type ChatMessage struct {
	Role    string `json:"role"` // "system", "user", "assistant"
	Content string `json:"content"`
}

// ChatCompletionRequest is the input to a chat-completion call.
type ChatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

// ChatCompletionResponse is the assistant's reply plus token accounting.
// Content may be arbitrary text; callers parsing structured output must
// tolerate malformed JSON and fall back gracefully.
type ChatCompletionResponse struct {
	Content          string `json:"content"`
	Model            string `json:"model"`
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
}

// Client is the port interface for the hosted text-generation service.
type Client interface {
	ChatCompletion(ctx context.Context, req ChatCompletionRequest) (*ChatCompletionResponse, error)
}
