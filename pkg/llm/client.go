// Package llm exposes a provider-neutral chat-completion client. Request and
// response types are owned by this package; the OpenAI and Anthropic SDKs are
// adapted behind the Client interface.
package llm

import (
	"context"
	"encoding/json"
)

// Client defines the chat-completion operations the application uses.
type Client interface {
	CreateChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// ChatRequest is our own request type for CreateChatCompletion.
type ChatRequest struct {
	Model       string
	MaxTokens   int
	Temperature *float64
	Messages    []Message
	Tools       []Tool
}

// Message represents a single conversational message. An assistant message
// may carry pending tool invocations; a tool message answers one of them via
// ToolCallID.
type Message struct {
	Role       string // "system", "user", "assistant" or "tool"
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
}

// Tool describes a function the model may invoke. Parameters is a JSON
// Schema object.
type Tool struct {
	Name        string
	Description string
	Parameters  json.RawMessage
}

// ToolCall is a single function invocation requested by the model.
type ToolCall struct {
	ID        string
	Name      string
	Arguments json.RawMessage
}

// ChatResponse is our own response type from CreateChatCompletion.
type ChatResponse struct {
	Message Message
	Usage   TokenUsage
}

// TokenUsage tracks token consumption for cost attribution.
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
}

// Add accumulates usage from another call.
func (u *TokenUsage) Add(other TokenUsage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
}
