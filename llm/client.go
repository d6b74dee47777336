// Package llm holds the provider-independent chat plumbing shared by the
// native adapters and the evaluation judge: request/response shapes, error
// normalization, retries, and the model catalog.
package llm

import (
	"context"
	"time"
)

// Message is one turn in a conversation.
type Message struct {
	Role       string `json:"role"` // "system", "user", "assistant", "tool"
	Content    string `json:"content"`
	Name       string `json:"name,omitempty"`
	ToolCallID string `json:"tool_call_id,omitempty"` // set on tool result messages

	// ToolCalls carries the calls an assistant message requested, so the
	// conversation can be replayed to the provider.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// Response is a normalized chat completion.
type Response struct {
	Content      string            `json:"content"`
	Role         string            `json:"role,omitempty"`
	Model        string            `json:"model"`
	Provider     Provider          `json:"provider"`
	Usage        *Usage            `json:"usage,omitempty"`
	FinishReason string            `json:"finish_reason,omitempty"` // "stop", "length", "tool_calls"
	ToolCalls    []ToolCall        `json:"tool_calls,omitempty"`
	Meta         map[string]string `json:"meta,omitempty"`
	Latency      time.Duration     `json:"latency,omitempty"`
}

// Usage carries token accounting for one completion.
type Usage struct {
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	TotalTokens  int     `json:"total_tokens"`
	Cost         float64 `json:"cost,omitempty"`
}

// ToolCall is a tool invocation requested by the model.
type ToolCall struct {
	ID       string   `json:"id"`
	Type     string   `json:"type"` // "function"
	Function Function `json:"function"`
}

// Function names the tool and carries its JSON-encoded arguments.
type Function struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Client is the provider-independent chat interface.
type Client interface {
	// Chat sends a conversation and returns the completion.
	Chat(ctx context.Context, req *ChatRequest) (*Response, error)

	// Stream sends a conversation and emits partial responses on output.
	// The channel is closed when the stream ends.
	Stream(ctx context.Context, req *ChatRequest, output chan<- *Response) error

	// Model returns the configured model identifier.
	Model() string

	// Provider returns the provider name.
	Provider() Provider
}

// ChatRequest is a normalized chat completion request.
type ChatRequest struct {
	Messages       []Message       `json:"messages"`
	Model          string          `json:"model,omitempty"` // overrides the client default
	SystemPrompt   string          `json:"system_prompt,omitempty"`
	Temperature    *float64        `json:"temperature,omitempty"`
	MaxTokens      *int            `json:"max_tokens,omitempty"`
	TopP           *float64        `json:"top_p,omitempty"`
	Stop           []string        `json:"stop,omitempty"`
	Tools          []Tool          `json:"tools,omitempty"`
	ToolChoice     any             `json:"tool_choice,omitempty"` // "auto", "none", or a specific tool
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
	User           string          `json:"user,omitempty"`
}

// Tool declares a callable function to the model.
type Tool struct {
	Type     string       `json:"type"` // "function"
	Function ToolFunction `json:"function"`
}

// ToolFunction is a function declaration with a JSON schema for arguments.
type ToolFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// ResponseFormat requests a specific output format from the provider.
type ResponseFormat struct {
	Type string `json:"type"` // "text" or "json_object"
}

// RetryConfig configures retry behavior for transient provider failures.
type RetryConfig struct {
	MaxRetries    int           `json:"max_retries"`
	InitialDelay  time.Duration `json:"initial_delay"`
	MaxDelay      time.Duration `json:"max_delay"`
	BackoffFactor float64       `json:"backoff_factor"`
}

// DefaultRetryConfig returns sensible retry defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:    3,
		InitialDelay:  1 * time.Second,
		MaxDelay:      30 * time.Second,
		BackoffFactor: 2.0,
	}
}
