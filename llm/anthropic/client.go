// Package anthropic implements llm.Client on top of the Anthropic Messages
// API, including tool use.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/liushuangls/go-anthropic/v2"

	"github.com/anyagent/anyagent/llm"
)

// Config holds Anthropic-specific configuration.
type Config struct {
	APIKey      string
	Model       string // e.g. "claude-3-5-sonnet-20241022"
	BaseURL     string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	RetryConfig llm.RetryConfig
}

// Client implements llm.Client for Anthropic Claude.
type Client struct {
	client  *anthropic.Client
	config  Config
	retrier *llm.Retrier
}

// NewClient creates an Anthropic client.
func NewClient(config Config) (*Client, error) {
	if config.APIKey == "" {
		return nil, errors.New("API key is required")
	}
	if config.Model == "" {
		config.Model = llm.ModelClaude35Haiku
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = 4096
	}
	if config.Timeout == 0 {
		config.Timeout = 60 * time.Second
	}
	if config.RetryConfig.MaxRetries == 0 {
		config.RetryConfig = llm.DefaultRetryConfig()
	}

	opts := []anthropic.ClientOption{
		anthropic.WithHTTPClient(&http.Client{Timeout: config.Timeout}),
	}
	if config.BaseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(config.BaseURL))
	}

	return &Client{
		client:  anthropic.NewClient(config.APIKey, opts...),
		config:  config,
		retrier: llm.NewRetrier(config.RetryConfig),
	}, nil
}

// Chat implements llm.Client.
func (c *Client) Chat(ctx context.Context, req *llm.ChatRequest) (*llm.Response, error) {
	start := time.Now()
	result, err := llm.Do(c.retrier, ctx, func(ctx context.Context, attempt int) (*llm.Response, error) {
		return c.chat(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	result.Latency = time.Since(start)
	return result, nil
}

func (c *Client) chat(ctx context.Context, req *llm.ChatRequest) (*llm.Response, error) {
	anthReq := c.buildRequest(req)

	resp, err := c.client.CreateMessages(ctx, anthReq)
	if err != nil {
		return nil, c.convertError(err)
	}
	if len(resp.Content) == 0 {
		return nil, llm.NewError(llm.ProviderAnthropic, llm.ErrorTypeUnknown, "no content returned")
	}

	var content strings.Builder
	var toolCalls []llm.ToolCall
	for _, block := range resp.Content {
		switch block.Type {
		case anthropic.MessagesContentTypeText:
			if block.Text != nil {
				content.WriteString(*block.Text)
			}
		case anthropic.MessagesContentTypeToolUse:
			if block.MessageContentToolUse != nil {
				toolCalls = append(toolCalls, llm.ToolCall{
					ID:   block.MessageContentToolUse.ID,
					Type: "function",
					Function: llm.Function{
						Name:      block.MessageContentToolUse.Name,
						Arguments: string(block.MessageContentToolUse.Input),
					},
				})
			}
		}
	}

	var usage *llm.Usage
	if resp.Usage.OutputTokens > 0 {
		model, _ := llm.Lookup(string(anthReq.Model))
		usage = &llm.Usage{
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
			TotalTokens:  resp.Usage.InputTokens + resp.Usage.OutputTokens,
			Cost:         model.EstimateCost(resp.Usage.InputTokens, resp.Usage.OutputTokens),
		}
	}

	finishReason := string(resp.StopReason)
	if resp.StopReason == anthropic.MessagesStopReasonToolUse {
		finishReason = "tool_calls"
	}

	return &llm.Response{
		Content:      content.String(),
		Role:         "assistant",
		Model:        string(anthReq.Model),
		Provider:     llm.ProviderAnthropic,
		Usage:        usage,
		FinishReason: finishReason,
		ToolCalls:    toolCalls,
		Meta:         map[string]string{"id": resp.ID},
	}, nil
}

// Stream implements llm.Client.
func (c *Client) Stream(ctx context.Context, req *llm.ChatRequest, output chan<- *llm.Response) error {
	defer close(output)

	anthReq := anthropic.MessagesStreamRequest{
		MessagesRequest: c.buildRequest(req),
		OnContentBlockDelta: func(data anthropic.MessagesEventContentBlockDeltaData) {
			if data.Delta.Text == nil || *data.Delta.Text == "" {
				return
			}
			resp := &llm.Response{
				Content:  *data.Delta.Text,
				Role:     "assistant",
				Model:    c.config.Model,
				Provider: llm.ProviderAnthropic,
				Meta:     map[string]string{"streaming": "true"},
			}
			select {
			case output <- resp:
			case <-ctx.Done():
			}
		},
	}

	if _, err := c.client.CreateMessagesStream(ctx, anthReq); err != nil {
		return c.convertError(err)
	}
	return nil
}

func (c *Client) buildRequest(req *llm.ChatRequest) anthropic.MessagesRequest {
	messages := make([]anthropic.Message, 0, len(req.Messages))
	systemPrompt := req.SystemPrompt

	// Anthropic separates the system prompt from the message list, and tool
	// results travel as user messages with tool_result content blocks.
	for _, msg := range req.Messages {
		switch msg.Role {
		case "system":
			if systemPrompt != "" {
				systemPrompt += "\n\n" + msg.Content
			} else {
				systemPrompt = msg.Content
			}
		case "assistant":
			if len(msg.ToolCalls) == 0 {
				messages = append(messages, anthropic.NewAssistantTextMessage(msg.Content))
				break
			}
			var blocks []anthropic.MessageContent
			if msg.Content != "" {
				blocks = append(blocks, anthropic.NewTextMessageContent(msg.Content))
			}
			for _, tc := range msg.ToolCalls {
				blocks = append(blocks, anthropic.NewToolUseMessageContent(
					tc.ID, tc.Function.Name, json.RawMessage(tc.Function.Arguments)))
			}
			messages = append(messages, anthropic.Message{
				Role:    anthropic.RoleAssistant,
				Content: blocks,
			})
		case "tool":
			messages = append(messages, anthropic.NewToolResultsMessage(msg.ToolCallID, msg.Content, false))
		default:
			messages = append(messages, anthropic.NewUserTextMessage(msg.Content))
		}
	}

	model := c.config.Model
	if req.Model != "" {
		model = req.Model
	}

	anthReq := anthropic.MessagesRequest{
		Model:     anthropic.Model(model),
		Messages:  messages,
		MaxTokens: c.config.MaxTokens,
	}
	if systemPrompt != "" {
		anthReq.System = systemPrompt
	}

	if req.Temperature != nil {
		t := float32(*req.Temperature)
		anthReq.Temperature = &t
	} else if c.config.Temperature > 0 {
		t := float32(c.config.Temperature)
		anthReq.Temperature = &t
	}
	if req.MaxTokens != nil {
		anthReq.MaxTokens = *req.MaxTokens
	}
	if req.TopP != nil {
		p := float32(*req.TopP)
		anthReq.TopP = &p
	}
	if len(req.Stop) > 0 {
		anthReq.StopSequences = req.Stop
	}

	for _, tool := range req.Tools {
		anthReq.Tools = append(anthReq.Tools, anthropic.ToolDefinition{
			Name:        tool.Function.Name,
			Description: tool.Function.Description,
			InputSchema: tool.Function.Parameters,
		})
	}

	return anthReq
}

func (c *Client) convertError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *anthropic.APIError
	if errors.As(err, &apiErr) {
		e := llm.WrapError(llm.ProviderAnthropic, llm.ErrorTypeUnknown, apiErr.Message, err)
		e.Code = string(apiErr.Type)
		switch {
		case apiErr.IsRateLimitErr():
			e.Type = llm.ErrorTypeRateLimit
		case apiErr.IsAuthenticationErr():
			e.Type = llm.ErrorTypeAuthentication
		case apiErr.IsApiErr():
			e.Type = llm.ErrorTypeServerError
		case apiErr.IsInvalidRequestErr():
			e.Type = llm.ErrorTypeInvalidRequest
		}
		return e
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return llm.WrapError(llm.ProviderAnthropic, llm.ErrorTypeTimeout, "request timeout", err)
	}
	if errors.Is(err, context.Canceled) {
		return llm.WrapError(llm.ProviderAnthropic, llm.ErrorTypeUnknown, "request canceled", err)
	}
	if strings.Contains(strings.ToLower(err.Error()), "connection") {
		return llm.WrapError(llm.ProviderAnthropic, llm.ErrorTypeConnection, "connection error", err)
	}
	return llm.WrapError(llm.ProviderAnthropic, llm.ErrorTypeUnknown, err.Error(), err)
}

// Model implements llm.Client.
func (c *Client) Model() string { return c.config.Model }

// Provider implements llm.Client.
func (c *Client) Provider() llm.Provider { return llm.ProviderAnthropic }

var _ llm.Client = (*Client)(nil)
