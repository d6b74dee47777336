// Package openai implements llm.Client on top of the OpenAI chat completions
// API. It also serves OpenAI-compatible endpoints via the BaseURL option.
package openai

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/anyagent/anyagent/llm"
)

// Config holds OpenAI-specific configuration.
type Config struct {
	APIKey       string
	Model        string // e.g. "gpt-4o", "gpt-4o-mini"
	BaseURL      string
	Organization string
	Temperature  float64
	MaxTokens    int
	Timeout      time.Duration
	RetryConfig  llm.RetryConfig
}

// Client implements llm.Client for OpenAI.
type Client struct {
	client  *openai.Client
	config  Config
	retrier *llm.Retrier
}

// NewClient creates an OpenAI client.
func NewClient(config Config) (*Client, error) {
	if config.APIKey == "" {
		return nil, errors.New("API key is required")
	}
	if config.Model == "" {
		config.Model = llm.ModelGPT4oMini
	}
	if config.Timeout == 0 {
		config.Timeout = 60 * time.Second
	}
	if config.RetryConfig.MaxRetries == 0 {
		config.RetryConfig = llm.DefaultRetryConfig()
	}

	cc := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		cc.BaseURL = config.BaseURL
	}
	if config.Organization != "" {
		cc.OrgID = config.Organization
	}
	cc.HTTPClient = &http.Client{Timeout: config.Timeout}

	return &Client{
		client:  openai.NewClientWithConfig(cc),
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
	oaiReq := c.buildRequest(req)

	resp, err := c.client.CreateChatCompletion(ctx, oaiReq)
	if err != nil {
		return nil, c.convertError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, llm.NewError(llm.ProviderOpenAI, llm.ErrorTypeUnknown, "no choices returned")
	}

	choice := resp.Choices[0]

	var toolCalls []llm.ToolCall
	for _, tc := range choice.Message.ToolCalls {
		toolCalls = append(toolCalls, llm.ToolCall{
			ID:   tc.ID,
			Type: string(tc.Type),
			Function: llm.Function{
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			},
		})
	}

	var usage *llm.Usage
	if resp.Usage.TotalTokens > 0 {
		model, _ := llm.Lookup(oaiReq.Model)
		usage = &llm.Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
			TotalTokens:  resp.Usage.TotalTokens,
			Cost:         model.EstimateCost(resp.Usage.PromptTokens, resp.Usage.CompletionTokens),
		}
	}

	return &llm.Response{
		Content:      choice.Message.Content,
		Role:         "assistant",
		Model:        oaiReq.Model,
		Provider:     llm.ProviderOpenAI,
		Usage:        usage,
		FinishReason: string(choice.FinishReason),
		ToolCalls:    toolCalls,
		Meta:         map[string]string{"id": resp.ID},
	}, nil
}

// Stream implements llm.Client.
func (c *Client) Stream(ctx context.Context, req *llm.ChatRequest, output chan<- *llm.Response) error {
	defer close(output)

	oaiReq := c.buildRequest(req)
	oaiReq.Stream = true

	stream, err := c.client.CreateChatCompletionStream(ctx, oaiReq)
	if err != nil {
		return c.convertError(err)
	}
	defer stream.Close()

	for {
		chunk, err := stream.Recv()
		if err != nil {
			if strings.Contains(err.Error(), "EOF") || strings.Contains(err.Error(), "stream finished") {
				return nil
			}
			return c.convertError(err)
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		choice := chunk.Choices[0]
		resp := &llm.Response{
			Content:      choice.Delta.Content,
			Role:         "assistant",
			Model:        oaiReq.Model,
			Provider:     llm.ProviderOpenAI,
			FinishReason: string(choice.FinishReason),
			Meta:         map[string]string{"id": chunk.ID, "streaming": "true"},
		}
		select {
		case output <- resp:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *Client) buildRequest(req *llm.ChatRequest) openai.ChatCompletionRequest {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)

	if req.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}

	for _, msg := range req.Messages {
		m := openai.ChatCompletionMessage{Content: msg.Content, Name: msg.Name}
		switch msg.Role {
		case "system":
			m.Role = openai.ChatMessageRoleSystem
		case "assistant":
			m.Role = openai.ChatMessageRoleAssistant
			for _, tc := range msg.ToolCalls {
				m.ToolCalls = append(m.ToolCalls, openai.ToolCall{
					ID:   tc.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      tc.Function.Name,
						Arguments: tc.Function.Arguments,
					},
				})
			}
		case "tool":
			m.Role = openai.ChatMessageRoleTool
			m.ToolCallID = msg.ToolCallID
		default:
			m.Role = openai.ChatMessageRoleUser
		}
		messages = append(messages, m)
	}

	model := c.config.Model
	if req.Model != "" {
		model = req.Model
	}

	oaiReq := openai.ChatCompletionRequest{Model: model, Messages: messages}

	if req.Temperature != nil {
		oaiReq.Temperature = float32(*req.Temperature)
	} else if c.config.Temperature > 0 {
		oaiReq.Temperature = float32(c.config.Temperature)
	}
	if req.MaxTokens != nil {
		oaiReq.MaxTokens = *req.MaxTokens
	} else if c.config.MaxTokens > 0 {
		oaiReq.MaxTokens = c.config.MaxTokens
	}
	if req.TopP != nil {
		oaiReq.TopP = float32(*req.TopP)
	}
	if len(req.Stop) > 0 {
		oaiReq.Stop = req.Stop
	}
	if req.User != "" {
		oaiReq.User = req.User
	}

	if len(req.Tools) > 0 {
		tools := make([]openai.Tool, len(req.Tools))
		for i, tool := range req.Tools {
			tools[i] = openai.Tool{
				Type: openai.ToolTypeFunction,
				Function: &openai.FunctionDefinition{
					Name:        tool.Function.Name,
					Description: tool.Function.Description,
					Parameters:  tool.Function.Parameters,
				},
			}
		}
		oaiReq.Tools = tools
		if req.ToolChoice != nil {
			oaiReq.ToolChoice = req.ToolChoice
		}
	}

	if req.ResponseFormat != nil && req.ResponseFormat.Type == "json_object" {
		oaiReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	return oaiReq
}

func (c *Client) convertError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		e := llm.FromHTTPStatus(llm.ProviderOpenAI, apiErr.HTTPStatusCode, apiErr.Message)
		e.Cause = err
		if code, ok := apiErr.Code.(string); ok {
			e.Code = code
		}
		return e
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return llm.WrapError(llm.ProviderOpenAI, llm.ErrorTypeTimeout, "request timeout", err)
	}
	if errors.Is(err, context.Canceled) {
		return llm.WrapError(llm.ProviderOpenAI, llm.ErrorTypeUnknown, "request canceled", err)
	}
	if strings.Contains(strings.ToLower(err.Error()), "connection") {
		return llm.WrapError(llm.ProviderOpenAI, llm.ErrorTypeConnection, "connection error", err)
	}
	return llm.WrapError(llm.ProviderOpenAI, llm.ErrorTypeUnknown, err.Error(), err)
}

// Model implements llm.Client.
func (c *Client) Model() string { return c.config.Model }

// Provider implements llm.Client.
func (c *Client) Provider() llm.Provider { return llm.ProviderOpenAI }

var _ llm.Client = (*Client)(nil)
