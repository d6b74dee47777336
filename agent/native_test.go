package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/anyagent/anyagent/config"
	"github.com/anyagent/anyagent/llm"
	"github.com/anyagent/anyagent/tools"
	"github.com/anyagent/anyagent/tracing"
)

// MockLLMClient replays scripted responses and records requests.
type MockLLMClient struct {
	responses []llm.Response
	calls     []llm.ChatRequest
	err       error
}

func (m *MockLLMClient) Chat(ctx context.Context, req *llm.ChatRequest) (*llm.Response, error) {
	m.calls = append(m.calls, *req)
	if m.err != nil {
		return nil, m.err
	}
	idx := len(m.calls) - 1
	if idx >= len(m.responses) {
		idx = len(m.responses) - 1
	}
	resp := m.responses[idx]
	return &resp, nil
}

func (m *MockLLMClient) Stream(ctx context.Context, req *llm.ChatRequest, output chan<- *llm.Response) error {
	close(output)
	return nil
}

func (m *MockLLMClient) Model() string          { return "mock-model" }
func (m *MockLLMClient) Provider() llm.Provider { return llm.ProviderOpenAI }

func testConfig() config.AgentConfig {
	return config.AgentConfig{
		Name:         "test-agent",
		ModelID:      "mock-model",
		Instructions: "Be helpful.",
		MaxTurns:     5,
	}
}

func toolCallResponse(id, name, args string) llm.Response {
	return llm.Response{
		Role:         "assistant",
		FinishReason: "tool_calls",
		ToolCalls: []llm.ToolCall{{
			ID:       id,
			Type:     "function",
			Function: llm.Function{Name: name, Arguments: args},
		}},
	}
}

func TestNative_DirectAnswer(t *testing.T) {
	client := &MockLLMClient{responses: []llm.Response{
		{Role: "assistant", Content: "Paris", FinishReason: "stop"},
	}}
	a, err := NewNative(NativeConfig{
		Client:    client,
		Config:    testConfig(),
		Framework: "openai",
	})
	if err != nil {
		t.Fatalf("NewNative: %v", err)
	}

	result, err := a.Run(context.Background(), "Capital of France?")
	if err != nil {
		t.Fatalf("Expected success, got: %v", err)
	}

	if result.FinalOutput != "Paris" {
		t.Errorf("Expected Paris, got %s", result.FinalOutput)
	}
	if result.RunID == "" {
		t.Error("Expected a run id")
	}
	if result.Framework != "openai" {
		t.Errorf("Expected framework openai, got %s", result.Framework)
	}
	if len(client.calls) != 1 {
		t.Errorf("Expected 1 model call, got %d", len(client.calls))
	}
	if client.calls[0].SystemPrompt != "Be helpful." {
		t.Errorf("Expected instructions as system prompt, got %q", client.calls[0].SystemPrompt)
	}
}

func TestNative_ToolLoop(t *testing.T) {
	client := &MockLLMClient{responses: []llm.Response{
		toolCallResponse("call-1", "double", `{"input": "21"}`),
		{Role: "assistant", Content: "The answer is 42.", FinishReason: "stop"},
	}}

	tool := &tools.Func{
		ToolName: "double",
		ToolDesc: "doubles a number",
		Fn: func(ctx context.Context, input string) (string, error) {
			return "42", nil
		},
	}

	a, err := NewNative(NativeConfig{
		Client:    client,
		Config:    testConfig(),
		Tools:     []tools.Tool{tool},
		Framework: "openai",
	})
	if err != nil {
		t.Fatalf("NewNative: %v", err)
	}

	result, err := a.Run(context.Background(), "What is 21 doubled?")
	if err != nil {
		t.Fatalf("Expected success, got: %v", err)
	}
	if result.FinalOutput != "The answer is 42." {
		t.Errorf("Expected final answer, got %s", result.FinalOutput)
	}
	if len(client.calls) != 2 {
		t.Fatalf("Expected 2 model calls, got %d", len(client.calls))
	}

	// First call advertises the tool.
	if len(client.calls[0].Tools) != 1 || client.calls[0].Tools[0].Function.Name != "double" {
		t.Error("Expected tool definition in first request")
	}

	// Second call replays the assistant tool call and the tool result.
	msgs := client.calls[1].Messages
	if len(msgs) != 3 {
		t.Fatalf("Expected user + assistant + tool messages, got %d", len(msgs))
	}
	if msgs[1].Role != "assistant" || len(msgs[1].ToolCalls) != 1 {
		t.Error("Expected assistant message carrying the tool call")
	}
	if msgs[2].Role != "tool" || msgs[2].Content != "42" || msgs[2].ToolCallID != "call-1" {
		t.Errorf("Expected tool result message, got %+v", msgs[2])
	}
}

func TestNative_ToolErrorContinues(t *testing.T) {
	client := &MockLLMClient{responses: []llm.Response{
		toolCallResponse("call-1", "flaky", `{}`),
		{Role: "assistant", Content: "I could not use the tool.", FinishReason: "stop"},
	}}

	tool := &tools.Func{
		ToolName: "flaky",
		ToolDesc: "always fails",
		Fn: func(ctx context.Context, input string) (string, error) {
			return "", errors.New("upstream unavailable")
		},
	}

	a, _ := NewNative(NativeConfig{
		Client:    client,
		Config:    testConfig(),
		Tools:     []tools.Tool{tool},
		Framework: "openai",
	})

	result, err := a.Run(context.Background(), "try the tool")
	if err != nil {
		t.Fatalf("Expected tool failure to not abort the run, got: %v", err)
	}
	if result.FinalOutput != "I could not use the tool." {
		t.Errorf("Expected model's recovery answer, got %s", result.FinalOutput)
	}

	msgs := client.calls[1].Messages
	last := msgs[len(msgs)-1]
	if last.Role != "tool" || !strings.Contains(last.Content, "error: ") {
		t.Errorf("Expected error surfaced as tool output, got %+v", last)
	}
}

func TestNative_MaxTurns(t *testing.T) {
	// The model never stops asking for the tool.
	client := &MockLLMClient{responses: []llm.Response{
		toolCallResponse("call-n", "noop", `{}`),
	}}
	tool := &tools.Func{
		ToolName: "noop",
		ToolDesc: "does nothing",
		Fn: func(ctx context.Context, input string) (string, error) {
			return "ok", nil
		},
	}

	cfg := testConfig()
	cfg.MaxTurns = 3
	a, _ := NewNative(NativeConfig{
		Client:    client,
		Config:    cfg,
		Tools:     []tools.Tool{tool},
		Framework: "openai",
	})

	result, err := a.Run(context.Background(), "loop forever")
	if !errors.Is(err, ErrMaxTurns) {
		t.Fatalf("Expected ErrMaxTurns, got: %v", err)
	}
	if result == nil {
		t.Fatal("Expected a partial result alongside ErrMaxTurns")
	}
	if len(client.calls) != 3 {
		t.Errorf("Expected exactly 3 model calls, got %d", len(client.calls))
	}
}

func TestNative_ModelError(t *testing.T) {
	client := &MockLLMClient{err: llm.NewError(llm.ProviderOpenAI, llm.ErrorTypeAuthentication, "bad key")}
	a, _ := NewNative(NativeConfig{Client: client, Config: testConfig(), Framework: "openai"})

	result, err := a.Run(context.Background(), "hello")
	if err == nil {
		t.Fatal("Expected model error to abort the run")
	}
	if !llm.IsAuthentication(err) {
		t.Errorf("Expected provider error preserved in chain, got: %v", err)
	}
	if result == nil || result.RunID == "" {
		t.Fatal("Expected a result with a run id alongside the error")
	}
}

func TestNative_ErrorClaimsTrace(t *testing.T) {
	ctx := context.Background()
	if _, err := tracing.Init(ctx, tracing.Config{ServiceName: "native-test"}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	client := &MockLLMClient{err: llm.NewError(llm.ProviderOpenAI, llm.ErrorTypeServerError, "down")}
	a, _ := NewNative(NativeConfig{Client: client, Config: testConfig(), Framework: "openai"})

	result, err := a.Run(ctx, "hello")
	if err == nil {
		t.Fatal("Expected model error to abort the run")
	}
	if result.Trace == nil {
		t.Fatal("Expected the failed run's trace to be attached")
	}
	if _, ok := tracing.DefaultRecorder().Take(result.RunID); ok {
		t.Error("Expected the run's spans to be claimed")
	}
}

func TestNative_Close(t *testing.T) {
	closed := false
	client := &MockLLMClient{responses: []llm.Response{
		{Role: "assistant", Content: "ok", FinishReason: "stop"},
	}}
	a, err := NewNative(NativeConfig{
		Client:    client,
		Config:    testConfig(),
		Framework: "openai",
		Close: func() error {
			closed = true
			return nil
		},
	})
	if err != nil {
		t.Fatalf("NewNative: %v", err)
	}

	if err := a.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !closed {
		t.Error("Expected the close function to run")
	}
}

func TestNative_NeedsClient(t *testing.T) {
	if _, err := NewNative(NativeConfig{Config: testConfig()}); err == nil {
		t.Error("Expected error without a client")
	}
}

type blockingCallbacks struct {
	NopCallbacks
	toolErr error
}

func (b *blockingCallbacks) BeforeToolExecute(ctx context.Context, toolName string, input string) error {
	return b.toolErr
}

func TestNative_CallbackAbortsRun(t *testing.T) {
	client := &MockLLMClient{responses: []llm.Response{
		toolCallResponse("call-1", "noop", `{}`),
	}}
	tool := &tools.Func{
		ToolName: "noop",
		ToolDesc: "does nothing",
		Fn: func(ctx context.Context, input string) (string, error) {
			return "ok", nil
		},
	}

	blocked := errors.New("tool not allowed")
	a, _ := NewNative(NativeConfig{
		Client:    client,
		Config:    testConfig(),
		Tools:     []tools.Tool{tool},
		Framework: "openai",
		Callbacks: &blockingCallbacks{toolErr: blocked},
	})

	_, err := a.Run(context.Background(), "use the tool")
	if !errors.Is(err, blocked) {
		t.Fatalf("Expected callback error to abort, got: %v", err)
	}
}

func TestLimits_Deny(t *testing.T) {
	limits := &Limits{DenySubstrings: []string{"forbidden"}}

	req := &llm.ChatRequest{Messages: []llm.Message{
		{Role: "user", Content: "this is FORBIDDEN content"},
	}}
	if err := limits.BeforeLLMCall(context.Background(), req); err == nil {
		t.Error("Expected deny substring to block")
	}

	req = &llm.ChatRequest{Messages: []llm.Message{
		{Role: "user", Content: "this is fine"},
	}}
	if err := limits.BeforeLLMCall(context.Background(), req); err != nil {
		t.Errorf("Expected clean input to pass, got: %v", err)
	}
}

func TestLimits_AllowList(t *testing.T) {
	limits := &Limits{AllowSubstrings: []string{"weather"}}

	req := &llm.ChatRequest{Messages: []llm.Message{
		{Role: "user", Content: "tell me about the weather"},
	}}
	if err := limits.BeforeLLMCall(context.Background(), req); err != nil {
		t.Errorf("Expected allowed input to pass, got: %v", err)
	}

	req = &llm.ChatRequest{Messages: []llm.Message{
		{Role: "user", Content: "tell me about sports"},
	}}
	if err := limits.BeforeLLMCall(context.Background(), req); err == nil {
		t.Error("Expected off-list input to be blocked")
	}
}

func TestLimits_Truncates(t *testing.T) {
	limits := &Limits{MaxInputChars: 10}

	req := &llm.ChatRequest{Messages: []llm.Message{
		{Role: "user", Content: "0123456789 overflow"},
	}}
	if err := limits.BeforeLLMCall(context.Background(), req); err != nil {
		t.Fatalf("Expected pass, got: %v", err)
	}
	if req.Messages[0].Content != "0123456789" {
		t.Errorf("Expected truncation to 10 chars, got %q", req.Messages[0].Content)
	}
}
