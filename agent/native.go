package agent

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/anyagent/anyagent/config"
	"github.com/anyagent/anyagent/llm"
	"github.com/anyagent/anyagent/tools"
	"github.com/anyagent/anyagent/tracing"
)

// NativeConfig assembles a tool-calling agent on a provider client. The
// openai and anthropic adapters both run on this loop; only the llm.Client
// differs.
type NativeConfig struct {
	Client    llm.Client
	Config    config.AgentConfig
	Tools     []tools.Tool
	Framework string
	Callbacks Callbacks
	Logger    *zap.Logger

	// Close runs when the agent is closed, releasing whatever backs the
	// tools (MCP subprocesses, managed agents).
	Close func() error
}

// Native runs the provider's tool-calling protocol directly: send the
// conversation, execute requested tools, feed results back, repeat until the
// model answers without tool calls or the turn budget runs out.
type Native struct {
	client    llm.Client
	cfg       config.AgentConfig
	registry  tools.Registry
	framework string
	callbacks Callbacks
	logger    *zap.Logger
	close     func() error
}

// NewNative creates a native tool-calling agent.
func NewNative(nc NativeConfig) (*Native, error) {
	if nc.Client == nil {
		return nil, fmt.Errorf("native agent needs an llm client")
	}
	registry := tools.NewRegistry()
	for _, t := range nc.Tools {
		if err := registry.Register(t); err != nil {
			return nil, err
		}
	}
	callbacks := nc.Callbacks
	if callbacks == nil {
		callbacks = NopCallbacks{}
	}
	logger := nc.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Native{
		client:    nc.Client,
		cfg:       nc.Config,
		registry:  registry,
		framework: nc.Framework,
		callbacks: callbacks,
		logger:    logger,
		close:     nc.Close,
	}, nil
}

// Run implements Agent.
func (a *Native) Run(ctx context.Context, prompt string) (*Result, error) {
	runID := uuid.NewString()

	ctx, span := tracing.StartSpan(ctx, tracing.SpanAgentInvoke,
		tracing.AttrRunID.String(runID),
		tracing.AttrAgentName.String(a.cfg.Name),
		tracing.AttrFramework.String(a.framework),
		tracing.AttrPrompt.String(prompt),
	)

	final, runErr := a.loop(ctx, prompt)
	if runErr != nil {
		span.SetStatus(codes.Error, runErr.Error())
	} else {
		span.SetAttributes(tracing.AttrFinalOutput.String(final))
		span.SetStatus(codes.Ok, "")
	}
	span.End()

	if runErr == nil {
		if err := a.callbacks.AfterRun(ctx, final); err != nil {
			runErr = err
		}
	}

	// The trace is always claimed, failed runs included; anything left in
	// the recorder would sit there for the life of the process.
	result := &Result{
		RunID:       runID,
		FinalOutput: final,
		Framework:   a.framework,
	}
	if trace, ok := tracing.DefaultRecorder().Take(runID); ok {
		result.Trace = trace
	}
	if runErr != nil {
		return result, runErr
	}
	return result, nil
}

func (a *Native) loop(ctx context.Context, prompt string) (string, error) {
	messages := []llm.Message{{Role: "user", Content: prompt}}

	var toolDefs []llm.Tool
	for _, name := range a.registry.List() {
		if t, ok := a.registry.Get(name); ok {
			toolDefs = append(toolDefs, llm.Tool{
				Type: "function",
				Function: llm.ToolFunction{
					Name:        t.Name(),
					Description: t.Description(),
					Parameters:  t.Schema(),
				},
			})
		}
	}

	var lastContent string
	for turn := 0; turn < a.cfg.MaxTurns; turn++ {
		req := &llm.ChatRequest{
			Messages:     messages,
			Model:        a.cfg.ModelID,
			SystemPrompt: a.cfg.Instructions,
			Tools:        toolDefs,
		}
		if err := a.callbacks.BeforeLLMCall(ctx, req); err != nil {
			return "", err
		}

		resp, err := a.chat(ctx, req)
		if err != nil {
			return "", fmt.Errorf("model call failed: %w", err)
		}
		if err := a.callbacks.AfterLLMResponse(ctx, resp); err != nil {
			return "", err
		}

		if len(resp.ToolCalls) == 0 {
			return resp.Content, nil
		}
		lastContent = resp.Content

		messages = append(messages, llm.Message{
			Role:      "assistant",
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		for _, tc := range resp.ToolCalls {
			name := tc.Function.Name
			args := tc.Function.Arguments

			if err := a.callbacks.BeforeToolExecute(ctx, name, args); err != nil {
				return "", err
			}

			result, execErr := a.registry.Execute(ctx, name, args)
			if execErr != nil {
				// The model sees tool failures and decides what to do next;
				// they do not abort the run.
				a.logger.Warn("tool execution failed",
					zap.String("tool", name), zap.Error(execErr))
				result = fmt.Sprintf("error: %v", execErr)
			}
			if err := a.callbacks.AfterToolExecute(ctx, name, result, execErr); err != nil {
				return "", err
			}

			messages = append(messages, llm.Message{
				Role:       "tool",
				Content:    result,
				ToolCallID: tc.ID,
			})
		}
	}

	return lastContent, fmt.Errorf("%w (%d)", ErrMaxTurns, a.cfg.MaxTurns)
}

// chat performs one model call inside an llm.chat span.
func (a *Native) chat(ctx context.Context, req *llm.ChatRequest) (*llm.Response, error) {
	ctx, span := tracing.StartSpan(ctx, tracing.SpanLLMChat,
		tracing.AttrSystem.String(string(a.client.Provider())),
		tracing.AttrRequestModel.String(a.client.Model()),
	)
	defer span.End()

	resp, err := a.client.Chat(ctx, req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		tracing.AttrResponseModel.String(resp.Model),
		tracing.AttrFinishReason.String(resp.FinishReason),
	)
	if resp.Usage != nil {
		span.SetAttributes(
			tracing.AttrInputTokens.Int(resp.Usage.InputTokens),
			tracing.AttrOutputTokens.Int(resp.Usage.OutputTokens),
			tracing.AttrCost.Float64(resp.Usage.Cost),
		)
	}
	span.SetStatus(codes.Ok, "")
	return resp, nil
}

// Close releases the resources behind the agent's toolset.
func (a *Native) Close() error {
	if a.close != nil {
		return a.close()
	}
	return nil
}

var _ Agent = (*Native)(nil)
var _ Closer = (*Native)(nil)
