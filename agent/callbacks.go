package agent

import (
	"context"
	"errors"
	"strings"

	"github.com/anyagent/anyagent/llm"
)

// Callbacks hook into the native run loop. Any error aborts the run.
type Callbacks interface {
	BeforeLLMCall(ctx context.Context, req *llm.ChatRequest) error
	AfterLLMResponse(ctx context.Context, resp *llm.Response) error
	BeforeToolExecute(ctx context.Context, toolName string, input string) error
	AfterToolExecute(ctx context.Context, toolName string, result string, execErr error) error
	AfterRun(ctx context.Context, finalOutput string) error
}

// NopCallbacks implements Callbacks doing nothing. Embed it to override a
// subset.
type NopCallbacks struct{}

func (NopCallbacks) BeforeLLMCall(ctx context.Context, req *llm.ChatRequest) error { return nil }
func (NopCallbacks) AfterLLMResponse(ctx context.Context, resp *llm.Response) error {
	return nil
}
func (NopCallbacks) BeforeToolExecute(ctx context.Context, toolName string, input string) error {
	return nil
}
func (NopCallbacks) AfterToolExecute(ctx context.Context, toolName string, result string, execErr error) error {
	return nil
}
func (NopCallbacks) AfterRun(ctx context.Context, finalOutput string) error { return nil }

// Limits provides minimal input filtering and allow/deny checks.
type Limits struct {
	NopCallbacks

	// Deny if any of these substrings appear in the user input
	DenySubstrings []string
	// Allow only if at least one of these substrings appears; if empty, allow all
	AllowSubstrings []string
	// Max input length
	MaxInputChars int
}

func (g *Limits) BeforeLLMCall(ctx context.Context, req *llm.ChatRequest) error {
	if req == nil || len(req.Messages) == 0 {
		return nil
	}
	last := &req.Messages[len(req.Messages)-1]
	if last.Role != "user" {
		return nil
	}

	if g.MaxInputChars > 0 && len(last.Content) > g.MaxInputChars {
		last.Content = last.Content[:g.MaxInputChars]
	}
	lower := strings.ToLower(last.Content)
	for _, s := range g.DenySubstrings {
		if s == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(s)) {
			return errors.New("request blocked by input limits")
		}
	}
	if len(g.AllowSubstrings) > 0 {
		allowed := false
		for _, s := range g.AllowSubstrings {
			if s == "" {
				continue
			}
			if strings.Contains(lower, strings.ToLower(s)) {
				allowed = true
				break
			}
		}
		if !allowed {
			return errors.New("request not permitted by input limits")
		}
	}
	return nil
}

var _ Callbacks = (*Limits)(nil)
