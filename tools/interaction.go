package tools

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
)

func stringArgSchema(name, desc string) map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			name: map[string]interface{}{
				"type":        "string",
				"description": desc,
			},
		},
		"required": []string{name},
	}
}

func decodeStringArg(input, key string) (string, error) {
	var args map[string]string
	if err := json.Unmarshal([]byte(input), &args); err != nil {
		return "", fmt.Errorf("parse input: %w", err)
	}
	v, ok := args[key]
	if !ok || v == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return v, nil
}

// ShowPlanTool surfaces the agent's current plan to the user.
type ShowPlanTool struct {
	logger *zap.Logger
}

// NewShowPlanTool creates the plan display tool.
func NewShowPlanTool(logger *zap.Logger) *ShowPlanTool {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ShowPlanTool{logger: logger}
}

// Name implements Tool.
func (t *ShowPlanTool) Name() string { return "show_plan" }

// Description implements Tool.
func (t *ShowPlanTool) Description() string { return "Show the current plan to the user." }

// Schema implements Tool.
func (t *ShowPlanTool) Schema() map[string]interface{} {
	return stringArgSchema("plan", "The current plan.")
}

// Execute implements Tool.
func (t *ShowPlanTool) Execute(ctx context.Context, input string) (string, error) {
	plan, err := decodeStringArg(input, "plan")
	if err != nil {
		return "", fmt.Errorf("show_plan: %w", err)
	}
	t.logger.Info("Current plan", zap.String("plan", plan))
	return plan, nil
}

// ShowFinalAnswerTool surfaces the agent's final answer to the user.
type ShowFinalAnswerTool struct {
	logger *zap.Logger
}

// NewShowFinalAnswerTool creates the final answer display tool.
func NewShowFinalAnswerTool(logger *zap.Logger) *ShowFinalAnswerTool {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ShowFinalAnswerTool{logger: logger}
}

// Name implements Tool.
func (t *ShowFinalAnswerTool) Name() string { return "show_final_answer" }

// Description implements Tool.
func (t *ShowFinalAnswerTool) Description() string { return "Show the final answer to the user." }

// Schema implements Tool.
func (t *ShowFinalAnswerTool) Schema() map[string]interface{} {
	return stringArgSchema("answer", "The final answer.")
}

// Execute implements Tool.
func (t *ShowFinalAnswerTool) Execute(ctx context.Context, input string) (string, error) {
	answer, err := decodeStringArg(input, "answer")
	if err != nil {
		return "", fmt.Errorf("show_final_answer: %w", err)
	}
	t.logger.Info("Final answer", zap.String("answer", answer))
	return answer, nil
}

// AskUserVerificationTool pauses the run and asks the user to verify a
// question interactively.
type AskUserVerificationTool struct {
	in  io.Reader
	out io.Writer
}

// NewAskUserVerificationTool creates the verification tool reading from
// stdin. Pass a different reader/writer to script it.
func NewAskUserVerificationTool(in io.Reader, out io.Writer) *AskUserVerificationTool {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	return &AskUserVerificationTool{in: in, out: out}
}

// Name implements Tool.
func (t *AskUserVerificationTool) Name() string { return "ask_user_verification" }

// Description implements Tool.
func (t *AskUserVerificationTool) Description() string {
	return "Asks user to verify the given query."
}

// Schema implements Tool.
func (t *AskUserVerificationTool) Schema() map[string]interface{} {
	return stringArgSchema("query", "The question that requires verification.")
}

// Execute implements Tool.
func (t *AskUserVerificationTool) Execute(ctx context.Context, input string) (string, error) {
	query, err := decodeStringArg(input, "query")
	if err != nil {
		return "", fmt.Errorf("ask_user_verification: %w", err)
	}
	fmt.Fprintf(t.out, "%s => Type your answer here:", query)

	scanner := bufio.NewScanner(t.in)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("ask_user_verification: read answer: %w", err)
		}
		return "", nil
	}
	return scanner.Text(), nil
}

// DefaultRegistryWith creates a registry preloaded with the builtin toolset.
func DefaultRegistryWith(logger *zap.Logger) *DefaultRegistry {
	r := NewRegistry()
	for _, t := range []Tool{
		NewSearchWebTool(),
		NewVisitWebpageTool(),
		NewShowPlanTool(logger),
		NewShowFinalAnswerTool(logger),
		NewAskUserVerificationTool(nil, nil),
	} {
		// Names are unique by construction.
		_ = r.Register(t)
	}
	return r
}

var (
	_ Tool = (*ShowPlanTool)(nil)
	_ Tool = (*ShowFinalAnswerTool)(nil)
	_ Tool = (*AskUserVerificationTool)(nil)
)
