package evaluation

import (
	"context"
	"fmt"

	"github.com/anyagent/anyagent/llm"
	"github.com/anyagent/anyagent/tracing"
)

const judgeSystemPrompt = `You are an evaluator grading one run of an AI agent.
You are given evidence from the run's trace and a single criterion.
Decide whether the run satisfies the criterion.
Respond with a JSON object: {"passed": true or false, "reason": "short explanation"}.`

const maxEvidenceChars = 8000

type verdict struct {
	Passed bool   `json:"passed"`
	Reason string `json:"reason"`
}

// judgeCheckpoint asks the judge model whether the trace satisfies a
// free-form criterion. A malformed verdict gets one repair round.
func (e *Evaluator) judgeCheckpoint(ctx context.Context, c Case, criteria string, trace *tracing.Trace) (bool, string, error) {
	if e.judge == nil {
		return false, "", fmt.Errorf("criterion %q needs a judge client", criteria)
	}

	prompt := fmt.Sprintf("Criterion: %s\n\nEvidence from the agent trace:\n%s", criteria, evidence(trace))
	req := &llm.ChatRequest{
		Messages:       []llm.Message{{Role: "user", Content: prompt}},
		Model:          c.LLMJudge,
		SystemPrompt:   judgeSystemPrompt,
		ResponseFormat: &llm.ResponseFormat{Type: "json_object"},
	}

	resp, err := e.judge.Chat(ctx, req)
	if err != nil {
		return false, "", fmt.Errorf("judge call failed: %w", err)
	}

	v, decodeErr := llm.DecodeJSON[verdict](resp.Content)
	if decodeErr != nil {
		req.Messages = append(req.Messages,
			llm.Message{Role: "assistant", Content: resp.Content},
			llm.Message{Role: "user", Content: `Your previous reply was not valid JSON. Reply with only {"passed": ..., "reason": ...}.`},
		)
		resp, err = e.judge.Chat(ctx, req)
		if err != nil {
			return false, "", fmt.Errorf("judge call failed: %w", err)
		}
		v, decodeErr = llm.DecodeJSON[verdict](resp.Content)
		if decodeErr != nil {
			return false, "", fmt.Errorf("judge verdict unreadable: %w", decodeErr)
		}
	}
	return v.Passed, v.Reason, nil
}

// evidence condenses a trace for the judge: final output, tool calls, token
// usage, then the raw span JSON up to a size cap.
func evidence(trace *tracing.Trace) string {
	in, out := trace.TokensUsed()
	head := fmt.Sprintf("Final output: %s\nTools called: %v\nTokens used: %d in, %d out\n",
		trace.FinalOutput(), trace.ToolCalls(), in, out)

	raw, err := trace.JSON()
	if err != nil {
		return head
	}
	body := string(raw)
	if len(body) > maxEvidenceChars {
		body = body[:maxEvidenceChars] + "... (truncated)"
	}
	return head + "\nFull trace:\n" + body
}
