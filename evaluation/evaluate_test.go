package evaluation

import (
	"context"
	"testing"
	"time"

	"github.com/anyagent/anyagent/llm"
	"github.com/anyagent/anyagent/tracing"
)

// mockJudge replays canned responses.
type mockJudge struct {
	responses []string
	calls     int
	requests  []*llm.ChatRequest
}

func (m *mockJudge) Chat(ctx context.Context, req *llm.ChatRequest) (*llm.Response, error) {
	m.requests = append(m.requests, req)
	idx := m.calls
	if idx >= len(m.responses) {
		idx = len(m.responses) - 1
	}
	m.calls++
	return &llm.Response{Content: m.responses[idx], Model: "mock"}, nil
}

func (m *mockJudge) Stream(ctx context.Context, req *llm.ChatRequest, output chan<- *llm.Response) error {
	close(output)
	return nil
}

func (m *mockJudge) Model() string          { return "mock" }
func (m *mockJudge) Provider() llm.Provider { return "mock" }

func sampleTrace() *tracing.Trace {
	now := time.Now()
	return &tracing.Trace{
		RunID: "run-1",
		Spans: []tracing.Span{
			{
				Name:      tracing.SpanAgentInvoke,
				StartTime: now,
				EndTime:   now.Add(2 * time.Second),
				Attributes: map[string]any{
					string(tracing.AttrRunID):       "run-1",
					string(tracing.AttrFramework):   "openai",
					string(tracing.AttrFinalOutput): "The capital of France is Paris.",
				},
			},
			{
				Name:      tracing.SpanLLMChat,
				StartTime: now,
				Attributes: map[string]any{
					string(tracing.AttrInputTokens):  100,
					string(tracing.AttrOutputTokens): 20,
				},
			},
			{
				Name:      tracing.SpanToolExecute,
				StartTime: now.Add(time.Second),
				Attributes: map[string]any{
					string(tracing.AttrToolName): "search_web",
				},
			},
		},
	}
}

func TestEvaluateJQCheckpoints(t *testing.T) {
	c := Case{
		Checkpoints: []Checkpoint{
			{Criteria: `jq: .spans | map(select(.name == "tool.execute")) | length > 0`, Points: 2},
			{Criteria: `jq: .run_id == "other-run"`, Points: 1},
		},
	}

	eval, err := NewEvaluator(nil, nil).Evaluate(context.Background(), c, sampleTrace())
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if eval.RunID != "run-1" {
		t.Errorf("Expected run-1, got %s", eval.RunID)
	}
	if !eval.Checkpoints[0].Passed {
		t.Errorf("Expected tool checkpoint to pass: %s", eval.Checkpoints[0].Reason)
	}
	if eval.Checkpoints[1].Passed {
		t.Error("Expected run id checkpoint to fail")
	}
	if eval.EarnedPoints != 2 || eval.TotalPoints != 3 {
		t.Errorf("Expected 2/3 points, got %d/%d", eval.EarnedPoints, eval.TotalPoints)
	}
	if eval.Passed {
		t.Error("Expected evaluation to fail with a missed checkpoint")
	}
}

func TestEvaluateJudgeCheckpoint(t *testing.T) {
	judge := &mockJudge{responses: []string{`{"passed": true, "reason": "the agent searched the web"}`}}
	c := Case{
		LLMJudge:    "gpt-4o",
		Checkpoints: []Checkpoint{{Criteria: "The agent used a search tool", Points: 1}},
	}

	eval, err := NewEvaluator(judge, nil).Evaluate(context.Background(), c, sampleTrace())
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if !eval.Passed || eval.EarnedPoints != 1 {
		t.Errorf("Expected pass with 1 point, got %+v", eval)
	}
	if eval.Checkpoints[0].Reason != "the agent searched the web" {
		t.Errorf("Unexpected reason %q", eval.Checkpoints[0].Reason)
	}

	req := judge.requests[0]
	if req.Model != "gpt-4o" {
		t.Errorf("Expected judge model gpt-4o, got %s", req.Model)
	}
	if req.ResponseFormat == nil || req.ResponseFormat.Type != "json_object" {
		t.Error("Expected json_object response format")
	}
}

func TestEvaluateJudgeRepairRetry(t *testing.T) {
	judge := &mockJudge{responses: []string{
		"I think it passed!",
		`{"passed": false, "reason": "no citation found"}`,
	}}
	c := Case{
		LLMJudge:    "gpt-4o",
		Checkpoints: []Checkpoint{{Criteria: "The answer cites a source", Points: 2}},
	}

	eval, err := NewEvaluator(judge, nil).Evaluate(context.Background(), c, sampleTrace())
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if judge.calls != 2 {
		t.Errorf("Expected a repair retry, got %d calls", judge.calls)
	}
	if eval.Checkpoints[0].Passed {
		t.Error("Expected checkpoint to fail")
	}
	if eval.EarnedPoints != 0 || eval.TotalPoints != 2 {
		t.Errorf("Expected 0/2 points, got %d/%d", eval.EarnedPoints, eval.TotalPoints)
	}
}

func TestEvaluateJudgeNeedsClient(t *testing.T) {
	c := Case{Checkpoints: []Checkpoint{{Criteria: "Used a tool", Points: 1}}}
	if _, err := NewEvaluator(nil, nil).Evaluate(context.Background(), c, sampleTrace()); err == nil {
		t.Error("Expected error for judge criteria without a judge client")
	}
}

func TestEvaluateGroundTruth(t *testing.T) {
	c := Case{GroundTruth: "the capital of france is paris", GroundTruthPoints: 3}

	eval, err := NewEvaluator(nil, nil).Evaluate(context.Background(), c, sampleTrace())
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if !eval.Passed || eval.EarnedPoints != 3 {
		t.Errorf("Expected normalized ground truth match, got %+v", eval)
	}
}

func TestEvaluateGroundTruthMismatch(t *testing.T) {
	c := Case{GroundTruth: "London", GroundTruthPoints: 1}

	eval, err := NewEvaluator(nil, nil).Evaluate(context.Background(), c, sampleTrace())
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if eval.Passed || eval.EarnedPoints != 0 {
		t.Errorf("Expected mismatch, got %+v", eval)
	}
}

func TestEvaluateEmptyCase(t *testing.T) {
	eval, err := NewEvaluator(nil, nil).Evaluate(context.Background(), Case{}, sampleTrace())
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if !eval.Passed || eval.TotalPoints != 0 {
		t.Errorf("Expected empty case to pass with zero points, got %+v", eval)
	}
}

func TestEvaluateNilTrace(t *testing.T) {
	if _, err := NewEvaluator(nil, nil).Evaluate(context.Background(), Case{}, nil); err == nil {
		t.Error("Expected error for nil trace")
	}
}

func TestNormalizeAnswer(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Paris.", "paris"},
		{"  Paris ", "paris"},
		{"The  answer\nis Paris!", "the answer is paris"},
		{"42", "42"},
	}
	for _, tc := range cases {
		if got := normalizeAnswer(tc.in); got != tc.want {
			t.Errorf("normalizeAnswer(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
