package evaluation

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/anyagent/anyagent/llm"
	"github.com/anyagent/anyagent/tracing"
)

// CheckpointResult is one scored criterion.
type CheckpointResult struct {
	Criteria string `json:"criteria"`
	Points   int    `json:"points"`
	Passed   bool   `json:"passed"`
	Reason   string `json:"reason,omitempty"`
}

// TraceEvaluation is the score for one run.
type TraceEvaluation struct {
	RunID        string             `json:"run_id"`
	Checkpoints  []CheckpointResult `json:"checkpoints"`
	EarnedPoints int                `json:"earned_points"`
	TotalPoints  int                `json:"total_points"`
	Passed       bool               `json:"passed"`
}

// Evaluator scores traces. The judge client is only needed for free-form
// criteria; jq-only cases work without one.
type Evaluator struct {
	judge  llm.Client
	logger *zap.Logger
}

// NewEvaluator creates an evaluator. Both arguments may be nil.
func NewEvaluator(judge llm.Client, logger *zap.Logger) *Evaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Evaluator{judge: judge, logger: logger}
}

// Evaluate scores a trace against a case. The evaluation passes when every
// point on offer is earned; a case with nothing to check passes with zero
// points.
func (e *Evaluator) Evaluate(ctx context.Context, c Case, trace *tracing.Trace) (*TraceEvaluation, error) {
	if trace == nil {
		return nil, fmt.Errorf("no trace to evaluate")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	eval := &TraceEvaluation{RunID: trace.RunID}

	for _, cp := range c.Checkpoints {
		var (
			passed bool
			reason string
			err    error
		)
		if isJQCriteria(cp.Criteria) {
			passed, reason, err = evalJQ(ctx, cp.Criteria, trace)
		} else {
			passed, reason, err = e.judgeCheckpoint(ctx, c, cp.Criteria, trace)
		}
		if err != nil {
			return nil, err
		}

		result := CheckpointResult{
			Criteria: cp.Criteria,
			Points:   cp.Points,
			Passed:   passed,
			Reason:   reason,
		}
		eval.Checkpoints = append(eval.Checkpoints, result)
		eval.TotalPoints += cp.Points
		if passed {
			eval.EarnedPoints += cp.Points
		}
		e.logger.Debug("checkpoint evaluated",
			zap.String("criteria", cp.Criteria),
			zap.Bool("passed", passed))
	}

	if c.GroundTruth != "" {
		passed, reason := matchGroundTruth(c.GroundTruth, trace.FinalOutput())
		eval.Checkpoints = append(eval.Checkpoints, CheckpointResult{
			Criteria: "Final output matches the ground truth",
			Points:   c.GroundTruthPoints,
			Passed:   passed,
			Reason:   reason,
		})
		eval.TotalPoints += c.GroundTruthPoints
		if passed {
			eval.EarnedPoints += c.GroundTruthPoints
		}
	}

	eval.Passed = eval.EarnedPoints == eval.TotalPoints
	return eval, nil
}

// matchGroundTruth compares the final output against the expected answer,
// exactly first, then under normalization.
func matchGroundTruth(expected, actual string) (bool, string) {
	if expected == actual {
		return true, "exact match"
	}
	if normalizeAnswer(expected) == normalizeAnswer(actual) {
		return true, "match after normalization"
	}
	return false, fmt.Sprintf("expected %q, got %q", expected, actual)
}

// normalizeAnswer lowercases, collapses whitespace, and drops trailing
// punctuation so "Paris." matches "paris".
func normalizeAnswer(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimRight(s, ".,!?")
}
