package agent

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"

	"github.com/anyagent/anyagent/config"
	"github.com/anyagent/anyagent/tracing"
)

// RunFunc executes one task and returns the final output. Adapters that
// delegate the reasoning loop to an external framework implement this.
type RunFunc func(ctx context.Context, prompt string) (string, error)

// Instrumented wraps a framework-driven run in the invocation span so every
// adapter produces the same trace envelope: run id, framework, prompt and
// final output on the root span, and the recorded trace on the result.
type Instrumented struct {
	framework string
	cfg       config.AgentConfig
	run       RunFunc
	close     func() error
}

// NewInstrumented builds an agent around a framework run function.
func NewInstrumented(framework string, cfg config.AgentConfig, run RunFunc) *Instrumented {
	return &Instrumented{framework: framework, cfg: cfg, run: run}
}

// OnClose sets the cleanup Close invokes, typically the close function
// returned by Toolset. It returns the agent for chaining.
func (a *Instrumented) OnClose(fn func() error) *Instrumented {
	a.close = fn
	return a
}

// Run implements Agent.
func (a *Instrumented) Run(ctx context.Context, prompt string) (*Result, error) {
	runID := uuid.NewString()

	ctx, span := tracing.StartSpan(ctx, tracing.SpanAgentInvoke,
		tracing.AttrRunID.String(runID),
		tracing.AttrAgentName.String(a.cfg.Name),
		tracing.AttrFramework.String(a.framework),
		tracing.AttrPrompt.String(prompt),
	)

	final, runErr := a.run(ctx, prompt)
	if runErr != nil {
		span.SetStatus(codes.Error, runErr.Error())
	} else {
		span.SetAttributes(tracing.AttrFinalOutput.String(final))
		span.SetStatus(codes.Ok, "")
	}
	span.End()

	// Failed runs claim their trace too, both so callers can inspect them
	// and so spans do not pile up in the recorder.
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

// Close releases the resources behind the agent's toolset.
func (a *Instrumented) Close() error {
	if a.close != nil {
		return a.close()
	}
	return nil
}

var _ Agent = (*Instrumented)(nil)
var _ Closer = (*Instrumented)(nil)
