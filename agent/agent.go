// Package agent defines the framework-independent agent surface: one config,
// one Run call, one trace shape, regardless of which framework executes the
// run underneath.
package agent

import (
	"context"
	"errors"

	"github.com/anyagent/anyagent/tracing"
)

// ErrMaxTurns is returned when a run exhausts its turn budget before the
// model produces a final answer.
var ErrMaxTurns = errors.New("max turns exceeded")

// Agent runs a task to completion on some underlying framework.
type Agent interface {
	// Run executes the agent loop for one prompt and returns the outcome
	// with its full trace.
	Run(ctx context.Context, prompt string) (*Result, error)
}

// Closer is implemented by agents that hold external resources, typically
// MCP subprocesses and connections behind their toolset. Callers should
// close agents they created once they are done running them.
type Closer interface {
	Close() error
}

// Result is the outcome of one agent run.
type Result struct {
	// RunID uniquely identifies the run and keys its stored trace.
	RunID string `json:"run_id"`

	// FinalOutput is the agent's answer.
	FinalOutput string `json:"final_output"`

	// Framework identifies which adapter executed the run.
	Framework string `json:"framework"`

	// Trace holds every span the run produced. Nil only if the recorder
	// was bypassed.
	Trace *tracing.Trace `json:"trace,omitempty"`
}
