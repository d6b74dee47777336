// Package tracestore persists recorded agent run traces.
package tracestore

import (
	"context"
	"errors"

	"github.com/anyagent/anyagent/tracing"
)

// ErrNotFound is returned when no trace exists for a run id.
var ErrNotFound = errors.New("trace not found")

// Store defines the interface trace backends implement.
type Store interface {
	// Save persists a trace, replacing any previous trace for the run.
	Save(ctx context.Context, trace *tracing.Trace) error

	// Get retrieves a trace by run id, or ErrNotFound.
	Get(ctx context.Context, runID string) (*tracing.Trace, error)

	// List returns all stored run ids.
	List(ctx context.Context) ([]string, error)

	// Delete removes a trace by run id. Deleting a missing trace is not an
	// error.
	Delete(ctx context.Context, runID string) error
}
