package tracing

import (
	"context"
	"sort"
	"sync"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Recorder is a span processor that groups finished spans by trace and hands
// out a complete Trace once the run's root span ends. It never blocks span
// completion and holds spans only until they are claimed.
type Recorder struct {
	mu      sync.Mutex
	byTrace map[string][]Span
	byRun   map[string]string // run id -> trace id, set when the root span ends
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		byTrace: make(map[string][]Span),
		byRun:   make(map[string]string),
	}
}

// OnStart implements sdktrace.SpanProcessor.
func (r *Recorder) OnStart(ctx context.Context, s sdktrace.ReadWriteSpan) {}

// OnEnd implements sdktrace.SpanProcessor.
func (r *Recorder) OnEnd(ro sdktrace.ReadOnlySpan) {
	span := fromReadOnly(ro)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.byTrace[span.TraceID] = append(r.byTrace[span.TraceID], span)

	// The root span carries the run id and, because children finish first,
	// its end marks the run as complete.
	if span.Name == SpanAgentInvoke {
		if runID := span.Attr(string(AttrRunID)); runID != "" {
			r.byRun[runID] = span.TraceID
		}
	}
}

// Shutdown implements sdktrace.SpanProcessor.
func (r *Recorder) Shutdown(ctx context.Context) error { return nil }

// ForceFlush implements sdktrace.SpanProcessor.
func (r *Recorder) ForceFlush(ctx context.Context) error { return nil }

// Take returns the trace for a completed run and releases its spans. The
// second return is false while the run is still in flight or unknown.
func (r *Recorder) Take(runID string) (*Trace, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	traceID, ok := r.byRun[runID]
	if !ok {
		return nil, false
	}
	spans := r.byTrace[traceID]
	delete(r.byRun, runID)
	delete(r.byTrace, traceID)

	sort.SliceStable(spans, func(i, j int) bool {
		return spans[i].StartTime.Before(spans[j].StartTime)
	})

	return &Trace{RunID: runID, Spans: spans}, true
}

var _ sdktrace.SpanProcessor = (*Recorder)(nil)
