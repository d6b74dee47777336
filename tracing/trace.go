package tracing

import (
	"encoding/json"
	"time"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Span is a finished span in a portable, JSON-friendly shape.
type Span struct {
	Name       string         `json:"name"`
	TraceID    string         `json:"trace_id"`
	SpanID     string         `json:"span_id"`
	ParentID   string         `json:"parent_id,omitempty"`
	StartTime  time.Time      `json:"start_time"`
	EndTime    time.Time      `json:"end_time"`
	StatusCode string         `json:"status_code"`
	StatusDesc string         `json:"status_description,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// Duration returns the span's wall time.
func (s Span) Duration() time.Duration { return s.EndTime.Sub(s.StartTime) }

// Attr returns a string attribute, or "" when absent.
func (s Span) Attr(key string) string {
	v, ok := s.Attributes[key]
	if !ok {
		return ""
	}
	str, _ := v.(string)
	return str
}

// IntAttr returns an integer attribute, or 0 when absent. JSON decoding
// turns integers into float64, so both arrivals are handled.
func (s Span) IntAttr(key string) int {
	switch v := s.Attributes[key].(type) {
	case int64:
		return int(v)
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}

// FloatAttr returns a float attribute, or 0 when absent.
func (s Span) FloatAttr(key string) float64 {
	switch v := s.Attributes[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	}
	return 0
}

// Trace is the full record of one agent run: the root invocation span plus
// every model call and tool execution beneath it, ordered by start time.
type Trace struct {
	RunID string `json:"run_id"`
	Spans []Span `json:"spans"`
}

// Root returns the run's root span, identified by its name.
func (t *Trace) Root() (Span, bool) {
	for _, s := range t.Spans {
		if s.Name == SpanAgentInvoke {
			return s, true
		}
	}
	return Span{}, false
}

// FinalOutput returns the agent's final answer as recorded on the root span.
func (t *Trace) FinalOutput() string {
	root, ok := t.Root()
	if !ok {
		return ""
	}
	return root.Attr(string(AttrFinalOutput))
}

// Duration returns the root span's wall time, or zero without a root.
func (t *Trace) Duration() time.Duration {
	root, ok := t.Root()
	if !ok {
		return 0
	}
	return root.Duration()
}

// TokensUsed sums input and output tokens across all model calls.
func (t *Trace) TokensUsed() (input, output int) {
	for _, s := range t.Spans {
		if s.Name != SpanLLMChat {
			continue
		}
		input += s.IntAttr(string(AttrInputTokens))
		output += s.IntAttr(string(AttrOutputTokens))
	}
	return input, output
}

// Cost sums the estimated USD cost across all model calls.
func (t *Trace) Cost() float64 {
	var total float64
	for _, s := range t.Spans {
		if s.Name == SpanLLMChat {
			total += s.FloatAttr(string(AttrCost))
		}
	}
	return total
}

// ToolCalls returns the names of executed tools, in order.
func (t *Trace) ToolCalls() []string {
	var names []string
	for _, s := range t.Spans {
		if s.Name == SpanToolExecute {
			names = append(names, s.Attr(string(AttrToolName)))
		}
	}
	return names
}

// JSON encodes the trace for storage or transport.
func (t *Trace) JSON() ([]byte, error) {
	return json.Marshal(t)
}

// FromJSON decodes a trace produced by JSON.
func FromJSON(data []byte) (*Trace, error) {
	var t Trace
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func fromReadOnly(ro sdktrace.ReadOnlySpan) Span {
	sc := ro.SpanContext()
	s := Span{
		Name:      ro.Name(),
		TraceID:   sc.TraceID().String(),
		SpanID:    sc.SpanID().String(),
		StartTime: ro.StartTime(),
		EndTime:   ro.EndTime(),
	}
	if parent := ro.Parent(); parent.IsValid() {
		s.ParentID = parent.SpanID().String()
	}

	switch ro.Status().Code {
	case codes.Ok:
		s.StatusCode = "ok"
	case codes.Error:
		s.StatusCode = "error"
	default:
		s.StatusCode = "unset"
	}
	s.StatusDesc = ro.Status().Description

	if attrs := ro.Attributes(); len(attrs) > 0 {
		s.Attributes = make(map[string]any, len(attrs))
		for _, kv := range attrs {
			s.Attributes[string(kv.Key)] = kv.Value.AsInterface()
		}
	}
	return s
}
