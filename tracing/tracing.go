// Package tracing initializes OpenTelemetry for agent runs and captures
// finished spans into portable Trace values.
//
// Every run produces one root span named "agent.invoke" with "llm.chat" and
// "tool.execute" children. The Recorder span processor groups those spans by
// run so callers can inspect or persist the full trace after Run returns,
// independent of whether an OTLP collector is configured.
package tracing

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// Config controls tracer provider initialization.
type Config struct {
	// ServiceName appears as service.name on the exported resource.
	ServiceName string

	// OTLPEndpoint enables OTLP/gRPC export when set, e.g. "localhost:4317".
	// Traces are still recorded locally when empty.
	OTLPEndpoint string

	// SampleRatio is the parent-based sampling ratio. Zero means sample
	// everything, which is the right default for agent runs.
	SampleRatio float64

	// Insecure disables TLS on the OTLP connection.
	Insecure bool
}

var (
	initOnce   sync.Once
	initErr    error
	providerMu sync.RWMutex
	provider   *sdktrace.TracerProvider
	defaultRec = NewRecorder()
)

// DefaultRecorder returns the recorder installed by Init. Spans from every
// run flow through it.
func DefaultRecorder() *Recorder { return defaultRec }

// Init initializes a process-wide tracer provider. It is safe to call
// multiple times; only the first call takes effect. The returned shutdown
// function flushes any pending export.
func Init(ctx context.Context, cfg Config) (func(context.Context) error, error) {
	initOnce.Do(func() {
		if cfg.ServiceName == "" {
			cfg.ServiceName = "anyagent"
		}
		ratio := cfg.SampleRatio
		if ratio <= 0 || ratio > 1 {
			ratio = 1
		}

		res, err := resource.New(ctx,
			resource.WithAttributes(semconv.ServiceName(cfg.ServiceName)),
		)
		if err != nil {
			initErr = err
			return
		}

		opts := []sdktrace.TracerProviderOption{
			sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
			sdktrace.WithResource(res),
			sdktrace.WithSpanProcessor(defaultRec),
		}

		if cfg.OTLPEndpoint != "" {
			expOpts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint)}
			if cfg.Insecure {
				expOpts = append(expOpts, otlptracegrpc.WithInsecure())
			}
			exp, err := otlptracegrpc.New(ctx, expOpts...)
			if err != nil {
				initErr = err
				return
			}
			opts = append(opts, sdktrace.WithBatcher(exp))
		}

		tp := sdktrace.NewTracerProvider(opts...)

		providerMu.Lock()
		provider = tp
		providerMu.Unlock()

		otel.SetTracerProvider(tp)
	})
	if initErr != nil {
		return nil, initErr
	}

	return func(ctx context.Context) error {
		providerMu.RLock()
		tp := provider
		providerMu.RUnlock()
		if tp == nil {
			return nil
		}
		return tp.Shutdown(ctx)
	}, nil
}

// StartSpan starts a span on the global tracer.
func StartSpan(ctx context.Context, spanName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	tracer := otel.Tracer(tracerName)
	return tracer.Start(ctx, spanName, trace.WithAttributes(attrs...))
}

const tracerName = "github.com/anyagent/anyagent"
