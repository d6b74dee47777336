//go:build adapters_redis

package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	rds "github.com/redis/go-redis/v9"

	"github.com/anyagent/anyagent/tracestore"
	"github.com/anyagent/anyagent/tracing"
)

func makeStore(t *testing.T) *Store {
	t.Helper()
	client := rds.NewClient(&rds.Options{Addr: "localhost:6379"})
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(client, time.Minute, "test-trace")
}

func TestStoreContract_Redis(t *testing.T) {
	ctx := context.Background()
	s := makeStore(t)

	trace := &tracing.Trace{
		RunID: "run-redis",
		Spans: []tracing.Span{{Name: tracing.SpanAgentInvoke, StatusCode: "ok"}},
	}
	if err := s.Save(ctx, trace); err != nil {
		t.Fatalf("save: %v", err)
	}
	t.Cleanup(func() { _ = s.Delete(ctx, "run-redis") })

	got, err := s.Get(ctx, "run-redis")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.RunID != "run-redis" || len(got.Spans) != 1 {
		t.Fatalf("want stored trace back, got %+v", got)
	}

	if _, err := s.Get(ctx, "run-missing"); !errors.Is(err, tracestore.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}
