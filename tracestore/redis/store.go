//go:build adapters_redis

// Package redis implements a trace store on Redis with optional expiry.
package redis

import (
	"context"
	"errors"
	"strings"
	"time"

	rds "github.com/redis/go-redis/v9"

	"github.com/anyagent/anyagent/tracestore"
	"github.com/anyagent/anyagent/tracing"
)

type Store struct {
	client *rds.Client
	ttl    time.Duration
	prefix string
}

// NewStore creates a Redis-backed trace store. A zero ttl keeps traces
// forever.
func NewStore(client *rds.Client, ttl time.Duration, prefix string) *Store {
	if prefix == "" {
		prefix = "trace"
	}
	return &Store{client: client, ttl: ttl, prefix: prefix}
}

func (s *Store) key(runID string) string {
	return s.prefix + ":" + runID
}

// Save implements tracestore.Store.
func (s *Store) Save(ctx context.Context, trace *tracing.Trace) error {
	data, err := trace.JSON()
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(trace.RunID), data, s.ttl).Err()
}

// Get implements tracestore.Store.
func (s *Store) Get(ctx context.Context, runID string) (*tracing.Trace, error) {
	data, err := s.client.Get(ctx, s.key(runID)).Bytes()
	if err != nil {
		if errors.Is(err, rds.Nil) {
			return nil, tracestore.ErrNotFound
		}
		return nil, err
	}
	return tracing.FromJSON(data)
}

// List implements tracestore.Store.
func (s *Store) List(ctx context.Context) ([]string, error) {
	var cursor uint64
	ids := []string{}
	pattern := s.prefix + ":*"
	for {
		keys, cur, err := s.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, err
		}
		for _, k := range keys {
			ids = append(ids, strings.TrimPrefix(k, s.prefix+":"))
		}
		if cur == 0 {
			break
		}
		cursor = cur
	}
	return ids, nil
}

// Delete implements tracestore.Store.
func (s *Store) Delete(ctx context.Context, runID string) error {
	return s.client.Del(ctx, s.key(runID)).Err()
}

var _ tracestore.Store = (*Store)(nil)
