// Package inmemory implements a process-local trace store.
package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/anyagent/anyagent/tracestore"
	"github.com/anyagent/anyagent/tracing"
)

// Store keeps traces in memory, serialized so callers cannot mutate stored
// state through shared pointers.
type Store struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewStore creates an empty in-memory trace store.
func NewStore() *Store {
	return &Store{data: make(map[string][]byte)}
}

// Save implements tracestore.Store.
func (s *Store) Save(ctx context.Context, trace *tracing.Trace) error {
	if trace.RunID == "" {
		return fmt.Errorf("trace has no run id")
	}
	data, err := trace.JSON()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[trace.RunID] = data
	return nil
}

// Get implements tracestore.Store.
func (s *Store) Get(ctx context.Context, runID string) (*tracing.Trace, error) {
	s.mu.RLock()
	data, exists := s.data[runID]
	s.mu.RUnlock()

	if !exists {
		return nil, tracestore.ErrNotFound
	}
	return tracing.FromJSON(data)
}

// List implements tracestore.Store.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Delete implements tracestore.Store.
func (s *Store) Delete(ctx context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, runID)
	return nil
}

var _ tracestore.Store = (*Store)(nil)
