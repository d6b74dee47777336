//go:build adapters_postgres

// Package postgres implements a trace store on PostgreSQL, one JSONB row per
// run.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/anyagent/anyagent/tracestore"
	"github.com/anyagent/anyagent/tracing"
)

type Store struct {
	conn  *pgx.Conn
	table string
}

// New creates a Postgres-backed trace store.
func New(conn *pgx.Conn, table string) *Store {
	if table == "" {
		table = "traces"
	}
	return &Store{conn: conn, table: table}
}

// EnsureSchema creates the backing table when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.conn.Exec(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
  run_id text PRIMARY KEY,
  trace jsonb NOT NULL,
  created_at timestamptz NOT NULL DEFAULT now()
)`, s.table))
	return err
}

// Save implements tracestore.Store.
func (s *Store) Save(ctx context.Context, trace *tracing.Trace) error {
	data, err := trace.JSON()
	if err != nil {
		return err
	}
	_, err = s.conn.Exec(ctx, fmt.Sprintf(
		"INSERT INTO %s (run_id, trace) VALUES ($1,$2) ON CONFLICT (run_id) DO UPDATE SET trace=excluded.trace",
		s.table), trace.RunID, data)
	return err
}

// Get implements tracestore.Store.
func (s *Store) Get(ctx context.Context, runID string) (*tracing.Trace, error) {
	var data []byte
	err := s.conn.QueryRow(ctx, fmt.Sprintf("SELECT trace FROM %s WHERE run_id=$1", s.table), runID).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, tracestore.ErrNotFound
		}
		return nil, err
	}
	return tracing.FromJSON(data)
}

// List implements tracestore.Store.
func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.conn.Query(ctx, fmt.Sprintf("SELECT run_id FROM %s ORDER BY created_at", s.table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Delete implements tracestore.Store.
func (s *Store) Delete(ctx context.Context, runID string) error {
	_, err := s.conn.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE run_id=$1", s.table), runID)
	return err
}

var _ tracestore.Store = (*Store)(nil)
