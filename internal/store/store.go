// Package store archives completed optimization runs in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	_ "modernc.org/sqlite"

	"github.com/optkit/simplexd/optimization"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	objective   TEXT NOT NULL,
	dimension   INTEGER NOT NULL,
	iterations  INTEGER NOT NULL,
	maximize    INTEGER NOT NULL DEFAULT 0,
	point       TEXT NOT NULL,
	value       REAL NOT NULL,
	started_at  TIMESTAMP NOT NULL,
	finished_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS runs_finished_at ON runs(finished_at);
`

// Run is a persisted optimization run.
type Run struct {
	ID         string
	Objective  string
	Dimension  int
	Iterations int
	Maximize   bool
	Best       optimization.Solution
	StartedAt  time.Time
	FinishedAt time.Time
}

// Store wraps the runs database.
type Store struct {
	db *sql.DB
}

// Open opens (and if necessary creates) the runs database at dsn.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, optimization.WrapError(err, "opening runs database").WithComponent("store")
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, optimization.WrapError(err, "creating runs schema").WithComponent("store")
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save persists a completed run. The best point is stored as a JSON array.
func (s *Store) Save(ctx context.Context, run Run) error {
	point, err := json.Marshal(run.Best.Parameters)
	if err != nil {
		return optimization.WrapError(err, "encoding best point").WithComponent("store")
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (id, objective, dimension, iterations, maximize, point, value, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Objective, run.Dimension, run.Iterations, run.Maximize,
		string(point), run.Best.Value, run.StartedAt.UTC(), run.FinishedAt.UTC(),
	)
	if err != nil {
		return optimization.WrapErrorf(err, "saving run %s", run.ID).WithComponent("store")
	}
	return nil
}

// Get returns the run with the given id, or (nil, nil) when absent.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, objective, dimension, iterations, maximize, point, value, started_at, finished_at
		FROM runs WHERE id = ?`, id)

	run, err := scanRun(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, optimization.WrapErrorf(err, "loading run %s", id).WithComponent("store")
	}
	return run, nil
}

// List returns up to limit runs, most recently finished first.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, objective, dimension, iterations, maximize, point, value, started_at, finished_at
		FROM runs ORDER BY finished_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, optimization.WrapError(err, "listing runs").WithComponent("store")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows.Scan)
		if err != nil {
			return nil, optimization.WrapError(err, "scanning run").WithComponent("store")
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, optimization.WrapError(err, "listing runs").WithComponent("store")
	}
	return runs, nil
}

func scanRun(scan func(dest ...interface{}) error) (*Run, error) {
	var run Run
	var point string
	if err := scan(
		&run.ID, &run.Objective, &run.Dimension, &run.Iterations, &run.Maximize,
		&point, &run.Best.Value, &run.StartedAt, &run.FinishedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(point), &run.Best.Parameters); err != nil {
		return nil, err
	}
	return &run, nil
}
