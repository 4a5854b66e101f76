// Package reportdb persists batch diagnostic runs to a local SQLite
// database so past check_diagnostics runs can be listed and inspected
// after the fact.
package reportdb

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Run is one archived batch-diagnostics invocation.
type Run struct {
	ID              int64
	StartedAt       time.Time
	FinishedAt      time.Time
	ProjectRoot     string
	Language        string
	FilesChecked    int
	DiagnosticCount int
	Summary         string
}

// Store wraps a SQLite-backed run archive.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the SQLite database at path and
// ensures its schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("reportdb.Open: %w", err)
	}
	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initialize() error {
	const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	started_at TIMESTAMP NOT NULL,
	finished_at TIMESTAMP NOT NULL,
	project_root TEXT NOT NULL,
	language TEXT NOT NULL,
	files_checked INTEGER NOT NULL,
	diagnostic_count INTEGER NOT NULL,
	summary TEXT
);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("reportdb.initialize: %w", err)
	}
	return nil
}

// RecordRun inserts a completed run and returns its assigned id.
func (s *Store) RecordRun(run Run) (int64, error) {
	const query = `
INSERT INTO runs (started_at, finished_at, project_root, language, files_checked, diagnostic_count, summary)
VALUES (?, ?, ?, ?, ?, ?, ?)
`
	result, err := s.db.Exec(query, run.StartedAt, run.FinishedAt, run.ProjectRoot, run.Language, run.FilesChecked, run.DiagnosticCount, run.Summary)
	if err != nil {
		return 0, fmt.Errorf("reportdb.RecordRun: %w", err)
	}
	return result.LastInsertId()
}

// ListRuns returns the most recent runs, newest first, capped at limit.
func (s *Store) ListRuns(limit int) ([]Run, error) {
	const query = `
SELECT id, started_at, finished_at, project_root, language, files_checked, diagnostic_count, summary
FROM runs
ORDER BY started_at DESC
LIMIT ?
`
	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("reportdb.ListRuns: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.ProjectRoot, &r.Language, &r.FilesChecked, &r.DiagnosticCount, &r.Summary); err != nil {
			return nil, fmt.Errorf("reportdb.ListRuns: scan: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reportdb.ListRuns: %w", err)
	}
	return runs, nil
}

// GetRun returns one run by id.
func (s *Store) GetRun(id int64) (*Run, error) {
	const query = `
SELECT id, started_at, finished_at, project_root, language, files_checked, diagnostic_count, summary
FROM runs
WHERE id = ?
`
	var r Run
	err := s.db.QueryRow(query, id).Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.ProjectRoot, &r.Language, &r.FilesChecked, &r.DiagnosticCount, &r.Summary)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reportdb.GetRun: %w", err)
	}
	return &r, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }
