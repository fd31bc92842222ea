// Package history persists validation runs to SQLite so successive runs
// over the same preset directory can be compared: a preset that was
// passing and now is not is a regression worth noticing even when the
// current run's outcome set is allowed.
package history

import (
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/harrison/presetbridge/internal/validator"
)

//go:embed schema.sql
var schemaSQL string

// RunSummary is one recorded validation run.
type RunSummary struct {
	ID       string
	Started  time.Time
	Finished time.Time
	Total    int
	Passed   int
	Failed   int
}

// RunEntry is one preset's recorded outcome within a run.
type RunEntry struct {
	Preset   string
	Category string
	Cause    string
	Elapsed  time.Duration
}

// Store manages the run-history database.
type Store struct {
	db *sql.DB
}

// NewStore opens (creating if needed) the history database at dbPath.
func NewStore(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// busy_timeout first so the remaining pragmas wait on locks.
	pragmas := []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// RecordRun stores a finalized report and returns the new run's id.
func (s *Store) RecordRun(report *validator.Report, allowed map[validator.Category]bool) (string, error) {
	id := uuid.NewString()

	passed := report.Counts()[validator.Pass]
	failed := len(report.Failing(allowed))

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO runs (id, started_at, finished_at, total, passed, failed) VALUES (?, ?, ?, ?, ?, ?)`,
		id, report.Started, report.Finished, report.Total, passed, failed,
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	for _, e := range report.Entries {
		_, err = tx.Exec(
			`INSERT INTO run_entries (run_id, preset, category, cause, elapsed_ms) VALUES (?, ?, ?, ?, ?)`,
			id, e.Preset, e.Category, e.Cause, e.Elapsed.Milliseconds(),
		)
		if err != nil {
			return "", fmt.Errorf("insert entry for %s: %w", e.Preset, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit run: %w", err)
	}
	return id, nil
}

// RecentRuns returns up to limit runs, newest first.
func (s *Store) RecentRuns(limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT id, started_at, finished_at, total, passed, failed
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(&r.ID, &r.Started, &r.Finished, &r.Total, &r.Passed, &r.Failed); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// RunEntries returns the per-preset outcomes of one run, sorted by preset.
func (s *Store) RunEntries(runID string) ([]RunEntry, error) {
	rows, err := s.db.Query(
		`SELECT preset, category, cause, elapsed_ms
		 FROM run_entries WHERE run_id = ? ORDER BY preset`, runID)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var entries []RunEntry
	for rows.Next() {
		var e RunEntry
		var ms int64
		if err := rows.Scan(&e.Preset, &e.Category, &e.Cause, &ms); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.Elapsed = time.Duration(ms) * time.Millisecond
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Prune deletes the oldest runs beyond keep. Zero keep disables pruning.
func (s *Store) Prune(keep int) error {
	if keep <= 0 {
		return nil
	}
	_, err := s.db.Exec(
		`DELETE FROM runs WHERE id NOT IN
		 (SELECT id FROM runs ORDER BY started_at DESC LIMIT ?)`, keep)
	if err != nil {
		return fmt.Errorf("prune runs: %w", err)
	}
	return nil
}
