// Package history persists refactoring run records to SQLite so repeated
// runs against a workspace can be compared over time.
package history

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Run is one invocation of the batch runner.
type Run struct {
	ID        string
	Workspace string
	Provider  string
	StartedAt time.Time
}

// NewRun creates a Run record with a fresh ID.
func NewRun(workspace, providerName string) Run {
	return Run{
		ID:        uuid.New().String(),
		Workspace: workspace,
		Provider:  providerName,
		StartedAt: time.Now(),
	}
}

// TaskExecution is one task result within a run.
type TaskExecution struct {
	ID           int64
	RunID        string
	TaskType     string
	Success      bool
	Actions      int
	Iterations   int
	DurationSecs float64
	ErrorMessage string
	Timestamp    time.Time
}

// TypeStats aggregates executions of one task type.
type TypeStats struct {
	TaskType    string
	Executions  int
	Successes   int
	SuccessRate float64
	AvgActions  float64
}

// Stats summarizes the whole store.
type Stats struct {
	TotalRuns       int
	TotalExecutions int
	SuccessRate     float64
	ByType          []TypeStats
}

// Store manages the SQLite run history database.
type Store struct {
	db     *sql.DB
	dbPath string
}

// NewStore opens (creating if necessary) the database at dbPath and applies
// the schema. ":memory:" is supported for tests.
func NewStore(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// busy_timeout must come first so later statements wait on locks.
	pragmas := []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if err := execWithRetry(db, pragma, 5, 10*time.Millisecond); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	if err := execWithRetry(db, schemaSQL, 5, 10*time.Millisecond); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db, dbPath: dbPath}, nil
}

// execWithRetry retries a statement with exponential backoff on
// "database is locked" errors from concurrent initialization.
func execWithRetry(db *sql.DB, stmt string, maxRetries int, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := db.Exec(stmt)
		if err == nil {
			return nil
		}
		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}
		lastErr = err
		time.Sleep(baseDelay * time.Duration(1<<attempt))
	}
	return lastErr
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// RecordRun inserts a run record.
func (s *Store) RecordRun(ctx context.Context, run Run) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, workspace, provider, started_at) VALUES (?, ?, ?, ?)`,
		run.ID, run.Workspace, run.Provider, run.StartedAt)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

// RecordExecution inserts a task execution record.
func (s *Store) RecordExecution(ctx context.Context, exec TaskExecution) error {
	ts := exec.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO task_executions
		 (run_id, task_type, success, actions, iterations, duration_secs, error_message, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		exec.RunID, exec.TaskType, exec.Success, exec.Actions, exec.Iterations,
		exec.DurationSecs, exec.ErrorMessage, ts)
	if err != nil {
		return fmt.Errorf("record execution: %w", err)
	}
	return nil
}

// RecentExecutions returns up to limit executions, newest first.
func (s *Store) RecentExecutions(ctx context.Context, limit int) ([]TaskExecution, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, task_type, success, actions, iterations, duration_secs, error_message, timestamp
		 FROM task_executions ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query executions: %w", err)
	}
	defer rows.Close()

	var execs []TaskExecution
	for rows.Next() {
		var e TaskExecution
		if err := rows.Scan(&e.ID, &e.RunID, &e.TaskType, &e.Success, &e.Actions,
			&e.Iterations, &e.DurationSecs, &e.ErrorMessage, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan execution: %w", err)
		}
		execs = append(execs, e)
	}
	return execs, rows.Err()
}

// SummaryStats aggregates the store: totals plus a per-type breakdown.
func (s *Store) SummaryStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&stats.TotalRuns)
	if err != nil {
		return nil, fmt.Errorf("count runs: %w", err)
	}

	var successes int
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(success), 0) FROM task_executions`).
		Scan(&stats.TotalExecutions, &successes)
	if err != nil {
		return nil, fmt.Errorf("count executions: %w", err)
	}
	if stats.TotalExecutions > 0 {
		stats.SuccessRate = float64(successes) / float64(stats.TotalExecutions) * 100
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT task_type, COUNT(*), COALESCE(SUM(success), 0), COALESCE(AVG(actions), 0)
		 FROM task_executions GROUP BY task_type ORDER BY task_type`)
	if err != nil {
		return nil, fmt.Errorf("query type stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ts TypeStats
		if err := rows.Scan(&ts.TaskType, &ts.Executions, &ts.Successes, &ts.AvgActions); err != nil {
			return nil, fmt.Errorf("scan type stats: %w", err)
		}
		if ts.Executions > 0 {
			ts.SuccessRate = float64(ts.Successes) / float64(ts.Executions) * 100
		}
		stats.ByType = append(stats.ByType, ts)
	}
	return stats, rows.Err()
}
