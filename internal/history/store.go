// ============================================================================
// hutt - Helpful Utility for Testing Tutorials
// ============================================================================
//
// Package:     history
// Description: SQLite store of past tutorial runs and their steps
// License:     Apache-2.0
// ============================================================================

package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/travissluka/hutt/internal/engine"
	hutterr "github.com/travissluka/hutt/pkg/core/error"
)

// Run status values
const (
	StatusRunning = "running"
	StatusPassed  = "passed"
	StatusFailed  = "failed"
	StatusAborted = "aborted"
)

// Run is one recorded invocation
type Run struct {
	ID         string
	Tutorial   string
	WorkDir    string
	Mode       string
	Steps      int
	StartedAt  time.Time
	FinishedAt time.Time // zero while running or when interrupted
	Attempted  int
	Failed     int
	Duration   time.Duration
	Status     string
	Fatal      string
}

// Step is one recorded step result
type Step struct {
	Index    int
	File     string
	Line     int
	Command  string
	Status   string
	Error    string
	Duration time.Duration
}

// Store implements engine.Recorder on SQLite
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

var _ engine.Recorder = (*Store)(nil)

// Config holds configuration for the store
type Config struct {
	Path string
}

// DefaultPath returns the default database location
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".hutt", "history.db")
	}
	return filepath.Join(home, ".local", "share", "hutt", "history.db")
}

// Open opens (and if needed creates) the history database
func Open(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		cfg.Path = DefaultPath()
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		tutorial TEXT NOT NULL,
		workdir TEXT NOT NULL,
		mode TEXT NOT NULL,
		steps INTEGER NOT NULL,
		started_at DATETIME NOT NULL,
		finished_at DATETIME,
		attempted INTEGER NOT NULL DEFAULT 0,
		failed INTEGER NOT NULL DEFAULT 0,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		fatal TEXT
	);

	CREATE TABLE IF NOT EXISTS steps (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		idx INTEGER NOT NULL,
		file TEXT NOT NULL,
		line INTEGER NOT NULL,
		command TEXT NOT NULL,
		status TEXT NOT NULL,
		error TEXT,
		duration_ms INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at DESC);
	CREATE INDEX IF NOT EXISTS idx_steps_run ON steps(run_id, id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// BeginRun inserts a run in the running state and returns its id
func (s *Store) BeginRun(ctx context.Context, info engine.RunInfo) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New().String()
	started := info.Started
	if started.IsZero() {
		started = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, tutorial, workdir, mode, steps, started_at, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, id, info.Tutorial, info.WorkDir, info.Mode.String(), info.Steps, started.UTC(), StatusRunning)
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}
	return id, nil
}

// RecordStep stores one step result
func (s *Store) RecordStep(ctx context.Context, runID string, r engine.StepResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO steps (run_id, idx, file, line, command, status, error, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, runID, r.Index, r.File, r.Line, r.Command, string(r.Status), r.Error, r.Duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("failed to insert step: %w", err)
	}
	return nil
}

// EndRun stores the summary of a finished run
func (s *Store) EndRun(ctx context.Context, runID string, sum *engine.Summary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := StatusPassed
	fatal := ""
	switch {
	case sum.Fatal != nil:
		status = StatusAborted
		fatal = sum.Fatal.Error()
	case sum.Failed > 0:
		status = StatusFailed
	}

	_, err := s.db.ExecContext(ctx, `
		UPDATE runs
		SET finished_at = ?, attempted = ?, failed = ?, duration_ms = ?, status = ?, fatal = ?
		WHERE id = ?
	`, time.Now().UTC(), sum.Run, sum.Failed, sum.Duration.Milliseconds(), status, fatal, runID)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	return nil
}

// List returns the most recent runs, newest first
func (s *Store) List(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tutorial, workdir, mode, steps, started_at, finished_at,
		       attempted, failed, duration_ms, status, fatal
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Get returns a run and its steps. id may be a unique prefix.
func (s *Store) Get(ctx context.Context, id string) (*Run, []*Step, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tutorial, workdir, mode, steps, started_at, finished_at,
		       attempted, failed, duration_ms, status, fatal
		FROM runs
		WHERE id LIKE ? || '%'
		LIMIT 2
	`, id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query run: %w", err)
	}

	var matches []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			rows.Close()
			return nil, nil, err
		}
		matches = append(matches, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	switch len(matches) {
	case 0:
		return nil, nil, hutterr.Newf("run %q not found", id).WithCode(hutterr.CodeInvalidArgument)
	case 2:
		return nil, nil, hutterr.Newf("run id %q is ambiguous", id).WithCode(hutterr.CodeInvalidArgument)
	}
	run := matches[0]

	steps, err := s.steps(ctx, run.ID)
	if err != nil {
		return nil, nil, err
	}
	return run, steps, nil
}

func (s *Store) steps(ctx context.Context, runID string) ([]*Step, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT idx, file, line, command, status, error, duration_ms
		FROM steps
		WHERE run_id = ?
		ORDER BY id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query steps: %w", err)
	}
	defer rows.Close()

	var steps []*Step
	for rows.Next() {
		var (
			st       Step
			errText  sql.NullString
			duration int64
		)
		if err := rows.Scan(&st.Index, &st.File, &st.Line, &st.Command, &st.Status, &errText, &duration); err != nil {
			return nil, fmt.Errorf("failed to scan step: %w", err)
		}
		st.Error = errText.String
		st.Duration = time.Duration(duration) * time.Millisecond
		steps = append(steps, &st)
	}
	return steps, rows.Err()
}

// Prune deletes runs started before the cutoff and returns how many were
// removed.
func (s *Store) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-olderThan).UTC()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM steps WHERE run_id IN (SELECT id FROM runs WHERE started_at < ?)
	`, cutoff); err != nil {
		return 0, fmt.Errorf("failed to prune steps: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE started_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit prune: %w", err)
	}
	return res.RowsAffected()
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row scanner) (*Run, error) {
	var (
		r        Run
		finished sql.NullTime
		fatal    sql.NullString
		duration int64
	)
	err := row.Scan(&r.ID, &r.Tutorial, &r.WorkDir, &r.Mode, &r.Steps, &r.StartedAt, &finished,
		&r.Attempted, &r.Failed, &duration, &r.Status, &fatal)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, hutterr.New("run not found").WithCode(hutterr.CodeInvalidArgument)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}
	if finished.Valid {
		r.FinishedAt = finished.Time
	}
	r.Fatal = fatal.String
	r.Duration = time.Duration(duration) * time.Millisecond
	return &r, nil
}
