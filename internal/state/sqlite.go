package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // database/sql driver "sqlite"

	"github.com/leapstack-labs/sqlrepair/internal/report"
	"github.com/leapstack-labs/sqlrepair/pkg/core"
)

// timeLayout sorts lexically in chronological order for UTC times.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteStore implements Store on SQLite.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// Open opens (creating if needed) the history database at path and
// migrates it to the current schema.
func Open(path string, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if dir := filepath.Dir(path); path != ":memory:" && dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
	}

	dsn := "file:" + path + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	if path == ":memory:" {
		dsn = "file::memory:?_pragma=foreign_keys(1)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}
	// One writer; an in-memory database also exists per connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping state database: %w", err)
	}
	if err := Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Debug("opened state database", slog.String("path", path))
	return &SQLiteStore{db: db, path: path, logger: logger}, nil
}

// NewWithDB wraps an existing, already migrated connection.
func NewWithDB(db *sql.DB, logger *slog.Logger) *SQLiteStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SQLiteStore{db: db, logger: logger}
}

// Path returns the database path given to Open.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RecordRun stores a report as a new run and returns it.
func (s *SQLiteStore) RecordRun(ctx context.Context, rep *report.Report) (*Run, error) {
	if s.db == nil {
		return nil, ErrNotOpen
	}

	b := rep.Body
	run := &Run{
		ID:          uuid.New().String(),
		Document:    b.Document,
		Dialect:     b.Dialect,
		StartedAt:   rep.Timing.Started.UTC(),
		Elapsed:     rep.Timing.Elapsed,
		Total:       b.Total,
		Passed:      b.Count(core.FinalPassed),
		Stuck:       b.Count(core.FinalStuck),
		Exhausted:   b.Count(core.FinalExhausted),
		ParseErrors: b.Count(core.FinalParseError),
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}

	s.logger.Debug("recording run",
		slog.String("id", run.ID),
		slog.String("document", run.Document),
		slog.Int("queries", run.Total))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, document, dialect, started_at, elapsed_ms, total, passed, stuck, exhausted, parse_errors)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Document, run.Dialect, run.StartedAt.Format(timeLayout), run.Elapsed.Milliseconds(),
		run.Total, run.Passed, run.Stuck, run.Exhausted, run.ParseErrors,
	); err != nil {
		return nil, fmt.Errorf("failed to insert run: %w", err)
	}

	for _, r := range b.Records {
		trace, err := json.Marshal(r.Trace)
		if err != nil {
			return nil, fmt.Errorf("failed to encode trace for query %d: %w", r.Number, err)
		}
		lastKind := ""
		if n := len(r.ErrorHistory); n > 0 {
			lastKind = string(r.ErrorHistory[n-1].Kind)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO outcomes (run_id, number, title, final_status, reason, iterations, rewrites, final_sql, last_error_kind, trace)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, r.Number, r.Title, string(r.FinalStatus), string(r.Reason),
			r.IterationCount, r.RewriteCount, r.FinalSQL, lastKind, string(trace),
		); err != nil {
			return nil, fmt.Errorf("failed to insert outcome for query %d: %w", r.Number, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first. A limit of zero or
// less returns every run.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if s.db == nil {
		return nil, ErrNotOpen
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, document, dialect, started_at, elapsed_ms, total, passed, stuck, exhausted, parse_errors
		 FROM runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		var (
			r         Run
			started   string
			elapsedMS int64
		)
		if err := rows.Scan(&r.ID, &r.Document, &r.Dialect, &started, &elapsedMS,
			&r.Total, &r.Passed, &r.Stuck, &r.Exhausted, &r.ParseErrors); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if r.StartedAt, err = time.Parse(timeLayout, started); err != nil {
			return nil, fmt.Errorf("run %s has malformed start time %q: %w", r.ID, started, err)
		}
		r.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// ListQueries returns the stored outcomes of a run ordered by query number.
func (s *SQLiteStore) ListQueries(ctx context.Context, runID string) ([]QueryRecord, error) {
	if s.db == nil {
		return nil, ErrNotOpen
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, number, title, final_status, reason, iterations, rewrites, final_sql, last_error_kind
		 FROM outcomes WHERE run_id = ? ORDER BY number`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list queries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []QueryRecord
	for rows.Next() {
		var q QueryRecord
		if err := rows.Scan(&q.RunID, &q.Number, &q.Title, &q.FinalStatus, &q.Reason,
			&q.Iterations, &q.Rewrites, &q.FinalSQL, &q.LastErrorKind); err != nil {
			return nil, fmt.Errorf("failed to scan query: %w", err)
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		var exists int
		err := s.db.QueryRowContext(ctx, `SELECT 1 FROM runs WHERE id = ?`, runID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("run not found: %s", runID)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to look up run: %w", err)
		}
	}
	return out, nil
}
