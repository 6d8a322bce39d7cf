// Package state records repair runs in a local SQLite database.
package state

import (
	"context"
	"errors"
	"time"

	"github.com/leapstack-labs/sqlrepair/internal/report"
)

// ErrNotOpen is returned when the store is used before Open.
var ErrNotOpen = errors.New("state database not opened")

// Run is one recorded invocation of the repair command.
type Run struct {
	ID          string
	Document    string
	Dialect     string
	StartedAt   time.Time
	Elapsed     time.Duration
	Total       int
	Passed      int
	Stuck       int
	Exhausted   int
	ParseErrors int
}

// QueryRecord is the stored outcome of one query in a run.
type QueryRecord struct {
	RunID         string
	Number        int
	Title         string
	FinalStatus   string
	Reason        string
	Iterations    int
	Rewrites      int
	FinalSQL      string
	LastErrorKind string
}

// Store persists run history.
type Store interface {
	RecordRun(ctx context.Context, rep *report.Report) (*Run, error)
	ListRuns(ctx context.Context, limit int) ([]Run, error)
	ListQueries(ctx context.Context, runID string) ([]QueryRecord, error)
	Close() error
}

var _ Store = (*SQLiteStore)(nil)
