// Package sqlite provides a SQLite validation adapter using modernc.org/sqlite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"sort"

	"github.com/leapstack-labs/sqlrepair/pkg/adapter"
	"github.com/leapstack-labs/sqlrepair/pkg/dialect"

	_ "modernc.org/sqlite" // sqlite driver
)

const memoryPath = ":memory:"

// Adapter implements the adapter.Adapter interface for SQLite.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new SQLite adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger, Dialect: dialect.SQLite},
	}
}

// DialectName returns the SQL dialect for this adapter.
func (a *Adapter) DialectName() string {
	return dialect.SQLite.Name
}

// PoolSize is 1 for in-memory databases, where every connection would
// otherwise see its own empty database.
func (a *Adapter) PoolSize() int {
	if a.Cfg.Path == "" || a.Cfg.Path == memoryPath {
		return 1
	}
	return a.BaseSQLAdapter.PoolSize()
}

// Connect opens the database file. Options become per-connection pragmas.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	dsn := buildDSN(cfg)
	a.Logger.Debug("connecting to sqlite", slog.String("dsn", dsn))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	a.DB.SetMaxOpenConns(a.PoolSize())
	a.DB.SetMaxIdleConns(a.PoolSize())
	return nil
}

// buildDSN appends one _pragma parameter per option, sorted by name.
func buildDSN(cfg adapter.Config) string {
	path := cfg.Path
	if path == "" {
		path = memoryPath
	}
	if len(cfg.Options) == 0 {
		return path
	}

	keys := make([]string, 0, len(cfg.Options))
	for k := range cfg.Options {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	q := url.Values{}
	for _, k := range keys {
		q.Add("_pragma", fmt.Sprintf("%s(%s)", k, cfg.Options[k]))
	}
	return "file:" + path + "?" + q.Encode()
}
