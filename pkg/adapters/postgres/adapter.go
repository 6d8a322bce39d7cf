// Package postgres provides a PostgreSQL validation adapter backed by pgxpool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/leapstack-labs/sqlrepair/pkg/adapter"
	"github.com/leapstack-labs/sqlrepair/pkg/core"
	"github.com/leapstack-labs/sqlrepair/pkg/dialect"
)

// reservedConnections is kept free of the server's max_connections.
const reservedConnections = 3

// sqlStateAborted is "current transaction is aborted".
const sqlStateAborted = "25P02"

const rollbackTimeout = 5 * time.Second

// Adapter implements the adapter.Adapter interface for PostgreSQL.
type Adapter struct {
	pool   *pgxpool.Pool
	cfg    adapter.Config
	size   int
	logger *slog.Logger
}

// New creates a new PostgreSQL adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{logger: logger}
}

// DialectName returns the SQL dialect for this adapter.
func (a *Adapter) DialectName() string {
	return dialect.Postgres.Name
}

// PoolSize returns the effective pool cap after Connect.
func (a *Adapter) PoolSize() int {
	if a.size > 0 {
		return a.size
	}
	if a.cfg.MaxConnections > 0 {
		return a.cfg.MaxConnections
	}
	return adapter.DefaultPoolSize
}

// Connect opens the pool and sizes it below the server's max_connections.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	a.cfg = cfg

	poolCfg, err := pgxpool.ParseConfig(buildPostgresDSN(cfg))
	if err != nil {
		return fmt.Errorf("invalid postgres configuration: %w", err)
	}
	poolCfg.MaxConns = int32(a.PoolSize()) //nolint:gosec // small positive value
	poolCfg.MinConns = 0

	a.logger.Debug("connecting to postgres",
		slog.String("host", poolCfg.ConnConfig.Host),
		slog.String("database", cfg.Database),
		slog.Int("max_conns", int(poolCfg.MaxConns)))

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return fmt.Errorf("failed to open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("failed to ping postgres: %w", err)
	}
	a.pool = pool

	var raw string
	if err := pool.QueryRow(ctx, "SHOW max_connections").Scan(&raw); err != nil {
		a.logger.Warn("could not read max_connections", slog.String("error", err.Error()))
		a.size = a.PoolSize()
		return nil
	}
	serverMax, _ := strconv.Atoi(raw)
	a.size = capPoolSize(a.PoolSize(), serverMax)
	if a.size < int(poolCfg.MaxConns) {
		a.logger.Info("pool capped below server limit",
			slog.Int("requested", int(poolCfg.MaxConns)),
			slog.Int("max_connections", serverMax),
			slog.Int("pool_size", a.size))
	}
	return nil
}

// capPoolSize keeps requested strictly below the server limit.
func capPoolSize(requested, serverMax int) int {
	if serverMax <= 0 {
		return requested
	}
	limit := serverMax - reservedConnections
	if limit < 1 {
		limit = 1
	}
	if requested > limit {
		return limit
	}
	return requested
}

// Close closes the pool.
func (a *Adapter) Close() error {
	if a.pool != nil {
		a.logger.Debug("closing postgres pool")
		a.pool.Close()
		a.pool = nil
	}
	return nil
}

// Validate plans sql on a pooled connection inside a rolled-back
// transaction. The connection is released on every path.
func (a *Adapter) Validate(ctx context.Context, sql string) (*core.ValidationResult, error) {
	if a.pool == nil {
		return nil, adapter.ErrNotConnected
	}

	conn, err := a.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	stmt, planned := adapter.PlanStatement(dialect.Postgres, sql)
	var runErr error
	if planned {
		rows, err := tx.Query(ctx, stmt)
		if err == nil {
			for rows.Next() {
			}
			rows.Close()
			err = rows.Err()
		}
		runErr = err
	} else {
		_, runErr = tx.Exec(ctx, stmt)
	}

	rbCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rollbackTimeout)
	defer cancel()
	_ = tx.Rollback(rbCtx)

	if runErr == nil {
		return &core.ValidationResult{Success: true}, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	result, ok := toResult(runErr)
	if !ok {
		return nil, fmt.Errorf("validation failed: %w", runErr)
	}
	if isAborted(runErr) {
		a.logger.Debug("rolling back aborted transaction")
		_, _ = conn.Exec(rbCtx, "ROLLBACK")
	}
	return result, nil
}

// toResult unwraps a server error into a rejected result. Errors that did
// not come from the server are infrastructure failures.
func toResult(err error) (*core.ValidationResult, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return nil, false
	}
	return &core.ValidationResult{
		RawError: pgErr.Error(),
		Position: int(pgErr.Position),
	}, true
}

func isAborted(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == sqlStateAborted
}

// buildPostgresDSN constructs a PostgreSQL connection string.
func buildPostgresDSN(cfg adapter.Config) string {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}

	port := cfg.Port
	if port == 0 {
		port = 5432
	}

	sslmode := "disable"
	if mode, ok := cfg.Options["sslmode"]; ok {
		sslmode = mode
	}

	dsn := fmt.Sprintf("host=%s port=%d dbname=%s sslmode=%s",
		host, port, cfg.Database, sslmode)

	if cfg.Username != "" {
		dsn += fmt.Sprintf(" user=%s", cfg.Username)
	}
	if cfg.Password != "" {
		dsn += fmt.Sprintf(" password=%s", cfg.Password)
	}
	if cfg.Schema != "" {
		dsn += fmt.Sprintf(" search_path=%s", cfg.Schema)
	}

	return dsn
}
