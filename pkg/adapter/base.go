package adapter

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/sqlrepair/pkg/classify"
	"github.com/leapstack-labs/sqlrepair/pkg/core"
	"github.com/leapstack-labs/sqlrepair/pkg/dialect"
	"github.com/leapstack-labs/sqlrepair/pkg/sqltext"
)

// DefaultPoolSize is used when the config does not cap the pool.
const DefaultPoolSize = 4

// ErrorMapper turns a driver error into the engine message and 1-based
// character position. ok is false when err is not a statement rejection.
type ErrorMapper func(err error) (message string, position int, ok bool)

// BaseSQLAdapter provides database/sql validation for adapters.
// Embed this struct in concrete adapter implementations to get standard
// Close, Validate and PoolSize implementations.
type BaseSQLAdapter struct {
	DB      *sql.DB
	Cfg     core.AdapterConfig
	Logger  *slog.Logger
	Dialect *dialect.Dialect

	// MapError overrides the default driver error mapping.
	MapError ErrorMapper
}

// Close closes the database connection.
func (b *BaseSQLAdapter) Close() error {
	if b.DB != nil {
		if b.Logger != nil {
			b.Logger.Debug("closing database connection")
		}
		return b.DB.Close()
	}
	return nil
}

// IsConnected returns true if the database connection is established.
func (b *BaseSQLAdapter) IsConnected() bool {
	return b.DB != nil
}

// PoolSize returns the configured pool cap.
func (b *BaseSQLAdapter) PoolSize() int {
	if b.Cfg.MaxConnections > 0 {
		return b.Cfg.MaxConnections
	}
	return DefaultPoolSize
}

// ConfigurePool applies the pool cap to the open database.
func (b *BaseSQLAdapter) ConfigurePool() {
	if b.DB == nil {
		return
	}
	b.DB.SetMaxOpenConns(b.PoolSize())
	b.DB.SetMaxIdleConns(b.PoolSize())
}

// PlanStatement returns the statement to run for sqlText: its plan-only
// form when the dialect can plan it, otherwise the statement itself.
func PlanStatement(d *dialect.Dialect, sqlText string) (string, bool) {
	stmt := sqltext.TrimTerminator(sqlText)
	if d != nil && d.CanPlan(sqltext.FirstKeyword(stmt)) {
		return d.PlanPrefix + " " + stmt, true
	}
	return stmt, false
}

// Validate runs sqlText on a dedicated connection inside a transaction that
// is always rolled back. The connection is returned to the pool on every
// path.
func (b *BaseSQLAdapter) Validate(ctx context.Context, sqlText string) (*core.ValidationResult, error) {
	if b.DB == nil {
		return nil, ErrNotConnected
	}

	conn, err := b.DB.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer func() { _ = conn.Close() }()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	stmt, planned := PlanStatement(b.Dialect, sqlText)
	runErr := run(ctx, tx, stmt, planned)
	_ = tx.Rollback()

	if runErr == nil {
		return &core.ValidationResult{Success: true}, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	mapErr := b.MapError
	if mapErr == nil {
		mapErr = DefaultErrorMapper
	}
	msg, pos, ok := mapErr(runErr)
	if !ok {
		return nil, fmt.Errorf("validation failed: %w", runErr)
	}

	if b.isAborted(msg) {
		if b.Logger != nil {
			b.Logger.Debug("rolling back aborted transaction")
		}
		_, _ = conn.ExecContext(ctx, "ROLLBACK")
	}

	return &core.ValidationResult{RawError: msg, Position: pos}, nil
}

func run(ctx context.Context, tx *sql.Tx, stmt string, planned bool) error {
	if !planned {
		_, err := tx.ExecContext(ctx, stmt)
		return err
	}
	rows, err := tx.QueryContext(ctx, stmt)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
	}
	return rows.Err()
}

func (b *BaseSQLAdapter) isAborted(msg string) bool {
	name := ""
	if b.Dialect != nil {
		name = b.Dialect.Name
	}
	return classify.Classify(name, msg).Kind == core.KindTransactionAborted
}

// DefaultErrorMapper treats every error as a statement rejection except
// broken connections and finished transactions.
func DefaultErrorMapper(err error) (string, int, bool) {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) || errors.Is(err, sql.ErrTxDone) {
		return "", 0, false
	}
	return err.Error(), 0, true
}
