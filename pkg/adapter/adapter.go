// Package adapter defines the contract between the repair loop and the
// engines it validates against.
//
// An adapter owns a connection pool bound to one target engine. Validate
// checks a statement without leaving side effects: the statement is planned
// where the engine supports it and always runs inside a transaction that is
// rolled back. Concrete implementations live in pkg/adapters/.
package adapter

import (
	"context"
	"errors"

	"github.com/leapstack-labs/sqlrepair/pkg/core"
)

// Config is an alias for core.AdapterConfig.
type Config = core.AdapterConfig

// ErrNotConnected is returned when an adapter is used before Connect.
var ErrNotConnected = errors.New("database connection not established")

// Adapter defines the interface that all validation adapters must implement.
type Adapter interface {
	// Connect opens the connection pool using the provided config.
	Connect(ctx context.Context, cfg Config) error

	// Close closes the pool and releases resources.
	Close() error

	// Validate checks sql against the engine. A rejected statement is
	// reported in the result; the error return is reserved for
	// infrastructure failures (no connection, cancelled context).
	Validate(ctx context.Context, sql string) (*core.ValidationResult, error)

	// DialectName returns the dialect this adapter validates.
	DialectName() string

	// PoolSize returns the maximum number of concurrent validations.
	PoolSize() int
}
