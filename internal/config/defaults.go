// Package config holds configuration defaults and target handling shared
// by the CLI loader and anything else that reads sqlrepair.yaml.
package config

import (
	"fmt"

	"github.com/leapstack-labs/sqlrepair/pkg/adapter"
	"github.com/leapstack-labs/sqlrepair/pkg/core"
	"github.com/leapstack-labs/sqlrepair/pkg/dialect"
)

// Default configuration values.
const (
	DefaultStateFile      = ".sqlrepair/history.db"
	DefaultOutput         = "auto"
	DefaultQueryTimeout   = "30s"
	DefaultMaxIterations  = 10
	DefaultMinQueryLength = 40
	DefaultConcurrency    = 4
	MemoryDatabase        = ":memory:"
)

// DefaultSchemaForType returns the default schema for a target type.
func DefaultSchemaForType(targetType string) string {
	if d, ok := dialect.Get(targetType); ok && d.DefaultSchema != "" {
		return d.DefaultSchema
	}
	return "main"
}

// ApplyTargetDefaults fills unset target fields for its type. File-based
// engines default to an in-memory database.
func ApplyTargetDefaults(t *core.TargetConfig) {
	if t == nil {
		return
	}
	if d, ok := dialect.Get(t.Type); ok {
		t.Type = d.Name
	}
	if t.Schema == "" {
		t.Schema = DefaultSchemaForType(t.Type)
	}

	switch t.Type {
	case "postgres":
		if t.Host == "" {
			t.Host = "localhost"
		}
		if t.Port == 0 {
			t.Port = 5432
		}
	case "duckdb", "sqlite":
		if t.Database == "" {
			t.Database = MemoryDatabase
		}
	}
}

// ValidateTarget checks that a target names a registered adapter and
// carries what that adapter needs to connect.
func ValidateTarget(t *core.TargetConfig) error {
	if t == nil || t.Type == "" {
		return fmt.Errorf("target type is required")
	}
	if !adapter.IsRegistered(t.Type) {
		return &adapter.UnknownAdapterError{Type: t.Type, Available: adapter.ListAdapters()}
	}
	if d, ok := dialect.Get(t.Type); ok && d == dialect.Postgres && t.Database == "" {
		return fmt.Errorf("target.database is required for postgres")
	}
	if t.Port < 0 || t.Port > 65535 {
		return fmt.Errorf("target.port %d is out of range", t.Port)
	}
	if t.MaxConnections < 0 {
		return fmt.Errorf("target.max_connections must not be negative")
	}
	return nil
}
