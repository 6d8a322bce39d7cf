package core

// TargetConfig holds the validation engine connection configuration.
type TargetConfig struct {
	Type string `koanf:"type"` // postgres, duckdb, sqlite

	// File-based databases (DuckDB, SQLite)
	Database string `koanf:"database"` // file path or database name

	// Network databases
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`

	Schema string `koanf:"schema"`

	// MaxConnections caps the validation pool. Adapters keep it below the
	// engine's own connection limit.
	MaxConnections int `koanf:"max_connections"`

	// Additional driver-specific options
	Options map[string]string `koanf:"options"`

	// Params holds adapter-specific configuration (e.g., DuckDB extensions, settings)
	Params map[string]any `koanf:"params"`
}

// AdapterConfig holds the configuration for connecting an adapter.
type AdapterConfig struct {
	Type           string
	Path           string
	Host           string
	Port           int
	Database       string
	Username       string
	Password       string
	Schema         string
	MaxConnections int
	Options        map[string]string
	Params         map[string]any
}

// ToAdapterConfig converts a target into adapter connection settings.
func (t *TargetConfig) ToAdapterConfig() AdapterConfig {
	return AdapterConfig{
		Type:           t.Type,
		Path:           t.Database,
		Host:           t.Host,
		Port:           t.Port,
		Database:       t.Database,
		Username:       t.User,
		Password:       t.Password,
		Schema:         t.Schema,
		MaxConnections: t.MaxConnections,
		Options:        t.Options,
		Params:         t.Params,
	}
}
