// Package config loads sqlrepair CLI configuration.
//
// Values are layered with koanf, lowest precedence first: built-in
// defaults, sqlrepair.yaml, SQLREPAIR_* environment variables and finally
// flags the user actually set.
package config

import (
	"time"

	"github.com/leapstack-labs/sqlrepair/pkg/core"
)

// TargetConfig is the validation engine connection block.
type TargetConfig = core.TargetConfig

// RulesConfig tunes the rewrite catalog.
type RulesConfig struct {
	// Disabled holds rule IDs that never run.
	Disabled []string `koanf:"disabled"`
}

// Config holds all CLI configuration options.
type Config struct {
	Dialect        string        `koanf:"dialect"`
	MaxIterations  int           `koanf:"max_iterations"`
	Concurrency    int           `koanf:"concurrency"`
	QueryTimeout   time.Duration `koanf:"query_timeout"`
	MinQueryLength int           `koanf:"min_query_length"`
	DryRun         bool          `koanf:"dry_run"`
	OutputFormat   string        `koanf:"output"`
	Verbose        bool          `koanf:"verbose"`
	StatePath      string        `koanf:"state_path"`
	Target         *TargetConfig `koanf:"target"`
	Rules          RulesConfig   `koanf:"rules"`

	// ProjectRoot is the directory relative paths resolve against.
	ProjectRoot string
	// ConfigFile is the file that was loaded, if any.
	ConfigFile string

	dialectFromFlag bool
}

// Default configuration values.
const (
	DefaultDialect = "postgres"
)
