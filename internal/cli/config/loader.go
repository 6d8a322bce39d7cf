package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	intconfig "github.com/leapstack-labs/sqlrepair/internal/config"
	"github.com/leapstack-labs/sqlrepair/pkg/dialect"
)

// loggerKey stores the logger in a command context.
type loggerKey struct{}

// envPrefix is the prefix of environment overrides. A double underscore
// separates nesting levels: SQLREPAIR_TARGET__HOST sets target.host.
const envPrefix = "SQLREPAIR_"

// flagKeys maps flag names onto config keys where they differ.
var flagKeys = map[string]string{
	"state":   "state_path",
	"timeout": "query_timeout",
}

// skipFlags are flags that are not configuration.
var skipFlags = map[string]bool{
	"config": true,
	"help":   true,
}

func defaults() map[string]any {
	return map[string]any{
		"max_iterations":   intconfig.DefaultMaxIterations,
		"concurrency":      intconfig.DefaultConcurrency,
		"query_timeout":    intconfig.DefaultQueryTimeout,
		"min_query_length": intconfig.DefaultMinQueryLength,
		"dry_run":          false,
		"output":           intconfig.DefaultOutput,
		"verbose":          false,
		"state_path":       intconfig.DefaultStateFile,
	}
}

// Load reads configuration. cfgFile, when set, names the config file;
// otherwise the nearest sqlrepair.yaml at or above startDir is used.
// Only flags that were explicitly set override lower layers.
func Load(cfgFile, startDir string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if startDir == "" {
		startDir, _ = os.Getwd()
	}
	if abs, err := filepath.Abs(startDir); err == nil {
		startDir = abs
	}

	projectRoot := startDir
	if cfgFile != "" {
		abs, err := filepath.Abs(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("invalid config path %s: %w", cfgFile, err)
		}
		cfgFile = abs
		projectRoot = filepath.Dir(abs)
	} else if root := intconfig.FindProjectRoot(startDir); root != "" {
		projectRoot = root
		cfgFile = intconfig.FindConfigFile(root)
	}

	// 1. Defaults
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
	}

	// 3. Environment
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags
	var flagStatePath string
	if flags != nil {
		if f := flags.Lookup("state"); f != nil && f.Changed {
			flagStatePath, _ = filepath.Abs(f.Value.String())
		}
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed || skipFlags[f.Name] {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			if mapped, ok := flagKeys[key]; ok {
				key = mapped
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	cfg.ProjectRoot = projectRoot
	cfg.ConfigFile = cfgFile
	if flags != nil {
		if f := flags.Lookup("dialect"); f != nil && f.Changed {
			cfg.dialectFromFlag = true
		}
	}

	if flagStatePath != "" {
		cfg.StatePath = flagStatePath
	} else {
		cfg.StatePath = resolvePathRelativeTo(cfg.StatePath, projectRoot)
	}
	cfg.Rules.Disabled = splitList(cfg.Rules.Disabled)

	if cfg.Target != nil {
		expandTargetEnvVars(cfg.Target)
		if d, ok := dialect.Get(cfg.Target.Type); ok && d.Name != "postgres" && cfg.Target.Database != intconfig.MemoryDatabase {
			cfg.Target.Database = resolvePathRelativeTo(cfg.Target.Database, projectRoot)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// resolvePathRelativeTo resolves path against baseDir unless it is empty
// or absolute.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// splitList flattens comma-separated entries, as env vars deliver lists.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars expands ${VAR} with the variable's value. Unset variables
// are left as written.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if val, ok := os.LookupEnv(match[2 : len(match)-1]); ok {
			return val
		}
		return match
	})
}

func expandTargetEnvVars(t *TargetConfig) {
	t.Host = expandEnvVars(t.Host)
	t.User = expandEnvVars(t.User)
	t.Password = expandEnvVars(t.Password)
	t.Database = expandEnvVars(t.Database)
}

// WithLogger returns a context carrying logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// GetLogger retrieves the logger from a command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
			return l
		}
	}
	return slog.New(slog.DiscardHandler)
}

// configKey stores the loaded config in a command context.
type configKey struct{}

// WithConfig returns a context carrying cfg.
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext returns the config stored by WithConfig, or nil.
func FromContext(ctx context.Context) *Config {
	if ctx == nil {
		return nil
	}
	cfg, _ := ctx.Value(configKey{}).(*Config)
	return cfg
}
