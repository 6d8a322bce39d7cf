package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/leapstack-labs/sqlrepair/pkg/adapters/duckdb"
	_ "github.com/leapstack-labs/sqlrepair/pkg/adapters/postgres"
	_ "github.com/leapstack-labs/sqlrepair/pkg/adapters/sqlite"
)

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sqlrepair.yaml"), []byte(content), 0o644))
}

func testFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("config", "", "")
	fs.String("dialect", "", "")
	fs.Int("max-iterations", 0, "")
	fs.Int("concurrency", 0, "")
	fs.Duration("timeout", 0, "")
	fs.Bool("dry-run", false, "")
	fs.String("state", "", "")
	fs.StringP("output", "o", "", "")
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load("", dir, testFlags(t))
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.MaxIterations)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, 30*time.Second, cfg.QueryTimeout)
	assert.Equal(t, 40, cfg.MinQueryLength)
	assert.Equal(t, "auto", cfg.OutputFormat)
	assert.False(t, cfg.DryRun)
	assert.Equal(t, filepath.Join(dir, ".sqlrepair", "history.db"), cfg.StatePath)
	assert.Empty(t, cfg.ConfigFile)
	assert.Nil(t, cfg.Target)
}

func TestLoad_FileFoundAboveStartDir(t *testing.T) {
	root := t.TempDir()
	docs := filepath.Join(root, "docs")
	require.NoError(t, os.MkdirAll(docs, 0o755))
	writeConfig(t, root, `
dialect: duckdb
max_iterations: 5
query_timeout: 2s
target:
  type: duckdb
  database: data/warehouse.duckdb
  params:
    extensions: [spatial]
rules:
  disabled: [FN05]
`)

	cfg, err := Load("", docs, nil)
	require.NoError(t, err)

	assert.Equal(t, root, cfg.ProjectRoot)
	assert.Equal(t, filepath.Join(root, "sqlrepair.yaml"), cfg.ConfigFile)
	assert.Equal(t, "duckdb", cfg.Dialect)
	assert.Equal(t, 5, cfg.MaxIterations)
	assert.Equal(t, 2*time.Second, cfg.QueryTimeout)
	require.NotNil(t, cfg.Target)
	assert.Equal(t, filepath.Join(root, "data", "warehouse.duckdb"), cfg.Target.Database)
	assert.Contains(t, cfg.Target.Params, "extensions")
	assert.Equal(t, []string{"FN05"}, cfg.Rules.Disabled)
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "max_iterations: 5\nconcurrency: 2\noutput: text\n")
	t.Setenv("SQLREPAIR_MAX_ITERATIONS", "7")
	t.Setenv("SQLREPAIR_CONCURRENCY", "3")
	t.Setenv("SQLREPAIR_RULES__DISABLED", "FN01, CS02")

	cfg, err := Load("", dir, testFlags(t, "--max-iterations=9", "--timeout=5s"))
	require.NoError(t, err)

	assert.Equal(t, 9, cfg.MaxIterations, "flag beats env")
	assert.Equal(t, 3, cfg.Concurrency, "env beats file")
	assert.Equal(t, "text", cfg.OutputFormat, "file beats default")
	assert.Equal(t, 5*time.Second, cfg.QueryTimeout)
	assert.Equal(t, []string{"FN01", "CS02"}, cfg.Rules.Disabled)
}

func TestLoad_ExplicitConfigAndStateFlag(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("state_path: db/history.db\n"), 0o644))

	cfg, err := Load(cfgPath, "", nil)
	require.NoError(t, err)
	assert.Equal(t, cfgPath, cfg.ConfigFile)
	assert.Equal(t, filepath.Join(dir, "db", "history.db"), cfg.StatePath)

	abs := filepath.Join(t.TempDir(), "other.db")
	cfg, err = Load(cfgPath, "", testFlags(t, "--state", abs))
	require.NoError(t, err)
	assert.Equal(t, abs, cfg.StatePath)
}

func TestLoad_ExpandsTargetEnvVars(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SQLREPAIR_TEST_PASSWORD", "s3cret")
	writeConfig(t, dir, `
target:
  type: postgres
  database: app
  user: repair
  password: ${SQLREPAIR_TEST_PASSWORD}
  host: ${SQLREPAIR_TEST_UNSET_HOST}
`)

	cfg, err := Load("", dir, nil)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.Target.Password)
	assert.Equal(t, "${SQLREPAIR_TEST_UNSET_HOST}", cfg.Target.Host)
	assert.Equal(t, "app", cfg.Target.Database)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"zero budget", "max_iterations: 0\n", "max_iterations"},
		{"zero concurrency", "concurrency: 0\n", "concurrency"},
		{"bad output", "output: html\n", "unknown output mode"},
		{"bad dialect", "dialect: oracle\n", "unknown dialect"},
		{"bad yaml", "max_iterations: [\n", "error reading config file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfig(t, dir, tt.content)
			_, err := Load("", dir, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestResolveTarget(t *testing.T) {
	tests := []struct {
		name       string
		cfg        Config
		docDialect string
		want       string
		wantErr    string
	}{
		{
			name: "target type decides",
			cfg:  Config{Target: &TargetConfig{Type: "sqlite"}},
			want: "sqlite",
		},
		{
			name:       "document beats config",
			cfg:        Config{Dialect: "sqlite"},
			docDialect: "duckdb",
			want:       "duckdb",
		},
		{
			name:       "flag beats document",
			cfg:        Config{Dialect: "sqlite", dialectFromFlag: true},
			docDialect: "duckdb",
			want:       "sqlite",
		},
		{
			name:       "mismatch",
			cfg:        Config{Target: &TargetConfig{Type: "sqlite"}},
			docDialect: "duckdb",
			wantErr:    "does not match target type",
		},
		{
			name:    "postgres needs a database",
			cfg:     Config{},
			wantErr: "target.database is required",
		},
		{
			name: "postgres alias",
			cfg:  Config{Target: &TargetConfig{Type: "postgresql", Database: "app"}},
			want: "postgres",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, target, err := tt.cfg.ResolveTarget(tt.docDialect)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Name)
			assert.Equal(t, tt.want, target.Type)
		})
	}
}

func TestResolveTarget_DoesNotMutateConfig(t *testing.T) {
	cfg := Config{Target: &TargetConfig{Type: "duckdb"}}
	_, target, err := cfg.ResolveTarget("")
	require.NoError(t, err)
	assert.Equal(t, ":memory:", target.Database)
	assert.Empty(t, cfg.Target.Database)
}
