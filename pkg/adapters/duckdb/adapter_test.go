package duckdb

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqlrepair/pkg/adapter"
	"github.com/leapstack-labs/sqlrepair/pkg/classify"
	"github.com/leapstack-labs/sqlrepair/pkg/core"
)

func connect(t *testing.T, cfg core.AdapterConfig) *Adapter {
	t.Helper()
	adp := New(nil)
	require.NoError(t, adp.Connect(context.Background(), cfg))
	t.Cleanup(func() { _ = adp.Close() })
	return adp
}

func TestAdapter_Connect(t *testing.T) {
	tests := []struct {
		name      string
		setupPath func(t *testing.T) string
		verify    func(t *testing.T, path string)
	}{
		{
			name: "in-memory",
			setupPath: func(_ *testing.T) string {
				return ":memory:"
			},
		},
		{
			name: "file-based",
			setupPath: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "test.duckdb")
			},
			verify: func(t *testing.T, path string) {
				_, err := os.Stat(path)
				assert.False(t, os.IsNotExist(err), "database file was not created")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dbPath := tt.setupPath(t)
			adp := connect(t, core.AdapterConfig{Path: dbPath})
			assert.True(t, adp.IsConnected())

			if tt.verify != nil {
				tt.verify(t, dbPath)
			}
		})
	}
}

func TestAdapter_Validate(t *testing.T) {
	ctx := context.Background()
	adp := connect(t, core.AdapterConfig{Path: ":memory:"})

	_, err := adp.DB.ExecContext(ctx, "CREATE TABLE orders (id INTEGER, amount DOUBLE)")
	require.NoError(t, err)

	res, err := adp.Validate(ctx, "SELECT id, amount FROM orders;")
	require.NoError(t, err)
	assert.True(t, res.Success)

	res, err = adp.Validate(ctx, "SELECT total FROM orders")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, core.KindUndefinedColumn, classify.Classify("duckdb", res.RawError).Kind)

	res, err = adp.Validate(ctx, "SELECT * FROM missing_table")
	require.NoError(t, err)
	assert.Equal(t, core.KindUndefinedTable, classify.Classify("duckdb", res.RawError).Kind)
}

func TestAdapter_ValidateLeavesNoTrace(t *testing.T) {
	ctx := context.Background()
	adp := connect(t, core.AdapterConfig{Path: ":memory:"})

	res, err := adp.Validate(ctx, "CREATE TABLE scratch (id INTEGER)")
	require.NoError(t, err)
	assert.True(t, res.Success)

	res, err = adp.Validate(ctx, "SELECT * FROM scratch")
	require.NoError(t, err)
	assert.False(t, res.Success, "table created during validation must be rolled back")
}

func TestAdapter_NotConnected(t *testing.T) {
	adp := New(nil)
	_, err := adp.Validate(context.Background(), "SELECT 1")
	assert.ErrorIs(t, err, adapter.ErrNotConnected)
}

func TestAdapter_Registry(t *testing.T) {
	assert.True(t, adapter.IsRegistered("duckdb"))

	adp, err := adapter.NewAdapter(adapter.Config{Type: "duckdb"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "duckdb", adp.DialectName())
}

func TestConnect_WithSettings(t *testing.T) {
	ctx := context.Background()
	adp := connect(t, core.AdapterConfig{
		Path: ":memory:",
		Params: map[string]any{
			"settings": map[string]any{
				"threads": "2",
			},
		},
		MaxConnections: 1,
	})

	var threads string
	require.NoError(t, adp.DB.QueryRowContext(ctx, "SELECT current_setting('threads')").Scan(&threads))
	assert.Equal(t, "2", threads)
	assert.Equal(t, 1, adp.PoolSize())
}

func TestConnect_InvalidParams(t *testing.T) {
	adp := New(nil)
	err := adp.Connect(context.Background(), core.AdapterConfig{
		Params: map[string]any{"bogus": true},
	})
	require.Error(t, err)
	assert.False(t, adp.IsConnected())
}
