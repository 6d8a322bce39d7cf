package adapter

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqlrepair/pkg/core"
	"github.com/leapstack-labs/sqlrepair/pkg/dialect"
)

func newMockAdapter(t *testing.T, d *dialect.Dialect) (*BaseSQLAdapter, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return &BaseSQLAdapter{DB: db, Dialect: d}, mock
}

func TestBaseSQLAdapter_Close(t *testing.T) {
	tests := []struct {
		name    string
		setupDB bool
	}{
		{name: "close with nil DB", setupDB: false},
		{name: "close with open DB", setupDB: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := &BaseSQLAdapter{}

			if tt.setupDB {
				db, mock, err := sqlmock.New()
				require.NoError(t, err)
				mock.ExpectClose()
				base.DB = db
			}

			assert.NoError(t, base.Close())
		})
	}
}

func TestPlanStatement(t *testing.T) {
	tests := []struct {
		name        string
		dialect     *dialect.Dialect
		sql         string
		want        string
		wantPlanned bool
	}{
		{"postgres select", dialect.Postgres, "SELECT 1;", "EXPLAIN SELECT 1", true},
		{"postgres cte", dialect.Postgres, "with x as (select 1) select * from x", "EXPLAIN with x as (select 1) select * from x", true},
		{"sqlite select", dialect.SQLite, "SELECT 1", "EXPLAIN QUERY PLAN SELECT 1", true},
		{"ddl runs as is", dialect.DuckDB, "CREATE TABLE t (id INT);", "CREATE TABLE t (id INT)", false},
		{"nil dialect", nil, "SELECT 1;", "SELECT 1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, planned := PlanStatement(tt.dialect, tt.sql)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantPlanned, planned)
		})
	}
}

func TestBaseSQLAdapter_Validate(t *testing.T) {
	tests := []struct {
		name      string
		sql       string
		setupMock func(mock sqlmock.Sqlmock)
		want      *core.ValidationResult
	}{
		{
			name: "plannable statement passes",
			sql:  "SELECT 1;",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery("EXPLAIN SELECT 1").
					WillReturnRows(sqlmock.NewRows([]string{"QUERY PLAN"}).AddRow("Result"))
				mock.ExpectRollback()
			},
			want: &core.ValidationResult{Success: true},
		},
		{
			name: "rejected statement is a result",
			sql:  "SELECT x FROM t",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery("EXPLAIN SELECT x FROM t").
					WillReturnError(errors.New(`ERROR: column "x" does not exist (SQLSTATE 42703)`))
				mock.ExpectRollback()
			},
			want: &core.ValidationResult{RawError: `ERROR: column "x" does not exist (SQLSTATE 42703)`},
		},
		{
			name: "aborted transaction gets explicit rollback",
			sql:  "SELECT 1",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery("EXPLAIN SELECT 1").
					WillReturnError(errors.New("ERROR: current transaction is aborted, commands ignored until end of transaction block (SQLSTATE 25P02)"))
				mock.ExpectRollback()
				mock.ExpectExec("ROLLBACK").WillReturnResult(sqlmock.NewResult(0, 0))
			},
			want: &core.ValidationResult{RawError: "ERROR: current transaction is aborted, commands ignored until end of transaction block (SQLSTATE 25P02)"},
		},
		{
			name: "ddl executes inside rolled back transaction",
			sql:  "CREATE TABLE t (id INT);",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec("CREATE TABLE t (id INT)").WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectRollback()
			},
			want: &core.ValidationResult{Success: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base, mock := newMockAdapter(t, dialect.Postgres)
			tt.setupMock(mock)

			got, err := base.Validate(context.Background(), tt.sql)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestBaseSQLAdapter_Validate_NotConnected(t *testing.T) {
	base := &BaseSQLAdapter{}
	_, err := base.Validate(context.Background(), "SELECT 1")
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestBaseSQLAdapter_Validate_BeginFails(t *testing.T) {
	base, mock := newMockAdapter(t, dialect.Postgres)
	mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

	_, err := base.Validate(context.Background(), "SELECT 1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to begin transaction")
}

func TestBaseSQLAdapter_Validate_InfrastructureError(t *testing.T) {
	base, mock := newMockAdapter(t, dialect.Postgres)
	base.MapError = func(error) (string, int, bool) { return "", 0, false }

	mock.ExpectBegin()
	mock.ExpectQuery("EXPLAIN SELECT 1").WillReturnError(errors.New("server closed the connection"))
	mock.ExpectRollback()

	_, err := base.Validate(context.Background(), "SELECT 1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server closed the connection")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBaseSQLAdapter_Validate_CustomPosition(t *testing.T) {
	base, mock := newMockAdapter(t, dialect.SQLite)
	base.MapError = func(err error) (string, int, bool) { return err.Error(), 8, true }

	mock.ExpectBegin()
	mock.ExpectQuery("EXPLAIN QUERY PLAN SELECT bogus(").WillReturnError(errors.New("incomplete input"))
	mock.ExpectRollback()

	got, err := base.Validate(context.Background(), "SELECT bogus(")
	require.NoError(t, err)
	assert.False(t, got.Success)
	assert.Equal(t, 8, got.Position)
}

func TestBaseSQLAdapter_PoolSize(t *testing.T) {
	base := &BaseSQLAdapter{}
	assert.Equal(t, DefaultPoolSize, base.PoolSize())

	base.Cfg.MaxConnections = 12
	assert.Equal(t, 12, base.PoolSize())
}
