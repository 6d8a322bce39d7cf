package dialect

// planKeywords are the statement types every builtin engine can EXPLAIN.
var planKeywords = []string{"SELECT", "WITH", "VALUES", "TABLE", "INSERT", "UPDATE", "DELETE"}

// Postgres is the PostgreSQL dialect.
var Postgres = NewDialect("postgres").
	DefaultSchema("public").
	Plan("EXPLAIN", planKeywords...).
	CastOperator().
	TransactionalDDL().
	Placeholder("$").
	Build()

// DuckDB is the DuckDB dialect.
var DuckDB = NewDialect("duckdb").
	DefaultSchema("main").
	Plan("EXPLAIN", planKeywords...).
	CastOperator().
	TransactionalDDL().
	Build()

// SQLite is the SQLite dialect. SQLite has no :: cast operator.
var SQLite = NewDialect("sqlite").
	DefaultSchema("main").
	Plan("EXPLAIN QUERY PLAN", planKeywords...).
	TransactionalDDL().
	Build()

// Default is the dialect used when none is configured.
const Default = "postgres"
