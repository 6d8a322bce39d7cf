package classify

import "github.com/leapstack-labs/sqlrepair/pkg/core"

// tables holds the ordered pattern table for each dialect. Order matters:
// specific patterns come before the generic ones that would also match.
var tables = map[string][]Pattern{
	"postgres": postgresPatterns,
	"duckdb":   duckdbPatterns,
	"sqlite":   sqlitePatterns,
}

// postgresPatterns match PostgreSQL server messages as rendered by pgconn:
// "ERROR: <message> (SQLSTATE <code>)".
var postgresPatterns = []Pattern{
	pattern("pg.aborted", core.KindTransactionAborted, `current transaction is aborted`),
	pattern("pg.group_by", core.KindMissingGroupByColumn, `column "([^"]+)" must appear in the GROUP BY clause`),
	pattern("pg.ambiguous", core.KindAmbiguousColumn, `column reference "([^"]+)" is ambiguous`),
	pattern("pg.undefined_column", core.KindUndefinedColumn, `column "?([\w.$]+)"? does not exist`),
	pattern("pg.undefined_table", core.KindUndefinedTable, `relation "([^"]+)" does not exist`),
	pattern("pg.missing_from", core.KindUndefinedTable, `missing FROM-clause entry for table "([^"]+)"`),
	pattern("pg.round_float", core.KindTypeMismatch, `function (round)\((?:double precision|real|float8|float4)`),
	pattern("pg.extract_integer", core.KindTypeMismatch, `function (?:pg_catalog\.)?(extract|date_part)\(unknown, integer\)`),
	pattern("pg.operator", core.KindTypeMismatch, `operator does not exist: ([^\s(]+)`),
	pattern("pg.invalid_input", core.KindTypeMismatch, `invalid input syntax for type ([\w ]+)`),
	pattern("pg.cannot_cast", core.KindTypeMismatch, `cannot cast type ([\w ]+) to`),
	pattern("pg.argument_type", core.KindTypeMismatch, `argument of \w+ must be type (\w+)`),
	pattern("pg.type_match", core.KindTypeMismatch, `\w+ types (\w+) and \w+ cannot be matched`),
	pattern("pg.window_distinct", core.KindSyntaxError, `(DISTINCT) is not implemented for window functions`),
	pattern("pg.ordered_set_over", core.KindSyntaxError, `OVER is not supported for ordered-set aggregate (\w+)`),
	pattern("pg.undefined_function", core.KindSyntaxError, `function ([\w.]+)\(.*\) does not exist`),
	pattern("pg.undefined_type", core.KindSyntaxError, `type "([^"]+)" does not exist`),
	pattern("pg.syntax", core.KindSyntaxError, `syntax error at or near "([^"]*)"`),
	pattern("pg.syntax_eoi", core.KindSyntaxError, `syntax error at end of input`),

	// SQLSTATE fallbacks for messages in other locales.
	pattern("pg.sqlstate.25P02", core.KindTransactionAborted, `\(SQLSTATE 25P02\)`),
	pattern("pg.sqlstate.42803", core.KindMissingGroupByColumn, `\(SQLSTATE 42803\)`),
	pattern("pg.sqlstate.42702", core.KindAmbiguousColumn, `\(SQLSTATE 42702\)`),
	pattern("pg.sqlstate.42703", core.KindUndefinedColumn, `\(SQLSTATE 42703\)`),
	pattern("pg.sqlstate.42P01", core.KindUndefinedTable, `\(SQLSTATE 42P01\)`),
	pattern("pg.sqlstate.type", core.KindTypeMismatch, `\(SQLSTATE (?:42804|42846|22P02|42725)\)`),
	pattern("pg.sqlstate.syntax", core.KindSyntaxError, `\(SQLSTATE (?:42601|42883|42704|0A000)\)`),
}

// duckdbPatterns match DuckDB exception messages ("<Type> Error: <message>").
var duckdbPatterns = []Pattern{
	pattern("duckdb.aborted", core.KindTransactionAborted, `(?i)current transaction is aborted`),
	pattern("duckdb.group_by", core.KindMissingGroupByColumn, `column "?([\w.]+)"? must appear in the GROUP BY clause`),
	pattern("duckdb.ambiguous", core.KindAmbiguousColumn, `Ambiguous reference to column name "([^"]+)"`),
	pattern("duckdb.undefined_column", core.KindUndefinedColumn, `Referenced column "([^"]+)" not found`),
	pattern("duckdb.no_column_named", core.KindUndefinedColumn, `does not have a column named "([^"]+)"`),
	pattern("duckdb.undefined_table", core.KindUndefinedTable, `Table with name ([\w.]+) does not exist`),
	pattern("duckdb.referenced_table", core.KindUndefinedTable, `Referenced table "([^"]+)" not found`),
	pattern("duckdb.no_function_match", core.KindTypeMismatch, `No function matches the given name and argument types '(\w+)\(`),
	pattern("duckdb.compare", core.KindTypeMismatch, `Cannot compare values of type (\w+)`),
	pattern("duckdb.conversion", core.KindTypeMismatch, `Conversion Error|Could not convert`),
	pattern("duckdb.undefined_function", core.KindSyntaxError, `(?:Scalar|Aggregate|Table) Function with name (\w+) does not exist`),
	pattern("duckdb.undefined_type", core.KindSyntaxError, `Type with name (\w+) does not exist`),
	pattern("duckdb.syntax", core.KindSyntaxError, `syntax error at or near "([^"]*)"`),
	pattern("duckdb.parser", core.KindSyntaxError, `Parser Error`),
}

// sqlitePatterns match SQLite result messages.
var sqlitePatterns = []Pattern{
	pattern("sqlite.undefined_table", core.KindUndefinedTable, `no such table: ([\w.]+)`),
	pattern("sqlite.undefined_column", core.KindUndefinedColumn, `no such column: ([\w.]+)`),
	pattern("sqlite.ambiguous", core.KindAmbiguousColumn, `ambiguous column name: ([\w.]+)`),
	pattern("sqlite.datatype", core.KindTypeMismatch, `datatype mismatch`),
	pattern("sqlite.undefined_function", core.KindSyntaxError, `no such function: (\w+)`),
	pattern("sqlite.window_misuse", core.KindSyntaxError, `misuse of (?:window|aggregate) function (\w+)`),
	pattern("sqlite.window_distinct", core.KindSyntaxError, `(DISTINCT) is not supported for window functions`),
	pattern("sqlite.syntax", core.KindSyntaxError, `near "([^"]*)": syntax error`),
	pattern("sqlite.token", core.KindSyntaxError, `unrecognized token: "([^"]*)"`),
	pattern("sqlite.incomplete", core.KindSyntaxError, `incomplete input`),
}
