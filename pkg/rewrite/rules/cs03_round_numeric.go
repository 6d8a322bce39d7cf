package rules

import (
	"strings"

	"github.com/leapstack-labs/sqlrepair/pkg/core"
	"github.com/leapstack-labs/sqlrepair/pkg/rewrite"
	"github.com/leapstack-labs/sqlrepair/pkg/sqltext"
)

// RoundNumeric casts the first argument of two-argument ROUND to numeric.
// PostgreSQL only defines round(numeric, int).
var RoundNumeric = rewrite.Rule{
	ID:          "CS03",
	Name:        "cast.round_numeric",
	Kind:        core.KindTypeMismatch,
	Group:       "cast",
	Description: "Insert a numeric cast into ROUND(x, n).",
	Dialects:    []string{"postgres", "duckdb"},
	AppliesFn: func(sql string, rc rewrite.Context) bool {
		return locusIs(rc, "round") && roundNumericPass(sql) != sql
	},
	ApplyFn: func(sql string, _ rewrite.Context) string {
		return fixpoint(sql, roundNumericPass)
	},

	BadExample:  `SELECT ROUND(AVG(price) * 1.1, 2) FROM t`,
	GoodExample: `SELECT ROUND((AVG(price) * 1.1)::numeric, 2) FROM t`,
}

func roundNumericPass(sql string) string {
	src := sqltext.Scan(sql)
	var edits []sqltext.Edit
	for _, c := range src.Calls("ROUND") {
		if len(c.Args) != 2 {
			continue
		}
		arg := c.Args[0]
		if arg.Last < arg.First || isNumericCast(arg.Text) {
			continue
		}
		s, e := src.Span(arg.First, arg.Last)
		edits = append(edits, sqltext.Edit{Start: s, End: e, New: "(" + arg.Text + ")::numeric"})
	}
	return sqltext.Apply(sql, edits)
}

func isNumericCast(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	if strings.HasSuffix(lower, "::numeric") || strings.HasSuffix(lower, "::decimal") {
		return true
	}
	return strings.HasPrefix(lower, "cast(") &&
		(strings.HasSuffix(lower, " as numeric)") || strings.HasSuffix(lower, " as decimal)"))
}
