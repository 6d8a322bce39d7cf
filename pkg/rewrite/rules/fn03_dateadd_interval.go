package rules

import (
	"fmt"

	"github.com/leapstack-labs/sqlrepair/pkg/core"
	"github.com/leapstack-labs/sqlrepair/pkg/rewrite"
	"github.com/leapstack-labs/sqlrepair/pkg/sqltext"
)

// DateAddInterval rewrites DATEADD calls to interval arithmetic.
var DateAddInterval = rewrite.Rule{
	ID:          "FN03",
	Name:        "function.dateadd_interval",
	Kind:        core.KindSyntaxError,
	Group:       "function",
	Description: "Rewrite DATEADD(unit, n, d) to d + n * INTERVAL '1 unit'.",
	Dialects:    []string{"postgres", "duckdb"},
	ApplyFn: func(sql string, _ rewrite.Context) string {
		return fixpoint(sql, dateAddPass)
	},

	BadExample:  `SELECT DATEADD(day, 7, created_at) FROM t`,
	GoodExample: `SELECT (created_at + (7) * INTERVAL '1 day') FROM t`,
}

func dateAddPass(sql string) string {
	src := sqltext.Scan(sql)
	var edits []sqltext.Edit
	for _, c := range src.Calls("DATEADD") {
		if len(c.Args) != 3 {
			continue
		}
		unit, ok := normalizeUnit(c.Args[0].Text)
		if !ok {
			continue
		}
		text := fmt.Sprintf("(%s + (%s) * INTERVAL '1 %s')", c.Args[2].Text, c.Args[1].Text, unit)
		edits = append(edits, callEdit(src, c, text))
	}
	return sqltext.Apply(sql, edits)
}
