package rules

import (
	"github.com/leapstack-labs/sqlrepair/pkg/core"
	"github.com/leapstack-labs/sqlrepair/pkg/rewrite"
	"github.com/leapstack-labs/sqlrepair/pkg/sqltext"
)

// CurrentTimestamp replaces vendor clock functions with CURRENT_TIMESTAMP.
var CurrentTimestamp = rewrite.Rule{
	ID:          "FN05",
	Name:        "function.current_timestamp",
	Kind:        core.KindSyntaxError,
	Group:       "function",
	Description: "Replace GETDATE(), SYSDATE and NOW64() with CURRENT_TIMESTAMP.",
	Dialects:    []string{"postgres", "duckdb"},
	ApplyFn:     applyCurrentTimestamp,

	BadExample:  `SELECT * FROM t WHERE created_at < GETDATE()`,
	GoodExample: `SELECT * FROM t WHERE created_at < CURRENT_TIMESTAMP`,
}

func applyCurrentTimestamp(sql string, _ rewrite.Context) string {
	src := sqltext.Scan(sql)
	var edits []sqltext.Edit
	for _, c := range src.Calls("GETDATE", "SYSDATE", "NOW64", "SYSDATETIME") {
		if len(c.Args) == 0 {
			edits = append(edits, callEdit(src, c, "CURRENT_TIMESTAMP"))
		}
	}
	for i, t := range src.Sig {
		if t.Is("SYSDATE") && !src.At(i+1).IsPunct("(") && !src.At(i-1).IsPunct(".") {
			edits = append(edits, sqltext.Edit{Start: t.Start, End: t.End, New: "CURRENT_TIMESTAMP"})
		}
	}
	return sqltext.Apply(sql, edits)
}
