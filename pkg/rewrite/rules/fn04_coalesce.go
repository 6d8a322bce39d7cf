package rules

import (
	"github.com/leapstack-labs/sqlrepair/pkg/core"
	"github.com/leapstack-labs/sqlrepair/pkg/rewrite"
	"github.com/leapstack-labs/sqlrepair/pkg/sqltext"
)

// NullFuncCoalesce replaces vendor null-handling functions with COALESCE.
var NullFuncCoalesce = rewrite.Rule{
	ID:          "FN04",
	Name:        "function.coalesce",
	Kind:        core.KindSyntaxError,
	Group:       "function",
	Description: "Replace NVL, IFNULL and two-argument ISNULL with COALESCE.",
	Dialects:    []string{"postgres", "duckdb", "sqlite"},
	AppliesFn: func(sql string, rc rewrite.Context) bool {
		return locusIs(rc, "nvl", "ifnull", "isnull") && applyNullFuncCoalesce(sql, rc) != sql
	},
	ApplyFn: applyNullFuncCoalesce,

	BadExample:  `SELECT NVL(email, 'unknown') FROM contacts`,
	GoodExample: `SELECT COALESCE(email, 'unknown') FROM contacts`,
}

func applyNullFuncCoalesce(sql string, _ rewrite.Context) string {
	src := sqltext.Scan(sql)
	var edits []sqltext.Edit
	for _, c := range src.Calls("NVL", "IFNULL", "ISNULL") {
		if len(c.Args) != 2 {
			continue
		}
		name := src.At(c.NameI)
		edits = append(edits, sqltext.Edit{Start: name.Start, End: name.End, New: "COALESCE"})
	}
	return sqltext.Apply(sql, edits)
}
