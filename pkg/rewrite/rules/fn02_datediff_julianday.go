package rules

import (
	"fmt"

	"github.com/leapstack-labs/sqlrepair/pkg/core"
	"github.com/leapstack-labs/sqlrepair/pkg/rewrite"
	"github.com/leapstack-labs/sqlrepair/pkg/sqltext"
)

// DateDiffJulian rewrites vendor DATEDIFF calls to julianday arithmetic.
var DateDiffJulian = rewrite.Rule{
	ID:          "FN02",
	Name:        "function.datediff_julianday",
	Kind:        core.KindSyntaxError,
	Group:       "function",
	Description: "Rewrite DATEDIFF(unit, a, b) to julianday() differences.",
	Dialects:    []string{"sqlite"},
	ApplyFn: func(sql string, _ rewrite.Context) string {
		return fixpoint(sql, dateDiffJulianPass)
	},

	BadExample:  `SELECT DATEDIFF('day', a, b) FROM t;`,
	GoodExample: `SELECT (julianday(b) - julianday(a)) FROM t;`,
}

// julianScale converts a day difference into the requested unit.
var julianScale = map[string]string{
	"second":  " * 86400",
	"minute":  " * 1440",
	"hour":    " * 24",
	"day":     "",
	"week":    " / 7",
	"month":   " / 30.4375",
	"quarter": " / 91.3125",
	"year":    " / 365.25",
}

func dateDiffJulianPass(sql string) string {
	src := sqltext.Scan(sql)
	var edits []sqltext.Edit
	for _, c := range src.Calls("DATEDIFF") {
		var unit string
		var from, to sqltext.Arg
		switch len(c.Args) {
		case 2:
			unit, from, to = "day", c.Args[1], c.Args[0]
		case 3:
			u, ok := normalizeUnit(c.Args[0].Text)
			if !ok {
				continue
			}
			unit, from, to = u, c.Args[1], c.Args[2]
		default:
			continue
		}
		text := fmt.Sprintf("(julianday(%s) - julianday(%s))", to.Text, from.Text)
		if scale := julianScale[unit]; scale != "" {
			text = "(" + text + scale + ")"
		}
		edits = append(edits, callEdit(src, c, text))
	}
	return sqltext.Apply(sql, edits)
}
