package rules

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/sqlrepair/pkg/core"
	"github.com/leapstack-labs/sqlrepair/pkg/rewrite"
	"github.com/leapstack-labs/sqlrepair/pkg/sqltext"
)

// DateDiffEpoch rewrites vendor DATEDIFF calls to epoch arithmetic.
var DateDiffEpoch = rewrite.Rule{
	ID:          "FN01",
	Name:        "function.datediff_epoch",
	Kind:        core.KindSyntaxError,
	Group:       "function",
	Description: "Rewrite DATEDIFF(unit, a, b) to EXTRACT(EPOCH FROM ...) arithmetic.",
	Dialects:    []string{"postgres"},
	ApplyFn: func(sql string, _ rewrite.Context) string {
		return fixpoint(sql, dateDiffEpochPass)
	},

	BadExample:  `SELECT DATEDIFF('day', a, b) FROM t;`,
	GoodExample: `SELECT EXTRACT(EPOCH FROM (b::date - a::date)) / 86400 FROM t;`,
}

// dateDiffEpochPass rewrites one layer of DATEDIFF calls. Calls nested in
// a rewritten one are reached on a later pass.
func dateDiffEpochPass(sql string) string {
	src := sqltext.Scan(sql)
	var edits []sqltext.Edit
	for _, c := range src.Calls("DATEDIFF") {
		text, ok := epochDiff(src, c)
		if !ok {
			continue
		}
		// only the divided forms end outside a parenthesis
		if !strings.HasSuffix(text, ")") && bindsTighter(src, c) {
			text = "(" + text + ")"
		}
		edits = append(edits, callEdit(src, c, text))
	}
	return sqltext.Apply(sql, edits)
}

// bindsTighter reports whether the operators around c bind tighter than
// the trailing division of an epoch expansion.
func bindsTighter(src *sqltext.Source, c sqltext.Call) bool {
	prev, next := src.At(c.NameI-1), src.At(c.Close+1)
	for _, op := range []string{"/", "*", "%", "^", "-"} {
		if prev.IsPunct(op) {
			return true
		}
	}
	return next.IsPunct("::") || next.IsPunct("^")
}

// epochDiff renders DATEDIFF in PostgreSQL terms. The two-argument form
// (a, b) counts days from b to a.
func epochDiff(src *sqltext.Source, c sqltext.Call) (string, bool) {
	var unit string
	var from, to sqltext.Arg
	switch len(c.Args) {
	case 2:
		unit, from, to = "day", c.Args[1], c.Args[0]
	case 3:
		u, ok := normalizeUnit(c.Args[0].Text)
		if !ok {
			return "", false
		}
		unit, from, to = u, c.Args[1], c.Args[2]
	default:
		return "", false
	}

	switch unit {
	case "day", "week":
		return fmt.Sprintf("EXTRACT(EPOCH FROM (%s - %s)) / %d",
			castArg(src, to, "date"), castArg(src, from, "date"), unitSeconds[unit]), true
	case "second":
		return fmt.Sprintf("EXTRACT(EPOCH FROM (%s - %s))",
			castArg(src, to, "timestamp"), castArg(src, from, "timestamp")), true
	case "minute", "hour":
		return fmt.Sprintf("EXTRACT(EPOCH FROM (%s - %s)) / %d",
			castArg(src, to, "timestamp"), castArg(src, from, "timestamp"), unitSeconds[unit]), true
	}

	age := fmt.Sprintf("AGE(%s, %s)", castArg(src, to, "date"), castArg(src, from, "date"))
	switch unit {
	case "month":
		return fmt.Sprintf("(EXTRACT(YEAR FROM %s) * 12 + EXTRACT(MONTH FROM %s))", age, age), true
	case "quarter":
		return fmt.Sprintf("FLOOR((EXTRACT(YEAR FROM %s) * 12 + EXTRACT(MONTH FROM %s)) / 3)", age, age), true
	default:
		return fmt.Sprintf("EXTRACT(YEAR FROM %s)", age), true
	}
}
