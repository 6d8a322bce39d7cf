package rules

import (
	"strings"

	"github.com/leapstack-labs/sqlrepair/pkg/core"
	"github.com/leapstack-labs/sqlrepair/pkg/rewrite"
	"github.com/leapstack-labs/sqlrepair/pkg/sqltext"
)

// DanglingParens balances parentheses left behind by an earlier substitution.
var DanglingParens = rewrite.Rule{
	ID:          "CL01",
	Name:        "cleanup.dangling_parens",
	Kind:        core.KindSyntaxError,
	Group:       "cleanup",
	Description: "Drop unmatched closing parentheses and close unmatched opening ones.",
	ApplyFn:     applyDanglingParens,

	BadExample:  `SELECT COALESCE(a, 0)) FROM t WHERE (x > 1`,
	GoodExample: `SELECT COALESCE(a, 0) FROM t WHERE (x > 1)`,
}

func applyDanglingParens(sql string, _ rewrite.Context) string {
	src := sqltext.Scan(sql)
	var edits []sqltext.Edit
	depth := 0
	last := -1
	for i, t := range src.Sig {
		switch {
		case t.IsPunct("("):
			depth++
		case t.IsPunct(")"):
			if depth == 0 {
				edits = append(edits, sqltext.Edit{Start: t.Start, End: t.End})
				continue
			}
			depth--
		}
		if !t.IsPunct(";") {
			last = i
		}
	}
	if depth > 0 && last >= 0 {
		end := src.At(last).End
		edits = append(edits, sqltext.Edit{Start: end, End: end, New: strings.Repeat(")", depth)})
	}
	return sqltext.Apply(sql, edits)
}
