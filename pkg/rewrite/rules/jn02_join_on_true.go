package rules

import (
	"github.com/leapstack-labs/sqlrepair/pkg/core"
	"github.com/leapstack-labs/sqlrepair/pkg/rewrite"
	"github.com/leapstack-labs/sqlrepair/pkg/sqltext"
)

// JoinOnTrue adds ON TRUE to qualified joins written without a condition.
var JoinOnTrue = rewrite.Rule{
	ID:          "JN02",
	Name:        "join.on_true",
	Kind:        core.KindSyntaxError,
	Group:       "join",
	Description: "Add ON TRUE to [INNER|LEFT|RIGHT|FULL] JOIN without ON or USING.",
	ApplyFn:     applyJoinOnTrue,

	BadExample:  `SELECT * FROM a LEFT JOIN LATERAL (SELECT 1) x`,
	GoodExample: `SELECT * FROM a LEFT JOIN LATERAL (SELECT 1) x ON TRUE`,
}

func applyJoinOnTrue(sql string, _ rewrite.Context) string {
	src := sqltext.Scan(sql)
	var edits []sqltext.Edit
	for i, t := range src.Sig {
		if !t.Is("JOIN") || isUnconditionedJoin(src, i) {
			continue
		}
		cond, last := joinCondition(src, i+1)
		if cond >= 0 || last < i+1 {
			continue
		}
		end := src.At(last).End
		edits = append(edits, sqltext.Edit{Start: end, End: end, New: " ON TRUE"})
	}
	return sqltext.Apply(sql, edits)
}

// isUnconditionedJoin reports whether the JOIN at i never takes a condition.
func isUnconditionedJoin(src *sqltext.Source, i int) bool {
	for j := i - 1; j >= 0; j-- {
		t := src.At(j)
		switch {
		case t.Is("CROSS", "NATURAL"):
			return true
		case t.Is("INNER", "LEFT", "RIGHT", "FULL", "OUTER"):
			continue
		default:
			return false
		}
	}
	return false
}
