package rules

import (
	"github.com/leapstack-labs/sqlrepair/pkg/core"
	"github.com/leapstack-labs/sqlrepair/pkg/rewrite"
	"github.com/leapstack-labs/sqlrepair/pkg/sqltext"
)

// CrossJoinOn turns a CROSS JOIN carrying a join predicate into an inner join.
var CrossJoinOn = rewrite.Rule{
	ID:          "JN01",
	Name:        "join.cross_join_on",
	Kind:        core.KindSyntaxError,
	Group:       "join",
	Description: "Rewrite CROSS JOIN t ON p to JOIN t ON p.",
	ApplyFn:     applyCrossJoinOn,

	BadExample:  `SELECT * FROM a CROSS JOIN b ON a.id = b.a_id`,
	GoodExample: `SELECT * FROM a JOIN b ON a.id = b.a_id`,
}

func applyCrossJoinOn(sql string, _ rewrite.Context) string {
	src := sqltext.Scan(sql)
	var edits []sqltext.Edit
	for i, t := range src.Sig {
		if !t.Is("CROSS") || !src.At(i+1).Is("JOIN") {
			continue
		}
		if cond, _ := joinCondition(src, i+2); cond >= 0 && src.At(cond).Is("ON") {
			edits = append(edits, sqltext.Edit{Start: t.Start, End: src.At(i + 1).Start})
		}
	}
	return sqltext.Apply(sql, edits)
}

// joinCondition scans the relation of a join starting at i. It returns the
// index of its ON/USING keyword (or -1) and the index of the last token of
// the relation reference.
func joinCondition(src *sqltext.Source, i int) (cond, last int) {
	last = i - 1
	j := i
	if src.At(j).Is("LATERAL") {
		j++
	}
	for j < len(src.Sig) {
		t := src.At(j)
		switch {
		case t.IsPunct("("):
			closeI := src.MatchClose(j)
			if closeI < 0 {
				return -1, last
			}
			last, j = closeI, closeI+1
			continue
		case t.Is("ON", "USING"):
			return j, last
		case isBoundary(t) || t.Is(joinWords...) || t.IsPunct(","):
			return -1, last
		}
		last = j
		j++
	}
	return -1, last
}
