package rules

import (
	"github.com/leapstack-labs/sqlrepair/pkg/core"
	"github.com/leapstack-labs/sqlrepair/pkg/rewrite"
	"github.com/leapstack-labs/sqlrepair/pkg/sqltext"
)

// EmptyBranches repairs conditional constructs emptied by an earlier
// substitution: THEN without a result, ELSE directly before END, dangling
// AND/OR, empty WHERE/HAVING and ON without a predicate.
var EmptyBranches = rewrite.Rule{
	ID:          "CL02",
	Name:        "cleanup.empty_branches",
	Kind:        core.KindSyntaxError,
	Group:       "cleanup",
	Description: "Fill or drop empty conditional branches.",
	ApplyFn: func(sql string, _ rewrite.Context) string {
		return fixpoint(sql, emptyBranchPass)
	},

	BadExample:  `SELECT CASE WHEN a THEN ELSE END FROM t WHERE AND x = 1 AND`,
	GoodExample: `SELECT CASE WHEN a THEN NULL END FROM t WHERE x = 1`,
}

// emptyBranchPass applies the first repair found.
func emptyBranchPass(sql string) string {
	src := sqltext.Scan(sql)
	lastI := len(src.Sig) - 1
	for i, t := range src.Sig {
		next := src.At(i + 1)
		atEnd := i == lastI || next.IsPunct(";")
		switch {
		case t.Is("THEN") && (atEnd || next.Is("WHEN", "ELSE", "END")):
			return sqltext.Apply(sql, []sqltext.Edit{{Start: t.End, End: t.End, New: " NULL"}})
		case t.Is("ELSE") && next.Is("END"):
			return sqltext.Apply(sql, []sqltext.Edit{removeToken(src, i)})
		case t.Is("AND", "OR") && isDanglingConnective(src, i, atEnd):
			return sqltext.Apply(sql, []sqltext.Edit{removeToken(src, i)})
		case t.Is("WHERE", "HAVING") && (atEnd || isBoundary(next)):
			return sqltext.Apply(sql, []sqltext.Edit{removeToken(src, i)})
		case t.Is("ON") && (atEnd || isBoundary(next) || next.Is(joinWords...)):
			return sqltext.Apply(sql, []sqltext.Edit{{Start: t.End, End: t.End, New: " TRUE"}})
		}
	}
	return sql
}

// isDanglingConnective reports whether the AND/OR at i lacks an operand.
func isDanglingConnective(src *sqltext.Source, i int, atEnd bool) bool {
	if i == 0 || atEnd {
		return true
	}
	prev, next := src.At(i-1), src.At(i+1)
	if prev.Is("WHERE", "ON", "HAVING", "WHEN", "AND", "OR") || prev.IsPunct("(") {
		return true
	}
	return isBoundary(next) || next.Is("THEN", "ELSE", "END") || next.Is(joinWords...)
}
