package rules

import (
	"github.com/leapstack-labs/sqlrepair/pkg/core"
	"github.com/leapstack-labs/sqlrepair/pkg/rewrite"
	"github.com/leapstack-labs/sqlrepair/pkg/sqltext"
)

// CastFunction rewrites the :: operator to CAST for engines without it.
var CastFunction = rewrite.Rule{
	ID:          "CS02",
	Name:        "cast.function",
	Kind:        core.KindSyntaxError,
	Group:       "cast",
	Description: "Rewrite x::t to CAST(x AS t).",
	Dialects:    []string{"sqlite"},
	ApplyFn: func(sql string, _ rewrite.Context) string {
		return fixpoint(sql, castOperatorPass)
	},

	BadExample:  `SELECT created_at::date FROM t`,
	GoodExample: `SELECT CAST(created_at AS date) FROM t`,
}

// operandKeywords can precede a parenthesized operand without being a
// function name.
var operandKeywords = []string{
	"AND", "OR", "NOT", "IN", "IS", "ON", "AS", "BY", "SELECT", "WHERE",
	"WHEN", "THEN", "ELSE", "CASE", "FROM", "HAVING", "EXISTS", "BETWEEN",
	"LIKE", "RETURNING", "VALUES", "ANY", "ALL", "DISTINCT",
}

// castOperatorPass rewrites the leftmost convertible :: occurrence.
func castOperatorPass(sql string) string {
	src := sqltext.Scan(sql)
	for k, t := range src.Sig {
		if !t.IsPunct("::") {
			continue
		}
		start, ok := operandStart(src, k-1)
		if !ok {
			continue
		}
		end, ok := typeEnd(src, k+1)
		if !ok {
			continue
		}
		operand := src.Slice(start, k-1)
		typ := src.Slice(k+1, end)
		s, e := src.Span(start, end)
		return sqltext.Apply(sql, []sqltext.Edit{{Start: s, End: e, New: "CAST(" + operand + " AS " + typ + ")"}})
	}
	return sql
}

// operandStart returns the first token of the primary expression ending at i.
func operandStart(src *sqltext.Source, i int) (int, bool) {
	if i < 0 {
		return 0, false
	}
	t := src.At(i)
	switch {
	case t.IsPunct(")"):
		open := matchOpen(src, i)
		if open < 0 {
			return 0, false
		}
		if fn := src.At(open - 1); fn.Kind == sqltext.Word && !fn.Is(operandKeywords...) {
			return open - 1, true
		}
		return open, true
	case t.IsIdent():
		for src.At(i-1).IsPunct(".") && src.At(i-2).IsIdent() {
			i -= 2
		}
		return i, true
	case t.Kind == sqltext.String || t.Kind == sqltext.Number:
		return i, true
	}
	return 0, false
}

// typeEnd returns the last token of the type name starting at i.
func typeEnd(src *sqltext.Source, i int) (int, bool) {
	if src.At(i).Kind != sqltext.Word {
		return 0, false
	}
	j := i
	if src.At(j).Is("DOUBLE") && src.At(j+1).Is("PRECISION") {
		j++
	}
	if src.At(j + 1).IsPunct("(") {
		closeI := src.MatchClose(j + 1)
		if closeI < 0 {
			return 0, false
		}
		j = closeI
	}
	if src.At(j+1).Is("WITH", "WITHOUT") && src.At(j+2).Is("TIME") && src.At(j+3).Is("ZONE") {
		j += 3
	}
	return j, true
}

// matchOpen returns the index of the parenthesis opening the one closing at closeI.
func matchOpen(src *sqltext.Source, closeI int) int {
	depth := 0
	for i := closeI; i >= 0; i-- {
		switch {
		case src.Sig[i].IsPunct(")"):
			depth++
		case src.Sig[i].IsPunct("("):
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
