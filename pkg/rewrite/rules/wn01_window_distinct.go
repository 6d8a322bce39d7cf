package rules

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/sqlrepair/pkg/core"
	"github.com/leapstack-labs/sqlrepair/pkg/rewrite"
	"github.com/leapstack-labs/sqlrepair/pkg/sqltext"
)

// WindowDistinct removes DISTINCT from window aggregates. COUNT(DISTINCT x)
// becomes the dense-rank pair, which counts distinct values of x per
// partition.
var WindowDistinct = rewrite.Rule{
	ID:          "WN01",
	Name:        "window.distinct",
	Kind:        core.KindSyntaxError,
	Group:       "window",
	Description: "Rewrite agg(DISTINCT x) OVER (...) into a form legal in window context.",
	Dialects:    []string{"postgres"},
	ApplyFn:     applyWindowDistinct,

	BadExample: `SELECT COUNT(DISTINCT user_id) OVER (PARTITION BY day) FROM events`,
	GoodExample: `SELECT (DENSE_RANK() OVER (PARTITION BY day ORDER BY user_id) + ` +
		`DENSE_RANK() OVER (PARTITION BY day ORDER BY user_id DESC) - 1) FROM events`,
}

var windowAggregates = []string{"COUNT", "SUM", "AVG", "MIN", "MAX", "STRING_AGG", "ARRAY_AGG"}

func applyWindowDistinct(sql string, _ rewrite.Context) string {
	src := sqltext.Scan(sql)
	var edits []sqltext.Edit
	for _, c := range src.Calls(windowAggregates...) {
		if len(c.Args) == 0 || !src.At(c.Args[0].First).Is("DISTINCT") {
			continue
		}
		over := c.Close + 1
		if !src.At(over).Is("OVER") || !src.At(over+1).IsPunct("(") {
			continue
		}
		windowClose := src.MatchClose(over + 1)
		if windowClose < 0 {
			continue
		}

		if !src.At(c.NameI).Is("COUNT") || len(c.Args) != 1 {
			edits = append(edits, removeToken(src, c.Args[0].First))
			continue
		}
		expr := src.Slice(c.Args[0].First+1, c.Args[0].Last)
		partition := windowPartition(src, over+1, windowClose)
		text := fmt.Sprintf("(DENSE_RANK() OVER (%sORDER BY %s) + DENSE_RANK() OVER (%sORDER BY %s DESC) - 1)",
			partition, expr, partition, expr)
		s, e := src.Span(c.NameI, windowClose)
		edits = append(edits, sqltext.Edit{Start: s, End: e, New: text})
	}
	return sqltext.Apply(sql, edits)
}

// windowPartition returns the PARTITION BY part of a window specification,
// with a trailing space, or "" when there is none.
func windowPartition(src *sqltext.Source, open, closeI int) string {
	if !src.At(open + 1).Is("PARTITION") {
		return ""
	}
	end := closeI - 1
	depth := 0
	for i := open + 1; i < closeI; i++ {
		t := src.At(i)
		switch {
		case t.IsPunct("("):
			depth++
		case t.IsPunct(")"):
			depth--
		case depth == 0 && t.Is("ORDER", "ROWS", "RANGE", "GROUPS"):
			end = i - 1
			i = closeI
		}
	}
	return strings.TrimSpace(src.Slice(open+1, end)) + " "
}
