package rules

import (
	"github.com/leapstack-labs/sqlrepair/pkg/core"
	"github.com/leapstack-labs/sqlrepair/pkg/rewrite"
	"github.com/leapstack-labs/sqlrepair/pkg/sqltext"
)

// OrderedSetWindow replaces ordered-set aggregates used over a window with
// plain aggregates that are legal there: continuous percentiles become AVG,
// discrete ones and MODE become MIN.
var OrderedSetWindow = rewrite.Rule{
	ID:          "WN02",
	Name:        "window.ordered_set",
	Kind:        core.KindSyntaxError,
	Group:       "window",
	Description: "Rewrite PERCENTILE_CONT/PERCENTILE_DISC/MODE ... WITHIN GROUP ... OVER to AVG/MIN OVER.",
	Dialects:    []string{"postgres", "sqlite"},
	ApplyFn:     applyOrderedSetWindow,

	BadExample:  `SELECT PERCENTILE_CONT(0.5) WITHIN GROUP (ORDER BY fare) OVER (PARTITION BY route) FROM trips`,
	GoodExample: `SELECT AVG(fare) OVER (PARTITION BY route) FROM trips`,
}

func applyOrderedSetWindow(sql string, _ rewrite.Context) string {
	src := sqltext.Scan(sql)
	var edits []sqltext.Edit
	for _, c := range src.Calls("PERCENTILE_CONT", "PERCENTILE_DISC", "MODE") {
		w := c.Close + 1
		if !src.At(w).Is("WITHIN") || !src.At(w+1).Is("GROUP") || !src.At(w+2).IsPunct("(") {
			continue
		}
		groupClose := src.MatchClose(w + 2)
		if groupClose < 0 || !src.At(groupClose+1).Is("OVER") {
			continue
		}
		if !src.At(w+3).Is("ORDER") || !src.At(w+4).Is("BY") {
			continue
		}
		last := groupClose - 1
		for last > w+5 && src.At(last).Is("ASC", "DESC", "FIRST", "LAST", "NULLS") {
			last--
		}
		expr := src.Slice(w+5, last)
		if expr == "" {
			continue
		}
		agg := "MIN"
		if src.At(c.NameI).Is("PERCENTILE_CONT") {
			agg = "AVG"
		}
		s, e := src.Span(c.NameI, groupClose)
		edits = append(edits, sqltext.Edit{Start: s, End: e, New: agg + "(" + expr + ")"})
	}
	return sqltext.Apply(sql, edits)
}
