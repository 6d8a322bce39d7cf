package rules

import (
	"github.com/leapstack-labs/sqlrepair/pkg/core"
	"github.com/leapstack-labs/sqlrepair/pkg/rewrite"
	"github.com/leapstack-labs/sqlrepair/pkg/sqltext"
)

// EpochTimestamp widens date casts inside epoch extraction to timestamp.
// date - date is an integer in PostgreSQL, which EXTRACT(EPOCH ...) rejects.
var EpochTimestamp = rewrite.Rule{
	ID:          "CS04",
	Name:        "cast.epoch_timestamp",
	Kind:        core.KindTypeMismatch,
	Group:       "cast",
	Description: "Use ::timestamp operands in EXTRACT(EPOCH FROM a - b).",
	Dialects:    []string{"postgres"},
	AppliesFn: func(sql string, rc rewrite.Context) bool {
		return locusIs(rc, "extract", "date_part") && applyEpochTimestamp(sql, rc) != sql
	},
	ApplyFn: applyEpochTimestamp,

	BadExample:  `SELECT EXTRACT(EPOCH FROM (b::date - a::date)) / 86400 FROM t`,
	GoodExample: `SELECT EXTRACT(EPOCH FROM (b::timestamp - a::timestamp)) / 86400 FROM t`,
}

func applyEpochTimestamp(sql string, _ rewrite.Context) string {
	src := sqltext.Scan(sql)
	var edits []sqltext.Edit
	for _, c := range src.Calls("EXTRACT", "DATE_PART") {
		if !isEpochCall(src, c) {
			continue
		}
		for i := c.Open + 1; i < c.Close; i++ {
			if src.At(i).IsPunct("::") && src.At(i+1).Is("date") {
				t := src.At(i + 1)
				edits = append(edits, sqltext.Edit{Start: t.Start, End: t.End, New: "timestamp"})
			}
		}
	}
	return sqltext.Apply(sql, edits)
}

// isEpochCall matches EXTRACT(EPOCH FROM ...) and DATE_PART('epoch', ...).
func isEpochCall(src *sqltext.Source, c sqltext.Call) bool {
	if len(c.Args) == 0 {
		return false
	}
	first := c.Args[0]
	if src.At(c.NameI).Is("EXTRACT") {
		return src.At(first.First).Is("EPOCH") && src.At(first.First+1).Is("FROM")
	}
	return len(c.Args) == 2 && sqltext.Unquote(first.Text) == "epoch"
}
