package rules

import (
	"strings"

	"github.com/leapstack-labs/sqlrepair/pkg/core"
	"github.com/leapstack-labs/sqlrepair/pkg/rewrite"
	"github.com/leapstack-labs/sqlrepair/pkg/sqltext"
)

// GroupByAppend adds the missing expression to the outermost GROUP BY.
var GroupByAppend = rewrite.Rule{
	ID:          "GB01",
	Name:        "grouping.append",
	Kind:        core.KindMissingGroupByColumn,
	Group:       "grouping",
	Description: "Append the column named by the error to the top-level GROUP BY.",
	ApplyFn:     applyGroupByAppend,

	BadExample:  `SELECT region, city, COUNT(*) FROM stores GROUP BY region`,
	GoodExample: `SELECT region, city, COUNT(*) FROM stores GROUP BY region, city`,
}

// groupEndWords end a GROUP BY list.
var groupEndWords = []string{
	"HAVING", "ORDER", "LIMIT", "OFFSET", "FETCH", "WINDOW", "QUALIFY",
	"UNION", "EXCEPT", "INTERSECT",
}

func applyGroupByAppend(sql string, rc rewrite.Context) string {
	expr := strings.TrimSpace(rc.Error.Locus.Identifier)
	if expr == "" {
		return sql
	}
	src := sqltext.Scan(sql)
	depths := src.Depths()

	from := -1
	for i, t := range src.Sig {
		if t.Is("FROM") && (from < 0 || depths[i] < depths[from]) {
			from = i
		}
	}
	if from < 0 {
		return sql
	}
	depth := depths[from]

	// find GROUP BY and the end of its list at the FROM's depth
	group, end := -1, -1
	for i := from + 1; i < len(src.Sig); i++ {
		t := src.At(i)
		if depths[i] < depth || (depths[i] == depth && t.IsPunct(";")) {
			break
		}
		if depths[i] != depth {
			continue
		}
		if t.Is("GROUP") && src.At(i+1).Is("BY") {
			group = i
			continue
		}
		if t.Is(groupEndWords...) {
			end = i
			break
		}
	}

	if group < 0 {
		at := len(src.Sig)
		if end >= 0 {
			at = end
		}
		// insert after the last token before the insertion point
		for at > 0 && (src.At(at-1).IsPunct(";") || depths[at-1] < depth) {
			at--
		}
		pos := src.At(at - 1).End
		return sqltext.Apply(sql, []sqltext.Edit{{Start: pos, End: pos, New: " GROUP BY " + expr}})
	}

	listEnd := lastGroupItem(src, depths, group+2, depth, end)
	if listEnd < group+2 {
		return sql
	}
	for _, item := range groupItems(src, depths, group+2, listEnd, depth) {
		if sqltext.SameIdent(item, expr) || sqltext.SameIdent(unqualified(item), expr) {
			return sql
		}
	}
	pos := src.At(listEnd).End
	return sqltext.Apply(sql, []sqltext.Edit{{Start: pos, End: pos, New: ", " + expr}})
}

// lastGroupItem returns the index of the last token of a GROUP BY list
// starting at first.
func lastGroupItem(src *sqltext.Source, depths []int, first, depth, end int) int {
	last := first - 1
	for i := first; i < len(src.Sig); i++ {
		if i == end || depths[i] < depth || src.At(i).IsPunct(";") {
			break
		}
		last = i
	}
	return last
}

// groupItems splits the GROUP BY list tokens first..last at top-level commas.
func groupItems(src *sqltext.Source, depths []int, first, last, depth int) []string {
	var items []string
	start := first
	for i := first; i <= last; i++ {
		if depths[i] == depth && src.At(i).IsPunct(",") {
			items = append(items, src.Slice(start, i-1))
			start = i + 1
		}
	}
	return append(items, src.Slice(start, last))
}

func unqualified(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return name
}
