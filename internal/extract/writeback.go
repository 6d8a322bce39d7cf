package extract

import (
	"github.com/leapstack-labs/sqlrepair/pkg/sqltext"
)

// ApplyRepairs replaces the selected block bodies of the queries named in
// repairs (query number to SQL) and returns the new document text. All
// other bytes, including the whitespace around each body, are preserved.
// text must be the document d was extracted from.
func (d *Document) ApplyRepairs(text string, repairs map[int]string) string {
	var edits []sqltext.Edit
	for _, q := range d.Queries {
		repl, ok := repairs[q.Number]
		if !ok || repl == q.RawSQL {
			continue
		}
		if q.Body.End > len(text) || text[q.Body.Start:q.Body.End] != q.RawSQL {
			continue
		}
		edits = append(edits, sqltext.Edit{Start: q.Body.Start, End: q.Body.End, New: repl})
	}
	return sqltext.Apply(text, edits)
}
