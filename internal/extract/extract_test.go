package extract

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqlrepair/pkg/core"
)

const sampleDoc = `---
dialect: postgres
---
# Analytics queries

Intro text with a stray block that belongs to no query:

` + "```sql" + `
SELECT 1;
` + "```" + `

## Query 1: Days between orders

` + "```sql" + `
SELECT DATEDIFF('day', a, b) FROM t;
` + "```" + `

## Query 2. Output only

` + "```text" + `
 count
-------
    42
` + "```" + `

## 3) Illustrative then real

Example:

` + "```sql" + `
SELECT id FROM orders;
` + "```" + `

The real query:

` + "```sql" + `
SELECT o.id, c.name FROM orders o JOIN customers c ON c.id = o.customer_id;
` + "```" + `

### Notes

` + "```sql" + `
SELECT 'subheading blocks still belong to query 3';
` + "```" + `

## Appendix

` + "```sql" + `
SELECT 'not a query section';
` + "```" + `
`

func TestExtract(t *testing.T) {
	doc, err := Extract(sampleDoc, Options{})
	require.NoError(t, err)

	assert.Equal(t, "postgres", doc.Meta.Dialect)
	require.Len(t, doc.Queries, 2)
	require.Len(t, doc.Failures, 1)
	assert.Equal(t, 3, doc.Total())

	q1 := doc.Queries[0]
	assert.Equal(t, 1, q1.Number)
	assert.Equal(t, "Days between orders", q1.Title)
	assert.Equal(t, "SELECT DATEDIFF('day', a, b) FROM t;", q1.RawSQL)
	assert.Equal(t, q1.RawSQL, q1.CurrentSQL)
	assert.Equal(t, core.StatusExtracted, q1.Status)
	assert.Equal(t, q1.RawSQL, sampleDoc[q1.Body.Start:q1.Body.End])

	q3 := doc.Queries[1]
	assert.Equal(t, 3, q3.Number)
	assert.Equal(t, "Illustrative then real", q3.Title)
	assert.Equal(t, "SELECT o.id, c.name FROM orders o JOIN customers c ON c.id = o.customer_id;", q3.RawSQL)

	f := doc.Failures[0]
	assert.Equal(t, 2, f.Number)
	assert.Equal(t, "Output only", f.Title)
	assert.Equal(t, "no SQL block found", f.Reason)
}

func TestExtract_HeaderForms(t *testing.T) {
	tests := []struct {
		heading string
		number  int
		title   string
	}{
		{"## Query 7: Title", 7, "Title"},
		{"# query #12 - Dashed", 12, "Dashed"},
		{"### QUERY 4) Upper", 4, "Upper"},
		{"## 5. Bare number", 5, "Bare number"},
		{"## 6: Trailing hashes ##", 6, "Trailing hashes"},
		{"## Query 8", 8, ""},
	}

	for _, tt := range tests {
		t.Run(tt.heading, func(t *testing.T) {
			text := tt.heading + "\n\n```sql\nSELECT 1;\n```\n"
			doc, err := Extract(text, Options{})
			require.NoError(t, err)
			require.Len(t, doc.Queries, 1)
			assert.Equal(t, tt.number, doc.Queries[0].Number)
			assert.Equal(t, tt.title, doc.Queries[0].Title)
		})
	}
}

func TestExtract_HeadingInsideFenceIgnored(t *testing.T) {
	text := "## Query 1: Outer\n\n```sql\n-- comment\n## Query 2: not a heading\nSELECT 1;\n```\n"
	doc, err := Extract(text, Options{})
	require.NoError(t, err)
	require.Len(t, doc.Queries, 1)
	assert.Contains(t, doc.Queries[0].RawSQL, "## Query 2")
}

func TestExtract_Selection(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "first complete block wins",
			body: "```sql\nSELECT a FROM t;\n```\n\n```sql\nSELECT b FROM t;\n```\n",
			want: "SELECT a FROM t;",
		},
		{
			name: "ellipsis block skipped",
			body: "```sql\nSELECT a, ... FROM t;\n```\n\n```sql\nSELECT b FROM t;\n```\n",
			want: "SELECT b FROM t;",
		},
		{
			name: "unicode ellipsis skipped",
			body: "```sql\nSELECT … FROM t;\n```\n\n```sql\nSELECT b FROM t;\n```\n",
			want: "SELECT b FROM t;",
		},
		{
			name: "test marker skipped",
			body: "**Test:**\n\n```sql\nSELECT 1;\n```\n\n```sql\nSELECT b FROM t;\n```\n",
			want: "SELECT b FROM t;",
		},
		{
			name: "example sub-heading skipped",
			body: "#### Example\n\n```sql\nSELECT 1;\n```\n\n```sql\nSELECT b FROM t;\n```\n",
			want: "SELECT b FROM t;",
		},
		{
			name: "test sub-heading with prose skipped",
			body: "### Test case\n\nRun this first.\n\n```sql\nSELECT 1;\n```\n\n```sql\nSELECT b FROM t;\n```\n",
			want: "SELECT b FROM t;",
		},
		{
			name: "other sub-heading kept",
			body: "#### Solution\n\n```sql\nSELECT a FROM t;\n```\n\n```sql\nSELECT b FROM t;\n```\n",
			want: "SELECT a FROM t;",
		},
		{
			name: "long block without terminator is complete",
			body: "```sql\nSELECT x\n```\n\n```\nSELECT customer_id, order_date FROM orders\n```\n\n```sql\nSELECT z;\n```\n",
			want: "SELECT customer_id, order_date FROM orders",
		},
		{
			name: "last incomplete block as fallback",
			body: "```sql\nSELECT x\n```\n\n```sql\nSELECT y\n```\n",
			want: "SELECT y",
		},
		{
			name: "non sql info string skipped",
			body: "```json\n{\"a\": 1};\n```\n\n~~~duckdb\nSELECT 1;\n~~~\n",
			want: "SELECT 1;",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Extract("## Query 1: t\n\n"+tt.body, Options{})
			require.NoError(t, err)
			require.Len(t, doc.Queries, 1)
			assert.Equal(t, tt.want, doc.Queries[0].RawSQL)
		})
	}
}

func TestExtract_MinQueryLength(t *testing.T) {
	text := "## Query 1: t\n\n```sql\nSELECT a FROM t\n```\n\n```sql\nSELECT b\n```\n"

	doc, err := Extract(text, Options{MinQueryLength: 10})
	require.NoError(t, err)
	assert.Equal(t, "SELECT a FROM t", doc.Queries[0].RawSQL)

	doc, err = Extract(text, Options{})
	require.NoError(t, err)
	assert.Equal(t, "SELECT b", doc.Queries[0].RawSQL)
}

func TestExtract_Failures(t *testing.T) {
	text := "## Query 1: Only examples\n\nExample:\n\n```sql\nSELECT 1;\n```\n\n" +
		"## Query 2: Empty\n\n```sql\n\n```\n\n" +
		"## Query 3: Good\n\n```sql\nSELECT 3;\n```\n\n" +
		"## Query 3: Duplicate\n\n```sql\nSELECT 4;\n```\n"

	doc, err := Extract(text, Options{})
	require.NoError(t, err)

	require.Len(t, doc.Queries, 1)
	assert.Equal(t, "SELECT 3;", doc.Queries[0].RawSQL)

	require.Len(t, doc.Failures, 3)
	assert.Equal(t, "only illustrative SQL blocks found", doc.Failures[0].Reason)
	assert.Equal(t, 2, doc.Failures[1].Number)
	assert.Equal(t, "no SQL block found", doc.Failures[1].Reason)
	assert.Equal(t, 3, doc.Failures[2].Number)
	assert.Equal(t, "Duplicate", doc.Failures[2].Title)
	assert.Contains(t, doc.Failures[2].Error(), "duplicate query number 3")
}

func TestExtract_UnterminatedFence(t *testing.T) {
	doc, err := Extract("## Query 1: t\n\n```sql\nSELECT 1;\n", Options{})
	require.NoError(t, err)
	require.Len(t, doc.Queries, 1)
	assert.Equal(t, "SELECT 1;", doc.Queries[0].RawSQL)
}

func TestExtract_FrontmatterError(t *testing.T) {
	_, err := Extract("---\nbogus: true\n---\n## Query 1\n", Options{})
	var unknown *UnknownFieldError
	assert.True(t, errors.As(err, &unknown))
}

func TestExtract_SectionLines(t *testing.T) {
	text := "---\ndialect: sqlite\n---\n\n## Query 1: t\n"
	doc, err := Extract(text, Options{})
	require.NoError(t, err)
	require.Len(t, doc.Failures, 1)
	assert.Equal(t, 5, doc.Failures[0].Line)
}

func TestApplyRepairs(t *testing.T) {
	text := "## Query 1: a\n\n```sql\n  SELECT DATEDIFF('day', a, b) FROM t;\n\n```\n\n" +
		"## Query 2: b\n\n```sql\nSELECT 2;\n```\n"
	doc, err := Extract(text, Options{})
	require.NoError(t, err)

	out := doc.ApplyRepairs(text, map[int]string{
		1: "SELECT EXTRACT(EPOCH FROM (b::date - a::date)) / 86400 FROM t;",
		9: "SELECT 'unknown query';",
	})

	want := "## Query 1: a\n\n```sql\n  SELECT EXTRACT(EPOCH FROM (b::date - a::date)) / 86400 FROM t;\n\n```\n\n" +
		"## Query 2: b\n\n```sql\nSELECT 2;\n```\n"
	assert.Equal(t, want, out)

	reparsed, err := Extract(out, Options{})
	require.NoError(t, err)
	assert.Equal(t, "SELECT EXTRACT(EPOCH FROM (b::date - a::date)) / 86400 FROM t;", reparsed.Queries[0].RawSQL)
	assert.Equal(t, "SELECT 2;", reparsed.Queries[1].RawSQL)
}

func TestApplyRepairs_NoChanges(t *testing.T) {
	text := "## Query 1: a\n\n```sql\nSELECT 1;\n```\n"
	doc, err := Extract(text, Options{})
	require.NoError(t, err)
	assert.Equal(t, text, doc.ApplyRepairs(text, nil))
	assert.Equal(t, text, doc.ApplyRepairs(text, map[int]string{1: "SELECT 1;"}))
}
