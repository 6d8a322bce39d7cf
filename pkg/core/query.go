package core

// QueryStatus is the state of a query inside the repair state machine.
type QueryStatus string

// QueryStatus values.
const (
	StatusExtracted    QueryStatus = "extracted"
	StatusValidating   QueryStatus = "validating"
	StatusNeedsRewrite QueryStatus = "needs_rewrite"
	StatusRewriting    QueryStatus = "rewriting"
	StatusPassed       QueryStatus = "passed"
	StatusStuck        QueryStatus = "stuck"
	StatusExhausted    QueryStatus = "exhausted"
	StatusParseError   QueryStatus = "parse_error"
)

// IsTerminal reports whether no further transitions leave this status.
func (s QueryStatus) IsTerminal() bool {
	switch s {
	case StatusPassed, StatusStuck, StatusExhausted, StatusParseError:
		return true
	}
	return false
}

// Span is a half-open byte range [Start, End) within a source document.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Query is one numbered SQL statement extracted from a document.
type Query struct {
	Number     int         `json:"number"`
	Title      string      `json:"title"`
	RawSQL     string      `json:"raw_sql"`
	CurrentSQL string      `json:"current_sql"`
	Status     QueryStatus `json:"status"`

	// Body is the span of the selected fenced block's contents in the document.
	Body Span `json:"body"`
}

// NewQuery returns a query in the Extracted state.
func NewQuery(number int, title, sql string, body Span) Query {
	return Query{
		Number:     number,
		Title:      title,
		RawSQL:     sql,
		CurrentSQL: sql,
		Status:     StatusExtracted,
		Body:       body,
	}
}

// AliasMap holds per-document identifier remediation hints.
type AliasMap struct {
	// Columns maps a wrong column name to the name that exists in the target.
	Columns map[string]string `yaml:"columns" json:"columns,omitempty"`
	// Tables maps a wrong table name to the name that exists in the target.
	Tables map[string]string `yaml:"tables" json:"tables,omitempty"`
	// KnownColumns are candidate names for nearest-match remediation.
	KnownColumns []string `yaml:"-" json:"known_columns,omitempty"`
	// KnownTables are candidate names for nearest-match remediation.
	KnownTables []string `yaml:"-" json:"known_tables,omitempty"`
}

// IsEmpty reports whether the map carries no hints at all.
func (m AliasMap) IsEmpty() bool {
	return len(m.Columns) == 0 && len(m.Tables) == 0 &&
		len(m.KnownColumns) == 0 && len(m.KnownTables) == 0
}
