// Package classify maps raw engine error text to a finite ErrorKind.
//
// Each dialect owns an ordered table of patterns; the first matching pattern
// decides the kind and, when the pattern captures one, the identifier the
// error refers to. Tables are built once at package initialization and are
// never modified, so classification is a pure function of its input.
package classify

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/leapstack-labs/sqlrepair/pkg/core"
)

// Pattern is one entry of a dialect's classification table.
type Pattern struct {
	// Name identifies the pattern in listings and tests.
	Name string
	Kind core.ErrorKind
	// Expr is matched against the raw message. The first capture group,
	// if any, becomes the locus identifier.
	Expr *regexp.Regexp
}

func pattern(name string, kind core.ErrorKind, expr string) Pattern {
	return Pattern{Name: name, Kind: kind, Expr: regexp.MustCompile(expr)}
}

// linePattern extracts a psql-style "LINE n:" marker.
var linePattern = regexp.MustCompile(`(?m)^\s*LINE (\d+):`)

// Classifier classifies errors for one dialect.
type Classifier struct {
	dialect  string
	patterns []Pattern
}

// New returns the classifier for a dialect. Unknown dialects get an empty
// table and classify everything as Unknown.
func New(dialect string) *Classifier {
	return &Classifier{dialect: dialect, patterns: tables[strings.ToLower(dialect)]}
}

// Dialect returns the dialect this classifier is bound to.
func (c *Classifier) Dialect() string {
	return c.dialect
}

// Patterns returns a copy of the ordered pattern table.
func (c *Classifier) Patterns() []Pattern {
	return append([]Pattern(nil), c.patterns...)
}

// Classify returns the typed record for a raw engine message.
// An unmatched message is classified Unknown and kept verbatim.
func (c *Classifier) Classify(raw string) core.ErrorRecord {
	rec := core.ErrorRecord{Kind: core.KindUnknown, RawMessage: raw}
	for _, p := range c.patterns {
		m := p.Expr.FindStringSubmatch(raw)
		if m == nil {
			continue
		}
		rec.Kind = p.Kind
		if len(m) > 1 {
			rec.Locus.Identifier = cleanIdentifier(firstNonEmpty(m[1:]))
		}
		break
	}
	if lm := linePattern.FindStringSubmatch(raw); lm != nil {
		rec.Locus.Line, _ = strconv.Atoi(lm[1])
	}
	return rec
}

// Classify classifies raw for the named dialect.
func Classify(dialect, raw string) core.ErrorRecord {
	return New(dialect).Classify(raw)
}

// LineForPosition converts a 1-based character offset into a 1-based line.
func LineForPosition(sql string, position int) int {
	if position <= 0 {
		return 0
	}
	runes := []rune(sql)
	if position > len(runes) {
		position = len(runes)
	}
	return strings.Count(string(runes[:position-1]), "\n") + 1
}

func firstNonEmpty(groups []string) string {
	for _, g := range groups {
		if g != "" {
			return g
		}
	}
	return ""
}

// cleanIdentifier trims quoting and call syntax from a captured identifier.
func cleanIdentifier(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '('); i > 0 {
		s = s[:i]
	}
	return strings.Trim(s, "\"'`[]")
}
