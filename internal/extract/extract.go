// Package extract parses numbered query sections out of Markdown-style
// documents.
//
// A section starts at a heading such as "## Query 3: Revenue by region" and
// runs to the next heading of the same or higher level. The SQL body of a
// section is chosen among its fenced code blocks; illustrative snippets are
// skipped. Extraction is pure: it never touches the filesystem.
package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/leapstack-labs/sqlrepair/pkg/core"
	"github.com/leapstack-labs/sqlrepair/pkg/dialect"
)

// DefaultMinQueryLength is the length at which a block without a terminator
// is considered complete.
const DefaultMinQueryLength = 40

// Options controls block selection.
type Options struct {
	MinQueryLength int
}

func (o Options) minLength() int {
	if o.MinQueryLength <= 0 {
		return DefaultMinQueryLength
	}
	return o.MinQueryLength
}

// Document is the result of extracting a source document.
type Document struct {
	Meta     Frontmatter
	Queries  []core.Query
	Failures []SectionError
}

// Total returns the number of sections found, resolvable or not.
func (d *Document) Total() int {
	return len(d.Queries) + len(d.Failures)
}

// SectionError reports a section with no resolvable SQL body.
type SectionError struct {
	Number int
	Title  string
	Line   int
	Reason string
}

func (e *SectionError) Error() string {
	return fmt.Sprintf("query %d (line %d): %s", e.Number, e.Line, e.Reason)
}

var (
	headingPattern = regexp.MustCompile(`^(#{1,6})[ \t]+(.*)$`)
	queryPattern   = regexp.MustCompile(`^(?:(?i:query)[ \t]*#?(\d+)[ \t]*[.:)\-]?|(\d+)[.:)\-])[ \t]*(.*?)[ \t#]*$`)
	fencePattern   = regexp.MustCompile("^ {0,3}(`{3,}|~{3,})[ \t]*([^\\s`{]*)")
	markerPattern  = regexp.MustCompile(`(?i)^\s*(?:[*_>]+\s*)?(?:example|test)\b`)
)

type line struct {
	text  string
	start int // byte offset of the first character
	end   int // byte offset after the line terminator
	num   int
}

func splitLines(text string, offset int) []line {
	var lines []line
	num := strings.Count(text[:offset], "\n") + 1
	for pos := offset; pos < len(text); num++ {
		end := strings.IndexByte(text[pos:], '\n')
		next := len(text)
		if end >= 0 {
			next = pos + end + 1
		}
		content := strings.TrimRight(text[pos:next], "\r\n")
		lines = append(lines, line{text: content, start: pos, end: next, num: num})
		pos = next
	}
	return lines
}

type block struct {
	info         string
	body         core.Span // trimmed contents
	sql          string
	illustrative bool
}

type section struct {
	number int
	title  string
	level  int
	line   int
	blocks []block
}

// Extract parses text into queries. Only a malformed frontmatter block is
// returned as an error; unresolvable sections are reported in Failures.
func Extract(text string, opts Options) (*Document, error) {
	fm, err := ExtractFrontmatter(text)
	if err != nil {
		return nil, err
	}
	doc := &Document{Meta: *fm.Config}

	sections := scan(text, fm.Offset)
	seen := make(map[int]bool, len(sections))
	for _, s := range sections {
		if seen[s.number] {
			doc.Failures = append(doc.Failures, SectionError{
				Number: s.number, Title: s.title, Line: s.line,
				Reason: fmt.Sprintf("duplicate query number %d", s.number),
			})
			continue
		}
		seen[s.number] = true

		b, reason := s.selectBlock(opts.minLength())
		if b == nil {
			doc.Failures = append(doc.Failures, SectionError{
				Number: s.number, Title: s.title, Line: s.line, Reason: reason,
			})
			continue
		}
		doc.Queries = append(doc.Queries, core.NewQuery(s.number, s.title, b.sql, b.body))
	}
	return doc, nil
}

// scan walks the document line by line, tracking fences so that headings
// inside code blocks are ignored.
func scan(text string, offset int) []*section {
	var (
		sections []*section
		current  *section
		prose    string // nearest non-blank line outside a fence
		marked   bool   // an Example or Test heading precedes the next fence
		fence    string
		open     *block
		bodyFrom int
	)

	for _, ln := range splitLines(text, offset) {
		if fence != "" {
			if isClosingFence(ln.text, fence) {
				closeBlock(text, open, bodyFrom, ln.start)
				if current != nil {
					current.blocks = append(current.blocks, *open)
				}
				fence, open, prose, marked = "", nil, "", false
			}
			continue
		}

		if m := fencePattern.FindStringSubmatch(ln.text); m != nil {
			fence = m[1]
			open = &block{
				info:         strings.ToLower(m[2]),
				illustrative: marked || markerPattern.MatchString(prose),
			}
			bodyFrom = ln.end
			continue
		}

		if m := headingPattern.FindStringSubmatch(ln.text); m != nil {
			level := len(m[1])
			q := queryPattern.FindStringSubmatch(m[2])
			switch {
			case q != nil:
				digits := q[1]
				if digits == "" {
					digits = q[2]
				}
				number, _ := strconv.Atoi(digits)
				current = &section{number: number, title: q[3], level: level, line: ln.num}
				sections = append(sections, current)
			case current != nil && level <= current.level:
				current = nil
			}
			prose = ""
			marked = q == nil && markerPattern.MatchString(m[2])
			continue
		}

		if strings.TrimSpace(ln.text) != "" {
			prose = ln.text
		}
	}

	// An unterminated fence runs to the end of the document.
	if open != nil {
		closeBlock(text, open, bodyFrom, len(text))
		if current != nil {
			current.blocks = append(current.blocks, *open)
		}
	}
	return sections
}

func isClosingFence(s, fence string) bool {
	t := strings.TrimSpace(s)
	if len(t) < len(fence) || t[0] != fence[0] {
		return false
	}
	return strings.Trim(t, t[:1]) == ""
}

func closeBlock(text string, b *block, from, to int) {
	if from > to {
		from = to
	}
	raw := text[from:to]
	lead := len(raw) - len(strings.TrimLeft(raw, " \t\r\n"))
	trail := len(raw) - len(strings.TrimRight(raw, " \t\r\n"))
	if lead == len(raw) {
		b.body = core.Span{Start: from, End: from}
		return
	}
	b.body = core.Span{Start: from + lead, End: to - trail}
	b.sql = text[b.body.Start:b.body.End]
	if strings.Contains(b.sql, "...") || strings.Contains(b.sql, "…") {
		b.illustrative = true
	}
}

// isSQLInfo reports whether a fence info string marks a SQL candidate.
func isSQLInfo(info string) bool {
	if info == "" || info == "sql" {
		return true
	}
	_, ok := dialect.Get(info)
	return ok
}

// selectBlock picks the section's SQL body: the first complete candidate,
// otherwise the last non-empty one.
func (s *section) selectBlock(minLength int) (*block, string) {
	var last *block
	sawIllustrative := false
	for i := range s.blocks {
		b := &s.blocks[i]
		if !isSQLInfo(b.info) || b.sql == "" {
			continue
		}
		if b.illustrative {
			sawIllustrative = true
			continue
		}
		if strings.HasSuffix(b.sql, ";") || utf8.RuneCountInString(b.sql) >= minLength {
			return b, ""
		}
		last = b
	}
	if last != nil {
		return last, ""
	}
	if sawIllustrative {
		return nil, "only illustrative SQL blocks found"
	}
	return nil, "no SQL block found"
}
