package sqltext

import (
	"sort"
	"strings"
)

// Source is a tokenized statement. Sig holds only the significant tokens
// (no whitespace or comments); all offsets refer to Text.
type Source struct {
	Text   string
	Tokens []Token
	Sig    []Token
}

// Scan tokenizes s.
func Scan(s string) *Source {
	toks := Tokenize(s)
	sig := make([]Token, 0, len(toks))
	for _, t := range toks {
		if t.Kind != Space && t.Kind != Comment {
			sig = append(sig, t)
		}
	}
	return &Source{Text: s, Tokens: toks, Sig: sig}
}

// At returns the significant token at i, or a zero token when out of range.
func (s *Source) At(i int) Token {
	if i < 0 || i >= len(s.Sig) {
		return Token{Kind: Space}
	}
	return s.Sig[i]
}

// Slice returns the source text from significant token i through j inclusive.
func (s *Source) Slice(i, j int) string {
	if i < 0 || j >= len(s.Sig) || i > j {
		return ""
	}
	return s.Text[s.Sig[i].Start:s.Sig[j].End]
}

// MatchClose returns the index of the parenthesis closing the one at open,
// or -1 when it is unbalanced.
func (s *Source) MatchClose(open int) int {
	if !s.At(open).IsPunct("(") {
		return -1
	}
	depth := 0
	for i := open; i < len(s.Sig); i++ {
		switch {
		case s.Sig[i].IsPunct("("):
			depth++
		case s.Sig[i].IsPunct(")"):
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// Depths returns the parenthesis depth of every significant token.
// A parenthesis token carries the depth outside of it.
func (s *Source) Depths() []int {
	depths := make([]int, len(s.Sig))
	depth := 0
	for i, t := range s.Sig {
		if t.IsPunct(")") && depth > 0 {
			depth--
		}
		depths[i] = depth
		if t.IsPunct("(") {
			depth++
		}
	}
	return depths
}

// Arg is one top-level argument of a call.
type Arg struct {
	First, Last int // significant token indices, Last < First when empty
	Text        string
}

// Call is a function invocation located in a Source.
type Call struct {
	Name  string
	NameI int // index of the function name token
	Open  int // index of "("
	Close int // index of ")"
	Args  []Arg
}

// Calls returns the invocations of the named functions in source order.
// Names match case-insensitively; schema-qualified calls are matched on
// their last component.
func (s *Source) Calls(names ...string) []Call {
	var calls []Call
	for i := 0; i+1 < len(s.Sig); i++ {
		t := s.Sig[i]
		if !t.Is(names...) || !s.Sig[i+1].IsPunct("(") {
			continue
		}
		closeI := s.MatchClose(i + 1)
		if closeI < 0 {
			continue
		}
		calls = append(calls, Call{
			Name:  t.Text,
			NameI: i,
			Open:  i + 1,
			Close: closeI,
			Args:  s.splitArgs(i+1, closeI),
		})
	}
	return calls
}

// splitArgs splits the tokens between open and close at top-level commas.
func (s *Source) splitArgs(open, closeI int) []Arg {
	if closeI == open+1 {
		return nil
	}
	var args []Arg
	depth := 0
	first := open + 1
	for i := open + 1; i < closeI; i++ {
		t := s.Sig[i]
		switch {
		case t.IsPunct("("):
			depth++
		case t.IsPunct(")"):
			depth--
		case t.IsPunct(",") && depth == 0:
			args = append(args, s.arg(first, i-1))
			first = i + 1
		}
	}
	return append(args, s.arg(first, closeI-1))
}

func (s *Source) arg(first, last int) Arg {
	return Arg{First: first, Last: last, Text: s.Slice(first, last)}
}

// Span returns the byte range covering significant tokens i..j.
func (s *Source) Span(i, j int) (int, int) {
	return s.Sig[i].Start, s.Sig[j].End
}

// Edit replaces Text[Start:End] with New.
type Edit struct {
	Start, End int
	New        string
}

// Apply applies non-overlapping edits to text. Edits are applied by start
// offset; an edit overlapping an earlier one is dropped.
func Apply(text string, edits []Edit) string {
	if len(edits) == 0 {
		return text
	}
	sorted := make([]Edit, len(edits))
	copy(sorted, edits)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	var b strings.Builder
	b.Grow(len(text))
	cursor := 0
	for _, e := range sorted {
		if e.Start < cursor || e.End < e.Start || e.End > len(text) {
			continue
		}
		b.WriteString(text[cursor:e.Start])
		b.WriteString(e.New)
		cursor = e.End
	}
	b.WriteString(text[cursor:])
	return b.String()
}

// Unquote strips a single level of SQL string quoting from a literal.
func Unquote(lit string) string {
	lit = strings.TrimSpace(lit)
	if len(lit) >= 2 && lit[0] == '\'' && lit[len(lit)-1] == '\'' {
		return strings.ReplaceAll(lit[1:len(lit)-1], "''", "'")
	}
	return lit
}

// TrimTerminator removes trailing semicolons and whitespace.
func TrimTerminator(sql string) string {
	return strings.TrimRight(strings.TrimSpace(sql), "; \t\r\n")
}

// FirstKeyword returns the upper-cased first word of the statement,
// skipping comments and leading parentheses.
func FirstKeyword(sql string) string {
	for _, t := range Scan(sql).Sig {
		if t.IsPunct("(") {
			continue
		}
		if t.Kind == Word {
			return strings.ToUpper(t.Text)
		}
		return ""
	}
	return ""
}

// StatementCount returns the number of non-empty statements separated by
// top-level semicolons.
func StatementCount(sql string) int {
	src := Scan(sql)
	n, pending := 0, false
	for _, t := range src.Sig {
		if t.IsPunct(";") {
			if pending {
				n++
			}
			pending = false
			continue
		}
		pending = true
	}
	if pending {
		n++
	}
	return n
}
