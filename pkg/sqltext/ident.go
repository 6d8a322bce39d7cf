package sqltext

import (
	"strings"

	"golang.org/x/text/cases"
)

// folder folds identifiers for case-insensitive comparison. SQL engines
// fold unquoted identifiers, so matching must not depend on the author's case.
var folder = cases.Fold()

// Fold returns the case-folded form of an identifier.
func Fold(name string) string {
	return folder.String(strings.TrimSpace(name))
}

// SameIdent reports whether two identifiers are equal after folding.
func SameIdent(a, b string) bool {
	return Fold(a) == Fold(b)
}

// clauseWords end a relation reference; a word from this set following a
// table name is never its alias.
var clauseWords = []string{
	"WHERE", "JOIN", "INNER", "LEFT", "RIGHT", "FULL", "CROSS", "NATURAL",
	"OUTER", "ON", "USING", "GROUP", "ORDER", "LIMIT", "OFFSET", "HAVING",
	"UNION", "EXCEPT", "INTERSECT", "WINDOW", "FETCH", "QUALIFY", "LATERAL",
	"SELECT", "FROM", "RETURNING", "AS", "TABLESAMPLE",
}

// IsClauseWord reports whether t is a keyword that ends a relation reference.
func IsClauseWord(t Token) bool {
	return t.Is(clauseWords...)
}

// splitQualified splits "a.b" into qualifier and name.
func splitQualified(name string) (string, string) {
	name = strings.TrimSpace(name)
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[:i], name[i+1:]
	}
	return "", name
}

// isReference reports whether the identifier at i is used as a reference:
// not a function name, not an alias being declared.
func (s *Source) isReference(i int) bool {
	if s.At(i + 1).IsPunct("(") {
		return false
	}
	if s.At(i - 1).Is("AS") {
		return false
	}
	return true
}

// qualifierOf returns the qualifier preceding the identifier at i, if any.
func (s *Source) qualifierOf(i int) (string, bool) {
	if !s.At(i - 1).IsPunct(".") || !s.At(i - 2).IsIdent() {
		return "", false
	}
	return s.At(i - 2).Name(), true
}

// ReplaceIdent replaces references to old with repl. old may be qualified
// ("t.col"), in which case only occurrences with a matching qualifier are
// replaced; an unqualified old matches regardless of qualifier. The
// qualifier itself is kept. Function names and declared aliases are left
// alone.
func ReplaceIdent(sql, old, repl string) string {
	qual, name := splitQualified(old)
	_, replName := splitQualified(repl)
	if name == "" || replName == "" {
		return sql
	}
	src := Scan(sql)
	var edits []Edit
	for i, t := range src.Sig {
		if !t.IsIdent() || !SameIdent(t.Name(), name) || !src.isReference(i) {
			continue
		}
		if src.At(i + 1).IsPunct(".") {
			// t is itself a qualifier, not the referenced name
			continue
		}
		if qual != "" {
			q, ok := src.qualifierOf(i)
			if !ok || !SameIdent(q, qual) {
				continue
			}
		}
		text := replName
		if t.Kind == QuotedIdent {
			text = t.Text[:1] + replName + t.Text[len(t.Text)-1:]
		}
		edits = append(edits, Edit{Start: t.Start, End: t.End, New: text})
	}
	return Apply(sql, edits)
}

// ReplaceRelation replaces references to the relation old with repl. Unlike
// ReplaceIdent, a qualifier position ("old.col") is also rewritten, since
// an unaliased table name qualifies its own columns.
func ReplaceRelation(sql, old, repl string) string {
	_, name := splitQualified(old)
	if name == "" || repl == "" {
		return sql
	}
	src := Scan(sql)
	var edits []Edit
	for i, t := range src.Sig {
		if !t.IsIdent() || !SameIdent(t.Name(), name) || !src.isReference(i) {
			continue
		}
		start := t.Start
		if q, ok := src.qualifierOf(i); ok && strings.Contains(old, ".") {
			if !SameIdent(q+"."+t.Name(), old) {
				continue
			}
			start = src.At(i - 2).Start
		}
		edits = append(edits, Edit{Start: start, End: t.End, New: repl})
	}
	return Apply(sql, edits)
}

// QualifyColumn prefixes unqualified references to col with qualifier.
// Already qualified references are left alone, so the edit is idempotent.
func QualifyColumn(sql, col, qualifier string) string {
	src := Scan(sql)
	var edits []Edit
	for i, t := range src.Sig {
		if !t.IsIdent() || !SameIdent(t.Name(), col) || !src.isReference(i) {
			continue
		}
		if src.At(i-1).IsPunct(".") || src.At(i+1).IsPunct(".") {
			continue
		}
		// a bare word right after a relation is that relation's alias
		if i > 0 && src.At(i-1).IsIdent() && !src.At(i-1).Is(exprWords...) {
			continue
		}
		edits = append(edits, Edit{Start: t.Start, End: t.Start, New: qualifier + "."})
	}
	return Apply(sql, edits)
}

// exprWords may directly precede a column reference.
var exprWords = []string{
	"SELECT", "WHERE", "AND", "OR", "NOT", "ON", "BY", "WHEN", "THEN",
	"ELSE", "HAVING", "DISTINCT", "CASE", "IS", "IN", "BETWEEN", "LIKE",
	"ILIKE", "RETURNING", "ALL", "ANY",
}

// Relation is one entry of a FROM or JOIN list.
type Relation struct {
	Name  string
	Alias string
}

// Ref returns the name columns of this relation are qualified with.
func (r Relation) Ref() string {
	if r.Alias != "" {
		return r.Alias
	}
	_, name := splitQualified(r.Name)
	return name
}

// Relations returns the relations named after FROM and JOIN at the
// outermost level where any appear, in source order. Subqueries in FROM
// are reported by their alias alone.
func (s *Source) Relations() []Relation {
	depths := s.Depths()
	minDepth := -1
	for i, t := range s.Sig {
		if t.Is("FROM", "JOIN") && (minDepth < 0 || depths[i] < minDepth) {
			minDepth = depths[i]
		}
	}
	var rels []Relation
	for i, t := range s.Sig {
		if depths[i] != minDepth || !t.Is("FROM", "JOIN") {
			continue
		}
		rels = append(rels, s.relationAt(i+1))
	}
	return rels
}

// relationAt reads "name [AS] alias" or "(subquery) [AS] alias" at i.
func (s *Source) relationAt(i int) Relation {
	var rel Relation
	next := i
	switch {
	case s.At(i).IsPunct("("):
		closeI := s.MatchClose(i)
		if closeI < 0 {
			return rel
		}
		next = closeI + 1
	case s.At(i).IsIdent() && !IsClauseWord(s.At(i)):
		j := i
		for s.At(j+1).IsPunct(".") && s.At(j+2).IsIdent() {
			j += 2
		}
		rel.Name = s.Slice(i, j)
		next = j + 1
	default:
		return rel
	}
	if s.At(next).Is("AS") {
		next++
	}
	if t := s.At(next); t.IsIdent() && !IsClauseWord(t) {
		rel.Alias = t.Name()
	}
	return rel
}
