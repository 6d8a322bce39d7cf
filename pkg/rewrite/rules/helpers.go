package rules

import (
	"strings"

	"github.com/leapstack-labs/sqlrepair/pkg/dialect"
	"github.com/leapstack-labs/sqlrepair/pkg/rewrite"
	"github.com/leapstack-labs/sqlrepair/pkg/sqltext"
)

// maxPasses bounds fixpoint iteration for rules whose edits can expose
// further matches (nested casts, chained cleanups).
const maxPasses = 32

// fixpoint applies pass until the text stops changing.
func fixpoint(sql string, pass func(string) string) string {
	for i := 0; i < maxPasses; i++ {
		next := pass(sql)
		if next == sql {
			return sql
		}
		sql = next
	}
	return sql
}

// locusIs reports whether the error names one of names, or names nothing.
// Rules that repair a specific construct use it to stay out of unrelated
// failures.
func locusIs(rc rewrite.Context, names ...string) bool {
	id := rc.Error.Locus.Identifier
	if id == "" {
		return true
	}
	if i := strings.LastIndexByte(id, '.'); i >= 0 {
		id = id[i+1:]
	}
	for _, n := range names {
		if strings.EqualFold(id, n) {
			return true
		}
	}
	return false
}

// hasCastOperator reports whether the target accepts expr::type.
func hasCastOperator(rc rewrite.Context) bool {
	d, ok := dialect.Get(rc.Dialect)
	return !ok || d.CastOperator
}

// isSimpleArg reports whether arg can take a postfix cast without
// parentheses: a literal, a possibly qualified name, or a single call.
func isSimpleArg(src *sqltext.Source, arg sqltext.Arg) bool {
	if arg.Last < arg.First {
		return false
	}
	if arg.First == arg.Last {
		return true
	}
	// qualified name: a.b or a.b.c
	qualified := true
	for i := arg.First; i <= arg.Last; i++ {
		t := src.At(i)
		if (i-arg.First)%2 == 0 && !t.IsIdent() || (i-arg.First)%2 == 1 && !t.IsPunct(".") {
			qualified = false
			break
		}
	}
	if qualified && (arg.Last-arg.First)%2 == 0 {
		return true
	}
	// name(...) spanning the whole argument
	if src.At(arg.First).Kind == sqltext.Word && src.At(arg.First+1).IsPunct("(") {
		return src.MatchClose(arg.First+1) == arg.Last
	}
	// (...) spanning the whole argument
	if src.At(arg.First).IsPunct("(") {
		return src.MatchClose(arg.First) == arg.Last
	}
	return false
}

// castArg renders arg cast to typ with the :: operator.
func castArg(src *sqltext.Source, arg sqltext.Arg, typ string) string {
	if isSimpleArg(src, arg) {
		return arg.Text + "::" + typ
	}
	return "(" + arg.Text + ")::" + typ
}

// normalizeUnit maps the date-part spellings accepted by DATEDIFF and
// DATEADD onto a canonical unit. ok is false for unsupported parts.
func normalizeUnit(raw string) (string, bool) {
	u := strings.ToLower(strings.Trim(sqltext.Unquote(raw), `"`))
	switch u {
	case "second", "seconds", "ss", "s":
		return "second", true
	case "minute", "minutes", "mi", "n":
		return "minute", true
	case "hour", "hours", "hh":
		return "hour", true
	case "day", "days", "dd", "d":
		return "day", true
	case "week", "weeks", "wk", "ww":
		return "week", true
	case "month", "months", "mm", "m":
		return "month", true
	case "quarter", "quarters", "qq", "q":
		return "quarter", true
	case "year", "years", "yy", "yyyy":
		return "year", true
	}
	return "", false
}

// unitSeconds is the length of fixed-size units.
var unitSeconds = map[string]int{
	"second": 1,
	"minute": 60,
	"hour":   3600,
	"day":    86400,
	"week":   604800,
}

// callEdit replaces a whole call expression.
func callEdit(src *sqltext.Source, c sqltext.Call, text string) sqltext.Edit {
	start, end := src.Span(c.NameI, c.Close)
	return sqltext.Edit{Start: start, End: end, New: text}
}

// removeToken deletes the significant token at i together with the
// whitespace on one side of it: before it when there is any, after it
// otherwise.
func removeToken(src *sqltext.Source, i int) sqltext.Edit {
	t := src.At(i)
	if i > 0 && src.At(i-1).End < t.Start {
		return sqltext.Edit{Start: src.At(i - 1).End, End: t.End}
	}
	if i+1 < len(src.Sig) {
		return sqltext.Edit{Start: t.Start, End: src.At(i + 1).Start}
	}
	return sqltext.Edit{Start: t.Start, End: t.End}
}

// boundaryWords end a clause body at the current depth.
var boundaryWords = []string{
	"SELECT", "FROM", "WHERE", "GROUP", "HAVING", "ORDER", "LIMIT", "OFFSET",
	"FETCH", "WINDOW", "QUALIFY", "UNION", "EXCEPT", "INTERSECT", "RETURNING",
}

// joinWords start a join at the current depth.
var joinWords = []string{"JOIN", "INNER", "LEFT", "RIGHT", "FULL", "CROSS", "NATURAL"}

// isBoundary reports whether t ends the current clause or relation.
func isBoundary(t sqltext.Token) bool {
	return t.Is(boundaryWords...) || t.IsPunct(")") || t.IsPunct(";")
}
