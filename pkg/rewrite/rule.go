// Package rewrite provides the dialect-scoped set of repair rules.
//
// A Rule is a data-driven definition owned by exactly one ErrorKind. Rules
// are stateless text transformations: their output depends only on the SQL
// text and the Context describing the failure. A RuleSet is built once per
// run from a catalog, filtered to one dialect, and never modified afterwards.
//
// Rule implementations live in the rules subpackage to keep the set
// mechanics independent of the catalog.
package rewrite

import (
	"strings"

	"github.com/leapstack-labs/sqlrepair/pkg/core"
)

// Context carries everything a rule may look at besides the SQL text.
type Context struct {
	// Error is the classified failure that selected the candidate rules.
	Error core.ErrorRecord
	// Aliases holds the document's identifier remediation hints.
	Aliases core.AliasMap
	// Dialect is the target dialect name.
	Dialect string
}

// AppliesFunc reports whether a rule has something to change in sql.
type AppliesFunc func(sql string, rc Context) bool

// ApplyFunc returns the rewritten sql. It must return sql unchanged when
// there is nothing to do, and must be idempotent.
type ApplyFunc func(sql string, rc Context) string

// Rule is a data-driven rewrite rule definition.
type Rule struct {
	ID          string         // Unique identifier, e.g., "FN01"
	Name        string         // Human-readable name, e.g., "function.datediff"
	Kind        core.ErrorKind // The ErrorKind this rule repairs
	Group       string         // Category, e.g., "function", "cast", "join"
	Description string
	Dialects    []string // Restrict to specific dialects; nil/empty means all dialects

	AppliesFn AppliesFunc // Optional; defaults to "Apply changes the text"
	ApplyFn   ApplyFunc

	// Documentation shown by `sqlrepair rules`.
	BadExample  string
	GoodExample string
}

// Applies reports whether the rule would change sql.
func (r Rule) Applies(sql string, rc Context) bool {
	if r.AppliesFn != nil {
		return r.AppliesFn(sql, rc)
	}
	return r.Apply(sql, rc) != sql
}

// Apply runs the rule. A rule without an ApplyFn never changes anything.
func (r Rule) Apply(sql string, rc Context) string {
	if r.ApplyFn == nil {
		return sql
	}
	return r.ApplyFn(sql, rc)
}

// SupportsDialect reports whether the rule is active for dialect.
func (r Rule) SupportsDialect(dialect string) bool {
	if len(r.Dialects) == 0 {
		return true
	}
	for _, d := range r.Dialects {
		if strings.EqualFold(d, dialect) {
			return true
		}
	}
	return false
}
