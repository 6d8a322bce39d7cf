package rewrite

import (
	"fmt"
	"sort"
	"strings"

	"github.com/leapstack-labs/sqlrepair/pkg/core"
)

// RuleSet is an immutable, dialect-scoped rule catalog grouped by ErrorKind.
// Candidates for a kind keep the order of the catalog they were built from,
// which is their priority.
type RuleSet struct {
	dialect string
	rules   []Rule
	byKind  map[core.ErrorKind][]Rule
}

type options struct {
	disabled map[string]bool
}

// Option configures NewRuleSet.
type Option func(*options)

// WithDisabled removes the named rule IDs from the set.
func WithDisabled(ids ...string) Option {
	return func(o *options) {
		for _, id := range ids {
			o.disabled[strings.ToUpper(strings.TrimSpace(id))] = true
		}
	}
}

// NewRuleSet builds the set of rules active for dialect.
func NewRuleSet(dialect string, catalog []Rule, opts ...Option) (*RuleSet, error) {
	o := options{disabled: make(map[string]bool)}
	for _, opt := range opts {
		opt(&o)
	}

	known := make(map[string]bool, len(catalog))
	for _, r := range catalog {
		if r.ID == "" {
			return nil, fmt.Errorf("rule %q has no ID", r.Name)
		}
		if known[r.ID] {
			return nil, &DuplicateRuleError{ID: r.ID}
		}
		known[r.ID] = true
	}
	for id := range o.disabled {
		if !known[id] {
			return nil, &UnknownRuleError{ID: id}
		}
	}

	s := &RuleSet{
		dialect: strings.ToLower(dialect),
		byKind:  make(map[core.ErrorKind][]Rule),
	}
	for _, r := range catalog {
		if o.disabled[r.ID] || !r.SupportsDialect(s.dialect) {
			continue
		}
		s.rules = append(s.rules, r)
		s.byKind[r.Kind] = append(s.byKind[r.Kind], r)
	}
	return s, nil
}

// Dialect returns the dialect the set was built for.
func (s *RuleSet) Dialect() string {
	return s.dialect
}

// Rules returns the active rules in priority order.
func (s *RuleSet) Rules() []Rule {
	return append([]Rule(nil), s.rules...)
}

// Candidates returns the rules registered for kind, in priority order.
func (s *RuleSet) Candidates(kind core.ErrorKind) []Rule {
	return append([]Rule(nil), s.byKind[kind]...)
}

// Kinds returns the kinds that have at least one rule, sorted.
func (s *RuleSet) Kinds() []core.ErrorKind {
	kinds := make([]core.ErrorKind, 0, len(s.byKind))
	for k := range s.byKind {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Result describes the outcome of ApplyBest.
type Result struct {
	RuleID string
	SQL    string
	// Tried lists the candidate IDs examined, in order.
	Tried []string
}

// ApplyBest returns the rewrite of the first candidate for rc.Error.Kind
// whose output differs from sql. Each candidate is tried at most once.
// The second return is false when no candidate changes the text; Tried is
// empty in that case exactly when no rule is registered for the kind.
func (s *RuleSet) ApplyBest(sql string, rc Context) (Result, bool) {
	if rc.Dialect == "" {
		rc.Dialect = s.dialect
	}
	res := Result{SQL: sql}
	for _, r := range s.byKind[rc.Error.Kind] {
		res.Tried = append(res.Tried, r.ID)
		if !r.Applies(sql, rc) {
			continue
		}
		out := r.Apply(sql, rc)
		if out == sql {
			continue
		}
		res.RuleID = r.ID
		res.SQL = out
		return res, true
	}
	return res, false
}

// DuplicateRuleError is returned when a catalog defines an ID twice.
type DuplicateRuleError struct {
	ID string
}

func (e *DuplicateRuleError) Error() string {
	return fmt.Sprintf("duplicate rule ID %q", e.ID)
}

// UnknownRuleError is returned when configuration names a rule that does not exist.
type UnknownRuleError struct {
	ID string
}

func (e *UnknownRuleError) Error() string {
	return fmt.Sprintf("unknown rule %q\nHint: run 'sqlrepair rules' to list rule IDs", e.ID)
}
