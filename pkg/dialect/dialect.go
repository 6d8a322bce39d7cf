// Package dialect provides the target SQL engine definitions.
//
// A dialect names the engine a corpus must validate against. It selects the
// classifier's pattern table, the active rewrite-rule subset and the adapter
// used for validation, and it describes how a statement can be checked
// without side effects.
package dialect

import (
	"fmt"
	"strings"
)

// Dialect describes one target SQL engine.
type Dialect struct {
	// Name is the dialect identifier used in configuration (e.g., "postgres").
	Name string

	// Driver is the adapter type that validates against this dialect.
	Driver string

	// DefaultSchema is used when a table reference is unqualified.
	DefaultSchema string

	// PlanPrefix turns a statement into its plan-only form (e.g., "EXPLAIN").
	// Empty means the dialect cannot plan without executing.
	PlanPrefix string

	// Plannable lists the leading keywords PlanPrefix accepts.
	Plannable []string

	// CastOperator reports whether expr::type is accepted.
	CastOperator bool

	// TransactionalDDL reports whether DDL inside a rolled-back transaction
	// leaves no trace.
	TransactionalDDL bool

	// Placeholder is the bind-parameter style: "$" for $1, "?" for ?.
	Placeholder string
}

// CanPlan reports whether sql can be checked in its plan-only form.
func (d *Dialect) CanPlan(firstKeyword string) bool {
	if d.PlanPrefix == "" {
		return false
	}
	kw := strings.ToUpper(firstKeyword)
	for _, p := range d.Plannable {
		if p == kw {
			return true
		}
	}
	return false
}

// FormatPlaceholder returns the bind placeholder for the 1-based index.
func (d *Dialect) FormatPlaceholder(index int) string {
	if d.Placeholder == "$" {
		return fmt.Sprintf("$%d", index)
	}
	return "?"
}

// Builder constructs a Dialect.
type Builder struct {
	d Dialect
}

// NewDialect starts a dialect definition.
func NewDialect(name string) *Builder {
	return &Builder{d: Dialect{Name: name, Driver: name, Placeholder: "?"}}
}

// Driver sets the adapter type.
func (b *Builder) Driver(name string) *Builder {
	b.d.Driver = name
	return b
}

// DefaultSchema sets the default schema.
func (b *Builder) DefaultSchema(schema string) *Builder {
	b.d.DefaultSchema = schema
	return b
}

// Plan configures plan-only validation.
func (b *Builder) Plan(prefix string, keywords ...string) *Builder {
	b.d.PlanPrefix = prefix
	b.d.Plannable = keywords
	return b
}

// CastOperator enables expr::type.
func (b *Builder) CastOperator() *Builder {
	b.d.CastOperator = true
	return b
}

// TransactionalDDL marks DDL as safely rolled back.
func (b *Builder) TransactionalDDL() *Builder {
	b.d.TransactionalDDL = true
	return b
}

// Placeholder sets the bind-parameter style.
func (b *Builder) Placeholder(style string) *Builder {
	b.d.Placeholder = style
	return b
}

// Build returns the finished dialect.
func (b *Builder) Build() *Dialect {
	d := b.d
	d.Plannable = append([]string(nil), b.d.Plannable...)
	return &d
}
