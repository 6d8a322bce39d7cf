package rules

import (
	"github.com/leapstack-labs/sqlrepair/pkg/core"
	"github.com/leapstack-labs/sqlrepair/pkg/rewrite"
	"github.com/leapstack-labs/sqlrepair/pkg/sqltext"
)

// ColumnAlias replaces a missing column with its document alias, or with
// the nearest known column name.
var ColumnAlias = rewrite.Rule{
	ID:          "ID01",
	Name:        "identifier.column",
	Kind:        core.KindUndefinedColumn,
	Group:       "identifier",
	Description: "Replace an undefined column with its alias-map target or nearest known column.",
	ApplyFn:     applyColumnAlias,

	BadExample:  `SELECT custmer_id FROM orders`,
	GoodExample: `SELECT customer_id FROM orders`,
}

func applyColumnAlias(sql string, rc rewrite.Context) string {
	ident := rc.Error.Locus.Identifier
	if ident == "" {
		return sql
	}
	target, ok := lookupAlias(rc.Aliases.Columns, ident)
	if !ok {
		target, ok = nearest(ident, rc.Aliases.KnownColumns)
	}
	if !ok {
		return sql
	}
	return sqltext.ReplaceIdent(sql, ident, target)
}
