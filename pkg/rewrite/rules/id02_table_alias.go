package rules

import (
	"github.com/leapstack-labs/sqlrepair/pkg/core"
	"github.com/leapstack-labs/sqlrepair/pkg/rewrite"
	"github.com/leapstack-labs/sqlrepair/pkg/sqltext"
)

// TableAlias replaces a missing table with its document alias, or with the
// nearest known table name.
var TableAlias = rewrite.Rule{
	ID:          "ID02",
	Name:        "identifier.table",
	Kind:        core.KindUndefinedTable,
	Group:       "identifier",
	Description: "Replace an undefined table with its alias-map target or nearest known table.",
	ApplyFn:     applyTableAlias,

	BadExample:  `SELECT * FROM trip_data`,
	GoodExample: `SELECT * FROM trips`,
}

func applyTableAlias(sql string, rc rewrite.Context) string {
	ident := rc.Error.Locus.Identifier
	if ident == "" {
		return sql
	}
	target, ok := lookupAlias(rc.Aliases.Tables, ident)
	if !ok {
		target, ok = nearest(ident, rc.Aliases.KnownTables)
	}
	if !ok {
		return sql
	}
	return sqltext.ReplaceRelation(sql, ident, target)
}
