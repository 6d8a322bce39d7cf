package rules

import (
	"strings"

	"github.com/leapstack-labs/sqlrepair/pkg/core"
	"github.com/leapstack-labs/sqlrepair/pkg/rewrite"
	"github.com/leapstack-labs/sqlrepair/pkg/sqltext"
)

// QualifyAmbiguous qualifies an ambiguous column with the first relation of
// the outermost FROM clause.
var QualifyAmbiguous = rewrite.Rule{
	ID:          "ID03",
	Name:        "identifier.qualify",
	Kind:        core.KindAmbiguousColumn,
	Group:       "identifier",
	Description: "Qualify unqualified references to an ambiguous column with the first FROM relation.",
	ApplyFn:     applyQualifyAmbiguous,

	BadExample:  `SELECT id FROM a JOIN b ON a.id = b.a_id`,
	GoodExample: `SELECT a.id FROM a JOIN b ON a.id = b.a_id`,
}

func applyQualifyAmbiguous(sql string, rc rewrite.Context) string {
	col := rc.Error.Locus.Identifier
	if col == "" || strings.Contains(col, ".") {
		return sql
	}
	for _, rel := range sqltext.Scan(sql).Relations() {
		if ref := rel.Ref(); ref != "" {
			return sqltext.QualifyColumn(sql, col, ref)
		}
	}
	return sql
}
