package rules

import "github.com/leapstack-labs/sqlrepair/pkg/rewrite"

// All returns every rule in priority order. Within one ErrorKind, earlier
// rules win: specific substitutions come before generic cleanups, and cast
// insertion comes before anything that depends on the cast.
//
// Syntax rules:
//   - FN01: DATEDIFF to epoch arithmetic (postgres)
//   - FN02: DATEDIFF to julianday arithmetic (sqlite)
//   - FN03: DATEADD to interval arithmetic
//   - FN04: NVL/IFNULL/ISNULL to COALESCE
//   - FN05: vendor clock functions to CURRENT_TIMESTAMP
//   - CS01: malformed cast syntax
//   - CS02: :: to CAST (sqlite)
//   - SP01: spatial degradation
//   - JN01: CROSS JOIN ... ON to JOIN ... ON
//   - JN02: JOIN without condition gets ON TRUE
//   - WN01: DISTINCT in window aggregates
//   - WN02: ordered-set aggregates over windows
//   - CL01: dangling parentheses
//   - CL02: empty conditional branches
//
// Type rules:
//   - CS03: numeric cast for ROUND
//   - CS04: timestamp operands for epoch extraction
//
// Identifier rules:
//   - ID01: undefined column
//   - ID02: undefined table
//   - ID03: ambiguous column
//   - GB01: missing GROUP BY column
func All() []rewrite.Rule {
	return []rewrite.Rule{
		DateDiffEpoch,
		DateDiffJulian,
		DateAddInterval,
		NullFuncCoalesce,
		CurrentTimestamp,
		CastSyntax,
		CastFunction,
		SpatialDegrade,
		CrossJoinOn,
		JoinOnTrue,
		WindowDistinct,
		OrderedSetWindow,
		DanglingParens,
		EmptyBranches,
		RoundNumeric,
		EpochTimestamp,
		ColumnAlias,
		TableAlias,
		QualifyAmbiguous,
		GroupByAppend,
	}
}

// RuleSet builds the rule set for dialect from the full catalog.
func RuleSet(dialect string, opts ...rewrite.Option) (*rewrite.RuleSet, error) {
	return rewrite.NewRuleSet(dialect, All(), opts...)
}
