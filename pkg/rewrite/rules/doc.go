// Package rules contains the rewrite rule catalog.
//
// Rules are organized by prefix to indicate their category:
//
//   - fn*.go: Function substitution (vendor date and null functions)
//   - cs*.go: Cast normalization and cast insertion
//   - sp*.go: Spatial function degradation
//   - jn*.go: Join normalization
//   - wn*.go: Window function legality
//   - cl*.go: Cleanup of artifacts left by earlier substitutions
//   - id*.go: Identifier remediation from the document alias map
//   - gb*.go: GROUP BY completion
//
// All returns the catalog in priority order. There is no global registry:
// callers build a rewrite.RuleSet from the catalog for their dialect.
package rules
