// Package core defines the shared language of sqlrepair.
//
// This package contains:
//   - Domain entities (Query, ErrorRecord, IterationRecord, RepairOutcome)
//   - The ErrorKind and status vocabularies of the repair state machine
//   - Configuration types (TargetConfig, AdapterConfig)
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
