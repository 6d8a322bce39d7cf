package core

import "time"

// FinalStatus is the terminal status of a repaired query.
type FinalStatus string

// FinalStatus values.
const (
	FinalPassed     FinalStatus = "Passed"
	FinalStuck      FinalStatus = "Stuck"
	FinalExhausted  FinalStatus = "Exhausted"
	FinalParseError FinalStatus = "ParseError"
)

// AllFinalStatuses lists final statuses in report order.
func AllFinalStatuses() []FinalStatus {
	return []FinalStatus{FinalPassed, FinalStuck, FinalExhausted, FinalParseError}
}

// QueryStatus maps the final status onto the state machine status.
func (s FinalStatus) QueryStatus() QueryStatus {
	switch s {
	case FinalPassed:
		return StatusPassed
	case FinalStuck:
		return StatusStuck
	case FinalExhausted:
		return StatusExhausted
	default:
		return StatusParseError
	}
}

// StuckReason explains why a query stopped without passing.
type StuckReason string

// StuckReason values.
const (
	ReasonNone     StuckReason = ""
	ReasonNoRule   StuckReason = "no_rule"
	ReasonNoChange StuckReason = "no_change"
	ReasonTimeout  StuckReason = "timeout"
	ReasonCycle    StuckReason = "cycle"
)

// IterationRecord is one failed validation and the rewrite it triggered.
// RuleID is empty and SQLAfter equals SQLBefore when no rule applied.
type IterationRecord struct {
	Index     int         `json:"index"`
	SQLBefore string      `json:"sql_before"`
	Error     ErrorRecord `json:"error"`
	RuleID    string      `json:"rule_id,omitempty"`
	SQLAfter  string      `json:"sql_after"`
}

// Rewrote reports whether a rule changed the text in this iteration.
func (r IterationRecord) Rewrote() bool {
	return r.RuleID != "" && r.SQLAfter != r.SQLBefore
}

// RepairOutcome is the immutable result of running the repair loop on one query.
type RepairOutcome struct {
	Number      int               `json:"number"`
	Title       string            `json:"title"`
	FinalStatus FinalStatus       `json:"final_status"`
	Reason      StuckReason       `json:"reason,omitempty"`
	History     []IterationRecord `json:"history"`
	FinalSQL    string            `json:"final_sql"`
	FinalError  *ErrorRecord      `json:"final_error,omitempty"`
	// Detail explains a ParseError outcome.
	Detail string `json:"detail,omitempty"`

	// Elapsed is wall-clock time spent on the query; excluded from comparable reports.
	Elapsed time.Duration `json:"-"`
}

// RewriteCount returns the number of iterations where a rule changed the text.
func (o RepairOutcome) RewriteCount() int {
	n := 0
	for _, it := range o.History {
		if it.Rewrote() {
			n++
		}
	}
	return n
}

// ErrorHistory returns the error of every failed validation, in order.
func (o RepairOutcome) ErrorHistory() []ErrorRecord {
	errs := make([]ErrorRecord, 0, len(o.History))
	for _, it := range o.History {
		errs = append(errs, it.Error)
	}
	return errs
}

// Resolved reports whether the query reached Passed.
func (o RepairOutcome) Resolved() bool {
	return o.FinalStatus == FinalPassed
}

// ValidationResult is what an adapter returns for a query under test.
// A rejected query is not an error; adapters reserve the error return for
// infrastructure failures.
type ValidationResult struct {
	Success  bool
	RawError string
	// Position is the engine-reported 1-based character offset, 0 when absent.
	Position int
}
