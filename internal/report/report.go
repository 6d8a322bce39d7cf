// Package report aggregates repair outcomes into a deterministic report.
//
// A Report has two halves. Body depends only on the outcomes and is
// comparable across runs. Timing carries wall-clock data and is kept apart
// so that equal inputs always produce equal bodies.
package report

import (
	"sort"
	"time"

	"github.com/leapstack-labs/sqlrepair/pkg/core"
)

// StatusCount is the number of queries that ended in a status.
type StatusCount struct {
	Status core.FinalStatus `json:"status"`
	Count  int              `json:"count"`
}

// KindCount is the number of unresolved queries whose last error had a kind.
type KindCount struct {
	Kind  core.ErrorKind `json:"kind"`
	Count int            `json:"count"`
}

// Record is the per-query entry of a report.
type Record struct {
	Number         int                    `json:"number"`
	Title          string                 `json:"title"`
	FinalStatus    core.FinalStatus       `json:"final_status"`
	Reason         core.StuckReason       `json:"reason,omitempty"`
	Detail         string                 `json:"detail,omitempty"`
	IterationCount int                    `json:"iteration_count"`
	RewriteCount   int                    `json:"rewrite_count"`
	FinalSQL       string                 `json:"final_sql"`
	ErrorHistory   []core.ErrorRecord     `json:"error_history"`
	Trace          []core.IterationRecord `json:"trace"`
}

// Body is the comparable part of a report.
type Body struct {
	Document   string        `json:"document"`
	Dialect    string        `json:"dialect"`
	Total      int           `json:"total"`
	Counts     []StatusCount `json:"counts"`
	Records    []Record      `json:"records"`
	Unresolved []KindCount   `json:"unresolved_kinds"`
}

// Timing holds wall-clock data for a run.
type Timing struct {
	Started  time.Time             `json:"started"`
	Elapsed  time.Duration         `json:"elapsed_ns"`
	PerQuery map[int]time.Duration `json:"per_query_ns,omitempty"`
}

// Report is a generated report.
type Report struct {
	Body   Body   `json:"report"`
	Timing Timing `json:"timing"`
}

// Generate builds a report from outcomes. Records are ordered by query
// number whatever the input order.
func Generate(document, dialect string, outcomes []core.RepairOutcome, timing Timing) *Report {
	sorted := append([]core.RepairOutcome(nil), outcomes...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Number < sorted[j].Number })

	body := Body{
		Document: document,
		Dialect:  dialect,
		Total:    len(sorted),
		Records:  make([]Record, 0, len(sorted)),
	}

	counts := make(map[core.FinalStatus]int)
	kinds := make(map[core.ErrorKind]int)
	if timing.PerQuery == nil {
		timing.PerQuery = make(map[int]time.Duration, len(sorted))
	}

	for _, o := range sorted {
		counts[o.FinalStatus]++
		if !o.Resolved() && o.FinalError != nil {
			kinds[o.FinalError.Kind]++
		}
		if o.Elapsed > 0 {
			timing.PerQuery[o.Number] = o.Elapsed
		}

		trace := o.History
		if trace == nil {
			trace = []core.IterationRecord{}
		}
		body.Records = append(body.Records, Record{
			Number:         o.Number,
			Title:          o.Title,
			FinalStatus:    o.FinalStatus,
			Reason:         o.Reason,
			Detail:         o.Detail,
			IterationCount: len(o.History),
			RewriteCount:   o.RewriteCount(),
			FinalSQL:       o.FinalSQL,
			ErrorHistory:   o.ErrorHistory(),
			Trace:          trace,
		})
	}

	for _, s := range core.AllFinalStatuses() {
		body.Counts = append(body.Counts, StatusCount{Status: s, Count: counts[s]})
	}
	body.Unresolved = sortKinds(kinds)

	return &Report{Body: body, Timing: timing}
}

// sortKinds orders kinds by count descending, then by name.
func sortKinds(kinds map[core.ErrorKind]int) []KindCount {
	out := make([]KindCount, 0, len(kinds))
	for k, n := range kinds {
		out = append(out, KindCount{Kind: k, Count: n})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}

// Count returns the number of queries that ended in status.
func (b Body) Count(status core.FinalStatus) int {
	for _, c := range b.Counts {
		if c.Status == status {
			return c.Count
		}
	}
	return 0
}

// AllPassed reports whether every query passed.
func (b Body) AllPassed() bool {
	return b.Count(core.FinalPassed) == b.Total
}

// Repairs returns the final SQL of every passed query that was rewritten,
// keyed by query number.
func (b Body) Repairs() map[int]string {
	out := make(map[int]string)
	for _, r := range b.Records {
		if r.FinalStatus == core.FinalPassed && r.RewriteCount > 0 {
			out[r.Number] = r.FinalSQL
		}
	}
	return out
}
