package repair

import (
	"context"
	"fmt"
	"sync"

	"github.com/leapstack-labs/sqlrepair/internal/validate"
	"github.com/leapstack-labs/sqlrepair/pkg/classify"
	"github.com/leapstack-labs/sqlrepair/pkg/core"
)

// scriptedValidator passes every statement in pass, returns the scripted
// engine message for statements in fail, and otherwise calls next.
type scriptedValidator struct {
	mu    sync.Mutex
	pass  map[string]bool
	fail  map[string]string
	next  func(call int, sql string) (validate.Result, error)
	calls int
	seen  []string
}

func (v *scriptedValidator) Validate(_ context.Context, sql string) (validate.Result, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.calls++
	v.seen = append(v.seen, sql)

	if v.pass[sql] {
		return validate.Result{Passed: true}, nil
	}
	if raw, ok := v.fail[sql]; ok {
		return rejected(raw), nil
	}
	if v.next != nil {
		return v.next(v.calls, sql)
	}
	return validate.Result{}, fmt.Errorf("unscripted statement %q", sql)
}

func (v *scriptedValidator) Calls() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.calls
}

func rejected(raw string) validate.Result {
	rec := classify.Classify("postgres", raw)
	return validate.Result{Error: &rec}
}

func countStatuses(outcomes []core.RepairOutcome) map[core.FinalStatus]int {
	counts := make(map[core.FinalStatus]int)
	for _, o := range outcomes {
		counts[o.FinalStatus]++
	}
	return counts
}
