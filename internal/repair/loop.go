// Package repair drives queries through validate, classify and rewrite until
// they pass or reach a terminal state.
//
// The per-query Loop is strictly sequential. The Runner fans queries out to
// a bounded worker pool; queries share nothing but the validator's
// connection pool.
package repair

import (
	"context"
	"log/slog"
	"time"

	"github.com/leapstack-labs/sqlrepair/internal/validate"
	"github.com/leapstack-labs/sqlrepair/pkg/core"
	"github.com/leapstack-labs/sqlrepair/pkg/rewrite"
)

// DefaultMaxIterations is the rewrite budget per query.
const DefaultMaxIterations = 10

// Validator checks one statement. validate.Validator implements it.
type Validator interface {
	Validate(ctx context.Context, sql string) (validate.Result, error)
}

// Loop is the repair state machine for a single query.
type Loop struct {
	validator     Validator
	rules         *rewrite.RuleSet
	aliases       core.AliasMap
	maxIterations int
	logger        *slog.Logger
}

// LoopOptions configures a Loop.
type LoopOptions struct {
	MaxIterations int
	Aliases       core.AliasMap
	Logger        *slog.Logger
}

// NewLoop returns a Loop. A non-positive MaxIterations uses the default.
func NewLoop(v Validator, rules *rewrite.RuleSet, opts LoopOptions) *Loop {
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultMaxIterations
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return &Loop{
		validator:     v,
		rules:         rules,
		aliases:       opts.Aliases,
		maxIterations: opts.MaxIterations,
		logger:        opts.Logger,
	}
}

// MaxIterations returns the rewrite budget.
func (l *Loop) MaxIterations() int {
	return l.maxIterations
}

// Run repairs q. The returned error is non-nil only for infrastructure
// failures and cancellation; every other ending is an outcome.
func (l *Loop) Run(ctx context.Context, q core.Query) (core.RepairOutcome, error) {
	start := time.Now()
	log := l.logger.With(slog.Int("query", q.Number))

	var (
		history    []core.IterationRecord
		lastErr    *core.ErrorRecord
		iterations int
		seen       = map[string]bool{q.CurrentSQL: true}
	)

	finish := func(status core.FinalStatus, reason core.StuckReason) core.RepairOutcome {
		transition(log, &q, status.QueryStatus())
		log.Debug("query finished",
			slog.String("status", string(status)),
			slog.String("reason", string(reason)),
			slog.Int("iterations", len(history)))
		out := core.RepairOutcome{
			Number:      q.Number,
			Title:       q.Title,
			FinalStatus: status,
			Reason:      reason,
			History:     history,
			FinalSQL:    q.CurrentSQL,
			Elapsed:     time.Since(start),
		}
		if status != core.FinalPassed {
			out.FinalError = lastErr
		}
		return out
	}

	for {
		if iterations >= l.maxIterations {
			return finish(core.FinalExhausted, core.ReasonNone), nil
		}

		transition(log, &q, core.StatusValidating)
		res, err := l.validator.Validate(ctx, q.CurrentSQL)
		if err != nil {
			return core.RepairOutcome{}, err
		}
		if res.TimedOut {
			return finish(core.FinalStuck, core.ReasonTimeout), nil
		}
		if res.Passed {
			return finish(core.FinalPassed, core.ReasonNone), nil
		}

		transition(log, &q, core.StatusNeedsRewrite)
		rec := *res.Error
		lastErr = &rec
		log.Debug("validation failed", slog.String("kind", string(rec.Kind)), slog.String("identifier", rec.Locus.Identifier))

		iter := core.IterationRecord{
			Index:     len(history),
			SQLBefore: q.CurrentSQL,
			Error:     rec,
			SQLAfter:  q.CurrentSQL,
		}

		transition(log, &q, core.StatusRewriting)
		applied, ok := l.rules.ApplyBest(q.CurrentSQL, rewrite.Context{Error: rec, Aliases: l.aliases})
		if !ok {
			history = append(history, iter)
			if len(applied.Tried) == 0 {
				return finish(core.FinalStuck, core.ReasonNoRule), nil
			}
			return finish(core.FinalStuck, core.ReasonNoChange), nil
		}

		iter.RuleID = applied.RuleID
		iter.SQLAfter = applied.SQL
		history = append(history, iter)
		if seen[applied.SQL] {
			log.Debug("rewrite reproduced an earlier text", slog.String("rule", applied.RuleID))
			return finish(core.FinalStuck, core.ReasonCycle), nil
		}
		seen[applied.SQL] = true

		log.Debug("rewrote query", slog.String("rule", applied.RuleID))
		q.CurrentSQL = applied.SQL
		iterations++
	}
}

func transition(log *slog.Logger, q *core.Query, to core.QueryStatus) {
	log.Debug("transition", slog.String("from", string(q.Status)), slog.String("to", string(to)))
	q.Status = to
}
