package repair

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/sqlrepair/internal/extract"
	"github.com/leapstack-labs/sqlrepair/pkg/core"
	"github.com/leapstack-labs/sqlrepair/pkg/rewrite"
)

// Options configures a Runner.
type Options struct {
	MaxIterations int
	// Concurrency is the requested number of workers.
	Concurrency int
	// PoolSize is the validator's connection pool size; workers never
	// exceed it.
	PoolSize int
	Logger   *slog.Logger
}

// Runner repairs every query of a document with a bounded worker pool.
type Runner struct {
	validator Validator
	rules     *rewrite.RuleSet
	opts      Options
	logger    *slog.Logger
}

// Result holds the outcomes of one document, ordered by query number.
type Result struct {
	Outcomes []core.RepairOutcome
	Started  time.Time
	Elapsed  time.Duration
}

// NewRunner returns a Runner.
func NewRunner(v Validator, rules *rewrite.RuleSet, opts Options) *Runner {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return &Runner{validator: v, rules: rules, opts: opts, logger: opts.Logger}
}

// Workers returns the effective worker count.
func (r *Runner) Workers() int {
	n := r.opts.Concurrency
	if n <= 0 {
		n = 1
	}
	if r.opts.PoolSize > 0 && r.opts.PoolSize < n {
		n = r.opts.PoolSize
	}
	return n
}

// Run repairs doc. Unresolvable sections become ParseError outcomes. The
// first infrastructure error cancels the remaining work and is returned.
func (r *Runner) Run(ctx context.Context, doc *extract.Document) (*Result, error) {
	res := &Result{Started: time.Now()}

	loop := NewLoop(r.validator, r.rules, LoopOptions{
		MaxIterations: r.opts.MaxIterations,
		Aliases:       doc.Meta.AliasMap(),
		Logger:        r.logger,
	})

	r.logger.Info("repairing document",
		slog.Int("queries", len(doc.Queries)),
		slog.Int("parse_errors", len(doc.Failures)),
		slog.Int("workers", r.Workers()))

	// Each worker writes its own slot; no locking needed.
	outcomes := make([]core.RepairOutcome, len(doc.Queries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.Workers())
	for i, q := range doc.Queries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out, err := loop.Run(gctx, q)
			if err != nil {
				return fmt.Errorf("query %d: %w", q.Number, err)
			}
			outcomes[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, f := range doc.Failures {
		outcomes = append(outcomes, core.RepairOutcome{
			Number:      f.Number,
			Title:       f.Title,
			FinalStatus: core.FinalParseError,
			Detail:      f.Reason,
		})
	}
	sort.SliceStable(outcomes, func(i, j int) bool { return outcomes[i].Number < outcomes[j].Number })

	res.Outcomes = outcomes
	res.Elapsed = time.Since(res.Started)
	r.logger.Info("document repaired", slog.Duration("elapsed", res.Elapsed))
	return res, nil
}
