// Package validate turns adapter results into typed error records.
//
// The Validator is the boundary between engine drivers and the repair loop:
// everything it returns is either a pass, a classified ErrorRecord, a
// timeout, or an *InfrastructureError that aborts the run.
package validate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/leapstack-labs/sqlrepair/pkg/classify"
	"github.com/leapstack-labs/sqlrepair/pkg/core"
)

// Engine is the subset of adapter.Adapter the validator needs.
type Engine interface {
	Validate(ctx context.Context, sql string) (*core.ValidationResult, error)
	DialectName() string
}

// Result is the outcome of one validation attempt.
type Result struct {
	Passed   bool
	TimedOut bool
	// Error is set when the engine rejected the statement.
	Error *core.ErrorRecord
}

// InfrastructureError reports that the engine could not be used at all.
type InfrastructureError struct {
	Dialect string
	Err     error
}

func (e *InfrastructureError) Error() string {
	return fmt.Sprintf("validation engine %s unavailable: %v", e.Dialect, e.Err)
}

func (e *InfrastructureError) Unwrap() error {
	return e.Err
}

// Validator checks statements against one engine with a per-call timeout.
type Validator struct {
	engine     Engine
	classifier *classify.Classifier
	timeout    time.Duration
	logger     *slog.Logger
}

// New returns a Validator. A zero timeout disables the deadline.
func New(engine Engine, timeout time.Duration, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Validator{
		engine:     engine,
		classifier: classify.New(engine.DialectName()),
		timeout:    timeout,
		logger:     logger,
	}
}

// Classifier returns the classifier bound to the engine's dialect.
func (v *Validator) Classifier() *classify.Classifier {
	return v.classifier
}

// Validate runs sql through the engine. The timeout applies to this call
// only. Cancellation of the parent context is returned as an error.
func (v *Validator) Validate(ctx context.Context, sql string) (Result, error) {
	callCtx := ctx
	if v.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, v.timeout)
		defer cancel()
	}

	res, err := v.engine.Validate(callCtx, sql)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) || callCtx.Err() != nil {
			v.logger.Debug("validation timed out", slog.Duration("timeout", v.timeout))
			return Result{TimedOut: true}, nil
		}
		return Result{}, &InfrastructureError{Dialect: v.engine.DialectName(), Err: err}
	}

	if res.Success {
		return Result{Passed: true}, nil
	}

	rec := v.classifier.Classify(res.RawError)
	if rec.Locus.Line == 0 && res.Position > 0 {
		rec.Locus.Line = classify.LineForPosition(sql, res.Position)
	}
	rec.Locus.Position = res.Position
	return Result{Error: &rec}, nil
}
