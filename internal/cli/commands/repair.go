package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlrepair/internal/cli/config"
	"github.com/leapstack-labs/sqlrepair/internal/cli/output"
	"github.com/leapstack-labs/sqlrepair/internal/extract"
	"github.com/leapstack-labs/sqlrepair/internal/repair"
	"github.com/leapstack-labs/sqlrepair/internal/report"
	"github.com/leapstack-labs/sqlrepair/internal/state"
	"github.com/leapstack-labs/sqlrepair/internal/validate"
	"github.com/leapstack-labs/sqlrepair/pkg/adapter"
	"github.com/leapstack-labs/sqlrepair/pkg/rewrite"
	"github.com/leapstack-labs/sqlrepair/pkg/rewrite/rules"
)

// RepairOptions holds options for the repair command. Budget, timeout and
// concurrency flags are read through the config layers.
type RepairOptions struct {
	Watch bool
}

// NewRepairCommand creates the repair command.
func NewRepairCommand() *cobra.Command {
	opts := &RepairOptions{}
	cmd := &cobra.Command{
		Use:   "repair <document>",
		Short: "Validate and repair the SQL queries in a document",
		Long: `Extract every numbered query from a Markdown document, validate it against
the target engine, and rewrite dialect-incompatible constructs until the query
validates, no rule applies, or the iteration budget runs out.

Repaired SQL is written back into the document and the run is recorded in the
history database unless --dry-run is given.

Exit status is 0 when every query passed, 1 when any query is unresolved and
2 when the engine could not be reached.`,
		Example: `  # Repair against the target in sqlrepair.yaml
  sqlrepair repair docs/queries.md

  # Check against DuckDB without touching the document
  sqlrepair repair docs/queries.md --dialect duckdb --dry-run

  # Machine-readable report
  sqlrepair repair docs/queries.md -o json

  # Re-run whenever the document changes
  sqlrepair repair docs/queries.md --watch`,
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{AnnotationDocumentArg: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			s := &repairSession{
				path:     args[0],
				cfg:      cmdCtx.Cfg,
				logger:   cmdCtx.Logger,
				renderer: cmdCtx.Renderer,
			}
			if opts.Watch {
				return s.watch(cmd.Context())
			}
			rep, err := s.run(cmd.Context())
			if err != nil {
				return err
			}
			if !rep.Body.AllPassed() {
				return &ExitError{Code: ExitUnresolved}
			}
			return nil
		},
	}

	cmd.Flags().Int("max-iterations", 0, "Rewrite budget per query (default 10)")
	cmd.Flags().Int("concurrency", 0, "Queries repaired in parallel (default 4)")
	cmd.Flags().Duration("timeout", 0, "Per-validation timeout (default 30s)")
	cmd.Flags().Int("min-query-length", 0, "Length at which a block without ';' counts as complete (default 40)")
	cmd.Flags().Bool("dry-run", false, "Report only; do not write the document or history")
	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "Re-run when the document changes")

	return cmd
}

// repairSession runs the repair pipeline for one document.
type repairSession struct {
	path     string
	cfg      *config.Config
	logger   *slog.Logger
	renderer *output.Renderer
}

// run executes one full pass: extract, repair, report, write back, record.
func (s *repairSession) run(ctx context.Context) (*report.Report, error) {
	text, err := os.ReadFile(s.path)
	if err != nil {
		return nil, infrastructure(fmt.Errorf("failed to read document: %w", err))
	}
	return s.runText(ctx, string(text))
}

func (s *repairSession) runText(ctx context.Context, text string) (*report.Report, error) {
	cfg := s.cfg

	doc, err := extract.Extract(text, extract.Options{MinQueryLength: cfg.MinQueryLength})
	if err != nil {
		return nil, infrastructure(err)
	}

	d, target, err := cfg.ResolveTarget(doc.Meta.Dialect)
	if err != nil {
		return nil, infrastructure(err)
	}

	ruleSet, err := rewrite.NewRuleSet(d.Name, rules.All(), rewrite.WithDisabled(cfg.Rules.Disabled...))
	if err != nil {
		return nil, infrastructure(fmt.Errorf("invalid rules configuration: %w", err))
	}

	s.logger.Info("starting repair",
		slog.String("document", s.path),
		slog.String("dialect", d.Name),
		slog.Int("queries", doc.Total()),
		slog.Int("rules", len(ruleSet.Rules())))

	engine, err := adapter.NewAdapter(target.ToAdapterConfig(), s.logger)
	if err != nil {
		return nil, infrastructure(err)
	}
	if err := engine.Connect(ctx, target.ToAdapterConfig()); err != nil {
		return nil, infrastructure(fmt.Errorf("failed to connect to %s: %w", target.Type, err))
	}
	defer func() { _ = engine.Close() }()

	runner := repair.NewRunner(validate.New(engine, cfg.QueryTimeout, s.logger), ruleSet, repair.Options{
		MaxIterations: cfg.MaxIterations,
		Concurrency:   cfg.Concurrency,
		PoolSize:      engine.PoolSize(),
		Logger:        s.logger,
	})
	res, err := runner.Run(ctx, doc)
	if err != nil {
		var infra *validate.InfrastructureError
		if errors.As(err, &infra) || errors.Is(err, context.Canceled) {
			return nil, infrastructure(err)
		}
		return nil, err
	}

	rep := report.Generate(s.path, d.Name, res.Outcomes, report.Timing{Started: res.Started, Elapsed: res.Elapsed})
	if err := s.render(rep); err != nil {
		return nil, err
	}

	if cfg.DryRun {
		return rep, nil
	}
	if err := s.writeBack(doc, text, rep); err != nil {
		return nil, infrastructure(err)
	}
	s.record(ctx, rep)
	return rep, nil
}

func (s *repairSession) render(rep *report.Report) error {
	format := report.FormatText
	switch s.renderer.EffectiveMode() {
	case output.ModeJSON:
		format = report.FormatJSON
	case output.ModeMarkdown:
		format = report.FormatMarkdown
	}
	return report.Render(s.renderer.Writer(), rep, format, s.renderer.Color())
}

// writeBack replaces the blocks of rewritten queries that now pass.
func (s *repairSession) writeBack(doc *extract.Document, text string, rep *report.Report) error {
	repairs := rep.Body.Repairs()
	if len(repairs) == 0 {
		return nil
	}
	updated := doc.ApplyRepairs(text, repairs)
	if updated == text {
		return nil
	}

	mode := os.FileMode(0o644)
	if info, err := os.Stat(s.path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.WriteFile(s.path, []byte(updated), mode); err != nil {
		return fmt.Errorf("failed to write repaired document: %w", err)
	}
	_, _ = fmt.Fprintf(s.renderer.ErrWriter(), "Wrote %d repaired %s to %s\n",
		len(repairs), plural(len(repairs), "query", "queries"), s.path)
	return nil
}

// record stores the run. History is best effort; a failure is reported and
// does not change the exit status.
func (s *repairSession) record(ctx context.Context, rep *report.Report) {
	store, err := state.Open(s.cfg.StatePath, s.logger)
	if err != nil {
		s.renderer.Warnf("run not recorded: %v", err)
		return
	}
	defer func() { _ = store.Close() }()

	run, err := store.RecordRun(ctx, rep)
	if err != nil {
		s.renderer.Warnf("run not recorded: %v", err)
		return
	}
	s.logger.Info("recorded run", slog.String("id", run.ID), slog.String("state", s.cfg.StatePath))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
