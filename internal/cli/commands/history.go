package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlrepair/internal/cli/output"
	"github.com/leapstack-labs/sqlrepair/internal/state"
)

// HistoryOptions holds options for the history command.
type HistoryOptions struct {
	Limit  int
	Format string
}

// HistoryRunJSON is the JSON form of a recorded run.
type HistoryRunJSON struct {
	ID          string    `json:"id"`
	Document    string    `json:"document"`
	Dialect     string    `json:"dialect"`
	StartedAt   time.Time `json:"started_at"`
	ElapsedMS   int64     `json:"elapsed_ms"`
	Total       int       `json:"total"`
	Passed      int       `json:"passed"`
	Stuck       int       `json:"stuck"`
	Exhausted   int       `json:"exhausted"`
	ParseErrors int       `json:"parse_errors"`
}

// HistoryQueryJSON is the JSON form of one stored query outcome.
type HistoryQueryJSON struct {
	Number        int    `json:"number"`
	Title         string `json:"title,omitempty"`
	FinalStatus   string `json:"final_status"`
	Reason        string `json:"reason,omitempty"`
	Iterations    int    `json:"iterations"`
	Rewrites      int    `json:"rewrites"`
	LastErrorKind string `json:"last_error_kind,omitempty"`
	FinalSQL      string `json:"final_sql"`
}

// HistoryRunDetailJSON is the JSON output for a single run.
type HistoryRunDetailJSON struct {
	Run     HistoryRunJSON     `json:"run"`
	Queries []HistoryQueryJSON `json:"queries"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	opts := &HistoryOptions{}
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recorded repair runs",
		Long: `Show the repair runs recorded in the state database, newest first.
Pass a run ID (or a unique prefix of one) to list its per-query outcomes.`,
		Example: `  sqlrepair history
  sqlrepair history --limit 5 -f json
  sqlrepair history 3f2a9c`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, args, opts)
		},
	}
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "Maximum number of runs to show (0 for all)")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, markdown, json")
	return cmd
}

func runHistory(cmd *cobra.Command, args []string, opts *HistoryOptions) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	r, err := cmdCtx.WithFormat(cmd, opts.Format)
	if err != nil {
		return err
	}

	if !fileExists(cmdCtx.Cfg.StatePath) {
		if r.EffectiveMode() == output.ModeJSON {
			return r.JSON([]HistoryRunJSON{})
		}
		r.Println("No runs recorded")
		return nil
	}

	store, err := state.Open(cmdCtx.Cfg.StatePath, cmdCtx.Logger)
	if err != nil {
		return infrastructure(err)
	}
	defer func() { _ = store.Close() }()

	ctx := cmd.Context()
	if len(args) == 0 {
		runs, err := store.ListRuns(ctx, opts.Limit)
		if err != nil {
			return infrastructure(err)
		}
		return renderRuns(r, runs)
	}

	runs, err := store.ListRuns(ctx, 0)
	if err != nil {
		return infrastructure(err)
	}
	run, err := findRun(runs, args[0])
	if err != nil {
		return err
	}
	queries, err := store.ListQueries(ctx, run.ID)
	if err != nil {
		return infrastructure(err)
	}
	return renderRunDetail(r, run, queries)
}

// findRun resolves a full run ID or a unique prefix of one.
func findRun(runs []state.Run, id string) (state.Run, error) {
	var matches []state.Run
	for _, run := range runs {
		if run.ID == id {
			return run, nil
		}
		if strings.HasPrefix(run.ID, id) {
			matches = append(matches, run)
		}
	}
	switch len(matches) {
	case 0:
		return state.Run{}, fmt.Errorf("run %q not found", id)
	case 1:
		return matches[0], nil
	default:
		return state.Run{}, fmt.Errorf("run ID prefix %q is ambiguous (%d runs match)", id, len(matches))
	}
}

func toRunJSON(run state.Run) HistoryRunJSON {
	return HistoryRunJSON{
		ID:          run.ID,
		Document:    run.Document,
		Dialect:     run.Dialect,
		StartedAt:   run.StartedAt,
		ElapsedMS:   run.Elapsed.Milliseconds(),
		Total:       run.Total,
		Passed:      run.Passed,
		Stuck:       run.Stuck,
		Exhausted:   run.Exhausted,
		ParseErrors: run.ParseErrors,
	}
}

func renderRuns(r *output.Renderer, runs []state.Run) error {
	if r.EffectiveMode() == output.ModeJSON {
		out := make([]HistoryRunJSON, 0, len(runs))
		for _, run := range runs {
			out = append(out, toRunJSON(run))
		}
		return r.JSON(out)
	}
	if len(runs) == 0 {
		r.Println("No runs recorded")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.Writer())
	t.AppendHeader(table.Row{"Run", "Started", "Dialect", "Document", "Passed", "Stuck", "Exhausted", "Parse", "Time"})
	for _, run := range runs {
		t.AppendRow(table.Row{
			shortID(run.ID),
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			run.Dialect,
			run.Document,
			fmt.Sprintf("%d/%d", run.Passed, run.Total),
			run.Stuck,
			run.Exhausted,
			run.ParseErrors,
			run.Elapsed.Round(time.Millisecond).String(),
		})
	}

	if r.EffectiveMode() == output.ModeMarkdown {
		t.RenderMarkdown()
		return nil
	}
	t.SetStyle(table.StyleLight)
	t.Render()
	return nil
}

func renderRunDetail(r *output.Renderer, run state.Run, queries []state.QueryRecord) error {
	if r.EffectiveMode() == output.ModeJSON {
		out := HistoryRunDetailJSON{Run: toRunJSON(run), Queries: make([]HistoryQueryJSON, 0, len(queries))}
		for _, q := range queries {
			out.Queries = append(out.Queries, HistoryQueryJSON{
				Number:        q.Number,
				Title:         q.Title,
				FinalStatus:   q.FinalStatus,
				Reason:        q.Reason,
				Iterations:    q.Iterations,
				Rewrites:      q.Rewrites,
				LastErrorKind: q.LastErrorKind,
				FinalSQL:      q.FinalSQL,
			})
		}
		return r.JSON(out)
	}

	markdown := r.EffectiveMode() == output.ModeMarkdown
	heading := fmt.Sprintf("Run %s (%s, %s)", run.ID, run.Dialect, run.Document)
	if markdown {
		r.Println("# " + heading)
	} else {
		r.Println(r.Styles().Header1.Render(heading))
	}
	r.Println("")

	t := table.NewWriter()
	t.SetOutputMirror(r.Writer())
	t.AppendHeader(table.Row{"#", "Status", "Iterations", "Rewrites", "Last error", "Reason"})
	for _, q := range queries {
		t.AppendRow(table.Row{q.Number, q.FinalStatus, q.Iterations, q.Rewrites, q.LastErrorKind, q.Reason})
	}
	if markdown {
		t.RenderMarkdown()
		return nil
	}
	t.SetStyle(table.StyleLight)
	t.Render()
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
