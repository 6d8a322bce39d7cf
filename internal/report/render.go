package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/leapstack-labs/sqlrepair/pkg/core"
)

// Format is a report output format.
type Format string

// Formats.
const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
)

// ParseFormat accepts a format name or its short alias.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "text", "txt":
		return FormatText, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unknown report format %q (use text, markdown or json)", s)
}

// Render writes rep in the requested format. Styles are applied to text
// output only when color is true.
func Render(w io.Writer, rep *Report, format Format, color bool) error {
	switch format {
	case FormatJSON:
		return RenderJSON(w, rep)
	case FormatMarkdown:
		return RenderMarkdown(w, rep)
	default:
		return RenderText(w, rep, color)
	}
}

// RenderJSON writes the report as indented JSON.
func RenderJSON(w io.Writer, rep *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

var (
	statusStyles = map[core.FinalStatus]lipgloss.Style{
		core.FinalPassed:     lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		core.FinalStuck:      lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		core.FinalExhausted:  lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
		core.FinalParseError: lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
	}
	headerStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

type painter struct {
	color bool
}

func (p painter) status(s core.FinalStatus) string {
	if !p.color {
		return string(s)
	}
	return statusStyles[s].Render(string(s))
}

func (p painter) header(s string) string {
	if !p.color {
		return s
	}
	return headerStyle.Render(s)
}

func (p painter) muted(s string) string {
	if !p.color {
		return s
	}
	return mutedStyle.Render(s)
}

// RenderText writes a terminal report: a summary, a per-query table, the
// unresolved error kinds and the trace of every query that was rewritten
// or left unresolved.
func RenderText(w io.Writer, rep *Report, color bool) error {
	p := painter{color: color}
	b := rep.Body

	_, _ = fmt.Fprintln(w, p.header(fmt.Sprintf("Repair report: %s (%s)", b.Document, b.Dialect)))
	parts := make([]string, 0, len(b.Counts))
	for _, c := range b.Counts {
		parts = append(parts, fmt.Sprintf("%s %d", p.status(c.Status), c.Count))
	}
	_, _ = fmt.Fprintf(w, "%d queries: %s\n\n", b.Total, strings.Join(parts, ", "))

	if len(b.Records) > 0 {
		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"#", "Title", "Status", "Reason", "Iterations", "Last error"})
		for _, r := range b.Records {
			t.AppendRow(table.Row{
				r.Number,
				truncate(r.Title, 40),
				p.status(r.FinalStatus),
				reasonText(r),
				r.IterationCount,
				truncate(lastError(r), 60),
			})
		}
		t.Render()
		_, _ = fmt.Fprintln(w)
	}

	if len(b.Unresolved) > 0 {
		_, _ = fmt.Fprintln(w, p.header("Unresolved error kinds"))
		for _, k := range b.Unresolved {
			_, _ = fmt.Fprintf(w, "  %-22s %d\n", k.Kind, k.Count)
		}
		_, _ = fmt.Fprintln(w)
	}

	for _, r := range b.Records {
		if len(r.Trace) == 0 {
			continue
		}
		_, _ = fmt.Fprintln(w, p.header(fmt.Sprintf("Query %d: %s", r.Number, r.Title)))
		for _, it := range r.Trace {
			rule := it.RuleID
			if rule == "" {
				rule = "no rule"
			}
			_, _ = fmt.Fprintf(w, "  [%d] %s -> %s\n", it.Index+1, it.Error.Kind, rule)
			_, _ = fmt.Fprintln(w, p.muted("      "+oneLine(it.Error.RawMessage)))
		}
		_, _ = fmt.Fprintf(w, "  final: %s\n\n", oneLine(r.FinalSQL))
	}

	_, _ = fmt.Fprintln(w, p.muted(fmt.Sprintf("Completed in %s", rep.Timing.Elapsed.Round(time.Millisecond))))
	return nil
}

// RenderMarkdown writes the report as Markdown.
func RenderMarkdown(w io.Writer, rep *Report) error {
	b := rep.Body

	_, _ = fmt.Fprintf(w, "# Repair report: %s\n\n", b.Document)
	_, _ = fmt.Fprintf(w, "**Dialect:** %s | **Queries:** %d\n\n", b.Dialect, b.Total)

	_, _ = fmt.Fprintln(w, "| Status | Count |")
	_, _ = fmt.Fprintln(w, "| --- | --- |")
	for _, c := range b.Counts {
		_, _ = fmt.Fprintf(w, "| %s | %d |\n", c.Status, c.Count)
	}
	_, _ = fmt.Fprintln(w)

	if len(b.Records) > 0 {
		_, _ = fmt.Fprintln(w, "## Queries")
		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprintln(w, "| # | Title | Status | Reason | Iterations |")
		_, _ = fmt.Fprintln(w, "| --- | --- | --- | --- | --- |")
		for _, r := range b.Records {
			_, _ = fmt.Fprintf(w, "| %d | %s | %s | %s | %d |\n",
				r.Number, escapeCell(r.Title), r.FinalStatus, escapeCell(reasonText(r)), r.IterationCount)
		}
		_, _ = fmt.Fprintln(w)
	}

	if len(b.Unresolved) > 0 {
		_, _ = fmt.Fprintln(w, "## Unresolved error kinds")
		_, _ = fmt.Fprintln(w)
		for _, k := range b.Unresolved {
			_, _ = fmt.Fprintf(w, "- `%s`: %d\n", k.Kind, k.Count)
		}
		_, _ = fmt.Fprintln(w)
	}

	for _, r := range b.Records {
		if len(r.Trace) == 0 {
			continue
		}
		_, _ = fmt.Fprintf(w, "### Query %d: %s\n\n", r.Number, r.Title)
		for _, it := range r.Trace {
			rule := "no rule"
			if it.RuleID != "" {
				rule = "`" + it.RuleID + "`"
			}
			_, _ = fmt.Fprintf(w, "%d. `%s` → %s: %s\n", it.Index+1, it.Error.Kind, rule, oneLine(it.Error.RawMessage))
		}
		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprintln(w, "```sql")
		_, _ = fmt.Fprintln(w, r.FinalSQL)
		_, _ = fmt.Fprintln(w, "```")
		_, _ = fmt.Fprintln(w)
	}
	return nil
}

func reasonText(r Record) string {
	if r.Detail != "" {
		return r.Detail
	}
	return string(r.Reason)
}

func lastError(r Record) string {
	if len(r.ErrorHistory) == 0 {
		return ""
	}
	return r.ErrorHistory[len(r.ErrorHistory)-1].String()
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	s = oneLine(s)
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-3]) + "..."
}

func escapeCell(s string) string {
	return strings.ReplaceAll(oneLine(s), "|", `\|`)
}
