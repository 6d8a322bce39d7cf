package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlrepair/internal/cli/output"
	"github.com/leapstack-labs/sqlrepair/pkg/classify"
	"github.com/leapstack-labs/sqlrepair/pkg/core"
)

// ClassifyOptions holds options for the classify command.
type ClassifyOptions struct {
	Format string
}

// ClassifyJSONOutput is the JSON output of the classify command.
type ClassifyJSONOutput struct {
	Dialect string           `json:"dialect"`
	Record  core.ErrorRecord `json:"record"`
}

// NewClassifyCommand creates the classify command.
func NewClassifyCommand() *cobra.Command {
	opts := &ClassifyOptions{}
	cmd := &cobra.Command{
		Use:   "classify <message>",
		Short: "Classify an engine error message",
		Long: `Show how an engine error message is classified: its error kind and the
identifier and line it points at. Use "-" to read the message from stdin.`,
		Example: `  sqlrepair classify 'column "usr_id" does not exist'
  sqlrepair classify --dialect sqlite "no such function: DATEDIFF"
  psql -c "..." 2>&1 | sqlrepair classify -`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClassify(cmd, args, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, markdown, json")
	return cmd
}

func runClassify(cmd *cobra.Command, args []string, opts *ClassifyOptions) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	r, err := cmdCtx.WithFormat(cmd, opts.Format)
	if err != nil {
		return err
	}
	name, err := dialectName(cmdCtx.Cfg)
	if err != nil {
		return err
	}

	message := strings.Join(args, " ")
	if message == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		message = strings.TrimSpace(string(data))
	}

	rec := classify.Classify(name, message)

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(ClassifyJSONOutput{Dialect: name, Record: rec})
	case output.ModeMarkdown:
		r.Printf("- **Dialect:** %s\n", name)
		r.Printf("- **Kind:** `%s`\n", rec.Kind)
		if rec.Locus.Identifier != "" {
			r.Printf("- **Identifier:** `%s`\n", rec.Locus.Identifier)
		}
		if rec.Locus.Line > 0 {
			r.Printf("- **Line:** %d\n", rec.Locus.Line)
		}
	default:
		styles := r.Styles()
		kindStyle := styles.Warning
		if rec.Kind == core.KindUnknown {
			kindStyle = styles.Error
		}
		r.Printf("%s %s\n", styles.Bold.Render("Kind:"), kindStyle.Render(string(rec.Kind)))
		if rec.Locus.Identifier != "" {
			r.Printf("%s %s\n", styles.Bold.Render("Identifier:"), rec.Locus.Identifier)
		}
		if rec.Locus.Line > 0 {
			r.Printf("%s %d\n", styles.Bold.Render("Line:"), rec.Locus.Line)
		}
		r.Println(styles.Muted.Render("Dialect: " + name))
	}
	return nil
}
