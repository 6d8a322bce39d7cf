// Package commands implements the sqlrepair subcommands.
package commands

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlrepair/internal/cli/config"
	"github.com/leapstack-labs/sqlrepair/internal/cli/output"
	"github.com/leapstack-labs/sqlrepair/pkg/dialect"
)

// AnnotationDocumentArg marks commands whose first argument is a document
// path; configuration is then searched upward from the document.
const AnnotationDocumentArg = "sqlrepair/document-arg"

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext collects the config, logger and renderer prepared by
// the root command. Commands run outside the root load config themselves.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	cfg := config.FromContext(cmd.Context())
	if cfg == nil {
		var err error
		if cfg, err = config.Load("", "", cmd.Flags()); err != nil {
			return nil, err
		}
	}
	mode, err := output.ParseMode(cfg.OutputFormat)
	if err != nil {
		return nil, err
	}
	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode),
	}, nil
}

// WithFormat returns a renderer for an explicit --format flag, or the
// context renderer when the flag is empty.
func (c *CommandContext) WithFormat(cmd *cobra.Command, format string) (*output.Renderer, error) {
	if format == "" {
		return c.Renderer, nil
	}
	mode, err := output.ParseMode(format)
	if err != nil {
		return nil, err
	}
	return output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode), nil
}

// dialectName picks the dialect for commands that need no connection.
func dialectName(cfg *config.Config) (string, error) {
	name := cfg.Dialect
	if name == "" && cfg.Target != nil {
		name = cfg.Target.Type
	}
	if name == "" {
		name = config.DefaultDialect
	}
	d, err := dialect.Lookup(name)
	if err != nil {
		return "", err
	}
	return d.Name, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func capitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
