package commands

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlrepair/internal/cli/output"
	"github.com/leapstack-labs/sqlrepair/pkg/core"
	"github.com/leapstack-labs/sqlrepair/pkg/rewrite"
	"github.com/leapstack-labs/sqlrepair/pkg/rewrite/rules"
)

// RulesOptions holds options for the rules command.
type RulesOptions struct {
	Kind    string // Filter by error kind
	Group   string // Filter by group
	All     bool   // Include rules for other dialects
	Details bool   // Show descriptions
	Format  string // Output format
}

// NewRulesCommand creates the rules command.
func NewRulesCommand() *cobra.Command {
	opts := &RulesOptions{}
	cmd := &cobra.Command{
		Use:   "rules [rule-id]",
		Short: "List the rewrite rules",
		Long: `List the rewrite rules active for the configured dialect, in the priority
order they are tried for each error kind.

Rules listed in rules.disabled in sqlrepair.yaml are left out.`,
		Example: `  # Rules for the configured dialect
  sqlrepair rules

  # Rules repairing syntax errors on SQLite
  sqlrepair rules --dialect sqlite --kind SyntaxError

  # One rule with examples
  sqlrepair rules FN01

  # Whole catalog as JSON
  sqlrepair rules --all -f json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return showRule(cmd, args[0], opts)
			}
			return listRules(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Kind, "kind", "k", "", "Filter by error kind")
	cmd.Flags().StringVarP(&opts.Group, "group", "g", "", "Filter by group")
	cmd.Flags().BoolVarP(&opts.All, "all", "a", false, "Include rules for every dialect")
	cmd.Flags().BoolVarP(&opts.Details, "details", "d", false, "Show rule descriptions")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, markdown, json")

	_ = cmd.RegisterFlagCompletionFunc("kind", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		kinds := make([]string, 0, len(core.AllKinds()))
		for _, k := range core.AllKinds() {
			kinds = append(kinds, string(k))
		}
		return kinds, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

// RuleJSON is the JSON form of a rule.
type RuleJSON struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Kind        core.ErrorKind `json:"kind"`
	Group       string         `json:"group"`
	Description string         `json:"description"`
	Dialects    []string       `json:"dialects"`
	BadExample  string         `json:"bad_example,omitempty"`
	GoodExample string         `json:"good_example,omitempty"`
}

// RulesJSONOutput is the JSON output structure for rules listing.
type RulesJSONOutput struct {
	Dialect string     `json:"dialect,omitempty"`
	Rules   []RuleJSON `json:"rules"`
	Count   int        `json:"count"`
}

func toRuleJSON(r rewrite.Rule) RuleJSON {
	dialects := r.Dialects
	if len(dialects) == 0 {
		dialects = []string{"all"}
	}
	return RuleJSON{
		ID:          r.ID,
		Name:        r.Name,
		Kind:        r.Kind,
		Group:       r.Group,
		Description: r.Description,
		Dialects:    dialects,
		BadExample:  r.BadExample,
		GoodExample: r.GoodExample,
	}
}

// activeRules returns the rules to list: the whole catalog with --all,
// otherwise the rule set for the configured dialect.
func activeRules(cmdCtx *CommandContext, opts *RulesOptions) (string, []rewrite.Rule, error) {
	if opts.All {
		return "", rules.All(), nil
	}
	name, err := dialectName(cmdCtx.Cfg)
	if err != nil {
		return "", nil, err
	}
	set, err := rules.RuleSet(name, rewrite.WithDisabled(cmdCtx.Cfg.Rules.Disabled...))
	if err != nil {
		return "", nil, err
	}
	return name, set.Rules(), nil
}

func filterRules(list []rewrite.Rule, opts *RulesOptions) ([]rewrite.Rule, error) {
	var kind core.ErrorKind
	if opts.Kind != "" {
		k, err := core.ParseErrorKind(opts.Kind)
		if err != nil {
			return nil, err
		}
		kind = k
	}
	var out []rewrite.Rule
	for _, r := range list {
		if kind != "" && r.Kind != kind {
			continue
		}
		if opts.Group != "" && !strings.EqualFold(r.Group, opts.Group) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func listRules(cmd *cobra.Command, opts *RulesOptions) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	r, err := cmdCtx.WithFormat(cmd, opts.Format)
	if err != nil {
		return err
	}

	dialectLabel, list, err := activeRules(cmdCtx, opts)
	if err != nil {
		return err
	}
	if list, err = filterRules(list, opts); err != nil {
		return err
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		out := RulesJSONOutput{Dialect: dialectLabel, Rules: make([]RuleJSON, 0, len(list)), Count: len(list)}
		for _, rule := range list {
			out.Rules = append(out.Rules, toRuleJSON(rule))
		}
		return r.JSON(out)
	case output.ModeMarkdown:
		listRulesMarkdown(r, dialectLabel, list, opts.Details)
	default:
		listRulesText(r, dialectLabel, list, opts.Details)
	}
	return nil
}

// groupByKind keeps catalog order within each kind.
func groupByKind(list []rewrite.Rule) ([]core.ErrorKind, map[core.ErrorKind][]rewrite.Rule) {
	var kinds []core.ErrorKind
	byKind := make(map[core.ErrorKind][]rewrite.Rule)
	for _, rule := range list {
		if _, seen := byKind[rule.Kind]; !seen {
			kinds = append(kinds, rule.Kind)
		}
		byKind[rule.Kind] = append(byKind[rule.Kind], rule)
	}
	return kinds, byKind
}

func rulesTitle(dialectLabel string, n int) string {
	if dialectLabel == "" {
		return fmt.Sprintf("Rewrite Rules (%d, all dialects)", n)
	}
	return fmt.Sprintf("Rewrite Rules (%d, %s)", n, dialectLabel)
}

func listRulesText(r *output.Renderer, dialectLabel string, list []rewrite.Rule, details bool) {
	styles := r.Styles()

	r.Println("")
	r.Println(styles.Header1.Render(rulesTitle(dialectLabel, len(list))))
	r.Println("")

	kinds, byKind := groupByKind(list)
	for _, kind := range kinds {
		r.Println(styles.Header2.Render(string(kind)))

		t := table.NewWriter()
		t.SetOutputMirror(r.Writer())
		t.SetStyle(table.StyleLight)
		t.Style().Options.DrawBorder = false
		t.Style().Options.SeparateHeader = false
		t.Style().Options.SeparateColumns = false
		for i, rule := range byKind[kind] {
			t.AppendRow(table.Row{
				fmt.Sprintf("%d.", i+1),
				styles.Bold.Render(rule.ID),
				rule.Name,
				styles.Muted.Render(capitalizeFirst(rule.Group)),
			})
			if details && rule.Description != "" {
				t.AppendRow(table.Row{"", "", styles.Muted.Render(oneLine(rule.Description, 80)), ""})
			}
		}
		t.Render()
		r.Println("")
	}

	r.Println(styles.Muted.Render("Use 'sqlrepair rules <rule-id>' for examples"))
}

func listRulesMarkdown(r *output.Renderer, dialectLabel string, list []rewrite.Rule, details bool) {
	r.Println("# " + rulesTitle(dialectLabel, len(list)))
	r.Println("")

	kinds, byKind := groupByKind(list)
	for _, kind := range kinds {
		r.Println("## " + string(kind))
		r.Println("")
		for _, rule := range byKind[kind] {
			r.Printf("- **%s** - %s (`%s`)\n", rule.ID, rule.Name, rule.Group)
			if details && rule.Description != "" {
				r.Println("  " + oneLine(rule.Description, 0))
			}
		}
		r.Println("")
	}
}

func showRule(cmd *cobra.Command, ruleID string, opts *RulesOptions) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	r, err := cmdCtx.WithFormat(cmd, opts.Format)
	if err != nil {
		return err
	}

	var rule *rewrite.Rule
	for _, candidate := range rules.All() {
		if strings.EqualFold(candidate.ID, ruleID) {
			rule = &candidate
			break
		}
	}
	if rule == nil {
		return fmt.Errorf("rule %q not found\nHint: Run 'sqlrepair rules --all' to list every rule", ruleID)
	}

	info := toRuleJSON(*rule)
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(info)
	case output.ModeMarkdown:
		showRuleMarkdown(r, info)
	default:
		showRuleText(r, info)
	}
	return nil
}

func showRuleText(r *output.Renderer, rule RuleJSON) {
	styles := r.Styles()

	r.Println("")
	r.Println(styles.Header1.Render(fmt.Sprintf("%s - %s", rule.ID, rule.Name)))
	r.Println("")
	r.Printf("  %s: %s\n", styles.Bold.Render("Repairs"), rule.Kind)
	r.Printf("  %s: %s\n", styles.Bold.Render("Group"), rule.Group)
	r.Printf("  %s: %s\n", styles.Bold.Render("Dialects"), strings.Join(rule.Dialects, ", "))
	r.Println("")

	if rule.Description != "" {
		r.Println(styles.Bold.Render("Description"))
		r.Println("  " + rule.Description)
		r.Println("")
	}
	if rule.BadExample != "" {
		r.Println(styles.Bold.Render("Before"))
		for _, line := range strings.Split(rule.BadExample, "\n") {
			r.Println(styles.Error.Render("  " + line))
		}
		r.Println("")
	}
	if rule.GoodExample != "" {
		r.Println(styles.Bold.Render("After"))
		for _, line := range strings.Split(rule.GoodExample, "\n") {
			r.Println(styles.Success.Render("  " + line))
		}
		r.Println("")
	}
}

func showRuleMarkdown(r *output.Renderer, rule RuleJSON) {
	r.Printf("# %s - %s\n\n", rule.ID, rule.Name)
	r.Printf("**Repairs:** `%s` | **Group:** %s | **Dialects:** %s\n\n", rule.Kind, rule.Group, strings.Join(rule.Dialects, ", "))
	if rule.Description != "" {
		r.Println(rule.Description)
		r.Println("")
	}
	if rule.BadExample != "" {
		r.Println("## Before")
		r.Println("")
		r.Println("```sql")
		r.Println(rule.BadExample)
		r.Println("```")
		r.Println("")
	}
	if rule.GoodExample != "" {
		r.Println("## After")
		r.Println("")
		r.Println("```sql")
		r.Println(rule.GoodExample)
		r.Println("```")
		r.Println("")
	}
}

// oneLine collapses whitespace and, when maxLen > 0, truncates.
func oneLine(s string, maxLen int) string {
	s = strings.Join(strings.Fields(s), " ")
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
