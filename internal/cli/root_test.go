package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqlrepair/internal/cli/commands"
	"github.com/leapstack-labs/sqlrepair/internal/cli/testutil"
	"github.com/leapstack-labs/sqlrepair/internal/report"
	"github.com/leapstack-labs/sqlrepair/pkg/core"
)

func execute(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code := ExecuteArgs(context.Background(), args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestRootCommand_Subcommands(t *testing.T) {
	root := NewRootCmd()
	for _, name := range []string{"repair", "classify", "rules", "history", "version", "completion"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
	for _, flag := range []string{"config", "dialect", "output", "verbose", "state"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(flag), flag)
	}
}

func TestExecute_Version(t *testing.T) {
	code, out, _ := execute(t, "version")
	assert.Equal(t, commands.ExitOK, code)
	assert.Contains(t, out, "sqlrepair v"+Version)
}

func TestExecute_Repair(t *testing.T) {
	dir := testutil.SetupProject(t, "", map[string]string{"queries.md": testutil.SampleDocument})
	doc := filepath.Join(dir, "queries.md")

	code, out, errOut := execute(t, "repair", doc, "-o", "json")
	require.Equal(t, commands.ExitOK, code, errOut)

	var rep report.Report
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, "sqlite", rep.Body.Dialect)
	assert.Equal(t, 2, rep.Body.Total)
	require.Len(t, rep.Body.Records, 2)
	assert.Equal(t, core.FinalPassed, rep.Body.Records[0].FinalStatus)
	assert.Equal(t, 0, rep.Body.Records[0].RewriteCount)
	assert.Equal(t, core.FinalPassed, rep.Body.Records[1].FinalStatus)
	assert.Equal(t, 1, rep.Body.Records[1].RewriteCount)

	updated := testutil.ReadFile(t, doc)
	assert.Contains(t, updated, "(julianday('2024-02-01') - julianday('2024-01-01'))")
	assert.NotContains(t, updated, "DATEDIFF")
	assert.Contains(t, updated, "## Query 2: Date difference")
	assert.Contains(t, errOut, "Wrote 1 repaired query to")

	// The run was recorded next to the document.
	statePath := filepath.Join(dir, ".sqlrepair", "history.db")
	code, out, errOut = execute(t, "history", "--state", statePath, "-o", "json")
	require.Equal(t, commands.ExitOK, code, errOut)

	var runs []commands.HistoryRunJSON
	require.NoError(t, json.Unmarshal([]byte(out), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, 2, runs[0].Total)
	assert.Equal(t, 2, runs[0].Passed)
	assert.Equal(t, "sqlite", runs[0].Dialect)

	code, out, errOut = execute(t, "history", "--state", statePath, "-o", "json", runs[0].ID[:8])
	require.Equal(t, commands.ExitOK, code, errOut)
	var detail commands.HistoryRunDetailJSON
	require.NoError(t, json.Unmarshal([]byte(out), &detail))
	require.Len(t, detail.Queries, 2)
	assert.Equal(t, 1, detail.Queries[1].Rewrites)
}

func TestExecute_RepairRerun(t *testing.T) {
	dir := testutil.SetupProject(t, "", map[string]string{"queries.md": testutil.SampleDocument})
	doc := filepath.Join(dir, "queries.md")

	code, _, errOut := execute(t, "repair", doc, "-o", "json")
	require.Equal(t, commands.ExitOK, code, errOut)
	repaired := testutil.ReadFile(t, doc)

	// Repaired text validates as written, so a second run has nothing to do.
	code, out, errOut := execute(t, "repair", doc, "-o", "json")
	require.Equal(t, commands.ExitOK, code, errOut)

	var rep report.Report
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	require.Len(t, rep.Body.Records, 2)
	for _, rec := range rep.Body.Records {
		assert.Equal(t, core.FinalPassed, rec.FinalStatus, "query %d", rec.Number)
		assert.Equal(t, 0, rec.RewriteCount, "query %d", rec.Number)
	}
	assert.Equal(t, repaired, testutil.ReadFile(t, doc))
}

func TestExecute_RepairDryRun(t *testing.T) {
	dir := testutil.SetupProject(t, "", map[string]string{"queries.md": testutil.SampleDocument})
	doc := filepath.Join(dir, "queries.md")

	code, out, errOut := execute(t, "repair", doc, "--dry-run", "-o", "markdown")
	require.Equal(t, commands.ExitOK, code, errOut)
	testutil.AssertNoANSI(t, out)
	testutil.AssertValidMarkdown(t, out)

	assert.Equal(t, testutil.SampleDocument, testutil.ReadFile(t, doc))
	assert.NoFileExists(t, filepath.Join(dir, ".sqlrepair", "history.db"))
}

func TestExecute_RepairUnresolved(t *testing.T) {
	document := "---\ndialect: sqlite\n---\n\n## Query 1: Missing table\n\n```sql\nSELECT id FROM no_such_table;\n```\n"
	dir := testutil.SetupProject(t, "", map[string]string{"queries.md": document})
	doc := filepath.Join(dir, "queries.md")

	code, out, _ := execute(t, "repair", doc, "--dry-run", "-o", "json")
	assert.Equal(t, commands.ExitUnresolved, code)

	var rep report.Report
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	require.Len(t, rep.Body.Records, 1)
	assert.Equal(t, core.FinalStuck, rep.Body.Records[0].FinalStatus)
	assert.Equal(t, core.ReasonNoChange, rep.Body.Records[0].Reason)
	assert.Equal(t, document, testutil.ReadFile(t, doc))
}

func TestExecute_RepairConfigFromDocumentDir(t *testing.T) {
	config := "dialect: sqlite\nmax_iterations: 3\nrules:\n  disabled: [FN02]\n"
	document := "## Query 1: Date difference\n\n```sql\nSELECT DATEDIFF('day', '2024-01-01', '2024-02-01') AS days_between_dates;\n```\n"
	dir := testutil.SetupProject(t, config, map[string]string{"docs/queries.md": document})

	code, out, _ := execute(t, "repair", filepath.Join(dir, "docs", "queries.md"), "--dry-run", "-o", "json")
	assert.Equal(t, commands.ExitUnresolved, code)

	var rep report.Report
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, "sqlite", rep.Body.Dialect)
	require.Len(t, rep.Body.Records, 1)
	assert.NotEqual(t, core.FinalPassed, rep.Body.Records[0].FinalStatus)
}

func TestExecute_InfrastructureErrors(t *testing.T) {
	t.Run("missing document", func(t *testing.T) {
		code, _, errOut := execute(t, "repair", filepath.Join(t.TempDir(), "absent.md"))
		assert.Equal(t, commands.ExitInfrastructure, code)
		assert.Contains(t, errOut, "failed to read document")
	})

	t.Run("bad output mode", func(t *testing.T) {
		code, _, errOut := execute(t, "rules", "-o", "yaml")
		assert.Equal(t, commands.ExitInfrastructure, code)
		assert.Contains(t, errOut, "unknown output mode")
	})

	t.Run("malformed frontmatter", func(t *testing.T) {
		dir := testutil.SetupProject(t, "", map[string]string{"bad.md": "---\ndialect: [\n---\n## Query 1\n```sql\nSELECT 1;\n```\n"})
		code, _, _ := execute(t, "repair", filepath.Join(dir, "bad.md"), "--dry-run")
		assert.Equal(t, commands.ExitInfrastructure, code)
	})

	t.Run("dialect and target disagree", func(t *testing.T) {
		dir := testutil.SetupProject(t, "target:\n  type: duckdb\n", map[string]string{"q.md": testutil.SampleDocument})
		code, _, errOut := execute(t, "repair", filepath.Join(dir, "q.md"), "--dry-run")
		assert.Equal(t, commands.ExitInfrastructure, code)
		assert.Contains(t, errOut, "does not match target type")
	})
}

func TestExecute_Classify(t *testing.T) {
	code, out, _ := execute(t, "classify", "--dialect", "sqlite", "-o", "json", "no such column: usr_id")
	require.Equal(t, commands.ExitOK, code)

	var got commands.ClassifyJSONOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "sqlite", got.Dialect)
	assert.Equal(t, core.KindUndefinedColumn, got.Record.Kind)
	assert.Equal(t, "usr_id", got.Record.Locus.Identifier)
}

func TestExecute_Rules(t *testing.T) {
	code, out, _ := execute(t, "rules", "--dialect", "sqlite", "-o", "json")
	require.Equal(t, commands.ExitOK, code)

	var got commands.RulesJSONOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "sqlite", got.Dialect)
	ids := make([]string, 0, len(got.Rules))
	for _, r := range got.Rules {
		ids = append(ids, r.ID)
	}
	assert.Contains(t, ids, "FN02")
	assert.NotContains(t, ids, "FN01")
	assert.Equal(t, len(got.Rules), got.Count)

	code, out, _ = execute(t, "rules", "FN01", "-o", "markdown")
	require.Equal(t, commands.ExitOK, code)
	assert.Contains(t, out, "# FN01 - function.datediff")
	testutil.AssertValidMarkdown(t, out)

	code, _, errOut := execute(t, "rules", "XX99")
	assert.Equal(t, commands.ExitInfrastructure, code)
	assert.Contains(t, errOut, `rule "XX99" not found`)
}

func TestExecute_HistoryEmpty(t *testing.T) {
	code, out, _ := execute(t, "history", "--state", filepath.Join(t.TempDir(), "none.db"))
	assert.Equal(t, commands.ExitOK, code)
	assert.Contains(t, out, "No runs recorded")
}

func TestExecute_Completion(t *testing.T) {
	code, out, _ := execute(t, "completion", "bash")
	assert.Equal(t, commands.ExitOK, code)
	assert.Contains(t, out, "sqlrepair")
}
