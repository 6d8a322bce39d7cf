package commands

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqlrepair/internal/cli/testutil"
	"github.com/leapstack-labs/sqlrepair/internal/state"
	"github.com/leapstack-labs/sqlrepair/pkg/core"
	"github.com/leapstack-labs/sqlrepair/pkg/rewrite/rules"
)

func TestFindRun(t *testing.T) {
	runs := []state.Run{{ID: "abc123"}, {ID: "abd456"}, {ID: "xyz789"}}

	run, err := findRun(runs, "xyz789")
	require.NoError(t, err)
	assert.Equal(t, "xyz789", run.ID)

	run, err = findRun(runs, "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc123", run.ID)

	_, err = findRun(runs, "ab")
	assert.ErrorContains(t, err, "ambiguous")

	_, err = findRun(runs, "nope")
	assert.ErrorContains(t, err, "not found")
}

func TestFilterRules(t *testing.T) {
	all := rules.All()

	got, err := filterRules(all, &RulesOptions{Kind: "UndefinedColumn"})
	require.NoError(t, err)
	require.NotEmpty(t, got)
	for _, r := range got {
		assert.Equal(t, core.KindUndefinedColumn, r.Kind)
	}

	got, err = filterRules(all, &RulesOptions{Group: "CAST"})
	require.NoError(t, err)
	require.NotEmpty(t, got)
	for _, r := range got {
		assert.Equal(t, "cast", r.Group)
	}

	_, err = filterRules(all, &RulesOptions{Kind: "NotAKind"})
	assert.Error(t, err)
}

func TestGroupByKind(t *testing.T) {
	kinds, byKind := groupByKind(rules.All())
	assert.Equal(t, core.KindSyntaxError, kinds[0])
	assert.Equal(t, "FN01", byKind[core.KindSyntaxError][0].ID)

	total := 0
	for _, k := range kinds {
		total += len(byKind[k])
	}
	assert.Equal(t, len(rules.All()), total)
}

func TestOneLine(t *testing.T) {
	assert.Equal(t, "a b c", oneLine("a\n  b\tc", 0))
	assert.Equal(t, "abcdefg...", oneLine("abcdefghijklmnop", 10))
	assert.Equal(t, "short", oneLine("short", 10))
}

func TestExitError(t *testing.T) {
	cause := errors.New("connection refused")
	err := infrastructure(cause)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, ExitInfrastructure, exitErr.Code)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "connection refused", err.Error())

	assert.Equal(t, "exit status 1", (&ExitError{Code: ExitUnresolved}).Error())
}

func TestPlural(t *testing.T) {
	assert.Equal(t, "query", plural(1, "query", "queries"))
	assert.Equal(t, "queries", plural(0, "query", "queries"))
}

func TestRulesRendering(t *testing.T) {
	list, err := filterRules(rules.All(), &RulesOptions{Kind: "SyntaxError"})
	require.NoError(t, err)

	t.Run("text", func(t *testing.T) {
		tr := testutil.NewTestRendererText()
		listRulesText(tr.Renderer, "postgres", list, true)
		out := tr.Output()
		assert.Contains(t, out, "SyntaxError")
		assert.Contains(t, out, "FN01")
		assert.Contains(t, out, "Use 'sqlrepair rules <rule-id>' for examples")
	})

	t.Run("markdown", func(t *testing.T) {
		tr := testutil.NewTestRendererMarkdown()
		listRulesMarkdown(tr.Renderer, "", list, false)
		out := tr.Output()
		testutil.AssertNoANSI(t, out)
		testutil.AssertValidMarkdown(t, out)
		assert.Contains(t, out, "## SyntaxError")
		assert.Contains(t, out, "all dialects")
	})

	t.Run("detail", func(t *testing.T) {
		tr := testutil.NewTestRendererMarkdown()
		showRuleMarkdown(tr.Renderer, toRuleJSON(rules.DateDiffJulian))
		out := tr.Output()
		testutil.AssertValidMarkdown(t, out)
		assert.Contains(t, out, "julianday(b)")
		assert.Contains(t, out, "**Dialects:** sqlite")
	})
}

func TestRenderRuns(t *testing.T) {
	runs := []state.Run{{ID: "0123456789abcdef", Document: "q.md", Dialect: "duckdb", Total: 3, Passed: 2, Stuck: 1}}

	tr := testutil.NewTestRendererMarkdown()
	require.NoError(t, renderRuns(tr.Renderer, runs))
	assert.Contains(t, tr.Output(), "01234567")
	assert.Contains(t, tr.Output(), "2/3")

	tr = testutil.NewTestRendererJSON()
	require.NoError(t, renderRuns(tr.Renderer, nil))
	assert.Equal(t, "[]\n", tr.Output())

	tr = testutil.NewTestRendererText()
	require.NoError(t, renderRuns(tr.Renderer, nil))
	assert.Contains(t, tr.Output(), "No runs recorded")
}
