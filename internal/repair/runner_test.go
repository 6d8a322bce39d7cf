package repair

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqlrepair/internal/extract"
	"github.com/leapstack-labs/sqlrepair/internal/testutil"
	"github.com/leapstack-labs/sqlrepair/internal/validate"
	"github.com/leapstack-labs/sqlrepair/pkg/core"
)

const runnerDoc = `---
dialect: postgres
aliases:
  columns:
    cust: customer_id
---
## Query 4: Needs alias

` + "```sql" + `
SELECT cust FROM orders;
` + "```" + `

## Query 1: Days

` + "```sql" + `
SELECT DATEDIFF('day', a, b) FROM t;
` + "```" + `

## Query 2: Missing column

` + "```sql" + `
SELECT signup_dt FROM users;
` + "```" + `

## Query 3: No body

Nothing here.

## Query 5: Fine

` + "```sql" + `
SELECT 1;
` + "```" + `
`

func runnerValidator() *scriptedValidator {
	return &scriptedValidator{
		fail: map[string]string{
			"SELECT cust FROM orders;":     `ERROR: column "cust" does not exist (SQLSTATE 42703)`,
			datediffSQL:                    datediffMsg,
			"SELECT signup_dt FROM users;": missingCol,
		},
		pass: map[string]bool{
			"SELECT customer_id FROM orders;": true,
			datediffFix:                       true,
			"SELECT 1;":                       true,
		},
	}
}

func TestRunner_Run(t *testing.T) {
	doc, err := extract.Extract(runnerDoc, extract.Options{})
	require.NoError(t, err)

	runner := NewRunner(runnerValidator(), postgresRules(t), Options{
		Concurrency: 3,
		PoolSize:    2,
		Logger:      testutil.NewTestLogger(t),
	})
	res, err := runner.Run(context.Background(), doc)
	require.NoError(t, err)

	require.Len(t, res.Outcomes, 5)
	for i, o := range res.Outcomes {
		assert.Equal(t, i+1, o.Number, "outcomes are merged in query-number order")
	}

	assert.Equal(t, core.FinalPassed, res.Outcomes[0].FinalStatus)
	assert.Equal(t, core.FinalStuck, res.Outcomes[1].FinalStatus)
	assert.Equal(t, core.FinalParseError, res.Outcomes[2].FinalStatus)
	assert.Equal(t, "no SQL block found", res.Outcomes[2].Detail)
	assert.Equal(t, core.FinalPassed, res.Outcomes[3].FinalStatus)
	assert.Equal(t, "SELECT customer_id FROM orders;", res.Outcomes[3].FinalSQL)
	assert.Equal(t, core.FinalPassed, res.Outcomes[4].FinalStatus)

	counts := countStatuses(res.Outcomes)
	total := 0
	for _, n := range counts {
		total += n
	}
	assert.Equal(t, doc.Total(), total, "every section is accounted for exactly once")
}

func TestRunner_Deterministic(t *testing.T) {
	doc, err := extract.Extract(runnerDoc, extract.Options{})
	require.NoError(t, err)

	var previous []core.RepairOutcome
	for range 3 {
		runner := NewRunner(runnerValidator(), postgresRules(t), Options{Concurrency: 4, PoolSize: 4})
		res, err := runner.Run(context.Background(), doc)
		require.NoError(t, err)

		for i := range res.Outcomes {
			res.Outcomes[i].Elapsed = 0
		}
		if previous != nil {
			assert.Equal(t, previous, res.Outcomes)
		}
		previous = res.Outcomes
	}
}

func TestRunner_InfrastructureErrorAborts(t *testing.T) {
	doc, err := extract.Extract(runnerDoc, extract.Options{})
	require.NoError(t, err)

	v := runnerValidator()
	v.pass = nil
	v.fail = nil
	v.next = func(int, string) (validate.Result, error) {
		return validate.Result{}, &validate.InfrastructureError{Dialect: "postgres", Err: errors.New("too many clients")}
	}

	runner := NewRunner(v, postgresRules(t), Options{Concurrency: 2})
	res, err := runner.Run(context.Background(), doc)
	assert.Nil(t, res)

	var infra *validate.InfrastructureError
	require.ErrorAs(t, err, &infra)
	assert.Contains(t, err.Error(), "too many clients")
}

func TestRunner_Workers(t *testing.T) {
	tests := []struct {
		name        string
		concurrency int
		poolSize    int
		want        int
	}{
		{"defaults to one", 0, 0, 1},
		{"capped by pool", 8, 3, 3},
		{"below pool", 2, 10, 2},
		{"unknown pool", 5, 0, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRunner(&scriptedValidator{}, nil, Options{Concurrency: tt.concurrency, PoolSize: tt.poolSize})
			assert.Equal(t, tt.want, r.Workers())
		})
	}
}

func TestRunner_EmptyDocument(t *testing.T) {
	doc, err := extract.Extract("# Nothing to repair\n", extract.Options{})
	require.NoError(t, err)

	res, err := NewRunner(&scriptedValidator{}, postgresRules(t), Options{}).Run(context.Background(), doc)
	require.NoError(t, err)
	assert.Empty(t, res.Outcomes)
}
