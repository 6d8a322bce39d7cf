package rules_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/leapstack-labs/sqlrepair/pkg/core"
	"github.com/leapstack-labs/sqlrepair/pkg/rewrite/rules"
)

func TestSP01_SpatialDegrade(t *testing.T) {
	runCases(t, rules.SpatialDegrade, ctx("postgres", core.KindSyntaxError, "st_dwithin"), []ruleCase{
		{
			name: "predicate measure and nested constructor",
			sql:  "SELECT * FROM stops s WHERE ST_DWithin(s.geom, ST_MakePoint(1, 2)::geography, 500) AND ST_Distance(s.geom, p.geom) < 10",
			want: "SELECT * FROM stops s WHERE TRUE AND 0 < 10",
		},
		{
			name: "geometry cast",
			sql:  "SELECT geom::geometry, ST_AsText(geom) FROM t",
			want: "SELECT geom, NULL FROM t",
		},
	})

	unrelated := ctx("postgres", core.KindSyntaxError, "datediff")
	assert.False(t, rules.SpatialDegrade.Applies("SELECT ST_X(p) FROM t", unrelated))
	assert.True(t, rules.SpatialDegrade.Applies("SELECT p::geometry FROM t", ctx("postgres", core.KindSyntaxError, "geometry")))
}

func TestJN01_CrossJoinOn(t *testing.T) {
	runCases(t, rules.CrossJoinOn, ctx("postgres", core.KindSyntaxError, "ON"), []ruleCase{
		{
			name: "cross join with predicate",
			sql:  "SELECT * FROM a CROSS JOIN b ON a.id = b.a_id",
			want: "SELECT * FROM a JOIN b ON a.id = b.a_id",
		},
		{
			name: "aliased subquery",
			sql:  "SELECT * FROM a CROSS JOIN (SELECT id FROM b) AS x ON a.id = x.id",
			want: "SELECT * FROM a JOIN (SELECT id FROM b) AS x ON a.id = x.id",
		},
		{
			name: "plain cross join untouched",
			sql:  "SELECT * FROM a CROSS JOIN b WHERE a.id = b.a_id",
			want: "SELECT * FROM a CROSS JOIN b WHERE a.id = b.a_id",
		},
	})
}

// Join normalization applied twice to normalized text returns it unchanged.
func TestJoinNormalization_Idempotent(t *testing.T) {
	normalized := "SELECT * FROM a JOIN b ON a.id = b.a_id"
	rc := ctx("postgres", core.KindSyntaxError, "ON")
	for _, r := range []struct {
		name  string
		apply func(string) string
	}{
		{"JN01", func(s string) string { return rules.CrossJoinOn.Apply(s, rc) }},
		{"JN02", func(s string) string { return rules.JoinOnTrue.Apply(s, rc) }},
	} {
		first := r.apply(normalized)
		second := r.apply(first)
		assert.Equal(t, normalized, first, r.name)
		assert.Equal(t, normalized, second, r.name)
	}
}

func TestJN02_JoinOnTrue(t *testing.T) {
	runCases(t, rules.JoinOnTrue, ctx("postgres", core.KindSyntaxError, "WHERE"), []ruleCase{
		{
			name: "join before where",
			sql:  "SELECT * FROM a JOIN b WHERE a.x = 1",
			want: "SELECT * FROM a JOIN b ON TRUE WHERE a.x = 1",
		},
		{
			name: "left join alias at end",
			sql:  "SELECT * FROM a LEFT OUTER JOIN b AS bb;",
			want: "SELECT * FROM a LEFT OUTER JOIN b AS bb ON TRUE;",
		},
		{
			name: "conditioned joins untouched",
			sql:  "SELECT * FROM a JOIN b USING (id) CROSS JOIN c NATURAL JOIN d",
			want: "SELECT * FROM a JOIN b USING (id) CROSS JOIN c NATURAL JOIN d",
		},
		{
			name: "two joins",
			sql:  "SELECT * FROM a JOIN b JOIN c ON b.id = c.id",
			want: "SELECT * FROM a JOIN b ON TRUE JOIN c ON b.id = c.id",
		},
	})
}

func TestWN01_WindowDistinct(t *testing.T) {
	runCases(t, rules.WindowDistinct, ctx("postgres", core.KindSyntaxError, "DISTINCT"), []ruleCase{
		{
			name: "count distinct with order and frame",
			sql:  "SELECT COUNT(DISTINCT u) OVER (PARTITION BY d ORDER BY ts ROWS UNBOUNDED PRECEDING) FROM e",
			want: "SELECT (DENSE_RANK() OVER (PARTITION BY d ORDER BY u) + DENSE_RANK() OVER (PARTITION BY d ORDER BY u DESC) - 1) FROM e",
		},
		{
			name: "count distinct without partition",
			sql:  "SELECT COUNT(DISTINCT u) OVER () FROM e",
			want: "SELECT (DENSE_RANK() OVER (ORDER BY u) + DENSE_RANK() OVER (ORDER BY u DESC) - 1) FROM e",
		},
		{
			name: "other aggregates drop distinct",
			sql:  "SELECT SUM(DISTINCT amount) OVER (PARTITION BY c ORDER BY d) FROM t",
			want: "SELECT SUM(amount) OVER (PARTITION BY c ORDER BY d) FROM t",
		},
		{
			name: "plain aggregate untouched",
			sql:  "SELECT COUNT(DISTINCT u) FROM e",
			want: "SELECT COUNT(DISTINCT u) FROM e",
		},
	})
}

func TestWN02_OrderedSetWindow(t *testing.T) {
	runCases(t, rules.OrderedSetWindow, ctx("postgres", core.KindSyntaxError, "percentile_cont"), []ruleCase{
		{
			name: "mode with direction",
			sql:  "SELECT MODE() WITHIN GROUP (ORDER BY x DESC) OVER () FROM t",
			want: "SELECT MIN(x) OVER () FROM t",
		},
		{
			name: "percentile_disc",
			sql:  "SELECT PERCENTILE_DISC(0.9) WITHIN GROUP (ORDER BY t.v) OVER (PARTITION BY k) FROM t",
			want: "SELECT MIN(t.v) OVER (PARTITION BY k) FROM t",
		},
		{
			name: "aggregate without window untouched",
			sql:  "SELECT PERCENTILE_CONT(0.5) WITHIN GROUP (ORDER BY x) FROM t",
			want: "SELECT PERCENTILE_CONT(0.5) WITHIN GROUP (ORDER BY x) FROM t",
		},
	})
}

func TestCL01_DanglingParens(t *testing.T) {
	runCases(t, rules.DanglingParens, ctx("postgres", core.KindSyntaxError, ")"), []ruleCase{
		{
			name: "both directions",
			sql:  "SELECT COALESCE(a, 0)) FROM t WHERE (x > 1",
			want: "SELECT COALESCE(a, 0) FROM t WHERE (x > 1)",
		},
		{
			name: "close before terminator",
			sql:  "SELECT ((1 + 2;",
			want: "SELECT ((1 + 2));",
		},
		{
			name: "parens in strings ignored",
			sql:  "SELECT ')' FROM t",
			want: "SELECT ')' FROM t",
		},
	})
}

func TestCL02_EmptyBranches(t *testing.T) {
	runCases(t, rules.EmptyBranches, ctx("postgres", core.KindSyntaxError, "ELSE"), []ruleCase{
		{
			name: "empty where",
			sql:  "SELECT a FROM t WHERE GROUP BY a",
			want: "SELECT a FROM t GROUP BY a",
		},
		{
			name: "doubled connective",
			sql:  "SELECT a FROM t WHERE x = 1 AND AND y = 2",
			want: "SELECT a FROM t WHERE x = 1 AND y = 2",
		},
		{
			name: "connective before paren and where chain",
			sql:  "SELECT a FROM t WHERE (x = 1 OR) AND",
			want: "SELECT a FROM t WHERE (x = 1)",
		},
		{
			name: "empty on",
			sql:  "SELECT * FROM a JOIN b ON WHERE x",
			want: "SELECT * FROM a JOIN b ON TRUE WHERE x",
		},
	})
}
