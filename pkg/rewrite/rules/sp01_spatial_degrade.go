package rules

import (
	"strings"

	"github.com/leapstack-labs/sqlrepair/pkg/core"
	"github.com/leapstack-labs/sqlrepair/pkg/rewrite"
	"github.com/leapstack-labs/sqlrepair/pkg/sqltext"
)

// SpatialDegrade replaces geometry functions unavailable without a spatial
// extension with constant stand-ins. The query keeps its shape and can be
// validated; results of the degraded expressions are meaningless.
var SpatialDegrade = rewrite.Rule{
	ID:          "SP01",
	Name:        "spatial.degrade",
	Kind:        core.KindSyntaxError,
	Group:       "spatial",
	Description: "Replace spatial predicates with TRUE, measurements with 0 and constructors with NULL.",
	AppliesFn: func(sql string, rc rewrite.Context) bool {
		return isSpatialLocus(rc) && applySpatialDegrade(sql, rc) != sql
	},
	ApplyFn: applySpatialDegrade,

	BadExample:  `SELECT * FROM stops s WHERE ST_DWithin(s.geom, ST_MakePoint(1, 2)::geography, 500)`,
	GoodExample: `SELECT * FROM stops s WHERE TRUE`,
}

var (
	spatialPredicates = []string{
		"ST_DWITHIN", "ST_CONTAINS", "ST_INTERSECTS", "ST_WITHIN", "ST_COVERS",
		"ST_COVEREDBY", "ST_TOUCHES", "ST_OVERLAPS", "ST_CROSSES", "ST_EQUALS",
	}
	spatialMeasures = []string{
		"ST_DISTANCE", "ST_AREA", "ST_LENGTH", "ST_PERIMETER", "ST_X", "ST_Y",
		"ST_DISTANCESPHERE", "ST_DISTANCE_SPHERE",
	}
	spatialConstructors = []string{
		"ST_MAKEPOINT", "ST_POINT", "ST_SETSRID", "ST_GEOMFROMTEXT", "ST_GEOGFROMTEXT",
		"ST_TRANSFORM", "ST_BUFFER", "ST_CENTROID", "ST_MAKEENVELOPE", "ST_UNION",
		"ST_COLLECT", "ST_ASTEXT", "ST_ASGEOJSON",
	}
)

// isSpatialLocus reports whether the failure names a spatial function or type.
func isSpatialLocus(rc rewrite.Context) bool {
	id := strings.ToLower(rc.Error.Locus.Identifier)
	if i := strings.LastIndexByte(id, '.'); i >= 0 {
		id = id[i+1:]
	}
	return id == "" || strings.HasPrefix(id, "st_") || id == "geometry" || id == "geography"
}

func applySpatialDegrade(sql string, _ rewrite.Context) string {
	src := sqltext.Scan(sql)
	var edits []sqltext.Edit
	add := func(names []string, text string) {
		for _, c := range src.Calls(names...) {
			edits = append(edits, callEdit(src, c, text))
		}
	}
	add(spatialPredicates, "TRUE")
	add(spatialMeasures, "0")
	add(spatialConstructors, "NULL")

	for i, t := range src.Sig {
		if t.IsPunct("::") && src.At(i+1).Is("geometry", "geography") {
			end := i + 1
			if src.At(end + 1).IsPunct("(") {
				if closeI := src.MatchClose(end + 1); closeI > 0 {
					end = closeI
				}
			}
			s, e := src.Span(i, end)
			edits = append(edits, sqltext.Edit{Start: s, End: e})
		}
	}
	return sqltext.Apply(sql, edits)
}
