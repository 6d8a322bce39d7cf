package rules

import (
	"strings"

	"github.com/leapstack-labs/sqlrepair/pkg/core"
	"github.com/leapstack-labs/sqlrepair/pkg/rewrite"
	"github.com/leapstack-labs/sqlrepair/pkg/sqltext"
)

// CastSyntax normalizes malformed inline casts.
var CastSyntax = rewrite.Rule{
	ID:          "CS01",
	Name:        "cast.syntax",
	Kind:        core.KindSyntaxError,
	Group:       "cast",
	Description: "Normalize malformed casts (x: :t, x:::t, CONVERT(t, x)) to the explicit cast form.",
	ApplyFn: func(sql string, rc rewrite.Context) string {
		return fixpoint(sql, func(s string) string { return castSyntaxPass(s, rc) })
	},

	BadExample:  `SELECT amount: :numeric, CONVERT(date, created_at) FROM t`,
	GoodExample: `SELECT amount::numeric, (created_at)::date FROM t`,
}

// sqlTypes are the leading words accepted as a CONVERT target type.
var sqlTypes = map[string]string{
	"int":           "int",
	"integer":       "integer",
	"bigint":        "bigint",
	"smallint":      "smallint",
	"tinyint":       "smallint",
	"numeric":       "numeric",
	"decimal":       "decimal",
	"float":         "float",
	"real":          "real",
	"double":        "double",
	"money":         "numeric",
	"bit":           "boolean",
	"boolean":       "boolean",
	"char":          "char",
	"nchar":         "char",
	"varchar":       "varchar",
	"nvarchar":      "varchar",
	"text":          "text",
	"date":          "date",
	"time":          "time",
	"datetime":      "timestamp",
	"datetime2":     "timestamp",
	"smalldatetime": "timestamp",
	"timestamp":     "timestamp",
}

func castSyntaxPass(sql string, rc rewrite.Context) string {
	src := sqltext.Scan(sql)
	var edits []sqltext.Edit
	for i, t := range src.Sig {
		switch {
		case t.IsPunct(":::"):
			edits = append(edits, sqltext.Edit{Start: t.Start, End: t.End, New: "::"})
		case t.IsPunct(":") && src.At(i+1).IsPunct(":"):
			edits = append(edits, sqltext.Edit{Start: t.Start, End: src.At(i + 1).End, New: "::"})
		}
	}
	for _, c := range src.Calls("CONVERT") {
		if len(c.Args) < 2 || len(c.Args) > 3 {
			continue
		}
		typ, ok := convertType(src, c.Args[0])
		if !ok {
			continue
		}
		var text string
		if hasCastOperator(rc) {
			text = "(" + c.Args[1].Text + ")::" + typ
		} else {
			text = "CAST(" + c.Args[1].Text + " AS " + typ + ")"
		}
		edits = append(edits, callEdit(src, c, text))
	}
	return sqltext.Apply(sql, edits)
}

// convertType maps a CONVERT target type onto the portable spelling.
func convertType(src *sqltext.Source, arg sqltext.Arg) (string, bool) {
	if arg.Last < arg.First || src.At(arg.First).Kind != sqltext.Word {
		return "", false
	}
	first := src.At(arg.First)
	mapped, ok := sqlTypes[strings.ToLower(first.Text)]
	if !ok {
		return "", false
	}
	rest := ""
	if arg.Last > arg.First {
		rest = src.Text[first.End:src.At(arg.Last).End]
	}
	return mapped + rest, true
}
