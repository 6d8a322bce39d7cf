package rules

import (
	"sort"
	"strings"

	"github.com/leapstack-labs/sqlrepair/pkg/sqltext"
)

// lookupAlias finds the replacement for ident in an alias map. A qualified
// identifier is tried whole first, then by its last component.
func lookupAlias(m map[string]string, ident string) (string, bool) {
	if len(m) == 0 {
		return "", false
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	try := []string{ident}
	if i := strings.LastIndexByte(ident, '.'); i >= 0 {
		try = append(try, ident[i+1:])
	}
	for _, want := range try {
		for _, k := range keys {
			if sqltext.SameIdent(k, want) {
				return m[k], true
			}
		}
	}
	return "", false
}

// nearest returns the candidate closest to name by edit distance, if it
// is close enough to be a plausible misspelling. Ties go to the earlier
// candidate.
func nearest(name string, candidates []string) (string, bool) {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	folded := []rune(sqltext.Fold(name))
	limit := len(folded) / 3
	if limit < 1 {
		limit = 1
	}

	best, bestDist := "", limit+1
	for _, c := range candidates {
		d := editDistance(folded, []rune(sqltext.Fold(c)))
		if d == 0 {
			return "", false
		}
		if d < bestDist {
			best, bestDist = c, d
		}
	}
	return best, best != ""
}

// editDistance is the Levenshtein distance between a and b.
func editDistance(a, b []rune) int {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}
