package source

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/leapstack-labs/leapflow/pkg/core"
)

// Match reports whether a row passes every filter.
// Comparisons follow SQL: a row without a value for the field fails every
// filter. Values compare numerically when both sides parse as numbers.
func Match(row Row, filters []core.Filter) bool {
	for _, f := range filters {
		if !matchOne(row, f) {
			return false
		}
	}
	return true
}

func matchOne(row Row, f core.Filter) bool {
	v, ok := row.Get(f.Field)
	if !ok {
		return false
	}
	switch f.Operator {
	case core.OpIn:
		for _, want := range f.Values() {
			if compare(v, want) == 0 {
				return true
			}
		}
		return false
	case core.OpLike:
		return likePattern(f.Value).MatchString(v)
	}

	c := compare(v, f.Value)
	switch f.Operator {
	case core.OpEq:
		return c == 0
	case core.OpNe:
		return c != 0
	case core.OpGt:
		return c > 0
	case core.OpLt:
		return c < 0
	case core.OpGte:
		return c >= 0
	case core.OpLte:
		return c <= 0
	}
	return false
}

// compare orders a and b numerically when both are numbers, else as strings.
func compare(a, b string) int {
	x, errA := strconv.ParseFloat(strings.TrimSpace(a), 64)
	y, errB := strconv.ParseFloat(strings.TrimSpace(b), 64)
	if errA == nil && errB == nil {
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	}
	return strings.Compare(a, b)
}

// likePattern translates a SQL LIKE pattern (% and _) into an anchored,
// case-insensitive regexp.
func likePattern(pattern string) *regexp.Regexp {
	var b strings.Builder
	b.WriteString("(?is)^")
	for _, r := range pattern {
		switch r {
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return regexp.MustCompile(b.String())
}
