package config

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/leapstack-labs/leapflow/pkg/core"
)

// wordFilter matches "Field IN a,b" and "Field LIKE pattern".
var wordFilter = regexp.MustCompile(`(?i)^\s*([^\s]+)\s+(IN|LIKE)\s+(.+?)\s*$`)

// symbolOps is ordered so two-character operators are tried first.
var symbolOps = []core.FilterOperator{core.OpGte, core.OpLte, core.OpNe, core.OpEq, core.OpGt, core.OpLt}

// ParseFilter reads a --filter expression such as "Amount>=100000",
// "Source IN Web,Broker" or "Name LIKE %corp%".
func ParseFilter(expr string) (core.Filter, error) {
	if m := wordFilter.FindStringSubmatch(expr); m != nil {
		return core.Filter{Field: m[1], Operator: core.FilterOperator(strings.ToUpper(m[2])), Value: m[3]}, nil
	}

	best, bestAt := core.FilterOperator(""), -1
	for _, op := range symbolOps {
		i := strings.Index(expr, string(op))
		if i < 0 {
			continue
		}
		if bestAt < 0 || i < bestAt || (i == bestAt && len(op) > len(best)) {
			best, bestAt = op, i
		}
	}
	if bestAt <= 0 {
		return core.Filter{}, &core.ConfigurationError{
			Field:  "filters",
			Reason: fmt.Sprintf("cannot parse filter %q (want FIELD OP VALUE, e.g. Amount>=1000 or Source IN Web,Broker)", expr),
		}
	}
	field := strings.TrimSpace(expr[:bestAt])
	value := strings.TrimSpace(expr[bestAt+len(best):])
	if field == "" {
		return core.Filter{}, &core.ConfigurationError{Field: "filters", Reason: fmt.Sprintf("filter %q has no field", expr)}
	}
	return core.Filter{Field: field, Operator: best, Value: strings.Trim(value, `"'`)}, nil
}

// ParseFilters parses every expression, failing on the first bad one.
func ParseFilters(exprs []string) ([]core.Filter, error) {
	out := make([]core.Filter, 0, len(exprs))
	for _, e := range exprs {
		f, err := ParseFilter(e)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}
