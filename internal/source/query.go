package source

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/leapstack-labs/leapflow/pkg/core"
)

// Query is a parameterized SQL statement.
type Query struct {
	SQL  string
	Args []any
}

// QueryBuilder renders record and aggregate queries for one dialect.
type QueryBuilder struct {
	dialect *core.DialectConfig
}

// NewQueryBuilder creates a builder for the given dialect.
func NewQueryBuilder(d *core.DialectConfig) *QueryBuilder {
	return &QueryBuilder{dialect: d}
}

// Records selects the configured columns, ordered by record id. It asks for
// one row more than the limit so the caller can detect truncation.
func (q *QueryBuilder) Records(cfg core.Configuration) Query {
	cols := columnsFor(cfg)
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = q.dialect.QuoteIdentifier(c)
	}

	where, args := q.where(cfg.Filters)
	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s FROM %s", strings.Join(quoted, ", "), q.dialect.QuoteQualified(cfg.Object))
	sb.WriteString(where)
	fmt.Fprintf(&sb, " ORDER BY %s", q.dialect.QuoteIdentifier(cfg.RecordIDField))
	if cfg.Limit > 0 {
		fmt.Fprintf(&sb, " LIMIT %d", cfg.Limit+1)
	}
	return Query{SQL: sb.String(), Args: args}
}

// Links aggregates the transitions between path field step and step+1:
// one row per (source value, target value) with record count and amount sum.
func (q *QueryBuilder) Links(cfg core.Configuration, step int) Query {
	src := q.dialect.QuoteIdentifier(cfg.PathFields[step])
	tgt := q.dialect.QuoteIdentifier(cfg.PathFields[step+1])

	amount := "0"
	if cfg.MetricField != "" {
		amount = fmt.Sprintf("COALESCE(SUM(CAST(%s AS DOUBLE PRECISION)), 0)", q.dialect.QuoteIdentifier(cfg.MetricField))
	}

	where, args := q.where(cfg.Filters)
	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s, %s, COUNT(*), %s FROM %s", src, tgt, amount, q.dialect.QuoteQualified(cfg.Object))
	sb.WriteString(where)
	fmt.Fprintf(&sb, " GROUP BY %s, %s ORDER BY COUNT(*) DESC, %s, %s", src, tgt, src, tgt)
	return Query{SQL: sb.String(), Args: args}
}

// where renders the filter clause with dialect placeholders.
func (q *QueryBuilder) where(filters []core.Filter) (string, []any) {
	if len(filters) == 0 {
		return "", nil
	}

	var (
		conds []string
		args  []any
	)
	next := func(v any) string {
		args = append(args, v)
		return q.dialect.FormatPlaceholder(len(args))
	}

	for _, f := range filters {
		col := q.dialect.QuoteIdentifier(f.Field)
		switch f.Operator {
		case core.OpIn:
			vals := f.Values()
			if len(vals) == 0 {
				conds = append(conds, "1 = 0")
				continue
			}
			marks := make([]string, len(vals))
			for i, v := range vals {
				marks[i] = next(v)
			}
			conds = append(conds, fmt.Sprintf("%s IN (%s)", col, strings.Join(marks, ", ")))
		case core.OpLike:
			conds = append(conds, fmt.Sprintf("%s %s %s", col, q.dialect.LikeOperator(), next(f.Value)))
		case core.OpGt, core.OpLt, core.OpGte, core.OpLte:
			conds = append(conds, fmt.Sprintf("%s %s %s", col, f.Operator, next(numericArg(f.Value))))
		case core.OpNe:
			conds = append(conds, fmt.Sprintf("%s <> %s", col, next(f.Value)))
		default:
			conds = append(conds, fmt.Sprintf("%s = %s", col, next(f.Value)))
		}
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// numericArg passes numbers as float64 so range filters compare numerically.
func numericArg(v string) any {
	if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
		return f
	}
	return v
}
