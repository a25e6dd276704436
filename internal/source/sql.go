package source

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/leapstack-labs/leapflow/internal/pathmodel"
	"github.com/leapstack-labs/leapflow/pkg/adapter"
	"github.com/leapstack-labs/leapflow/pkg/core"
)

// SQLSource loads records from a database table or view through an adapter.
type SQLSource struct {
	adapter core.Adapter
	builder *QueryBuilder
	logger  *slog.Logger
}

// NewSQL wraps a connected adapter.
func NewSQL(a core.Adapter, logger *slog.Logger) *SQLSource {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SQLSource{
		adapter: a,
		builder: NewQueryBuilder(a.DialectConfig()),
		logger:  logger,
	}
}

// Open connects to the configured target and returns a source over it.
func Open(ctx context.Context, target core.AdapterConfig, logger *slog.Logger) (*SQLSource, error) {
	a, err := adapter.Open(ctx, target, logger)
	if err != nil {
		return nil, err
	}
	return NewSQL(a, logger), nil
}

// Adapter returns the underlying adapter.
func (s *SQLSource) Adapter() core.Adapter {
	return s.adapter
}

// Close releases the database connection.
func (s *SQLSource) Close() error {
	return s.adapter.Close()
}

// LoadRecords implements Source.
//
// Column names are resolved against the object's metadata so a configuration
// may spell them in any case. Missing columns are configuration errors; any
// database failure is reported as core.DataUnavailableError.
func (s *SQLSource) LoadRecords(ctx context.Context, cfg core.Configuration) (*core.Table, error) {
	cfg, err := prepare(cfg)
	if err != nil {
		return nil, err
	}

	meta, err := s.adapter.GetTableMetadata(ctx, cfg.Object)
	if err != nil {
		return nil, &core.DataUnavailableError{Object: cfg.Object, Err: err}
	}
	cfg, err = resolveColumns(cfg, meta)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	rows, err := s.queryRows(ctx, s.builder.Records(cfg), columnsFor(cfg))
	if err != nil {
		return nil, &core.DataUnavailableError{Object: cfg.Object, Err: err}
	}

	table, err := project(rows, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Precompute {
		if cfg.NullHandling != core.GroupUnknown {
			s.logger.Warn("precompute ignored: server-side aggregation only groups missing values",
				slog.String("null_handling", string(cfg.NullHandling)))
		} else {
			agg, err := s.aggregate(ctx, cfg)
			if err != nil {
				return nil, &core.DataUnavailableError{Object: cfg.Object, Err: err}
			}
			table.Aggregates = agg
		}
	}

	s.logger.Debug("records loaded",
		slog.String("object", cfg.Object),
		slog.Int("records", table.Len()),
		slog.Bool("truncated", table.Truncated),
		slog.Bool("precomputed", table.Aggregates != nil),
		slog.Duration("elapsed", time.Since(start)))
	return table, nil
}

// resolveColumns rewrites every column the configuration names to the
// spelling the database uses.
func resolveColumns(cfg core.Configuration, meta *core.TableMetadata) (core.Configuration, error) {
	lookup := func(field, name string) (string, error) {
		for _, c := range meta.Columns {
			if strings.EqualFold(c.Name, name) {
				return c.Name, nil
			}
		}
		return "", &core.ConfigurationError{
			Field:  field,
			Reason: fmt.Sprintf("column %q does not exist on %s", name, cfg.Object),
		}
	}

	var err error
	if cfg.RecordIDField, err = lookup("record_id_field", cfg.RecordIDField); err != nil {
		return cfg, err
	}
	if cfg.NameField, err = lookup("name_field", cfg.NameField); err != nil {
		return cfg, err
	}
	if cfg.MetricField != "" {
		if cfg.MetricField, err = lookup("metric_field", cfg.MetricField); err != nil {
			return cfg, err
		}
	}

	paths := make([]string, len(cfg.PathFields))
	for i, f := range cfg.PathFields {
		if paths[i], err = lookup("path_fields", f); err != nil {
			return cfg, err
		}
	}
	cfg.PathFields = paths

	filters := make([]core.Filter, len(cfg.Filters))
	for i, f := range cfg.Filters {
		if f.Field, err = lookup(fmt.Sprintf("filters[%d].field", i), f.Field); err != nil {
			return cfg, err
		}
		filters[i] = f
	}
	cfg.Filters = filters
	return cfg, nil
}

func (s *SQLSource) queryRows(ctx context.Context, q Query, cols []string) ([]Row, error) {
	s.logger.Debug("query", slog.String("sql", q.SQL), slog.Int("args", len(q.Args)))

	rows, err := s.adapter.Query(ctx, q.SQL, q.Args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Row
	dest := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range dest {
		ptrs[i] = &dest[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		row := make(Row, len(cols))
		for i, c := range cols {
			if v, ok := stringify(dest[i]); ok {
				row[c] = v
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, nil
}

// aggregate runs one GROUP BY per adjacent step pair. Nodes are declared in
// the order their values first appear as link endpoints.
func (s *SQLSource) aggregate(ctx context.Context, cfg core.Configuration) (*core.Aggregates, error) {
	agg := &core.Aggregates{}
	seen := make(map[core.AggregateNode]bool)
	declare := func(n core.AggregateNode) {
		if !seen[n] {
			seen[n] = true
			agg.Nodes = append(agg.Nodes, n)
		}
	}

	for step := 0; step+1 < len(cfg.PathFields); step++ {
		q := s.builder.Links(cfg, step)
		s.logger.Debug("aggregate query", slog.Int("step", step), slog.String("sql", q.SQL))

		rows, err := s.adapter.Query(ctx, q.SQL, q.Args...)
		if err != nil {
			return nil, err
		}

		// '' and NULL both land on the unknown node, so merge per key.
		merged := make(map[[2]core.AggregateNode]int)
		for rows.Next() {
			var (
				src, tgt any
				count    int64
				amount   sql.NullFloat64
			)
			if err := rows.Scan(&src, &tgt, &count, &amount); err != nil {
				_ = rows.Close()
				return nil, fmt.Errorf("failed to scan aggregate row: %w", err)
			}
			link := core.AggregateLink{
				Source: aggregateNode(step, src),
				Target: aggregateNode(step+1, tgt),
				Count:  int(count),
				Amount: amount.Float64,
			}
			key := [2]core.AggregateNode{link.Source, link.Target}
			if i, ok := merged[key]; ok {
				agg.Links[i].Count += link.Count
				agg.Links[i].Amount += link.Amount
				continue
			}
			declare(link.Source)
			declare(link.Target)
			merged[key] = len(agg.Links)
			agg.Links = append(agg.Links, link)
		}
		err = rows.Err()
		_ = rows.Close()
		if err != nil {
			return nil, fmt.Errorf("error iterating aggregate rows: %w", err)
		}
	}
	return agg, nil
}

func aggregateNode(step int, v any) core.AggregateNode {
	text, ok := stringify(v)
	if !ok {
		return core.AggregateNode{Step: step, Value: pathmodel.UnknownLabel, Unknown: true}
	}
	return core.AggregateNode{Step: step, Value: text}
}

// stringify renders a scanned database value. NULL and "" report false.
func stringify(v any) (string, bool) {
	var s string
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		s = x
	case []byte:
		s = string(x)
	case int64:
		s = strconv.FormatInt(x, 10)
	case int32:
		s = strconv.FormatInt(int64(x), 10)
	case float64:
		s = strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		s = strconv.FormatFloat(float64(x), 'f', -1, 32)
	case bool:
		s = strconv.FormatBool(x)
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			s = x.Format(time.DateOnly)
		} else {
			s = x.Format(time.RFC3339)
		}
	default:
		s = fmt.Sprint(x)
	}
	return s, s != ""
}
