// Package source loads record tables for the flow explorer.
//
// A Source turns a core.Configuration into a core.Table. SQLSource queries a
// database through a registered adapter; MemorySource serves rows held in
// memory, including the embedded loan-pipeline sample.
package source

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/leapstack-labs/leapflow/pkg/core"
)

// Source loads the records described by a configuration.
type Source interface {
	LoadRecords(ctx context.Context, cfg core.Configuration) (*core.Table, error)
}

// Row is one raw source row keyed by column name.
// A missing key and an empty string both mean "no value".
type Row map[string]string

// Get returns the value of column, falling back to a case-insensitive match.
func (r Row) Get(column string) (string, bool) {
	if v, ok := r[column]; ok {
		return v, v != ""
	}
	for k, v := range r {
		if strings.EqualFold(k, column) {
			return v, v != ""
		}
	}
	return "", false
}

// prepare applies defaults and runs the structural checks.
func prepare(cfg core.Configuration) (core.Configuration, error) {
	cfg.ApplyDefaults()
	if err := cfg.Check(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// columnsFor lists the columns a configuration reads, in select order and
// without duplicates: id, name, metric field, path fields.
func columnsFor(cfg core.Configuration) []string {
	cols := []string{cfg.RecordIDField, cfg.NameField}
	if cfg.MetricField != "" {
		cols = append(cols, cfg.MetricField)
	}
	cols = append(cols, cfg.PathFields...)

	out := cols[:0]
	seen := make(map[string]bool, len(cols))
	for _, c := range cols {
		key := strings.ToLower(c)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	return out
}

// project converts raw rows into a table. Rows beyond cfg.Limit are dropped
// and the table is flagged truncated.
func project(rows []Row, cfg core.Configuration) (*core.Table, error) {
	table := &core.Table{
		Steps:   append([]string(nil), cfg.PathFields...),
		Records: make([]core.Record, 0, min(len(rows), cfg.Limit)),
	}
	for i, row := range rows {
		if cfg.Limit > 0 && i >= cfg.Limit {
			table.Truncated = true
			break
		}
		rec, err := toRecord(row, cfg)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		table.Records = append(table.Records, rec)
	}
	return table, nil
}

func toRecord(row Row, cfg core.Configuration) (core.Record, error) {
	id, _ := row.Get(cfg.RecordIDField)
	name, _ := row.Get(cfg.NameField)
	rec := core.Record{
		ID:     id,
		Name:   name,
		Values: make(map[string]string, len(cfg.PathFields)),
	}
	if cfg.MetricField != "" {
		if raw, ok := row.Get(cfg.MetricField); ok {
			amount, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
			if err != nil {
				return rec, &core.ConfigurationError{
					Field:  "metric_field",
					Reason: fmt.Sprintf("%s value %q is not numeric", cfg.MetricField, raw),
				}
			}
			rec.Amount = amount
		}
	}
	for _, f := range cfg.PathFields {
		if v, ok := row.Get(f); ok {
			rec.Values[f] = v
		}
	}
	return rec, nil
}
