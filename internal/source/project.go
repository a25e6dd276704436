package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapflow/internal/config"
	"github.com/leapstack-labs/leapflow/pkg/core"

	// Targets may name any of these.
	_ "github.com/leapstack-labs/leapflow/pkg/adapters/postgres"
	_ "github.com/leapstack-labs/leapflow/pkg/adapters/sqlite"
)

// ErrNoSource is returned when a project names no sample, CSV file or target.
var ErrNoSource = errors.New("no data source configured\nHint: Use --sample, --csv <file>, or add a target section to leapflow.yaml")

// Resolved is the data source a project points at, with the flow
// configuration completed for it.
type Resolved struct {
	Source Source
	Flow   core.Configuration
	// Description names the source for status lines, e.g. "csv:deals.csv".
	Description string

	closer func() error
}

// Close releases the underlying connection, if any.
func (r *Resolved) Close() error {
	if r == nil || r.closer == nil {
		return nil
	}
	return r.closer()
}

// FromProject opens the source a project configuration selects, in order of
// precedence: the embedded sample, a CSV file, then the database target.
//
// Flow fields the project leaves empty are filled from the source where it
// can supply them: the sample carries its own flow, and a CSV file names
// the object.
func FromProject(ctx context.Context, p config.ProjectConfig, logger *slog.Logger) (*Resolved, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	flow := p.Flow

	switch {
	case p.Sample:
		def := SampleConfiguration()
		if flow.Object == "" {
			flow.Object = def.Object
		}
		if len(flow.PathFields) == 0 {
			flow.PathFields = def.PathFields
		}
		if flow.MetricField == "" {
			flow.MetricField = def.MetricField
		}
		flow.ApplyDefaults()
		logger.Debug("using sample data", slog.String("object", flow.Object))
		return &Resolved{Source: Sample(), Flow: flow, Description: "sample"}, nil

	case p.CSV != "":
		src, table, err := OpenCSV(ctx, p.CSV, logger)
		if err != nil {
			return nil, err
		}
		if flow.Object == "" {
			flow.Object = table
		}
		flow.ApplyDefaults()
		logger.Debug("using csv file", slog.String("path", p.CSV), slog.String("table", table))
		return &Resolved{Source: src, Flow: flow, Description: "csv:" + p.CSV, closer: src.Close}, nil

	case p.Target != nil:
		src, err := Open(ctx, *p.Target, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s target: %w", p.Target.Type, err)
		}
		flow.ApplyDefaults()
		desc := p.Target.Type
		if p.Target.Database != "" {
			desc += ":" + p.Target.Database
		}
		return &Resolved{Source: src, Flow: flow, Description: desc, closer: src.Close}, nil
	}

	return nil, ErrNoSource
}
