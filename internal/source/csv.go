package source

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/leapstack-labs/leapflow/pkg/adapters/duckdb"
	"github.com/leapstack-labs/leapflow/pkg/core"
)

var nonIdent = regexp.MustCompile(`[^A-Za-z0-9_]+`)

// TableNameForFile derives a table name from a file name:
// "Loan Pipeline.csv" becomes "loan_pipeline".
func TableNameForFile(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	name := strings.Trim(nonIdent.ReplaceAllString(strings.ToLower(base), "_"), "_")
	if name == "" {
		return "records"
	}
	return name
}

// OpenCSV loads a CSV file into an in-memory DuckDB database and returns a
// source over it together with the table name to use as the object.
func OpenCSV(ctx context.Context, path string, logger *slog.Logger) (*SQLSource, string, error) {
	a := duckdb.New(logger)
	if err := a.Connect(ctx, core.AdapterConfig{Type: "duckdb", Path: ":memory:"}); err != nil {
		return nil, "", &core.DataUnavailableError{Object: path, Err: err}
	}

	table := TableNameForFile(path)
	if err := a.LoadCSV(ctx, table, path); err != nil {
		_ = a.Close()
		return nil, "", &core.DataUnavailableError{Object: path, Err: fmt.Errorf("failed to load %s: %w", path, err)}
	}
	return NewSQL(a, logger), table, nil
}
