package duckdb

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/leapflow/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func connectMemory(t *testing.T) *Adapter {
	t.Helper()
	adp := New(nil)
	require.NoError(t, adp.Connect(context.Background(), core.AdapterConfig{Path: ":memory:"}))
	t.Cleanup(func() { _ = adp.Close() })
	return adp
}

func TestAdapter_Connect(t *testing.T) {
	tests := []struct {
		name      string
		setupPath func(t *testing.T) string
		verify    func(t *testing.T, path string)
	}{
		{
			name:      "in-memory",
			setupPath: func(_ *testing.T) string { return ":memory:" },
		},
		{
			name:      "empty path defaults to memory",
			setupPath: func(_ *testing.T) string { return "" },
		},
		{
			name: "file-based",
			setupPath: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "flows.duckdb")
			},
			verify: func(t *testing.T, path string) {
				_, err := os.Stat(path)
				assert.False(t, os.IsNotExist(err), "database file was not created")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adp := New(nil)
			dbPath := tt.setupPath(t)
			require.NoError(t, adp.Connect(context.Background(), core.AdapterConfig{Path: dbPath}))
			defer func() { _ = adp.Close() }()

			assert.True(t, adp.IsConnected())
			if tt.verify != nil {
				tt.verify(t, dbPath)
			}
		})
	}
}

func TestAdapter_ConnectRejectsUnknownOption(t *testing.T) {
	adp := New(nil)
	err := adp.Connect(context.Background(), core.AdapterConfig{Options: map[string]string{"thread": "2"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid duckdb options")
	assert.False(t, adp.IsConnected())
}

func TestAdapter_ConnectAppliesThreads(t *testing.T) {
	adp := New(nil)
	require.NoError(t, adp.Connect(context.Background(), core.AdapterConfig{Options: map[string]string{"threads": "2"}}))
	defer func() { _ = adp.Close() }()

	rows, err := adp.Query(context.Background(), "SELECT current_setting('threads')")
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()
	require.True(t, rows.Next())

	var threads string
	require.NoError(t, rows.Scan(&threads))
	assert.Equal(t, "2", threads)
}

func TestAdapter_QueryWithArgs(t *testing.T) {
	ctx := context.Background()
	adp := connectMemory(t)

	require.NoError(t, adp.Exec(ctx, `CREATE TABLE leads (id VARCHAR, channel VARCHAR, amount DOUBLE)`))
	require.NoError(t, adp.Exec(ctx, `INSERT INTO leads VALUES (?, ?, ?), (?, ?, ?)`,
		"L-001", "Web", 250000.0, "L-002", "Broker", 80000.0))

	rows, err := adp.Query(ctx, `SELECT id FROM leads WHERE channel = ?`, "Web")
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		require.NoError(t, rows.Scan(&id))
		ids = append(ids, id)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{"L-001"}, ids)
}

func TestAdapter_GetTableMetadata(t *testing.T) {
	ctx := context.Background()
	adp := connectMemory(t)

	require.NoError(t, adp.Exec(ctx, `CREATE TABLE opportunity (id VARCHAR NOT NULL, stage VARCHAR, amount DOUBLE)`))
	require.NoError(t, adp.Exec(ctx, `INSERT INTO opportunity VALUES ('o1', 'Won', 10), ('o2', 'Lost', 20)`))

	meta, err := adp.GetTableMetadata(ctx, "opportunity")
	require.NoError(t, err)
	assert.Equal(t, "main", meta.Schema)
	assert.Equal(t, int64(2), meta.RowCount)
	assert.Len(t, meta.Columns, 3)
	assert.True(t, meta.HasColumn("Stage"))

	_, err = adp.GetTableMetadata(ctx, "missing")
	assert.Error(t, err)
}

func TestAdapter_LoadCSV(t *testing.T) {
	ctx := context.Background()
	adp := connectMemory(t)

	csvPath := filepath.Join(t.TempDir(), "leads.csv")
	csvContent := "Id,Name,Channel,Outcome,Amount\nL-001,Acme Corp,Web,Won,250000\nL-002,Birch LLC,Broker,,120000\n"
	require.NoError(t, os.WriteFile(csvPath, []byte(csvContent), 0o600))

	require.NoError(t, adp.LoadCSV(ctx, "leads", csvPath))

	rows, err := adp.Query(ctx, `SELECT COUNT(*) FROM "leads"`)
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	var count int
	require.True(t, rows.Next())
	require.NoError(t, rows.Scan(&count))
	assert.Equal(t, 2, count)

	meta, err := adp.GetTableMetadata(ctx, "leads")
	require.NoError(t, err)
	assert.Len(t, meta.Columns, 5)
}

func TestAdapter_NotConnected(t *testing.T) {
	ctx := context.Background()
	adp := New(nil)

	assert.Error(t, adp.Exec(ctx, "SELECT 1"))
	_, err := adp.Query(ctx, "SELECT 1")
	assert.Error(t, err)
	assert.Error(t, adp.LoadCSV(ctx, "t", "x.csv"))
	assert.NoError(t, adp.Close())
}
