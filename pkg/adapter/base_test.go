package adapter

import (
	"context"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/leapstack-labs/leapflow/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDialect = &core.DialectConfig{
	Name:          "test",
	Identifiers:   core.ANSIIdentifiers,
	DefaultSchema: "main",
	Placeholder:   core.PlaceholderQuestion,
}

func newMockBase(t *testing.T) (*BaseSQLAdapter, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return &BaseSQLAdapter{DB: db}, mock
}

func TestBaseSQLAdapter_Close(t *testing.T) {
	t.Run("nil DB", func(t *testing.T) {
		base := &BaseSQLAdapter{}
		assert.NoError(t, base.Close())
	})

	t.Run("open DB", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		mock.ExpectClose()
		base := &BaseSQLAdapter{DB: db}
		assert.NoError(t, base.Close())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestBaseSQLAdapter_NotConnected(t *testing.T) {
	ctx := context.Background()
	base := &BaseSQLAdapter{}

	assert.False(t, base.IsConnected())

	err := base.Exec(ctx, "SELECT 1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database connection not established")

	rows, err := base.Query(ctx, "SELECT 1")
	require.Error(t, err)
	assert.Nil(t, rows)

	_, err = base.GetTableMetadataCommon(ctx, "leads", testDialect)
	require.Error(t, err)

	_, err = base.LoadCSVRows(ctx, "leads", strings.NewReader("a,b\n"), testDialect)
	require.Error(t, err)
}

func TestBaseSQLAdapter_Exec(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(mock sqlmock.Sqlmock)
		sql       string
		args      []any
		errMsg    string
	}{
		{
			name: "exec success",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("CREATE TABLE leads").WillReturnResult(sqlmock.NewResult(0, 0))
			},
			sql: "CREATE TABLE leads (id TEXT)",
		},
		{
			name: "exec with args",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("DELETE FROM leads").WithArgs("L-001").WillReturnResult(sqlmock.NewResult(0, 1))
			},
			sql:  "DELETE FROM leads WHERE id = ?",
			args: []any{"L-001"},
		},
		{
			name: "exec with error",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("INVALID SQL").WillReturnError(assert.AnError)
			},
			sql:    "INVALID SQL",
			errMsg: "failed to execute SQL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base, mock := newMockBase(t)
			tt.setupMock(mock)

			err := base.Exec(context.Background(), tt.sql, tt.args...)
			if tt.errMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestBaseSQLAdapter_Query(t *testing.T) {
	t.Run("success with args", func(t *testing.T) {
		base, mock := newMockBase(t)
		mock.ExpectQuery("SELECT id, stage FROM leads").
			WithArgs("Web").
			WillReturnRows(sqlmock.NewRows([]string{"id", "stage"}).AddRow("L-001", "Web").AddRow("L-002", "Web"))

		rows, err := base.Query(context.Background(), "SELECT id, stage FROM leads WHERE stage = ?", "Web")
		require.NoError(t, err)
		defer func() { _ = rows.Close() }()

		n := 0
		for rows.Next() {
			n++
		}
		require.NoError(t, rows.Err())
		assert.Equal(t, 2, n)
	})

	t.Run("error", func(t *testing.T) {
		base, mock := newMockBase(t)
		mock.ExpectQuery("INVALID").WillReturnError(assert.AnError)

		rows, err := base.Query(context.Background(), "INVALID SQL")
		require.Error(t, err)
		assert.Nil(t, rows)
		assert.Contains(t, err.Error(), "failed to execute query")
	})
}

func TestParseQualifiedName(t *testing.T) {
	schema, name := ParseQualifiedName("crm.leads", testDialect)
	assert.Equal(t, "crm", schema)
	assert.Equal(t, "leads", name)

	schema, name = ParseQualifiedName("leads", testDialect)
	assert.Equal(t, "main", schema)
	assert.Equal(t, "leads", name)
}

func TestBaseSQLAdapter_GetTableMetadataCommon(t *testing.T) {
	t.Run("columns and row count", func(t *testing.T) {
		base, mock := newMockBase(t)
		mock.ExpectQuery("FROM information_schema.columns").
			WithArgs("main", "leads").
			WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type", "is_nullable", "ordinal_position"}).
				AddRow("Id", "VARCHAR", "NO", 1).
				AddRow("Stage", "VARCHAR", "YES", 2))
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM "main"."leads"`)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

		meta, err := base.GetTableMetadataCommon(context.Background(), "leads", testDialect)
		require.NoError(t, err)
		assert.Equal(t, "main", meta.Schema)
		assert.Equal(t, "leads", meta.Name)
		assert.Equal(t, int64(42), meta.RowCount)
		require.Len(t, meta.Columns, 2)
		assert.False(t, meta.Columns[0].Nullable)
		assert.True(t, meta.Columns[1].Nullable)
		assert.True(t, meta.HasColumn("stage"))
		assert.False(t, meta.HasColumn("Amount"))
	})

	t.Run("missing table", func(t *testing.T) {
		base, mock := newMockBase(t)
		mock.ExpectQuery("FROM information_schema.columns").
			WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type", "is_nullable", "ordinal_position"}))

		_, err := base.GetTableMetadataCommon(context.Background(), "crm.nope", testDialect)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "crm.nope not found")
	})
}

func TestBaseSQLAdapter_LoadCSVRows(t *testing.T) {
	base, mock := newMockBase(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DROP TABLE IF EXISTS "leads"`)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE "leads" ("Id" TEXT, "Stage" TEXT)`)).WillReturnResult(sqlmock.NewResult(0, 0))
	insert := regexp.QuoteMeta(`INSERT INTO "leads" VALUES (?, ?)`)
	mock.ExpectExec(insert).WithArgs("L-001", "Web").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(insert).WithArgs("L-002", "").WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	n, err := base.LoadCSVRows(context.Background(), "leads", strings.NewReader("Id, Stage\nL-001,Web\nL-002,\n"), testDialect)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBaseSQLAdapter_LoadCSVRows_InsertFailureRollsBack(t *testing.T) {
	base, mock := newMockBase(t)
	mock.ExpectBegin()
	mock.ExpectExec("DROP TABLE").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO").WillReturnError(assert.AnError)
	mock.ExpectRollback()

	n, err := base.LoadCSVRows(context.Background(), "leads", strings.NewReader("Id\nL-001\n"), testDialect)
	require.Error(t, err)
	assert.Equal(t, 0, n)
	assert.Contains(t, err.Error(), "row 2")
	assert.NoError(t, mock.ExpectationsWereMet())
}
