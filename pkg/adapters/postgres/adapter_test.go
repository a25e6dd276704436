package postgres

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/leapstack-labs/leapflow/pkg/adapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPostgresDSN(t *testing.T) {
	tests := []struct {
		name     string
		config   adapter.Config
		expected string
	}{
		{
			name: "basic connection",
			config: adapter.Config{
				Host:     "localhost",
				Port:     5432,
				Database: "crm",
				Username: "user",
				Password: "pass",
			},
			expected: "host=localhost port=5432 dbname=crm sslmode=disable user=user password=pass",
		},
		{
			name: "with custom sslmode",
			config: adapter.Config{
				Host:     "prod.example.com",
				Database: "crm",
				Username: "admin",
				Options:  map[string]string{"sslmode": "require"},
			},
			expected: "host=prod.example.com port=5432 dbname=crm sslmode=require user=admin",
		},
		{
			name:     "defaults",
			config:   adapter.Config{Database: "crm"},
			expected: "host=localhost port=5432 dbname=crm sslmode=disable",
		},
		{
			name: "extra options sorted",
			config: adapter.Config{
				Host:     "db.example.com",
				Port:     5433,
				Database: "analytics",
				Options:  map[string]string{"connect_timeout": "5", "application_name": "leapflow"},
			},
			expected: "host=db.example.com port=5433 dbname=analytics sslmode=disable application_name=leapflow connect_timeout=5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, buildPostgresDSN(tt.config))
		})
	}
}

func TestNew(t *testing.T) {
	adp := New(nil)

	assert.NotNil(t, adp)
	assert.Nil(t, adp.DB, "DB should be nil before Connect")
	assert.False(t, adp.IsConnected())
	assert.Equal(t, "postgres", adp.DialectConfig().Name)
	assert.Equal(t, "ILIKE", adp.DialectConfig().LikeOperator())
	assert.Equal(t, "$3", adp.DialectConfig().FormatPlaceholder(3))
}

func TestAdapter_NotConnected(t *testing.T) {
	tests := []struct {
		name      string
		operation func(ctx context.Context, adp *Adapter) error
	}{
		{
			name: "exec",
			operation: func(ctx context.Context, adp *Adapter) error {
				return adp.Exec(ctx, "SELECT 1")
			},
		},
		{
			name: "query",
			operation: func(ctx context.Context, adp *Adapter) error {
				_, err := adp.Query(ctx, "SELECT 1")
				return err
			},
		},
		{
			name: "metadata",
			operation: func(ctx context.Context, adp *Adapter) error {
				_, err := adp.GetTableMetadata(ctx, "leads")
				return err
			},
		},
		{
			name: "load csv",
			operation: func(ctx context.Context, adp *Adapter) error {
				return adp.LoadCSV(ctx, "leads", "/tmp/leads.csv")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.operation(context.Background(), New(nil))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "not established")
		})
	}
}

func TestAdapter_GetTableMetadataUsesPublicSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	adp := New(nil)
	adp.DB = db

	mock.ExpectQuery(regexp.QuoteMeta("WHERE table_schema = $1 AND table_name = $2")).
		WithArgs("public", "opportunity").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type", "is_nullable", "ordinal_position"}).
			AddRow("id", "text", "NO", 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM "public"."opportunity"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	meta, err := adp.GetTableMetadata(context.Background(), "opportunity")
	require.NoError(t, err)
	assert.Equal(t, "public", meta.Schema)
	assert.Equal(t, int64(7), meta.RowCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_Registry(t *testing.T) {
	factory, ok := adapter.Get("postgres")
	require.True(t, ok)

	pg, ok := factory(nil).(*Adapter)
	require.True(t, ok, "factory should return *Adapter")
	assert.Equal(t, "postgres", pg.DialectConfig().Name)
}

func TestAdapter_Close(t *testing.T) {
	assert.NoError(t, New(nil).Close())
}
