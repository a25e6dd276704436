package adapter_test

import (
	"testing"

	"github.com/leapstack-labs/leapflow/pkg/adapter"
	"github.com/leapstack-labs/leapflow/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	// Import adapter packages to ensure adapters are registered via init()
	_ "github.com/leapstack-labs/leapflow/pkg/adapters/duckdb"
	_ "github.com/leapstack-labs/leapflow/pkg/adapters/postgres"
	_ "github.com/leapstack-labs/leapflow/pkg/adapters/sqlite"
)

func TestIsRegistered(t *testing.T) {
	tests := []struct {
		name        string
		adapterName string
		expected    bool
	}{
		{"duckdb registered", "duckdb", true},
		{"postgres registered", "postgres", true},
		{"sqlite registered", "sqlite", true},
		{"unknown not registered", "unknown_db", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, adapter.IsRegistered(tt.adapterName), "IsRegistered(%q)", tt.adapterName)
		})
	}
}

func TestNewAdapter_Dialects(t *testing.T) {
	tests := []struct {
		typ         string
		dialect     string
		placeholder string
	}{
		{"duckdb", "duckdb", "?"},
		{"postgres", "postgres", "$2"},
		{"sqlite", "sqlite", "?"},
	}

	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			adp, err := adapter.NewAdapter(core.AdapterConfig{Type: tt.typ}, nil)
			require.NoError(t, err)
			d := adp.DialectConfig()
			require.NotNil(t, d)
			assert.Equal(t, tt.dialect, d.Name)
			assert.Equal(t, tt.placeholder, d.FormatPlaceholder(2))
		})
	}
}

func TestNewAdapter_UnknownType(t *testing.T) {
	_, err := adapter.NewAdapter(core.AdapterConfig{Type: "unknown_adapter"}, nil)
	require.Error(t, err)

	var unknownErr *adapter.UnknownAdapterError
	require.ErrorAs(t, err, &unknownErr)
	assert.Equal(t, "unknown_adapter", unknownErr.Type)
	assert.Contains(t, unknownErr.Available, "duckdb")
	assert.Contains(t, unknownErr.Available, "sqlite")
}
