package core

import (
	"context"
	"database/sql"
	"strings"
)

// Adapter is the contract every database backend implements.
// Record sources drive adapters; the engine never sees them.
type Adapter interface {
	// Connect establishes a connection to the database.
	Connect(ctx context.Context, cfg AdapterConfig) error

	// Close closes the database connection.
	Close() error

	// Exec executes a SQL statement that doesn't return rows.
	Exec(ctx context.Context, sql string, args ...any) error

	// Query executes a SQL statement that returns rows.
	Query(ctx context.Context, sql string, args ...any) (*Rows, error)

	// GetTableMetadata retrieves metadata for a table.
	GetTableMetadata(ctx context.Context, table string) (*TableMetadata, error)

	// LoadCSV loads data from a CSV file into a table.
	LoadCSV(ctx context.Context, tableName, filePath string) error

	// DialectConfig returns the static dialect configuration.
	DialectConfig() *DialectConfig
}

// AdapterConfig holds configuration for connecting to a database.
type AdapterConfig struct {
	Type     string            `json:"type" yaml:"type" koanf:"type" mapstructure:"type" validate:"required"`
	Path     string            `json:"path,omitempty" yaml:"path,omitempty" koanf:"path" mapstructure:"path"`
	Host     string            `json:"host,omitempty" yaml:"host,omitempty" koanf:"host" mapstructure:"host"`
	Port     int               `json:"port,omitempty" yaml:"port,omitempty" koanf:"port" mapstructure:"port" validate:"gte=0,lte=65535"`
	Database string            `json:"database,omitempty" yaml:"database,omitempty" koanf:"database" mapstructure:"database"`
	Username string            `json:"user,omitempty" yaml:"user,omitempty" koanf:"user" mapstructure:"user"`
	Password string            `json:"-" yaml:"password,omitempty" koanf:"password" mapstructure:"password"`
	Schema   string            `json:"schema,omitempty" yaml:"schema,omitempty" koanf:"schema" mapstructure:"schema"`
	Options  map[string]string `json:"options,omitempty" yaml:"options,omitempty" koanf:"options" mapstructure:"options"`
}

// Column represents a column in a database table.
type Column struct {
	Name     string
	Type     string
	Nullable bool
	Position int
}

// TableMetadata holds metadata about a database table.
type TableMetadata struct {
	Schema   string
	Name     string
	Columns  []Column
	RowCount int64
}

// HasColumn reports whether the table has a column with the given name.
// The comparison is case-insensitive, matching unquoted SQL identifiers.
func (m *TableMetadata) HasColumn(name string) bool {
	if m == nil {
		return false
	}
	for _, c := range m.Columns {
		if strings.EqualFold(c.Name, name) {
			return true
		}
	}
	return false
}

// Rows wraps sql.Rows to provide a consistent interface.
type Rows struct {
	*sql.Rows
}
