package core

import (
	"strconv"
	"strings"
)

// DialectConfig holds the static SQL conventions of a database backend.
// Record sources use it to quote identifiers and number placeholders.
type DialectConfig struct {
	// Name is the dialect identifier (e.g., "duckdb", "postgres").
	Name string

	// Identifiers defines quoting rules.
	Identifiers IdentifierConfig

	// DefaultSchema is the default schema name ("main" for DuckDB, "public" for Postgres).
	DefaultSchema string

	// Placeholder defines how query parameters are formatted.
	Placeholder PlaceholderStyle

	// CaseInsensitiveLike is the operator used for LIKE filters.
	// Empty means plain LIKE.
	CaseInsensitiveLike string
}

// PlaceholderStyle defines how query parameters are formatted.
type PlaceholderStyle int

const (
	// PlaceholderQuestion uses ? for all parameters (DuckDB, SQLite).
	PlaceholderQuestion PlaceholderStyle = iota
	// PlaceholderDollar uses $1, $2, etc. for parameters (PostgreSQL).
	PlaceholderDollar
)

// IdentifierConfig defines how identifiers are quoted.
type IdentifierConfig struct {
	Quote    string // Quote character: ", `, [
	QuoteEnd string // End quote character (usually same as Quote, ] for [)
	Escape   string // Escape sequence: "", ``, ]]
}

// FormatPlaceholder returns the placeholder for the 1-based parameter index.
func (d *DialectConfig) FormatPlaceholder(index int) string {
	if d.Placeholder == PlaceholderDollar {
		return "$" + strconv.Itoa(index)
	}
	return "?"
}

// QuoteIdentifier quotes a single identifier, escaping embedded quote characters.
func (d *DialectConfig) QuoteIdentifier(name string) string {
	escaped := strings.ReplaceAll(name, d.Identifiers.QuoteEnd, d.Identifiers.Escape)
	return d.Identifiers.Quote + escaped + d.Identifiers.QuoteEnd
}

// QuoteQualified quotes a possibly schema-qualified name part by part.
func (d *DialectConfig) QuoteQualified(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = d.QuoteIdentifier(p)
	}
	return strings.Join(parts, ".")
}

// LikeOperator returns the operator used for LIKE filters.
func (d *DialectConfig) LikeOperator() string {
	if d.CaseInsensitiveLike != "" {
		return d.CaseInsensitiveLike
	}
	return "LIKE"
}

// ANSIIdentifiers is the double-quote identifier convention shared by
// DuckDB, PostgreSQL and SQLite.
var ANSIIdentifiers = IdentifierConfig{Quote: `"`, QuoteEnd: `"`, Escape: `""`}
