package duckdb

import (
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// Params holds DuckDB-specific settings read from adapter options.
type Params struct {
	// Extensions to install and load (e.g., "json", "httpfs"), comma-separated in options.
	Extensions []string `mapstructure:"extensions"`

	// Threads caps DuckDB worker threads. Zero keeps the DuckDB default.
	Threads int `mapstructure:"threads"`

	// MemoryLimit is passed to SET memory_limit (e.g., "2GB").
	MemoryLimit string `mapstructure:"memory_limit"`
}

// ParseParams decodes DuckDB params from the flat adapter options map.
// Unknown keys are rejected so typos surface at connect time.
func ParseParams(options map[string]string) (*Params, error) {
	p := &Params{}
	if len(options) == 0 {
		return p, nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           p,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
		DecodeHook:       mapstructure.StringToSliceHookFunc(","),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(options); err != nil {
		return nil, fmt.Errorf("invalid duckdb options: %w", err)
	}

	exts := p.Extensions[:0]
	for _, e := range p.Extensions {
		if e = strings.TrimSpace(e); e != "" {
			exts = append(exts, e)
		}
	}
	p.Extensions = exts
	return p, nil
}

// Statements returns the SQL run after connecting to apply the params.
func (p *Params) Statements() []string {
	var stmts []string
	for _, ext := range p.Extensions {
		stmts = append(stmts, fmt.Sprintf("INSTALL %s", ext), fmt.Sprintf("LOAD %s", ext))
	}
	if p.Threads > 0 {
		stmts = append(stmts, fmt.Sprintf("SET threads = %d", p.Threads))
	}
	if p.MemoryLimit != "" {
		stmts = append(stmts, fmt.Sprintf("SET memory_limit = '%s'", strings.ReplaceAll(p.MemoryLimit, "'", "''")))
	}
	return stmts
}
