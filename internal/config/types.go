// Package config provides shared configuration types for leapflow.
// This package is decoupled from CLI concerns so the browser UI can reload
// a project file on its own when it changes on disk.
package config

import (
	"github.com/leapstack-labs/leapflow/pkg/adapter"
	"github.com/leapstack-labs/leapflow/pkg/core"
)

// TargetConfig holds database target configuration.
type TargetConfig = core.AdapterConfig

// ProjectConfig holds what a rendering surface needs to load records:
// where they come from and how to read their path. It is a subset of the
// full CLI Config.
type ProjectConfig struct {
	Target *TargetConfig      `koanf:"target"`
	Flow   core.Configuration `koanf:"flow"`
	Sample bool               `koanf:"sample"`
	CSV    string             `koanf:"csv"`
}

// DefaultSchemaForType returns the default schema for a database type.
// It asks the registered adapter for its dialect; unknown types fall back
// to "main".
func DefaultSchemaForType(dbType string) string {
	if factory, ok := adapter.Get(dbType); ok {
		if d := factory(nil).DialectConfig(); d != nil && d.DefaultSchema != "" {
			return d.DefaultSchema
		}
	}
	return "main"
}
