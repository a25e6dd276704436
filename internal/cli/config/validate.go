package config

import (
	"fmt"
	"os"

	intconfig "github.com/leapstack-labs/leapflow/internal/config"
)

// DefaultSchemaForType returns the default schema for a database type.
// This is a convenience wrapper that delegates to the shared config function.
func DefaultSchemaForType(dbType string) string {
	return intconfig.DefaultSchemaForType(dbType)
}

// Validate checks the CLI settings. The flow section is checked later by
// the commands that load records, so help and version work without one.
func (c *Config) Validate() error {
	if err := intconfig.Struct(c); err != nil {
		return err
	}
	if c.Target != nil {
		if err := intconfig.ValidateTarget(c.Target); err != nil {
			return fmt.Errorf("invalid target configuration: %w", err)
		}
	}
	return nil
}

// ValidateFlow checks the flow section before records are loaded.
func (c *Config) ValidateFlow() error {
	if err := intconfig.ValidateFlow(c.Flow); err != nil {
		return fmt.Errorf("%w\nHint: Set flow.object and flow.path_fields in leapflow.yaml or use --object and --path", err)
	}
	return nil
}

// ValidateSources checks that a file-backed source exists.
func (c *Config) ValidateSources() error {
	if c.CSV == "" {
		return nil
	}
	if _, err := os.Stat(c.CSV); os.IsNotExist(err) {
		return fmt.Errorf("csv file does not exist: %s\nHint: Check the csv path or use --csv to specify a different file", c.CSV)
	}
	return nil
}
