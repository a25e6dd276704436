// Package config provides configuration management for the leapflow CLI.
//
// This package extends the shared configuration types from internal/config
// with CLI-specific fields and functionality. Shared types are re-exported
// here via type aliases for convenience.
package config

import (
	sharedcfg "github.com/leapstack-labs/leapflow/internal/config"
	"github.com/leapstack-labs/leapflow/pkg/core"
)

// TargetConfig is an alias for the shared target configuration.
// This allows CLI code to use config.TargetConfig without importing pkg/core.
type TargetConfig = sharedcfg.TargetConfig

// UIConfig holds configuration for the browser UI server.
type UIConfig struct {
	Host          string `koanf:"host" json:"host"`
	Port          int    `koanf:"port" json:"port" validate:"gte=0,lte=65535"`
	Watch         bool   `koanf:"watch" json:"watch"`
	SessionSecret string `koanf:"session_secret" json:"session_secret" validate:"omitempty,min=16"`
}

// DefaultUIConfig returns a UIConfig with default values.
func DefaultUIConfig() *UIConfig {
	return &UIConfig{
		Host: "localhost",
		Port: sharedcfg.DefaultUIPort,
	}
}

// GetUIConfig returns the UI config with defaults applied for any unset values.
func (c *Config) GetUIConfig() *UIConfig {
	if c.UI == nil {
		return DefaultUIConfig()
	}
	ui := c.UI
	if ui.Port == 0 {
		ui.Port = sharedcfg.DefaultUIPort
	}
	if ui.Host == "" {
		ui.Host = "localhost"
	}
	return ui
}

// ViewportConfig is the initial drawing area handed to the layout routine.
type ViewportConfig struct {
	Width  int `koanf:"width" json:"width" validate:"gte=0"`
	Height int `koanf:"height" json:"height" validate:"gte=0"`
}

// Config holds all CLI configuration options.
type Config struct {
	StatePath    string               `koanf:"state_path" json:"state_path" validate:"required"`
	Environment  string               `koanf:"environment" json:"environment"`
	Verbose      bool                 `koanf:"verbose" json:"verbose"`
	LogLevel     string               `koanf:"log_level" json:"log_level" validate:"omitempty,oneof=debug info warn error"`
	OutputFormat string               `koanf:"output" json:"output" validate:"omitempty,oneof=auto text markdown json"`
	Target       *TargetConfig        `koanf:"target" json:"target,omitempty" validate:"-"`
	Flow         core.Configuration   `koanf:"flow" json:"-" validate:"-"`
	Sample       bool                 `koanf:"sample" json:"sample"`
	CSV          string               `koanf:"csv" json:"csv"`
	UI           *UIConfig            `koanf:"ui" json:"ui,omitempty"`
	Viewport     ViewportConfig       `koanf:"viewport" json:"viewport"`
	Environments map[string]EnvConfig `koanf:"environments" json:"-"`

	// ProjectRoot is the directory relative paths were resolved against.
	ProjectRoot string `koanf:"-" json:"-"`
}

// EnvConfig holds environment-specific configuration overrides.
type EnvConfig struct {
	StatePath string        `koanf:"state_path"`
	CSV       string        `koanf:"csv"`
	Target    *TargetConfig `koanf:"target"`
}

// Project returns the subset of the configuration a rendering surface
// reloads on its own.
func (c *Config) Project() sharedcfg.ProjectConfig {
	return sharedcfg.ProjectConfig{
		Target: c.Target,
		Flow:   c.Flow,
		Sample: c.Sample,
		CSV:    c.CSV,
	}
}

// Default configuration values - uses shared defaults from internal/config
const (
	DefaultStateFile = sharedcfg.DefaultStateFile
	DefaultEnv       = sharedcfg.DefaultEnv
	DefaultOutput    = sharedcfg.DefaultOutput
	DefaultLogLevel  = sharedcfg.DefaultLogLevel
)
