package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/leapstack-labs/leapflow/pkg/core"
)

// ConfigFileName is the name of the config file.
const ConfigFileName = "leapflow.yaml"

// ConfigFileNameAlt is the alternate name of the config file.
const ConfigFileNameAlt = "leapflow.yml"

// LoadFile loads a ProjectConfig from a config file. Relative csv and
// target paths are resolved against the file's directory.
func LoadFile(path string) (*ProjectConfig, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	var cfg ProjectConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config %s: %w", path, err)
	}

	base := filepath.Dir(path)
	cfg.CSV = ResolvePath(cfg.CSV, base)
	if cfg.Target != nil {
		ApplyTargetDefaults(cfg.Target)
		cfg.Target.Path = ResolvePath(cfg.Target.Path, base)
	}
	if err := NormalizeFlow(&cfg.Flow); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromDir loads a ProjectConfig from the given directory.
// It looks for leapflow.yaml or leapflow.yml in the directory.
// Returns nil, nil if no config file is found (not an error condition).
func LoadFromDir(dir string) (*ProjectConfig, error) {
	configPath := FindConfigFile(dir)
	if configPath == "" {
		return nil, nil
	}
	return LoadFile(configPath)
}

// FindConfigFile finds the config file in the given directory.
// Returns empty string if not found.
func FindConfigFile(dir string) string {
	for _, name := range []string{ConfigFileName, ConfigFileNameAlt} {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// FindProjectRoot walks up from the given directory to find a directory
// containing leapflow.yaml or leapflow.yml.
// Returns empty string if not found.
func FindProjectRoot(startDir string) string {
	dir := startDir
	for {
		if FindConfigFile(dir) != "" {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			return ""
		}
		dir = parent
	}
}

// ResolvePath resolves a path relative to baseDir if it's not absolute.
// Empty paths, absolute paths and in-memory database names are returned unchanged.
func ResolvePath(path, baseDir string) string {
	if path == "" || path == ":memory:" || filepath.IsAbs(path) || strings.HasPrefix(path, "file:") {
		return path
	}
	return filepath.Join(baseDir, path)
}

// NormalizeFlow upper-cases the enum fields users tend to write in lower
// case and applies defaults.
func NormalizeFlow(flow *core.Configuration) error {
	metric, err := core.ParseMetricType(string(flow.MetricType))
	if err != nil {
		return err
	}
	flow.MetricType = metric
	if flow.NullHandling != "" {
		flow.NullHandling = core.NullHandling(strings.ToUpper(strings.ReplaceAll(string(flow.NullHandling), "-", "_")))
	}
	for i := range flow.Filters {
		flow.Filters[i].Operator = core.FilterOperator(strings.ToUpper(strings.TrimSpace(string(flow.Filters[i].Operator))))
	}
	flow.ApplyDefaults()
	return nil
}
