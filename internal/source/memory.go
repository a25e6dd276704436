package source

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapflow/pkg/core"
	"gopkg.in/yaml.v3"
)

// MemorySource serves rows held in memory. Filters are evaluated with Match.
type MemorySource struct {
	object string
	rows   []Row
}

// NewMemory creates a source that answers configurations naming object.
func NewMemory(object string, rows []Row) *MemorySource {
	return &MemorySource{object: object, rows: rows}
}

// Object returns the object name this source answers to.
func (m *MemorySource) Object() string {
	return m.object
}

// Rows returns the number of rows held.
func (m *MemorySource) Rows() int {
	return len(m.rows)
}

// LoadRecords implements Source. Precompute is ignored; the builder derives
// everything from the records.
func (m *MemorySource) LoadRecords(ctx context.Context, cfg core.Configuration) (*core.Table, error) {
	cfg, err := prepare(cfg)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(cfg.Object, m.object) {
		return nil, &core.ConfigurationError{
			Field:  "object",
			Reason: fmt.Sprintf("unknown object %q (this source serves %q)", cfg.Object, m.object),
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, &core.DataUnavailableError{Object: cfg.Object, Err: err}
	}

	matched := make([]Row, 0, len(m.rows))
	for _, r := range m.rows {
		if Match(r, cfg.Filters) {
			matched = append(matched, r)
		}
	}
	return project(matched, cfg)
}

//go:embed sample.yaml
var sampleYAML []byte

// sampleFile is the layout of sample.yaml.
type sampleFile struct {
	Object      string   `yaml:"object"`
	PathFields  []string `yaml:"path_fields"`
	MetricField string   `yaml:"metric_field"`
	Rows        []Row    `yaml:"rows"`
}

func loadSample() sampleFile {
	var f sampleFile
	if err := yaml.Unmarshal(sampleYAML, &f); err != nil {
		panic(fmt.Sprintf("source: embedded sample is invalid: %v", err))
	}
	return f
}

// Sample returns a source over the embedded loan-pipeline sample.
func Sample() *MemorySource {
	f := loadSample()
	return NewMemory(f.Object, f.Rows)
}

// SampleConfiguration returns the configuration that explores the sample.
func SampleConfiguration() core.Configuration {
	f := loadSample()
	cfg := core.Configuration{
		Object:      f.Object,
		PathFields:  f.PathFields,
		MetricType:  core.MetricCount,
		MetricField: f.MetricField,
	}
	cfg.ApplyDefaults()
	return cfg
}
