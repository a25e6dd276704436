package core

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// Default configuration values.
const (
	DefaultRecordIDField = "Id"
	DefaultNameField     = "Name"
	DefaultDatasetLimit  = 10000
	MinSteps             = 2
)

// MetricType selects what the flow thickness measures.
type MetricType string

// Metric types.
const (
	MetricCount  MetricType = "COUNT"
	MetricAmount MetricType = "AMOUNT"
)

// ParseMetricType converts a user string into a MetricType.
// The empty string yields MetricCount.
func ParseMetricType(s string) (MetricType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "COUNT":
		return MetricCount, nil
	case "AMOUNT":
		return MetricAmount, nil
	default:
		return "", &ConfigurationError{Field: "metric_type", Reason: fmt.Sprintf("unknown metric %q (want COUNT or AMOUNT)", s)}
	}
}

// String returns the lower-case display form ("count" or "amount").
func (m MetricType) String() string {
	if m == MetricAmount {
		return "amount"
	}
	return "count"
}

// NullHandling selects how absent step values are treated.
type NullHandling string

// Null handling strategies.
const (
	GroupUnknown NullHandling = "GROUP_UNKNOWN"
	Stop         NullHandling = "STOP"
	CarryForward NullHandling = "CARRY_FORWARD"
)

// FilterOperator is a comparison allowed in a Filter.
type FilterOperator string

// Supported filter operators.
const (
	OpEq   FilterOperator = "="
	OpNe   FilterOperator = "!="
	OpGt   FilterOperator = ">"
	OpLt   FilterOperator = "<"
	OpGte  FilterOperator = ">="
	OpLte  FilterOperator = "<="
	OpLike FilterOperator = "LIKE"
	OpIn   FilterOperator = "IN"
)

// Valid reports whether op is one of the supported operators.
func (op FilterOperator) Valid() bool {
	switch op {
	case OpEq, OpNe, OpGt, OpLt, OpGte, OpLte, OpLike, OpIn:
		return true
	}
	return false
}

// Filter restricts the dataset before the graph is built.
type Filter struct {
	Field    string         `json:"field" yaml:"field" koanf:"field" mapstructure:"field" validate:"required"`
	Operator FilterOperator `json:"operator" yaml:"operator" koanf:"operator" mapstructure:"operator" validate:"required"`
	Value    string         `json:"value" yaml:"value" koanf:"value" mapstructure:"value"`
}

// Values splits an IN filter value on commas.
func (f Filter) Values() []string {
	if f.Operator != OpIn {
		return []string{f.Value}
	}
	parts := strings.Split(f.Value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Configuration describes which records to load and how to read their path.
type Configuration struct {
	// Object is the table, view or file the records come from.
	Object        string       `json:"object" yaml:"object" koanf:"object" mapstructure:"object" validate:"required"`
	Filters       []Filter     `json:"filters,omitempty" yaml:"filters,omitempty" koanf:"filters" mapstructure:"filters" validate:"dive"`
	PathFields    []string     `json:"path_fields" yaml:"path_fields" koanf:"path_fields" mapstructure:"path_fields" validate:"min=2,dive,required"`
	MetricType    MetricType   `json:"metric_type" yaml:"metric_type" koanf:"metric_type" mapstructure:"metric_type" validate:"omitempty,oneof=COUNT AMOUNT"`
	MetricField   string       `json:"metric_field,omitempty" yaml:"metric_field,omitempty" koanf:"metric_field" mapstructure:"metric_field" validate:"required_if=MetricType AMOUNT"`
	RecordIDField string       `json:"record_id_field" yaml:"record_id_field" koanf:"record_id_field" mapstructure:"record_id_field"`
	NameField     string       `json:"name_field" yaml:"name_field" koanf:"name_field" mapstructure:"name_field"`
	NullHandling  NullHandling `json:"null_handling" yaml:"null_handling" koanf:"null_handling" mapstructure:"null_handling" validate:"omitempty,oneof=GROUP_UNKNOWN STOP CARRY_FORWARD"`
	Limit         int          `json:"limit,omitempty" yaml:"limit,omitempty" koanf:"limit" mapstructure:"limit" validate:"gte=0"`
	// Precompute asks SQL sources to aggregate nodes and links server-side.
	Precompute bool `json:"precompute,omitempty" yaml:"precompute,omitempty" koanf:"precompute" mapstructure:"precompute"`
}

// ApplyDefaults fills unset optional fields.
func (c *Configuration) ApplyDefaults() {
	if c == nil {
		return
	}
	if c.MetricType == "" {
		c.MetricType = MetricCount
	}
	if c.RecordIDField == "" {
		c.RecordIDField = DefaultRecordIDField
	}
	if c.NameField == "" {
		c.NameField = DefaultNameField
	}
	if c.NullHandling == "" {
		c.NullHandling = GroupUnknown
	}
	if c.Limit == 0 {
		c.Limit = DefaultDatasetLimit
	}
}

// Check performs the structural checks every loader needs before querying.
// Tag-based validation lives in internal/config.
func (c *Configuration) Check() error {
	if c.Object == "" {
		return &ConfigurationError{Field: "object", Reason: "an object to load records from is required"}
	}
	if len(c.PathFields) < MinSteps {
		return &ConfigurationError{Field: "path_fields", Reason: fmt.Sprintf("at least %d path fields are required, got %d", MinSteps, len(c.PathFields))}
	}
	seen := make(map[string]bool, len(c.PathFields))
	for _, f := range c.PathFields {
		if f == "" {
			return &ConfigurationError{Field: "path_fields", Reason: "path field names must not be empty"}
		}
		if seen[f] {
			return &ConfigurationError{Field: "path_fields", Reason: fmt.Sprintf("path field %q listed twice", f)}
		}
		seen[f] = true
	}
	if c.MetricType == MetricAmount && c.MetricField == "" {
		return &ConfigurationError{Field: "metric_field", Reason: "the AMOUNT metric needs a metric field"}
	}
	for i, f := range c.Filters {
		if !f.Operator.Valid() {
			return &ConfigurationError{Field: fmt.Sprintf("filters[%d].operator", i), Reason: fmt.Sprintf("unsupported operator %q", f.Operator)}
		}
	}
	return nil
}

// Hash returns a short identity for the configuration.
// Two configurations with the same hash load the same records.
func (c Configuration) Hash() string {
	data, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:8])
}
