package core

// Record is one row of the explored process.
// Records are immutable once loaded; a reload replaces the whole Table.
type Record struct {
	// ID is the opaque row identifier.
	ID string `json:"id"`
	// Name is the display name used in tooltips and selectors.
	Name string `json:"name"`
	// Amount is the monetary value summed by the amount metric.
	Amount float64 `json:"amount"`
	// Values maps step column name to raw value.
	// A missing key or an empty string means the value is absent.
	Values map[string]string `json:"values"`
}

// Value returns the raw value for a step column and whether it is present.
func (r Record) Value(column string) (string, bool) {
	v, ok := r.Values[column]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// Table is the flat record table returned by a data source.
type Table struct {
	// Records in source order. Record indices refer to this slice.
	Records []Record `json:"records"`
	// Steps is the ordered list of step columns.
	Steps []string `json:"steps"`
	// Truncated is set when the source hit the dataset limit.
	Truncated bool `json:"truncated,omitempty"`
	// Aggregates holds pre-aggregated nodes and links when the source
	// computed them itself. Nil when the graph is built from records.
	Aggregates *Aggregates `json:"aggregates,omitempty"`
}

// Len returns the number of records.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// Aggregates carries node and link totals computed outside the engine.
type Aggregates struct {
	Nodes []AggregateNode `json:"nodes"`
	Links []AggregateLink `json:"links"`
}

// AggregateNode declares a node by step position and value.
// Unknown marks the missing-value node of that step.
type AggregateNode struct {
	Step    int    `json:"step"`
	Value   string `json:"value"`
	Unknown bool   `json:"unknown,omitempty"`
}

// AggregateLink declares a link between two adjacent aggregate nodes.
type AggregateLink struct {
	Source AggregateNode `json:"source"`
	Target AggregateNode `json:"target"`
	Count  int           `json:"count"`
	Amount float64       `json:"amount"`
}
