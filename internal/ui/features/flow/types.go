package flow

import (
	"github.com/leapstack-labs/leapflow/internal/interaction"
	"github.com/leapstack-labs/leapflow/internal/layout"
)

// Signals are the datastar signals the flow handlers read.
type Signals struct {
	Intent map[string]any `json:"intent"`
	Hover  string         `json:"hover"`
	Metric string         `json:"metric"`
	Width  float64        `json:"width"`
	Height float64        `json:"height"`
}

// SnapshotResponse is the JSON view of a session for scripts and tests.
type SnapshotResponse struct {
	Ready   bool              `json:"ready"`
	Object  string            `json:"object,omitempty"`
	Metric  string            `json:"metric,omitempty"`
	Records int               `json:"records"`
	State   interaction.State `json:"state"`
	Layout  layout.Result     `json:"layout"`
	Lit     []string          `json:"lit,omitempty"`
	Overlay []string          `json:"overlay,omitempty"`
	Warning string            `json:"warning,omitempty"`
	Error   string            `json:"error,omitempty"`
}
