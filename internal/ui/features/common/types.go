// Package common provides shared types and utilities for UI features.
package common

import (
	"github.com/leapstack-labs/leapflow/internal/insights"
	"github.com/leapstack-labs/leapflow/internal/interaction"
	"github.com/leapstack-labs/leapflow/internal/selection"
	"github.com/leapstack-labs/leapflow/pkg/core"
)

// NodeView is one node rectangle ready to draw.
type NodeView struct {
	ID      string
	Label   string
	Color   string
	Step    int
	X, Y    float64
	W, H    float64
	Opacity float64
	Value   string
	Clicked bool
}

// LinkView is one band ready to draw. Path is an SVG path.
type LinkView struct {
	ID      string
	Title   string
	Path    string
	Color   string
	Width   float64
	Opacity float64
	State   string
	Overlay bool
	Clicked bool
}

// StepLabel is a column heading.
type StepLabel struct {
	Label string
	X     float64
}

// FlowView is everything the flow panel renders.
type FlowView struct {
	Ready   bool
	Error   string
	Warning string

	Source    string
	Object    string
	Metric    core.MetricType
	Records   int
	Truncated bool
	Limit     int

	State  interaction.State
	Width  float64
	Height float64
	Steps  []StepLabel
	Nodes  []NodeView
	Links  []LinkView

	// Detail describes the current trace or flow selection.
	Detail   string
	KPIs     insights.KPIs
	FlowKPIs *insights.FlowKPIs

	ModeOptions   []insights.Option
	RecordOptions []insights.Option
	StepOptions   []insights.Option
	ValueOptions  []insights.Option
}

// SavedView is one saved configuration in the side panel.
type SavedView struct {
	ID          string
	Name        string
	Description string
	Object      string
	LastUsed    string
}

// AppData holds data needed for the app shell rendering.
type AppData struct {
	Flow    FlowView
	Saved   []SavedView
	Tooltip *selection.Tooltip
	// Status is a one-line note such as the last event.
	Status string
}
