package interaction

import (
	"fmt"

	"github.com/leapstack-labs/leapflow/internal/pathmodel"
)

// Event is emitted by a state transition. Shells subscribe to events to
// keep their own controls in sync.
type Event interface {
	// Name is a stable identifier used in logs and SSE payloads.
	Name() string
}

// ModeChanged is emitted when the mode switches.
type ModeChanged struct {
	From Mode `json:"from"`
	To   Mode `json:"to"`
}

// RecordSelected is emitted when the traced record changes.
type RecordSelected struct {
	RecordID string `json:"record_id"`
	Cursor   int    `json:"cursor"`
}

// FlowValueSelected is emitted when the flow step or value changes.
// Value is nil when only the step was chosen; Step is -1 when cleared.
type FlowValueSelected struct {
	Step  int              `json:"step"`
	Value *pathmodel.Value `json:"value,omitempty"`
}

// TraceStepped is emitted when the trace cursor moves.
type TraceStepped struct {
	Cursor int `json:"cursor"`
}

// ElementClicked is emitted when a node or link is toggled.
type ElementClicked struct {
	ID     string `json:"id"`
	Active bool   `json:"active"`
}

// ResetRequested is emitted by Reset.
type ResetRequested struct{}

// RecordOpened asks the shell to navigate to a record.
type RecordOpened struct {
	RecordID string `json:"record_id"`
}

// TableLoaded is emitted when a new record table replaces the old one.
type TableLoaded struct {
	Records int  `json:"records"`
	Steps   int  `json:"steps"`
	Rebuilt bool `json:"rebuilt"`
}

// LayoutChanged is emitted after a resize produced a new layout.
type LayoutChanged struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (ModeChanged) Name() string       { return "mode_changed" }
func (RecordSelected) Name() string    { return "record_selected" }
func (FlowValueSelected) Name() string { return "flow_value_selected" }
func (TraceStepped) Name() string      { return "trace_stepped" }
func (ElementClicked) Name() string    { return "element_clicked" }
func (ResetRequested) Name() string    { return "reset_requested" }
func (RecordOpened) Name() string      { return "record_opened" }
func (TableLoaded) Name() string       { return "table_loaded" }
func (LayoutChanged) Name() string     { return "layout_changed" }

func (e ModeChanged) String() string { return fmt.Sprintf("mode %s -> %s", e.From, e.To) }

// Describe renders an event as one status line.
func Describe(ev Event) string {
	switch e := ev.(type) {
	case nil:
		return "no change"
	case ModeChanged:
		return e.String()
	case RecordSelected:
		if e.RecordID == "" {
			return "record cleared"
		}
		return fmt.Sprintf("record %s, cursor %d", e.RecordID, e.Cursor)
	case FlowValueSelected:
		switch {
		case e.Step < 0:
			return "flow cleared"
		case e.Value == nil:
			return fmt.Sprintf("flow step %d", e.Step)
		}
		return fmt.Sprintf("flow step %d = %s", e.Step, e.Value.Label())
	case TraceStepped:
		return fmt.Sprintf("cursor %d", e.Cursor)
	case ElementClicked:
		if e.Active {
			return "selected " + e.ID
		}
		return "deselected " + e.ID
	case ResetRequested:
		return "reset"
	case RecordOpened:
		return "open record " + e.RecordID
	case TableLoaded:
		return fmt.Sprintf("loaded %d records over %d steps", e.Records, e.Steps)
	case LayoutChanged:
		return fmt.Sprintf("resized to %.0fx%.0f", e.Width, e.Height)
	}
	return ev.Name()
}
