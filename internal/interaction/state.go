// Package interaction owns exploration mode, selection parameters and the
// trace cursor. State is a plain value; every transition returns a new
// State together with the Event it produced, or a nil Event for no-ops.
package interaction

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapflow/internal/pathmodel"
	"github.com/leapstack-labs/leapflow/pkg/core"
)

// Mode is the exploration mode.
type Mode string

// Exploration modes.
const (
	Aggregate   Mode = "AGGREGATE"
	RecordTrace Mode = "RECORD_TRACE"
	FlowTrace   Mode = "FLOW_TRACE"
)

// Modes lists every mode in selector order.
var Modes = []Mode{Aggregate, RecordTrace, FlowTrace}

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	switch m {
	case Aggregate, RecordTrace, FlowTrace:
		return true
	}
	return false
}

// Label returns the selector label.
func (m Mode) Label() string {
	switch m {
	case RecordTrace:
		return "Record trace"
	case FlowTrace:
		return "Flow trace"
	default:
		return "Aggregate"
	}
}

// ParseMode accepts mode names case-insensitively, with dashes or
// underscores. The empty string yields Aggregate.
func ParseMode(s string) (Mode, error) {
	norm := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_"))
	switch norm {
	case "":
		return Aggregate, nil
	case "TRACE", "RECORD":
		return RecordTrace, nil
	case "FLOW":
		return FlowTrace, nil
	}
	if m := Mode(norm); m.Valid() {
		return m, nil
	}
	return "", &core.ConfigurationError{Field: "mode", Reason: fmt.Sprintf("unknown mode %q (want AGGREGATE, RECORD_TRACE or FLOW_TRACE)", s)}
}

// State is the serializable selection state.
type State struct {
	Mode Mode `json:"mode"`
	// RecordID is the traced record in RECORD_TRACE.
	RecordID string `json:"record_id,omitempty"`
	// TraceStep is the trace cursor, in [0, MaxCursor(stepCount)].
	TraceStep int `json:"trace_step"`
	// FlowStep and FlowValue select a node in FLOW_TRACE.
	FlowStep  *int             `json:"flow_step,omitempty"`
	FlowValue *pathmodel.Value `json:"flow_value,omitempty"`
	// ClickedID is a node or link ID chosen by direct interaction.
	ClickedID string `json:"clicked_id,omitempty"`
}

// Initial returns the starting state: AGGREGATE with nothing selected.
func Initial() State {
	return State{Mode: Aggregate}
}

// MaxCursor is the last valid trace cursor for a step count.
func MaxCursor(stepCount int) int {
	return max(0, stepCount-2)
}

func clamp(v, stepCount int) int {
	return min(max(v, 0), MaxCursor(stepCount))
}

// HasFlowSelection reports whether both flow step and value are set.
func (s State) HasFlowSelection() bool {
	return s.FlowStep != nil && s.FlowValue != nil
}

// Clamp returns s with the cursor clamped to a new step count.
func (s State) Clamp(stepCount int) State {
	s.TraceStep = clamp(s.TraceStep, stepCount)
	return s
}

// SetMode switches mode. Leaving RECORD_TRACE clears the record and cursor;
// leaving FLOW_TRACE clears step and value. The clicked element is always
// cleared. Selecting the current mode or an invalid one is a no-op.
func (s State) SetMode(m Mode) (State, Event) {
	if !m.Valid() || m == s.Mode {
		return s, nil
	}
	from := s.Mode
	switch from {
	case RecordTrace:
		s.RecordID = ""
		s.TraceStep = 0
	case FlowTrace:
		s.FlowStep = nil
		s.FlowValue = nil
	}
	s.Mode = m
	s.ClickedID = ""
	return s, ModeChanged{From: from, To: m}
}

// SelectRecord sets the traced record and moves the cursor to the last
// step pair so the full path shows. An empty id clears the record.
func (s State) SelectRecord(id string, stepCount int) (State, Event) {
	s.RecordID = id
	if id == "" {
		s.TraceStep = 0
	} else {
		s.TraceStep = MaxCursor(stepCount)
	}
	s.ClickedID = ""
	return s, RecordSelected{RecordID: id, Cursor: s.TraceStep}
}

// SelectFlowStep sets the flow step alone, clearing the value.
func (s State) SelectFlowStep(step int) (State, Event) {
	s.FlowStep = &step
	s.FlowValue = nil
	s.ClickedID = ""
	return s, FlowValueSelected{Step: step}
}

// SelectFlowStepAndValue sets step and value together.
func (s State) SelectFlowStepAndValue(step int, value pathmodel.Value) (State, Event) {
	s.FlowStep = &step
	s.FlowValue = &value
	s.ClickedID = ""
	return s, FlowValueSelected{Step: step, Value: &value}
}

// ClearFlow clears the flow step and value.
func (s State) ClearFlow() (State, Event) {
	if s.FlowStep == nil && s.FlowValue == nil {
		return s, nil
	}
	s.FlowStep = nil
	s.FlowValue = nil
	s.ClickedID = ""
	return s, FlowValueSelected{Step: -1}
}

func (s State) moveCursor(to, stepCount int) (State, Event) {
	if s.Mode != RecordTrace {
		return s, nil
	}
	to = clamp(to, stepCount)
	if to == s.TraceStep {
		return s, nil
	}
	s.TraceStep = to
	return s, TraceStepped{Cursor: to}
}

// TraceNext advances the cursor by one, clamped. No-op outside RECORD_TRACE.
func (s State) TraceNext(stepCount int) (State, Event) {
	return s.moveCursor(s.TraceStep+1, stepCount)
}

// TracePrev moves the cursor back by one, clamped. No-op outside RECORD_TRACE.
func (s State) TracePrev(stepCount int) (State, Event) {
	return s.moveCursor(s.TraceStep-1, stepCount)
}

// TraceReset moves the cursor to 0. No-op outside RECORD_TRACE.
func (s State) TraceReset(stepCount int) (State, Event) {
	return s.moveCursor(0, stepCount)
}

// ClickElement toggles the clicked element. Mode is unchanged.
func (s State) ClickElement(id string) (State, Event) {
	if id == "" || s.ClickedID == id {
		if s.ClickedID == "" {
			return s, nil
		}
		s.ClickedID = ""
		return s, ElementClicked{ID: id, Active: false}
	}
	s.ClickedID = id
	return s, ElementClicked{ID: id, Active: true}
}

// ClearClick drops the clicked element without emitting an event.
func (s State) ClearClick() State {
	s.ClickedID = ""
	return s
}

// Reset returns to the initial state.
func (s State) Reset() (State, Event) {
	return Initial(), ResetRequested{}
}
