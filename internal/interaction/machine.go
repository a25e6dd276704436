package interaction

import (
	"log/slog"
)

// Machine applies intents to a State and publishes the resulting events.
// It is not safe for concurrent use; callers that share one serialize
// access themselves.
type Machine struct {
	state     State
	stepCount int
	bus       *Bus
	logger    *slog.Logger
}

// NewMachine returns a machine in the initial state. bus may be nil.
func NewMachine(bus *Bus, logger *slog.Logger) *Machine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Machine{state: Initial(), bus: bus, logger: logger}
}

// State returns the current state.
func (m *Machine) State() State { return m.state }

// StepCount returns the step count the cursor is clamped against.
func (m *Machine) StepCount() int { return m.stepCount }

// Bus returns the event bus, possibly nil.
func (m *Machine) Bus() *Bus { return m.bus }

// SetStepCount updates the step count and clamps the cursor.
func (m *Machine) SetStepCount(n int) {
	m.stepCount = n
	m.state = m.state.Clamp(n)
}

// Restore replaces the state, clamping it to the current step count.
// Invalid modes fall back to AGGREGATE.
func (m *Machine) Restore(s State) {
	if !s.Mode.Valid() {
		s.Mode = Aggregate
	}
	m.state = s.Clamp(m.stepCount)
}

// Replace resets the state for a new table without emitting events.
func (m *Machine) Replace(stepCount int) {
	m.stepCount = stepCount
	m.state = Initial()
}

// ClearClick drops the clicked element silently.
func (m *Machine) ClearClick() {
	m.state = m.state.ClearClick()
}

// Apply validates and applies an intent. It returns the emitted event,
// nil when the intent was a no-op.
func (m *Machine) Apply(in Intent) (Event, error) {
	next, ev, err := in.apply(m.state, m.stepCount)
	if err != nil {
		m.logger.Debug("intent rejected", slog.String("intent", in.Kind()), slog.String("error", err.Error()))
		return nil, err
	}
	m.state = next
	if ev != nil {
		m.logger.Debug("intent applied", slog.String("intent", in.Kind()), slog.String("event", ev.Name()))
		m.bus.Publish(ev)
	}
	return ev, nil
}

// Publish forwards an event that did not originate from an intent.
func (m *Machine) Publish(ev Event) {
	m.bus.Publish(ev)
}
