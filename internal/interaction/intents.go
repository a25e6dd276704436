package interaction

import (
	"errors"
	"fmt"

	"github.com/go-viper/mapstructure/v2"
	"github.com/leapstack-labs/leapflow/internal/pathmodel"
)

// Intent is a typed user request. Intents are validated when applied;
// a malformed intent leaves the state untouched.
type Intent interface {
	// Kind is the wire name used by DecodeIntent.
	Kind() string
	apply(s State, stepCount int) (State, Event, error)
}

// SetModeIntent switches the exploration mode.
type SetModeIntent struct {
	Mode Mode `mapstructure:"mode"`
}

// SelectRecordIntent picks the record to trace. An empty id clears it.
type SelectRecordIntent struct {
	RecordID string `mapstructure:"record_id"`
}

// SelectFlowStepIntent picks a flow step and clears the flow value.
type SelectFlowStepIntent struct {
	Step int `mapstructure:"step"`
}

// SelectFlowValueIntent picks a flow step and value together.
// Unknown selects the missing-value node of the step.
type SelectFlowValueIntent struct {
	Step    int    `mapstructure:"step"`
	Value   string `mapstructure:"value"`
	Unknown bool   `mapstructure:"unknown"`
}

// ClearFlowIntent clears the flow step and value.
type ClearFlowIntent struct{}

// TraceNextIntent advances the trace cursor.
type TraceNextIntent struct{}

// TracePrevIntent moves the trace cursor back.
type TracePrevIntent struct{}

// TraceResetIntent moves the trace cursor to the first step pair.
type TraceResetIntent struct{}

// ClickElementIntent toggles a node or link selection.
type ClickElementIntent struct {
	ID string `mapstructure:"id"`
}

// ResetIntent returns to the initial state.
type ResetIntent struct{}

// OpenRecordIntent asks the shell to navigate to a record.
type OpenRecordIntent struct {
	RecordID string `mapstructure:"record_id"`
}

func (SetModeIntent) Kind() string         { return "set_mode" }
func (SelectRecordIntent) Kind() string    { return "select_record" }
func (SelectFlowStepIntent) Kind() string  { return "select_flow_step" }
func (SelectFlowValueIntent) Kind() string { return "select_flow_value" }
func (ClearFlowIntent) Kind() string       { return "clear_flow" }
func (TraceNextIntent) Kind() string       { return "trace_next" }
func (TracePrevIntent) Kind() string       { return "trace_prev" }
func (TraceResetIntent) Kind() string      { return "trace_reset" }
func (ClickElementIntent) Kind() string    { return "click_element" }
func (ResetIntent) Kind() string           { return "reset" }
func (OpenRecordIntent) Kind() string      { return "open_record" }

// InvalidIntentError reports an intent that cannot be applied.
type InvalidIntentError struct {
	Kind   string
	Reason string
}

func (e *InvalidIntentError) Error() string {
	if e.Kind == "" {
		return "invalid intent: " + e.Reason
	}
	return fmt.Sprintf("invalid %s intent: %s", e.Kind, e.Reason)
}

func checkStep(kind string, step, stepCount int) error {
	if step < 0 || (stepCount > 0 && step >= stepCount) {
		return &InvalidIntentError{Kind: kind, Reason: fmt.Sprintf("step %d outside [0, %d)", step, stepCount)}
	}
	return nil
}

func (i SetModeIntent) apply(s State, _ int) (State, Event, error) {
	if !i.Mode.Valid() {
		return s, nil, &InvalidIntentError{Kind: i.Kind(), Reason: fmt.Sprintf("unknown mode %q", i.Mode)}
	}
	s, ev := s.SetMode(i.Mode)
	return s, ev, nil
}

func (i SelectRecordIntent) apply(s State, stepCount int) (State, Event, error) {
	s, ev := s.SelectRecord(i.RecordID, stepCount)
	return s, ev, nil
}

func (i SelectFlowStepIntent) apply(s State, stepCount int) (State, Event, error) {
	if err := checkStep(i.Kind(), i.Step, stepCount); err != nil {
		return s, nil, err
	}
	s, ev := s.SelectFlowStep(i.Step)
	return s, ev, nil
}

func (i SelectFlowValueIntent) apply(s State, stepCount int) (State, Event, error) {
	if err := checkStep(i.Kind(), i.Step, stepCount); err != nil {
		return s, nil, err
	}
	v := pathmodel.Known(i.Value)
	if i.Unknown {
		v = pathmodel.Unknown
	} else if i.Value == "" {
		return s, nil, &InvalidIntentError{Kind: i.Kind(), Reason: "value is required (set unknown for the missing-value node)"}
	}
	s, ev := s.SelectFlowStepAndValue(i.Step, v)
	return s, ev, nil
}

func (i ClearFlowIntent) apply(s State, _ int) (State, Event, error) {
	s, ev := s.ClearFlow()
	return s, ev, nil
}

func (i TraceNextIntent) apply(s State, stepCount int) (State, Event, error) {
	s, ev := s.TraceNext(stepCount)
	return s, ev, nil
}

func (i TracePrevIntent) apply(s State, stepCount int) (State, Event, error) {
	s, ev := s.TracePrev(stepCount)
	return s, ev, nil
}

func (i TraceResetIntent) apply(s State, stepCount int) (State, Event, error) {
	s, ev := s.TraceReset(stepCount)
	return s, ev, nil
}

func (i ClickElementIntent) apply(s State, _ int) (State, Event, error) {
	if i.ID == "" {
		return s, nil, &InvalidIntentError{Kind: i.Kind(), Reason: "id is required"}
	}
	s, ev := s.ClickElement(i.ID)
	return s, ev, nil
}

func (i ResetIntent) apply(s State, _ int) (State, Event, error) {
	s, ev := s.Reset()
	return s, ev, nil
}

func (i OpenRecordIntent) apply(s State, _ int) (State, Event, error) {
	if i.RecordID == "" {
		return s, nil, &InvalidIntentError{Kind: i.Kind(), Reason: "record_id is required"}
	}
	return s, RecordOpened{RecordID: i.RecordID}, nil
}

// intentKinds maps wire names to constructors.
var intentKinds = map[string]func() any{
	"set_mode":          func() any { return &SetModeIntent{} },
	"select_record":     func() any { return &SelectRecordIntent{} },
	"select_flow_step":  func() any { return &SelectFlowStepIntent{} },
	"select_flow_value": func() any { return &SelectFlowValueIntent{} },
	"clear_flow":        func() any { return &ClearFlowIntent{} },
	"trace_next":        func() any { return &TraceNextIntent{} },
	"trace_prev":        func() any { return &TracePrevIntent{} },
	"trace_reset":       func() any { return &TraceResetIntent{} },
	"click_element":     func() any { return &ClickElementIntent{} },
	"reset":             func() any { return &ResetIntent{} },
	"open_record":       func() any { return &OpenRecordIntent{} },
}

// DecodeIntent builds a typed intent from a loosely shaped payload such as
// decoded JSON or form values. The "type" key names the intent; any other
// key the intent does not declare is rejected.
func DecodeIntent(payload map[string]any) (Intent, error) {
	raw, ok := payload["type"]
	if !ok {
		return nil, &InvalidIntentError{Reason: `missing "type"`}
	}
	kind, ok := raw.(string)
	if !ok {
		return nil, &InvalidIntentError{Reason: fmt.Sprintf(`"type" must be a string, got %T`, raw)}
	}
	ctor, ok := intentKinds[kind]
	if !ok {
		return nil, &InvalidIntentError{Kind: kind, Reason: "unknown intent type"}
	}

	fields := make(map[string]any, len(payload))
	for k, v := range payload {
		if k != "type" {
			fields[k] = v
		}
	}

	target := ctor()
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return nil, fmt.Errorf("creating decoder: %w", err)
	}
	if err := dec.Decode(fields); err != nil {
		return nil, &InvalidIntentError{Kind: kind, Reason: err.Error()}
	}

	switch v := target.(type) {
	case *SetModeIntent:
		m, err := ParseMode(string(v.Mode))
		if err != nil {
			return nil, &InvalidIntentError{Kind: kind, Reason: err.Error()}
		}
		v.Mode = m
		return *v, nil
	case *SelectRecordIntent:
		return *v, nil
	case *SelectFlowStepIntent:
		return *v, nil
	case *SelectFlowValueIntent:
		return *v, nil
	case *ClearFlowIntent:
		return *v, nil
	case *TraceNextIntent:
		return *v, nil
	case *TracePrevIntent:
		return *v, nil
	case *TraceResetIntent:
		return *v, nil
	case *ClickElementIntent:
		return *v, nil
	case *ResetIntent:
		return *v, nil
	case *OpenRecordIntent:
		return *v, nil
	}
	return nil, errors.New("unreachable intent kind " + kind)
}

// IsInvalidIntent reports whether err is or wraps an InvalidIntentError.
func IsInvalidIntent(err error) bool {
	var ie *InvalidIntentError
	return errors.As(err, &ie)
}
