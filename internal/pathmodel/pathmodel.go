// Package pathmodel turns a record's field values into per-step values.
// It owns the "unknown" sentinel and the null-handling strategies.
package pathmodel

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapflow/pkg/core"
)

// NullHandling is an alias for core.NullHandling.
type NullHandling = core.NullHandling

// Null handling strategies, re-exported from core.
const (
	GroupUnknown = core.GroupUnknown
	Stop         = core.Stop
	CarryForward = core.CarryForward
)

// UnknownLabel is the display form of the sentinel.
const UnknownLabel = "Unknown"

// Value is a step value: either real text or the unknown sentinel.
// Value is comparable; the sentinel equals itself and differs from every
// real value, including the empty string.
type Value struct {
	Text    string `json:"text,omitempty"`
	Unknown bool   `json:"unknown,omitempty"`
}

// Unknown is the shared missing-value sentinel.
var Unknown = Value{Unknown: true}

// Known wraps a real value.
func Known(text string) Value {
	return Value{Text: text}
}

// Label returns the display form.
func (v Value) Label() string {
	if v.Unknown {
		return UnknownLabel
	}
	return v.Text
}

// String implements fmt.Stringer.
func (v Value) String() string {
	if v.Unknown {
		return "<unknown>"
	}
	return v.Text
}

// ValueAt returns the value a record holds for a step column.
// Absent and empty values map to the sentinel.
func ValueAt(rec core.Record, column string) Value {
	if v, ok := rec.Value(column); ok {
		return Known(v)
	}
	return Unknown
}

// ParseNullHandling converts a user string into a NullHandling.
// The empty string yields GroupUnknown.
func ParseNullHandling(s string) (NullHandling, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", string(GroupUnknown):
		return GroupUnknown, nil
	case string(Stop):
		return Stop, nil
	case string(CarryForward):
		return CarryForward, nil
	default:
		return "", &core.ConfigurationError{
			Field:  "null_handling",
			Reason: fmt.Sprintf("unknown strategy %q (want GROUP_UNKNOWN, STOP or CARRY_FORWARD)", s),
		}
	}
}

// Resolve returns the path a record walks through the given steps.
//
// GroupUnknown yields one value per step with the sentinel for absent values.
// CarryForward repeats the previous value over gaps (sentinel at step 0).
// Stop ends the path before the first absent value, so the result may be
// shorter than steps. Unrecognized policies behave like GroupUnknown.
func Resolve(rec core.Record, steps []string, policy NullHandling) []Value {
	path := make([]Value, 0, len(steps))
	for i, col := range steps {
		v := ValueAt(rec, col)
		if v.Unknown {
			switch policy {
			case Stop:
				return path
			case CarryForward:
				if i > 0 {
					v = path[i-1]
				}
			}
		}
		path = append(path, v)
	}
	return path
}
