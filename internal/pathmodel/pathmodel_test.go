package pathmodel

import (
	"testing"

	"github.com/leapstack-labs/leapflow/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(values map[string]string) core.Record {
	return core.Record{ID: "r", Values: values}
}

func TestValueAt(t *testing.T) {
	r := rec(map[string]string{"Source": "Online", "Stage": ""})

	assert.Equal(t, Known("Online"), ValueAt(r, "Source"))
	assert.Equal(t, Unknown, ValueAt(r, "Stage"), "empty string is absent")
	assert.Equal(t, Unknown, ValueAt(r, "Missing"), "missing key is absent")
}

func TestUnknownSentinel(t *testing.T) {
	assert.Equal(t, Unknown, Value{Unknown: true})
	assert.NotEqual(t, Unknown, Known(""), "sentinel differs from the empty string")
	assert.NotEqual(t, Unknown, Known(UnknownLabel), "sentinel differs from its own label")
	assert.Equal(t, UnknownLabel, Unknown.Label())
	assert.Equal(t, "Won", Known("Won").Label())
}

func TestParseNullHandling(t *testing.T) {
	tests := []struct {
		in      string
		want    NullHandling
		wantErr bool
	}{
		{"", GroupUnknown, false},
		{"group_unknown", GroupUnknown, false},
		{"STOP", Stop, false},
		{" carry_forward ", CarryForward, false},
		{"drop", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseNullHandling(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, core.IsConfigurationError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve(t *testing.T) {
	steps := []string{"A", "B", "C", "D"}
	r := rec(map[string]string{"A": "a", "C": "c"})

	tests := []struct {
		name   string
		policy NullHandling
		rec    core.Record
		want   []Value
	}{
		{
			name:   "group unknown substitutes sentinel",
			policy: GroupUnknown,
			rec:    r,
			want:   []Value{Known("a"), Unknown, Known("c"), Unknown},
		},
		{
			name:   "carry forward repeats previous value",
			policy: CarryForward,
			rec:    r,
			want:   []Value{Known("a"), Known("a"), Known("c"), Known("c")},
		},
		{
			name:   "carry forward starts with sentinel",
			policy: CarryForward,
			rec:    rec(map[string]string{"B": "b"}),
			want:   []Value{Unknown, Known("b"), Known("b"), Known("b")},
		},
		{
			name:   "stop truncates at first gap",
			policy: Stop,
			rec:    r,
			want:   []Value{Known("a")},
		},
		{
			name:   "stop with no gaps keeps full path",
			policy: Stop,
			rec:    rec(map[string]string{"A": "a", "B": "b", "C": "c", "D": "d"}),
			want:   []Value{Known("a"), Known("b"), Known("c"), Known("d")},
		},
		{
			name:   "unrecognized policy falls back to sentinel",
			policy: NullHandling("BOGUS"),
			rec:    r,
			want:   []Value{Known("a"), Unknown, Known("c"), Unknown},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.rec, steps, tt.policy))
		})
	}
}
