package insights

import (
	"cmp"
	"slices"
	"strconv"

	"github.com/leapstack-labs/leapflow/internal/flowgraph"
	"github.com/leapstack-labs/leapflow/internal/interaction"
)

// Option is one entry of a selector widget.
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
	// Unknown marks the missing-value entry of a flow value selector.
	Unknown bool `json:"unknown,omitempty"`
}

// ModeOptions lists the exploration modes.
func ModeOptions() []Option {
	out := make([]Option, 0, len(interaction.Modes))
	for _, m := range interaction.Modes {
		out = append(out, Option{Label: m.Label(), Value: string(m)})
	}
	return out
}

// RecordOptions lists records as "name (id)" in table order.
func RecordOptions(g *flowgraph.Graph) []Option {
	records := g.Records()
	out := make([]Option, 0, len(records))
	for _, r := range records {
		label := r.ID
		if r.Name != "" {
			label = r.Name + " (" + r.ID + ")"
		}
		out = append(out, Option{Label: label, Value: r.ID})
	}
	return out
}

// StepOptions lists the steps with their index as value.
func StepOptions(g *flowgraph.Graph) []Option {
	steps := g.Steps()
	out := make([]Option, 0, len(steps))
	for i, s := range steps {
		out = append(out, Option{Label: s, Value: strconv.Itoa(i)})
	}
	return out
}

// FlowValueOptions lists the distinct values at a step sorted by label.
// The missing-value node sorts last.
func FlowValueOptions(g *flowgraph.Graph, step int) []Option {
	nodes := g.NodesAt(step)
	out := make([]Option, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, Option{Label: n.Label, Value: n.Key.Value.Text, Unknown: n.Key.Value.Unknown})
	}
	slices.SortFunc(out, func(a, b Option) int {
		if a.Unknown != b.Unknown {
			if a.Unknown {
				return 1
			}
			return -1
		}
		return cmp.Compare(a.Label, b.Label)
	})
	return out
}
