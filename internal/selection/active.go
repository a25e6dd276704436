// Package selection computes which records are lit up and projects that
// set onto per-link and per-node display state.
package selection

import (
	"fmt"

	"github.com/leapstack-labs/leapflow/internal/flowgraph"
	"github.com/leapstack-labs/leapflow/internal/interaction"
	"github.com/leapstack-labs/leapflow/pkg/core"
)

// Active is the active record set: either no restriction, or a possibly
// empty set of record indices. An empty restricted set lights nothing.
type Active struct {
	set        *flowgraph.RecordSet
	restricted bool
}

// Unrestricted returns the "no restriction" value.
func Unrestricted() Active { return Active{} }

// Restrict returns an active set limited to set. A nil set is empty.
func Restrict(set *flowgraph.RecordSet) Active {
	if set == nil {
		set = flowgraph.NewRecordSet()
	}
	return Active{set: set, restricted: true}
}

// Restricted reports whether a selection is in effect.
func (a Active) Restricted() bool { return a.restricted }

// Set returns the selected records, or nil when unrestricted.
func (a Active) Set() *flowgraph.RecordSet { return a.set }

// Contains reports whether record i is lit. Every record is lit when unrestricted.
func (a Active) Contains(i int) bool {
	return !a.restricted || a.set.Contains(i)
}

// Lights reports whether a membership set intersects the selection.
func (a Active) Lights(members *flowgraph.RecordSet) bool {
	return !a.restricted || a.set.Intersects(members)
}

// String implements fmt.Stringer.
func (a Active) String() string {
	if !a.restricted {
		return "unrestricted"
	}
	return fmt.Sprintf("%v", a.set.Indices())
}

// ActiveSet resolves the selection, discarding any warning.
func ActiveSet(g *flowgraph.Graph, s interaction.State) Active {
	a, _ := Resolve(g, s)
	return a
}

// Resolve computes the active set with this precedence:
//
//  1. clicked node or link ID, in any mode
//  2. the traced record in RECORD_TRACE
//  3. the (step, value) node in FLOW_TRACE
//  4. no restriction
//
// A parameter that names nothing yields no restriction and a warning.
// The warning is informational; callers log it and carry on.
func Resolve(g *flowgraph.Graph, s interaction.State) (Active, *core.SelectionMiscomputedWarning) {
	if s.ClickedID != "" {
		if n, ok := g.NodeByID(s.ClickedID); ok {
			return Restrict(n.Members), nil
		}
		if l, ok := g.LinkByID(s.ClickedID); ok {
			return Restrict(l.Members), nil
		}
		return Unrestricted(), &core.SelectionMiscomputedWarning{
			Reason: fmt.Sprintf("clicked element %q is not in the graph", s.ClickedID),
		}
	}

	switch s.Mode {
	case interaction.RecordTrace:
		if s.RecordID == "" {
			return Unrestricted(), nil
		}
		ri, ok := g.RecordIndex(s.RecordID)
		if !ok {
			return Unrestricted(), &core.SelectionMiscomputedWarning{
				Reason: fmt.Sprintf("record %q is not in the table", s.RecordID),
			}
		}
		return Restrict(flowgraph.NewRecordSet(ri)), nil

	case interaction.FlowTrace:
		if !s.HasFlowSelection() {
			return Unrestricted(), nil
		}
		key := flowgraph.NodeKey{Step: *s.FlowStep, Value: *s.FlowValue}
		n, ok := g.Node(key)
		if !ok {
			return Unrestricted(), &core.SelectionMiscomputedWarning{
				Reason: fmt.Sprintf("no node %s", key.ID()),
			}
		}
		return Restrict(n.Members), nil
	}

	return Unrestricted(), nil
}
