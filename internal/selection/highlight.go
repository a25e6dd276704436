package selection

import (
	"github.com/leapstack-labs/leapflow/internal/flowgraph"
	"github.com/leapstack-labs/leapflow/internal/interaction"
	"github.com/leapstack-labs/leapflow/pkg/core"
)

// LinkState is the display state of a link.
type LinkState int

// Link states.
const (
	LinkBase LinkState = iota
	LinkDim
	LinkHighlight
)

// Link opacities used by rendering surfaces.
const (
	BaseOpacity      = 0.35
	DimOpacity       = 0.07
	HighlightOpacity = 0.72
	DimmedNodeAlpha  = 0.2
)

func (s LinkState) String() string {
	switch s {
	case LinkDim:
		return "dim"
	case LinkHighlight:
		return "highlight"
	default:
		return "base"
	}
}

// Opacity returns the stroke opacity for the state.
func (s LinkState) Opacity() float64 {
	switch s {
	case LinkDim:
		return DimOpacity
	case LinkHighlight:
		return HighlightOpacity
	default:
		return BaseOpacity
	}
}

// NodeState is the display state of a node.
type NodeState int

// Node states.
const (
	NodeNormal NodeState = iota
	NodeDimmed
)

func (s NodeState) String() string {
	if s == NodeDimmed {
		return "dimmed"
	}
	return "normal"
}

// Opacity returns the fill opacity for the state.
func (s NodeState) Opacity() float64 {
	if s == NodeDimmed {
		return DimmedNodeAlpha
	}
	return 1
}

// Highlight is the projected display state of a graph.
type Highlight struct {
	Active  Active
	Links   map[flowgraph.LinkKey]LinkState
	Nodes   map[flowgraph.NodeKey]NodeState
	Overlay []flowgraph.LinkKey
}

// LinkState returns the state of a link, LinkBase when unknown.
func (h Highlight) LinkState(key flowgraph.LinkKey) LinkState {
	return h.Links[key]
}

// NodeState returns the state of a node, NodeNormal when unknown.
func (h Highlight) NodeState(key flowgraph.NodeKey) NodeState {
	return h.Nodes[key]
}

// InOverlay reports whether a link is part of the trace overlay.
func (h Highlight) InOverlay(key flowgraph.LinkKey) bool {
	for _, k := range h.Overlay {
		if k == key {
			return true
		}
	}
	return false
}

// Project maps an active set onto every link and node. Without a
// restriction everything is base/normal; otherwise an element is lit when
// its membership set intersects the selection.
func Project(g *flowgraph.Graph, active Active) Highlight {
	h := Highlight{
		Active: active,
		Links:  make(map[flowgraph.LinkKey]LinkState, len(g.Links())),
		Nodes:  make(map[flowgraph.NodeKey]NodeState, len(g.Nodes())),
	}
	for _, l := range g.Links() {
		switch {
		case !active.Restricted():
			h.Links[l.Key] = LinkBase
		case active.Lights(l.Members):
			h.Links[l.Key] = LinkHighlight
		default:
			h.Links[l.Key] = LinkDim
		}
	}
	for _, n := range g.Nodes() {
		if active.Lights(n.Members) {
			h.Nodes[n.Key] = NodeNormal
		} else {
			h.Nodes[n.Key] = NodeDimmed
		}
	}
	return h
}

// Overlay returns the links a single record walks for step pairs
// 0..cursor inclusive, in path order. The result stops early when the
// record's path is shorter or a transition has no link in the graph.
func Overlay(g *flowgraph.Graph, recordIndex, cursor int) []flowgraph.LinkKey {
	path := g.Path(recordIndex)
	var out []flowgraph.LinkKey
	for i := 0; i <= cursor && i+1 < len(path); i++ {
		key := flowgraph.LinkKey{
			Source: flowgraph.NodeKey{Step: i, Value: path[i]},
			Target: flowgraph.NodeKey{Step: i + 1, Value: path[i+1]},
		}
		if _, ok := g.Link(key); !ok {
			break
		}
		out = append(out, key)
	}
	return out
}

// ProjectState resolves the selection for s and projects it, adding the
// trace overlay in RECORD_TRACE. The warning is non-nil when a parameter
// named nothing.
func ProjectState(g *flowgraph.Graph, s interaction.State) (Highlight, *core.SelectionMiscomputedWarning) {
	active, warn := Resolve(g, s)
	h := Project(g, active)
	if s.Mode == interaction.RecordTrace && s.RecordID != "" {
		if ri, ok := g.RecordIndex(s.RecordID); ok {
			h.Overlay = Overlay(g, ri, s.TraceStep)
		}
	}
	return h, warn
}

// Neighborhood previews a hovered node: its incident links are lit, and
// nodes joined to it by a link stay normal. ok is false when the node
// does not exist.
func Neighborhood(g *flowgraph.Graph, nodeID string) (Highlight, bool) {
	center, ok := g.NodeByID(nodeID)
	if !ok {
		return Highlight{}, false
	}
	h := Highlight{
		Active: Restrict(center.Members),
		Links:  make(map[flowgraph.LinkKey]LinkState, len(g.Links())),
		Nodes:  make(map[flowgraph.NodeKey]NodeState, len(g.Nodes())),
	}
	near := map[flowgraph.NodeKey]bool{center.Key: true}
	for _, l := range g.Links() {
		if l.Key.Source == center.Key || l.Key.Target == center.Key {
			h.Links[l.Key] = LinkHighlight
			near[l.Key.Source] = true
			near[l.Key.Target] = true
		} else {
			h.Links[l.Key] = LinkDim
		}
	}
	for _, n := range g.Nodes() {
		if near[n.Key] {
			h.Nodes[n.Key] = NodeNormal
		} else {
			h.Nodes[n.Key] = NodeDimmed
		}
	}
	return h, true
}
