// Package layout defines the contract of the geometric layout routine and
// ships a plain column layout. Placement quality is not a goal here;
// surfaces that want a real Sankey layout plug in their own Func.
package layout

import (
	"github.com/leapstack-labs/leapflow/internal/flowgraph"
	"github.com/leapstack-labs/leapflow/pkg/core"
)

// NodeInput is a node projected for layout.
type NodeInput struct {
	ID    string
	Step  int
	Value float64
}

// LinkInput is a link projected for layout.
type LinkInput struct {
	ID     string
	Source string
	Target string
	Value  float64
}

// Node is a positioned node rectangle.
type Node struct {
	ID     string  `json:"id"`
	X0     float64 `json:"x0"`
	Y0     float64 `json:"y0"`
	X1     float64 `json:"x1"`
	Y1     float64 `json:"y1"`
	Column int     `json:"column"`
}

// Link is a positioned band between two nodes.
type Link struct {
	ID     string  `json:"id"`
	Source string  `json:"source"`
	Target string  `json:"target"`
	Y0     float64 `json:"y0"`
	Y1     float64 `json:"y1"`
	Width  float64 `json:"width"`
}

// Result is the layout output.
type Result struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Nodes  []Node  `json:"nodes"`
	Links  []Link  `json:"links"`
}

// NodeByID returns the positioned node with the given ID.
func (r Result) NodeByID(id string) (Node, bool) {
	for _, n := range r.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Func positions nodes and links inside a width x height viewport.
// It must be pure: the same input yields the same result.
type Func func(nodes []NodeInput, links []LinkInput, width, height float64) Result

// Inputs projects a graph into layout inputs under a metric.
func Inputs(g *flowgraph.Graph, metric core.MetricType) ([]NodeInput, []LinkInput) {
	nodeWeights := flowgraph.NodeWeights(g, metric)
	nodes := make([]NodeInput, 0, len(g.Nodes()))
	for _, n := range g.Nodes() {
		nodes = append(nodes, NodeInput{ID: n.ID, Step: n.Step, Value: nodeWeights[n.Key]})
	}
	weights := flowgraph.Project(g, metric)
	links := make([]LinkInput, 0, len(weights))
	for _, w := range weights {
		links = append(links, LinkInput{
			ID:     w.ID,
			Source: w.Key.Source.ID(),
			Target: w.Key.Target.ID(),
			Value:  w.Weight,
		})
	}
	return nodes, links
}
