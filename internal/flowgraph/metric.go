package flowgraph

import (
	"math"

	"github.com/leapstack-labs/leapflow/pkg/core"
)

// MinWeight is the smallest layout weight a link or node receives, so
// zero-volume flows stay visible as thin lines.
const MinWeight = 1.0

// LinkWeight is the layout thickness of one link under a metric.
type LinkWeight struct {
	Key    LinkKey
	ID     string
	Weight float64
}

// Value returns the raw metric value of a link without the floor.
func (l *Link) Value(metric core.MetricType) float64 {
	if metric == core.MetricAmount {
		return l.Amount
	}
	return float64(l.Count)
}

func floor(v float64) float64 {
	if v <= 0 || math.IsNaN(v) {
		return MinWeight
	}
	return v
}

// Project returns one weight per link in link order.
// Membership sets and raw count/amount are untouched.
func Project(g *Graph, metric core.MetricType) []LinkWeight {
	links := g.Links()
	out := make([]LinkWeight, 0, len(links))
	for _, l := range links {
		out = append(out, LinkWeight{Key: l.Key, ID: l.ID, Weight: floor(l.Value(metric))})
	}
	return out
}

// NodeWeights sizes each node as the larger of its incoming and outgoing
// weight sums, floored at MinWeight.
func NodeWeights(g *Graph, metric core.MetricType) map[NodeKey]float64 {
	in := make(map[NodeKey]float64)
	out := make(map[NodeKey]float64)
	for _, lw := range Project(g, metric) {
		out[lw.Key.Source] += lw.Weight
		in[lw.Key.Target] += lw.Weight
	}
	weights := make(map[NodeKey]float64, len(g.Nodes()))
	for _, n := range g.Nodes() {
		weights[n.Key] = floor(max(in[n.Key], out[n.Key]))
	}
	return weights
}
