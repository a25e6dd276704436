// Package insights derives summary figures from a built graph: headline
// KPIs, the most common paths, flow-trace KPIs and selector options.
package insights

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	"github.com/leapstack-labs/leapflow/internal/flowgraph"
	"github.com/leapstack-labs/leapflow/internal/interaction"
	"github.com/leapstack-labs/leapflow/pkg/core"
)

// DefaultTopPaths is the number of paths TopPaths returns by default.
const DefaultTopPaths = 10

// KPIs are the headline figures of a table.
type KPIs struct {
	TotalRecords int     `json:"total_records"`
	TotalAmount  float64 `json:"total_amount"`
	AvgAmount    float64 `json:"avg_amount"`
	// CompletionRate is the percentage of records with a real value at the last step.
	CompletionRate float64 `json:"completion_rate"`
	DropOffRate    float64 `json:"drop_off_rate"`
}

// Summarize computes the KPIs of a graph.
func Summarize(g *flowgraph.Graph) KPIs {
	var k KPIs
	records := g.Records()
	k.TotalRecords = len(records)
	if k.TotalRecords == 0 {
		return k
	}
	last := g.StepCount() - 1
	completed := 0
	for i, r := range records {
		k.TotalAmount += r.Amount
		path := g.Path(i)
		if len(path) == last+1 && !path[last].Unknown {
			completed++
		}
	}
	k.AvgAmount = k.TotalAmount / float64(k.TotalRecords)
	k.CompletionRate = 100 * float64(completed) / float64(k.TotalRecords)
	k.DropOffRate = 100 - k.CompletionRate
	return k
}

// Path is one distinct record path with its totals.
type Path struct {
	Labels []string `json:"labels"`
	Count  int      `json:"count"`
	Amount float64  `json:"amount"`
}

// String joins the labels with arrows.
func (p Path) String() string {
	return strings.Join(p.Labels, " → ")
}

// TopPaths groups records by their full resolved path and returns the
// largest groups under the metric, ties broken by count and then by first
// appearance. limit <= 0 uses DefaultTopPaths.
func TopPaths(g *flowgraph.Graph, metric core.MetricType, limit int) []Path {
	if limit <= 0 {
		limit = DefaultTopPaths
	}
	type group struct {
		Path
		first int
	}
	byKey := make(map[string]*group)
	var groups []*group
	for i, r := range g.Records() {
		values := g.Path(i)
		if len(values) == 0 {
			continue
		}
		labels := make([]string, len(values))
		ids := make([]string, len(values))
		for si, v := range values {
			labels[si] = v.Label()
			ids[si] = flowgraph.NodeKey{Step: si, Value: v}.ID()
		}
		key := strings.Join(ids, "\x00")
		grp, ok := byKey[key]
		if !ok {
			grp = &group{Path: Path{Labels: labels}, first: i}
			byKey[key] = grp
			groups = append(groups, grp)
		}
		grp.Count++
		grp.Amount += r.Amount
	}

	value := func(p Path) float64 {
		if metric == core.MetricAmount {
			return p.Amount
		}
		return float64(p.Count)
	}
	slices.SortStableFunc(groups, func(a, b *group) int {
		if c := cmp.Compare(value(b.Path), value(a.Path)); c != 0 {
			return c
		}
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.first, b.first)
	})

	out := make([]Path, 0, min(limit, len(groups)))
	for _, grp := range groups[:min(limit, len(groups))] {
		out = append(out, grp.Path)
	}
	return out
}

// FlowKPIs summarize the population of one (step, value) node.
type FlowKPIs struct {
	Step         int     `json:"step"`
	Label        string  `json:"label"`
	TotalRecords int     `json:"total_records"`
	TotalAmount  float64 `json:"total_amount"`
	// SharePct is the node's share of all records, one decimal.
	SharePct string `json:"share_pct"`
}

// FlowTrace returns the KPIs of the node selected in FLOW_TRACE.
// ok is false outside FLOW_TRACE or when no such node exists.
func FlowTrace(g *flowgraph.Graph, s interaction.State) (FlowKPIs, bool) {
	if s.Mode != interaction.FlowTrace || !s.HasFlowSelection() {
		return FlowKPIs{}, false
	}
	n, ok := g.Node(flowgraph.NodeKey{Step: *s.FlowStep, Value: *s.FlowValue})
	if !ok {
		return FlowKPIs{}, false
	}
	k := FlowKPIs{Step: n.Step, Label: n.Label, TotalRecords: n.Members.Len(), SharePct: "0.0"}
	records := g.Records()
	for _, ri := range n.Members.Indices() {
		k.TotalAmount += records[ri].Amount
	}
	if total := len(records); total > 0 {
		k.SharePct = strconv.FormatFloat(100*float64(k.TotalRecords)/float64(total), 'f', 1, 64)
	}
	return k, true
}
