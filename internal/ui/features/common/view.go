package common

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapflow/internal/explorer"
	"github.com/leapstack-labs/leapflow/internal/flowgraph"
	"github.com/leapstack-labs/leapflow/internal/insights"
	"github.com/leapstack-labs/leapflow/internal/interaction"
	"github.com/leapstack-labs/leapflow/internal/layout"
	"github.com/leapstack-labs/leapflow/internal/selection"
)

// overlayColor strokes the record trace on top of the bands.
const overlayColor = "#f28e2b"

// BuildFlowView turns a snapshot into draw-ready geometry. hl is the
// highlight to show, normally snap.Highlight or a hover preview.
func BuildFlowView(snap explorer.Snapshot, hl selection.Highlight, source string) FlowView {
	v := FlowView{
		Ready:       snap.Ready,
		Source:      source,
		Object:      snap.Config.Object,
		Metric:      snap.Config.MetricType,
		Truncated:   snap.Truncated,
		Limit:       snap.Config.Limit,
		State:       snap.State,
		Width:       snap.Width,
		Height:      snap.Height,
		ModeOptions: insights.ModeOptions(),
	}
	if snap.Err != nil {
		v.Error = snap.Err.Error()
	}
	if !snap.Ready {
		return v
	}

	g := snap.Graph
	v.Records = g.RecordCount()
	v.KPIs = insights.Summarize(g)
	v.RecordOptions = insights.RecordOptions(g)
	v.StepOptions = insights.StepOptions(g)
	if snap.State.FlowStep != nil {
		v.ValueOptions = insights.FlowValueOptions(g, *snap.State.FlowStep)
	}
	if _, warn := selection.Resolve(g, snap.State); warn != nil {
		v.Warning = warn.Error()
	}

	positions := make(map[string]layout.Node, len(snap.Layout.Nodes))
	for _, n := range snap.Layout.Nodes {
		positions[n.ID] = n
	}

	v.Steps = make([]StepLabel, 0, g.StepCount())
	for i, name := range g.Steps() {
		x := 0.0
		for _, n := range g.NodesAt(i) {
			if p, ok := positions[n.ID]; ok {
				x = p.X0
				break
			}
		}
		v.Steps = append(v.Steps, StepLabel{Label: name, X: x})
	}

	for _, n := range g.Nodes() {
		p, ok := positions[n.ID]
		if !ok {
			continue
		}
		count, amount := nodeTotals(g, n)
		v.Nodes = append(v.Nodes, NodeView{
			ID:      n.ID,
			Label:   n.Label,
			Color:   snap.Colors[n.Key],
			Step:    n.Step,
			X:       p.X0,
			Y:       p.Y0,
			W:       p.X1 - p.X0,
			H:       max(p.Y1-p.Y0, 1),
			Opacity: hl.NodeState(n.Key).Opacity(),
			Value:   FormatValue(snap.Config.MetricType, count, amount),
			Clicked: snap.State.ClickedID == n.ID,
		})
	}

	var overlay []LinkView
	for _, pl := range snap.Layout.Links {
		l, ok := g.LinkByID(pl.ID)
		if !ok {
			continue
		}
		src, ok1 := positions[pl.Source]
		dst, ok2 := positions[pl.Target]
		if !ok1 || !ok2 {
			continue
		}
		state := hl.LinkState(l.Key)
		lv := LinkView{
			ID:      l.ID,
			Title:   fmt.Sprintf("%s → %s: %s", l.Key.Source.Value.Label(), l.Key.Target.Value.Label(), FormatValue(snap.Config.MetricType, l.Count, l.Amount)),
			Path:    bandPath(src.X1, pl.Y0, dst.X0, pl.Y1),
			Color:   snap.Colors[l.Key.Source],
			Width:   max(pl.Width, 1),
			Opacity: state.Opacity(),
			State:   state.String(),
			Clicked: snap.State.ClickedID == l.ID,
		}
		v.Links = append(v.Links, lv)
		if hl.InOverlay(l.Key) {
			lv.Overlay = true
			lv.Color = overlayColor
			lv.Width = max(lv.Width/3, 2)
			lv.Opacity = 1
			overlay = append(overlay, lv)
		}
	}
	// Overlay bands draw last so they sit on top.
	v.Links = append(v.Links, overlay...)

	v.Detail = detail(g, snap.State, hl)
	if k, ok := insights.FlowTrace(g, snap.State); ok {
		v.FlowKPIs = &k
	}
	return v
}

// bandPath is a horizontal cubic curve from (x0, y0) to (x1, y1).
func bandPath(x0, y0, x1, y1 float64) string {
	mid := (x0 + x1) / 2
	return fmt.Sprintf("M%s,%s C%s,%s %s,%s %s,%s",
		Ftoa(x0), Ftoa(y0), Ftoa(mid), Ftoa(y0), Ftoa(mid), Ftoa(y1), Ftoa(x1), Ftoa(y1))
}

func nodeTotals(g *flowgraph.Graph, n *flowgraph.Node) (int, float64) {
	records := g.Records()
	amount := 0.0
	for _, ri := range n.Members.Indices() {
		amount += records[ri].Amount
	}
	return n.Members.Len(), amount
}

func detail(g *flowgraph.Graph, s interaction.State, hl selection.Highlight) string {
	switch s.Mode {
	case interaction.RecordTrace:
		idx, ok := g.RecordIndex(s.RecordID)
		if !ok {
			return "Pick a record to trace its path."
		}
		rec := g.Records()[idx]
		labels := make([]string, 0, len(hl.Overlay)+1)
		for i, lk := range hl.Overlay {
			if i == 0 {
				labels = append(labels, lk.Source.Value.Label())
			}
			labels = append(labels, lk.Target.Value.Label())
		}
		return fmt.Sprintf("Trace %s %s: %s", rec.ID, rec.Name, strings.Join(labels, " → "))
	case interaction.FlowTrace:
		k, ok := insights.FlowTrace(g, s)
		if !ok {
			return "Pick a step and a value to trace everything through it."
		}
		return fmt.Sprintf("Flow through %s = %s: %d records, %s%% of all, $%s",
			g.Steps()[k.Step], k.Label, k.TotalRecords, k.SharePct, selection.CompactAmount(k.TotalAmount))
	}
	if s.ClickedID != "" {
		return "Selected " + s.ClickedID
	}
	return ""
}
