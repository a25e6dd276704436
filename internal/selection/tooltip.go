package selection

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/leapstack-labs/leapflow/internal/flowgraph"
)

// DefaultSampleSize is the number of record names shown in a tooltip.
const DefaultSampleSize = 3

// Tooltip summarizes a membership set for hover display.
type Tooltip struct {
	Title   string   `json:"title"`
	Count   int      `json:"count"`
	Amount  float64  `json:"amount"`
	Percent string   `json:"percent"`
	Samples []string `json:"samples,omitempty"`
	More    int      `json:"more,omitempty"`
}

// TooltipFor summarizes set against the graph's record table. Percent is
// the share of all records with one decimal, "0.0" when the table is empty.
func TooltipFor(g *flowgraph.Graph, set *flowgraph.RecordSet, sampleSize int) Tooltip {
	records := g.Records()
	t := Tooltip{Count: set.Len(), Percent: "0.0"}
	if total := len(records); total > 0 {
		t.Percent = strconv.FormatFloat(100*float64(t.Count)/float64(total), 'f', 1, 64)
	}
	for i, ri := range set.Indices() {
		if ri < 0 || ri >= len(records) {
			continue
		}
		t.Amount += records[ri].Amount
		if i < sampleSize {
			t.Samples = append(t.Samples, records[ri].Name)
		}
	}
	t.More = t.Count - len(t.Samples)
	return t
}

// ForNode builds a tooltip titled with the node label.
func ForNode(g *flowgraph.Graph, n *flowgraph.Node, sampleSize int) Tooltip {
	t := TooltipFor(g, n.Members, sampleSize)
	t.Title = n.Label
	return t
}

// ForLink builds a tooltip titled "source → target".
func ForLink(g *flowgraph.Graph, l *flowgraph.Link, sampleSize int) Tooltip {
	t := TooltipFor(g, l.Members, sampleSize)
	t.Title = l.Key.Source.Value.Label() + " → " + l.Key.Target.Value.Label()
	return t
}

// SampleLine joins the sample names and appends "+K more" when truncated.
func (t Tooltip) SampleLine() string {
	more := ""
	if t.More > 0 {
		more = fmt.Sprintf("+%d more", t.More)
	}
	if len(t.Samples) == 0 {
		return more
	}
	line := strings.Join(t.Samples, ", ")
	if more != "" {
		line += " " + more
	}
	return line
}

// CountLine renders "N records · P% · $A".
func (t Tooltip) CountLine() string {
	return fmt.Sprintf("%d records  ·  %s%%  ·  $%s", t.Count, t.Percent, CompactAmount(t.Amount))
}

// CompactAmount abbreviates thousands and millions: 1.5M, 250K, 900.
func CompactAmount(n float64) string {
	switch {
	case n >= 1e6:
		return strconv.FormatFloat(n/1e6, 'f', 1, 64) + "M"
	case n >= 1e3:
		return strconv.FormatFloat(n/1e3, 'f', 0, 64) + "K"
	default:
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
}
