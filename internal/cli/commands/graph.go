package commands

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapflow/internal/cli/output"
	"github.com/leapstack-labs/leapflow/internal/explorer"
	"github.com/leapstack-labs/leapflow/internal/flowgraph"
	"github.com/leapstack-labs/leapflow/internal/interaction"
	"github.com/leapstack-labs/leapflow/internal/selection"
	"github.com/leapstack-labs/leapflow/pkg/core"
	"github.com/spf13/cobra"
)

// NewGraphCommand creates the graph command.
func NewGraphCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "graph",
		Short: "Build the flow graph and print its nodes and links",
		Long: `Load records from the configured source, build the flow graph and print
every node and link with its projected weight.`,
		Example: `  # Sample data, amount metric
  leapflow graph --sample --metric amount

  # A CSV export, two steps
  leapflow graph --csv deals.csv --path Source,Stage

  # Machine readable
  leapflow graph --sample -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := NewCommandContext(cmd)
			ex, cleanup, err := cc.LoadExplorer(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()
			return renderSnapshot(cc.Renderer, ex.Snapshot())
		},
	}
}

// graphOutput converts a snapshot into its JSON form.
func graphOutput(snap explorer.Snapshot) output.GraphOutput {
	g := snap.Graph
	out := output.GraphOutput{
		Object:      snap.Config.Object,
		Steps:       g.Steps(),
		Metric:      string(snap.Config.MetricType),
		Fingerprint: string(snap.Fingerprint),
		Records:     g.RecordCount(),
		Truncated:   snap.Truncated,
		Mode:        string(snap.State.Mode),
		Nodes:       make([]output.NodeOutput, 0, len(g.Nodes())),
		Links:       make([]output.LinkOutput, 0, len(g.Links())),
	}
	restricted := snap.Highlight.Active.Restricted()

	for _, n := range g.Nodes() {
		no := output.NodeOutput{
			ID:     n.ID,
			Label:  n.Label,
			Step:   n.Step,
			Count:  n.Members.Len(),
			Weight: snap.NodeWeights[n.Key],
			Color:  snap.Colors[n.Key],
		}
		if restricted {
			no.State = snap.Highlight.NodeState(n.Key).String()
		}
		out.Nodes = append(out.Nodes, no)
	}

	weights := make(map[string]float64, len(snap.Weights))
	for _, w := range snap.Weights {
		weights[w.ID] = w.Weight
	}
	for _, l := range g.Links() {
		lo := output.LinkOutput{
			ID:      l.ID,
			Source:  l.Key.Source.ID(),
			Target:  l.Key.Target.ID(),
			Count:   l.Count,
			Amount:  l.Amount,
			Weight:  weights[l.ID],
			Overlay: snap.Highlight.InOverlay(l.Key),
		}
		if restricted {
			lo.State = snap.Highlight.LinkState(l.Key).String()
		}
		out.Links = append(out.Links, lo)
	}

	if _, warn := selection.Resolve(g, snap.State); warn != nil {
		out.Warnings = append(out.Warnings, warn.Error())
	}
	return out
}

// renderSnapshot prints a snapshot in the renderer's effective mode.
func renderSnapshot(r *output.Renderer, snap explorer.Snapshot) error {
	if !snap.Ready {
		return core.ErrNoData
	}
	data := graphOutput(snap)
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(data)
	}

	r.Header(1, "Flow: "+data.Object)
	r.KeyValue("Steps", strings.Join(data.Steps, " → "))
	r.KeyValue("Records", r.Count(data.Records))
	r.KeyValue("Metric", data.Metric)
	r.KeyValue("Mode", interaction.Mode(data.Mode).Label())
	if snap.State.ClickedID != "" {
		r.KeyValue("Selected", snap.State.ClickedID)
	}
	r.KeyValue("Fingerprint", snap.Fingerprint.Short())
	for _, w := range data.Warnings {
		r.Warning(w)
	}
	r.Println()

	restricted := snap.Highlight.Active.Restricted()
	metric := snap.Config.MetricType

	r.Header(2, "Nodes")
	header := []string{"Step", "Node", "Records", "Weight"}
	if restricted {
		header = append(header, "State")
	}
	rows := make([][]string, 0, len(data.Nodes))
	for _, n := range data.Nodes {
		row := []string{
			data.Steps[n.Step],
			r.Swatch(n.Color, n.Label),
			r.Count(n.Count),
			formatWeight(r, metric, n.Weight),
		}
		if restricted {
			row = append(row, n.State)
		}
		rows = append(rows, row)
	}
	r.Table(header, rows, 2, 3)

	r.Header(2, "Links")
	header = []string{"Link", "Records", "Amount", "Weight"}
	if restricted || len(snap.Highlight.Overlay) > 0 {
		header = append(header, "State")
	}
	rows = make([][]string, 0, len(data.Links))
	for _, l := range snap.Graph.Links() {
		lo := findLink(data.Links, l.ID)
		row := []string{
			linkLabel(l),
			r.Count(lo.Count),
			r.Amount(lo.Amount),
			formatWeight(r, metric, lo.Weight),
		}
		if len(header) == 5 {
			state := lo.State
			if lo.Overlay {
				state = "trace"
			}
			row = append(row, state)
		}
		rows = append(rows, row)
	}
	r.Table(header, rows, 1, 2, 3)
	return nil
}

func findLink(links []output.LinkOutput, id string) output.LinkOutput {
	for _, l := range links {
		if l.ID == id {
			return l
		}
	}
	return output.LinkOutput{}
}

func linkLabel(l *flowgraph.Link) string {
	return fmt.Sprintf("%s → %s", l.Key.Source.Value.Label(), l.Key.Target.Value.Label())
}

func formatWeight(r *output.Renderer, metric core.MetricType, w float64) string {
	if metric == core.MetricAmount {
		return r.Amount(w)
	}
	return r.Count(int(w))
}
