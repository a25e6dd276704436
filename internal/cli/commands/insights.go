package commands

import (
	"strings"

	"github.com/leapstack-labs/leapflow/internal/cli/output"
	"github.com/leapstack-labs/leapflow/internal/insights"
	"github.com/spf13/cobra"
)

// InsightsOutput is the JSON form of the insights command.
type InsightsOutput struct {
	Object   string          `json:"object"`
	Metric   string          `json:"metric"`
	KPIs     insights.KPIs   `json:"kpis"`
	TopPaths []insights.Path `json:"top_paths"`
}

// NewInsightsCommand creates the insights command.
func NewInsightsCommand() *cobra.Command {
	var top int

	cmd := &cobra.Command{
		Use:   "insights",
		Short: "Show KPIs and the most common paths",
		Long: `Show record and amount totals, completion and drop-off rates, and the
most common full paths ranked by the active metric.`,
		Example: `  leapflow insights --sample
  leapflow insights --sample --metric amount --top 5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := NewCommandContext(cmd)
			ex, cleanup, err := cc.LoadExplorer(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			snap := ex.Snapshot()
			data := InsightsOutput{
				Object:   snap.Config.Object,
				Metric:   string(snap.Config.MetricType),
				KPIs:     insights.Summarize(snap.Graph),
				TopPaths: insights.TopPaths(snap.Graph, snap.Config.MetricType, top),
			}
			return renderInsights(cc.Renderer, data)
		},
	}
	cmd.Flags().IntVar(&top, "top", insights.DefaultTopPaths, "Number of top paths to list")
	return cmd
}

func renderInsights(r *output.Renderer, data InsightsOutput) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(data)
	}

	r.Header(1, "Insights: "+data.Object)
	r.KeyValue("Total records", r.Count(data.KPIs.TotalRecords))
	r.KeyValue("Total amount", r.Amount(data.KPIs.TotalAmount))
	r.KeyValue("Average amount", r.Amount(data.KPIs.AvgAmount))
	r.KeyValue("Completion rate", r.Percent(data.KPIs.CompletionRate))
	r.KeyValue("Drop-off rate", r.Percent(data.KPIs.DropOffRate))
	r.Println()

	r.Header(2, "Top paths by "+strings.ToLower(data.Metric))
	if len(data.TopPaths) == 0 {
		r.Println(r.Muted("No records."))
		return nil
	}
	rows := make([][]string, 0, len(data.TopPaths))
	for i, p := range data.TopPaths {
		rows = append(rows, []string{
			r.Count(i + 1),
			strings.Join(p.Labels, " → "),
			r.Count(p.Count),
			r.Amount(p.Amount),
		})
	}
	r.Table([]string{"#", "Path", "Records", "Amount"}, rows, 0, 2, 3)
	return nil
}
