package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapflow/internal/cli/output"
	"github.com/leapstack-labs/leapflow/internal/explorer"
	"github.com/leapstack-labs/leapflow/internal/insights"
	"github.com/leapstack-labs/leapflow/internal/interaction"
	"github.com/spf13/cobra"
)

// TraceFlowOptions holds options for the trace flow command.
type TraceFlowOptions struct {
	Step    int
	Value   string
	Unknown bool
}

// NewTraceCommand creates the trace command with its record and flow subcommands.
func NewTraceCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Highlight the path of one record or everything through one node",
	}
	cmd.AddCommand(newTraceRecordCommand())
	cmd.AddCommand(newTraceFlowCommand())
	return cmd
}

func newTraceRecordCommand() *cobra.Command {
	var cursor int

	cmd := &cobra.Command{
		Use:   "record <id>",
		Short: "Trace a single record through the graph",
		Long: `Trace a single record through the graph. The record's links are marked as
the trace overlay; --cursor limits the overlay to the first N+1 transitions,
the way stepping through the trace does in the interactive views.`,
		Example: `  leapflow trace record R004 --sample
  leapflow trace record R004 --sample --cursor 1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := NewCommandContext(cmd)
			ex, cleanup, err := cc.LoadExplorer(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			id := args[0]
			if _, ok := ex.Snapshot().Graph.RecordIndex(id); !ok {
				return fmt.Errorf("record %q not found in %s\nHint: Record ids come from the %s field; run 'leapflow graph' to check the loaded data",
					id, cc.Cfg.Flow.Object, cc.Cfg.Flow.RecordIDField)
			}
			if err := traceRecord(ex, id, cursor, cmd.Flags().Changed("cursor")); err != nil {
				return err
			}
			return renderTrace(cc.Renderer, ex.Snapshot())
		},
	}
	cmd.Flags().IntVar(&cursor, "cursor", 0, "Trace cursor (transition index, clamped to the path)")
	return cmd
}

// traceRecord drives the state machine into RECORD_TRACE for id and moves
// the cursor to the requested position.
func traceRecord(ex *explorer.Explorer, id string, cursor int, withCursor bool) error {
	intents := []interaction.Intent{
		interaction.SetModeIntent{Mode: interaction.RecordTrace},
		interaction.SelectRecordIntent{RecordID: id},
	}
	if withCursor {
		intents = append(intents, interaction.TraceResetIntent{})
		for i := 0; i < cursor; i++ {
			intents = append(intents, interaction.TraceNextIntent{})
		}
	}
	for _, in := range intents {
		if _, err := ex.Apply(in); err != nil {
			return err
		}
	}
	return nil
}

func newTraceFlowCommand() *cobra.Command {
	opts := &TraceFlowOptions{}

	cmd := &cobra.Command{
		Use:   "flow",
		Short: "Trace every record passing through one node",
		Example: `  leapflow trace flow --sample --step 3 --value Declined
  leapflow trace flow --csv deals.csv --path Source,Stage --step 1 --unknown`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.Unknown == (opts.Value != "") {
				return errors.New("exactly one of --value or --unknown is required")
			}
			cc := NewCommandContext(cmd)
			ex, cleanup, err := cc.LoadExplorer(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			if _, err := ex.Apply(interaction.SetModeIntent{Mode: interaction.FlowTrace}); err != nil {
				return err
			}
			if _, err := ex.Apply(interaction.SelectFlowValueIntent{Step: opts.Step, Value: opts.Value, Unknown: opts.Unknown}); err != nil {
				return err
			}
			return renderTrace(cc.Renderer, ex.Snapshot())
		},
	}
	cmd.Flags().IntVar(&opts.Step, "step", 0, "Step index (0-based)")
	cmd.Flags().StringVar(&opts.Value, "value", "", "Value at the step")
	cmd.Flags().BoolVar(&opts.Unknown, "unknown", false, "Select the Unknown node of the step")
	_ = cmd.MarkFlagRequired("step")
	return cmd
}

// renderTrace prints the trace summary and then the highlighted graph.
func renderTrace(r *output.Renderer, snap explorer.Snapshot) error {
	if r.EffectiveMode() == output.ModeJSON {
		return renderSnapshot(r, snap)
	}
	g := snap.Graph

	switch snap.State.Mode {
	case interaction.RecordTrace:
		idx, ok := g.RecordIndex(snap.State.RecordID)
		if ok {
			rec := g.Records()[idx]
			labels := make([]string, 0, g.StepCount())
			for _, v := range g.Path(idx) {
				labels = append(labels, v.Label())
			}
			r.Header(1, fmt.Sprintf("Record %s", rec.ID))
			if rec.Name != "" {
				r.KeyValue("Name", rec.Name)
			}
			r.KeyValue("Path", strings.Join(labels, " → "))
			r.KeyValue("Cursor", fmt.Sprintf("%d of %d", snap.State.TraceStep, interaction.MaxCursor(g.StepCount())))
			r.Println()
		}
	case interaction.FlowTrace:
		if kpis, ok := insights.FlowTrace(g, snap.State); ok {
			r.Header(1, fmt.Sprintf("Flow through %s = %s", g.Steps()[kpis.Step], kpis.Label))
			r.KeyValue("Records", r.Count(kpis.TotalRecords))
			r.KeyValue("Amount", r.Amount(kpis.TotalAmount))
			r.KeyValue("Share", kpis.SharePct+"%")
			r.Println()
		}
	}
	return renderSnapshot(r, snap)
}
