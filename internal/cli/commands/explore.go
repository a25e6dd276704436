package commands

import (
	"github.com/leapstack-labs/leapflow/internal/interaction"
	"github.com/leapstack-labs/leapflow/internal/tui"
	"github.com/spf13/cobra"
)

// NewExploreCommand creates the explore command.
func NewExploreCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "explore",
		Short: "Explore the flow graph in the terminal",
		Long: `Open a full-screen terminal view of the flow graph. Move between nodes with
the arrow keys, select nodes, and trace records or flows. Press ? for keys.`,
		Example: `  leapflow explore --sample
  leapflow explore --csv deals.csv --path Source,Stage --metric amount --metric-field Amount`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cc := NewCommandContext(cmd)
			res, cleanup, err := cc.OpenSource(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			ex := cc.NewExplorer(res, interaction.NewBus(32))
			if err := ex.Load(ctx, res.Flow); err != nil {
				return err
			}
			return tui.Run(tui.Config{Explorer: ex, Context: ctx})
		},
	}
}
