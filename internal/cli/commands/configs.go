package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/leapstack-labs/leapflow/internal/cli/output"
	"github.com/leapstack-labs/leapflow/internal/state"
	"github.com/leapstack-labs/leapflow/pkg/core"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewConfigsCommand creates the configs command for saved flow configurations.
func NewConfigsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "configs",
		Aliases: []string{"config"},
		Short:   "Manage saved flow configurations",
		Long: `Save the current flow configuration under a name, list and inspect saved
configurations, and move them between projects as YAML.

Any command can run against a saved configuration with --saved <name>.`,
	}
	cmd.AddCommand(newConfigsSaveCommand())
	cmd.AddCommand(newConfigsListCommand())
	cmd.AddCommand(newConfigsShowCommand())
	cmd.AddCommand(newConfigsDeleteCommand())
	cmd.AddCommand(newConfigsExportCommand())
	cmd.AddCommand(newConfigsImportCommand())
	return cmd
}

// withStore opens the store for the duration of fn.
func withStore(cmd *cobra.Command, fn func(ctx context.Context, cc *CommandContext, store state.Store) error) error {
	ctx := cmd.Context()
	cc := NewCommandContext(cmd)
	store, err := cc.OpenStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	return fn(ctx, cc, store)
}

func newConfigsSaveCommand() *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "save <name>",
		Short: "Save the current flow configuration",
		Example: `  leapflow configs save pipeline --sample --metric amount
  leapflow configs save won-deals --csv deals.csv --path Source,Stage --filter "Stage = Won"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(ctx context.Context, cc *CommandContext, store state.Store) error {
				flow := cc.Cfg.Flow
				if cc.Cfg.Sample || cc.Cfg.CSV != "" {
					res, cleanup, err := cc.OpenSource(ctx)
					if err != nil {
						return err
					}
					cleanup()
					flow = res.Flow
				} else if err := cc.Cfg.ValidateFlow(); err != nil {
					return err
				}

				saved, err := store.Save(ctx, state.SavedConfig{
					Name:          args[0],
					Description:   description,
					Configuration: flow,
				})
				if err != nil {
					return err
				}
				if cc.Renderer.EffectiveMode() == output.ModeJSON {
					return cc.Renderer.JSON(savedOutput(*saved))
				}
				cc.Renderer.Success(fmt.Sprintf("saved %s (%s)", saved.Name, saved.ID))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "Free-form description")
	return cmd
}

func newConfigsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved configurations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd, func(ctx context.Context, cc *CommandContext, store state.Store) error {
				list, err := store.List(ctx)
				if err != nil {
					return err
				}
				r := cc.Renderer
				if r.EffectiveMode() == output.ModeJSON {
					out := make([]output.SavedConfigOutput, 0, len(list))
					for _, sc := range list {
						out = append(out, savedOutput(sc))
					}
					return r.JSON(out)
				}

				r.Header(1, "Saved configurations")
				if len(list) == 0 {
					r.Println(r.Muted("None yet. Save one with 'leapflow configs save <name>'."))
					return nil
				}
				rows := make([][]string, 0, len(list))
				for _, sc := range list {
					o := savedOutput(sc)
					rows = append(rows, []string{o.Name, o.Object, o.Path, o.Metric, o.UpdatedAt})
				}
				r.Table([]string{"Name", "Object", "Path", "Metric", "Updated"}, rows)
				return nil
			})
		},
	}
}

func newConfigsShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id|name>",
		Short: "Show a saved configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(ctx context.Context, cc *CommandContext, store state.Store) error {
				sc, err := getSaved(ctx, store, args[0])
				if err != nil {
					return err
				}
				r := cc.Renderer
				switch r.EffectiveMode() {
				case output.ModeJSON:
					return r.JSON(sc)
				case output.ModeMarkdown:
					r.Header(1, sc.Name)
					if sc.Description != "" {
						r.Println(sc.Description)
						r.Println()
					}
					data, err := yaml.Marshal(sc.Configuration)
					if err != nil {
						return err
					}
					r.Println("```yaml")
					r.Printf("%s", data)
					r.Println("```")
					return nil
				}

				c := sc.Configuration
				r.Header(1, sc.Name)
				r.KeyValue("ID", sc.ID)
				if sc.Description != "" {
					r.KeyValue("Description", sc.Description)
				}
				r.KeyValue("Object", c.Object)
				r.KeyValue("Path", strings.Join(c.PathFields, " → "))
				r.KeyValue("Metric", metricLabel(c))
				r.KeyValue("Null handling", string(c.NullHandling))
				r.KeyValue("Limit", r.Count(c.Limit))
				for _, f := range c.Filters {
					r.KeyValue("Filter", fmt.Sprintf("%s %s %s", f.Field, f.Operator, f.Value))
				}
				return nil
			})
		},
	}
}

func newConfigsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id|name>",
		Short: "Delete a saved configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(ctx context.Context, cc *CommandContext, store state.Store) error {
				if err := store.Delete(ctx, args[0]); err != nil {
					if errors.Is(err, state.ErrNotFound) {
						return notFound(args[0])
					}
					return err
				}
				cc.Renderer.Success("deleted " + args[0])
				return nil
			})
		},
	}
}

func newConfigsExportCommand() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "export [id|name...]",
		Short: "Export saved configurations as YAML",
		Long:  `Export saved configurations as YAML. With no arguments every configuration is exported.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(ctx context.Context, cc *CommandContext, store state.Store) error {
				var w io.Writer = cmd.OutOrStdout()
				if file != "" {
					f, err := os.Create(file)
					if err != nil {
						return fmt.Errorf("failed to create %s: %w", file, err)
					}
					defer func() { _ = f.Close() }()
					w = f
				}
				if err := state.Export(ctx, store, w, args...); err != nil {
					if errors.Is(err, state.ErrNotFound) {
						return fmt.Errorf("%w\nHint: Run 'leapflow configs list' to see saved names", err)
					}
					return err
				}
				if file != "" {
					cc.Renderer.Success("exported to " + file)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Write to a file instead of stdout")
	return cmd
}

func newConfigsImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import saved configurations from a YAML export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(ctx context.Context, cc *CommandContext, store state.Store) error {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open %s: %w", args[0], err)
				}
				defer func() { _ = f.Close() }()

				imported, err := state.Import(ctx, store, f)
				if err != nil {
					return err
				}
				for _, sc := range imported {
					cc.Renderer.Success("imported " + sc.Name)
				}
				return nil
			})
		},
	}
}

func getSaved(ctx context.Context, store state.Store, idOrName string) (*state.SavedConfig, error) {
	sc, err := store.Get(ctx, idOrName)
	if errors.Is(err, state.ErrNotFound) {
		return nil, notFound(idOrName)
	}
	return sc, err
}

func notFound(idOrName string) error {
	return fmt.Errorf("saved configuration %q not found\nHint: Run 'leapflow configs list' to see saved names", idOrName)
}

func savedOutput(sc state.SavedConfig) output.SavedConfigOutput {
	o := output.SavedConfigOutput{
		ID:          sc.ID,
		Name:        sc.Name,
		Description: sc.Description,
		Object:      sc.Configuration.Object,
		Path:        strings.Join(sc.Configuration.PathFields, " → "),
		Metric:      metricLabel(sc.Configuration),
		UpdatedAt:   sc.UpdatedAt.Format("2006-01-02 15:04"),
	}
	if sc.LastOpenedAt != nil {
		o.LastOpenedAt = sc.LastOpenedAt.Format("2006-01-02 15:04")
	}
	return o
}

func metricLabel(c core.Configuration) string {
	if c.MetricType == core.MetricAmount && c.MetricField != "" {
		return fmt.Sprintf("%s(%s)", c.MetricType, c.MetricField)
	}
	return string(c.MetricType)
}
