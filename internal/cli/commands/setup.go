package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/leapflow/internal/cli/config"
	"github.com/leapstack-labs/leapflow/internal/cli/output"
	"github.com/leapstack-labs/leapflow/internal/explorer"
	"github.com/leapstack-labs/leapflow/internal/interaction"
	"github.com/leapstack-labs/leapflow/internal/source"
	"github.com/leapstack-labs/leapflow/internal/state"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer

	// Saved names a saved configuration that replaces the configured flow.
	Saved string
}

// NewCommandContext creates a CommandContext from the loaded configuration.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	cc := &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
	if f := cmd.Flags().Lookup("saved"); f != nil {
		cc.Saved = f.Value.String()
	}
	return cc
}

// getConfig returns the current configuration, or defaults when none was loaded.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return &config.Config{
		StatePath:    config.DefaultStateFile,
		Environment:  config.DefaultEnv,
		OutputFormat: config.DefaultOutput,
		LogLevel:     config.DefaultLogLevel,
	}
}

// OpenSource resolves the configured data source and checks the flow
// configuration against it.
// Returns the source and a cleanup function that must be called (typically via defer).
func (c *CommandContext) OpenSource(ctx context.Context) (*source.Resolved, func(), error) {
	if err := c.Cfg.ValidateSources(); err != nil {
		return nil, nil, err
	}
	if c.Saved != "" {
		if err := c.applySaved(ctx); err != nil {
			return nil, nil, err
		}
	}
	res, err := source.FromProject(ctx, c.Cfg.Project(), c.Logger)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() { _ = res.Close() }

	c.Cfg.Flow = res.Flow
	if err := c.Cfg.ValidateFlow(); err != nil {
		cleanup()
		return nil, nil, err
	}
	return res, cleanup, nil
}

// NewExplorer creates an explorer over a resolved source, sized from the
// configured viewport.
func (c *CommandContext) NewExplorer(res *source.Resolved, bus *interaction.Bus) *explorer.Explorer {
	return explorer.New(explorer.Config{
		Loader: res.Source,
		Width:  float64(c.Cfg.Viewport.Width),
		Height: float64(c.Cfg.Viewport.Height),
		Bus:    bus,
		Logger: c.Logger,
	})
}

// LoadExplorer opens the source, builds the graph and returns a ready explorer.
// Returns the explorer and a cleanup function that must be called (typically via defer).
func (c *CommandContext) LoadExplorer(ctx context.Context) (*explorer.Explorer, func(), error) {
	res, cleanup, err := c.OpenSource(ctx)
	if err != nil {
		return nil, nil, err
	}
	ex := c.NewExplorer(res, nil)
	if err := ex.Load(ctx, res.Flow); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to load %s from %s: %w", res.Flow.Object, res.Description, err)
	}
	if snap := ex.Snapshot(); snap.Truncated {
		c.Renderer.Warning(fmt.Sprintf("dataset truncated at %d records; raise --limit or add --filter", res.Flow.Limit))
	}
	return ex, cleanup, nil
}

// OpenStore opens the saved configuration store, creating its directory.
func (c *CommandContext) OpenStore(ctx context.Context) (*state.SQLiteStore, error) {
	stateDir := filepath.Dir(c.Cfg.StatePath)
	if stateDir != "." && stateDir != "" {
		if err := os.MkdirAll(stateDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
	}
	return state.OpenStore(ctx, c.Cfg.StatePath, c.Logger)
}

// applySaved replaces the configured flow with a saved configuration and
// records that it was opened.
func (c *CommandContext) applySaved(ctx context.Context) error {
	store, err := c.OpenStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	sc, err := getSaved(ctx, store, c.Saved)
	if err != nil {
		return err
	}
	if err := store.Touch(ctx, sc.ID); err != nil {
		c.Logger.Warn("failed to record saved configuration use", slog.String("id", sc.ID), slog.String("error", err.Error()))
	}
	c.Cfg.Flow = sc.Configuration
	c.Logger.Debug("using saved configuration", slog.String("name", sc.Name))
	return nil
}
