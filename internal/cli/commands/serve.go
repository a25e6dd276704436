package commands

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"

	"github.com/leapstack-labs/leapflow/internal/cli/config"
	sharedcfg "github.com/leapstack-labs/leapflow/internal/config"
	"github.com/leapstack-labs/leapflow/internal/explorer"
	"github.com/leapstack-labs/leapflow/internal/ui"
	"github.com/leapstack-labs/leapflow/internal/ui/workspace"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

// ServeOptions holds options for the serve command.
type ServeOptions struct {
	Port      int
	Host      string
	NoBrowser bool
	Watch     bool
	Dev       bool
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Explore the flow graph in the browser",
		Long: `Start a local web server with an interactive flow chart.

Every browser session keeps its own selection: click nodes and links,
trace a record step by step, or trace everything through one value.
Saved configurations can be opened, saved and deleted from the page.
Prometheus metrics are served on /metrics.`,
		Example: `  # Serve the embedded sample
  leapflow serve --sample

  # Serve on a custom port without opening a browser
  leapflow serve --port 3000 --no-browser`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Port, "port", 0, "Port to serve on (default: 8765)")
	cmd.Flags().StringVar(&opts.Host, "host", "", "Interface to bind (default: localhost)")
	cmd.Flags().BoolVar(&opts.NoBrowser, "no-browser", false, "Don't auto-open browser")
	cmd.Flags().BoolVar(&opts.Watch, "watch", false, "Reload when the project or data files change")
	cmd.Flags().BoolVar(&opts.Dev, "dev", false, "Enable hot reload of the page")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	ctx := cmd.Context()
	cc := NewCommandContext(cmd)
	logger := cc.Logger

	// Get UI config with defaults
	uiCfg := cc.Cfg.GetUIConfig()

	// CLI flags override config file
	port := uiCfg.Port
	if opts.Port != 0 {
		port = opts.Port
	}
	host := uiCfg.Host
	if opts.Host != "" {
		host = opts.Host
	}
	watch := uiCfg.Watch
	if cmd.Flags().Changed("watch") {
		watch = opts.Watch
	}

	// Resolve the flow once up front so configuration errors fail the command.
	res, cleanup, err := cc.OpenSource(ctx)
	if err != nil {
		return err
	}
	cleanup()

	store, err := cc.OpenStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	project := cc.Cfg.Project()
	project.Flow = res.Flow
	ws, err := workspace.Open(ctx, workspace.Config{
		Project: project,
		Width:   float64(cc.Cfg.Viewport.Width),
		Height:  float64(cc.Cfg.Viewport.Height),
		Metrics: explorer.NewMetrics(reg),
		Logger:  logger,
	})
	if err != nil {
		return err
	}
	defer func() { _ = ws.Close() }()

	secret, err := sessionSecret(uiCfg.SessionSecret)
	if err != nil {
		return err
	}

	configFile := config.GetConfigFileUsed()
	server := ui.NewServer(ui.Config{
		Workspace:     ws,
		Store:         store,
		Host:          host,
		Port:          port,
		Watch:         watch,
		WatchPaths:    watchPaths(configFile, project),
		ConfigFile:    configFile,
		ReloadProject: reloadProject(cmd, configFile),
		SessionSecret: secret,
		Registry:      reg,
		IsDev:         opts.Dev,
		Logger:        logger,
	})

	// Open browser if configured
	if !opts.NoBrowser {
		go openBrowser(server.URL())
	}

	cc.Renderer.Println(fmt.Sprintf("Serving %s from %s on %s", res.Flow.Object, res.Description, server.URL()))
	cc.Renderer.Println(cc.Renderer.Muted("Press Ctrl+C to stop"))

	return server.Serve(ctx)
}

// sessionSecret returns the configured secret, or a random one that lives
// as long as the process.
func sessionSecret(configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// watchPaths lists the files whose change should reload the served flow.
func watchPaths(configFile string, p sharedcfg.ProjectConfig) []string {
	var paths []string
	if configFile != "" {
		paths = append(paths, configFile)
	}
	if p.CSV != "" {
		paths = append(paths, p.CSV)
	}
	if p.Target != nil && p.Target.Path != "" && p.Target.Path != ":memory:" {
		paths = append(paths, p.Target.Path)
	}
	return paths
}

// reloadProject re-reads the project file with the command's flags applied.
func reloadProject(cmd *cobra.Command, configFile string) func() (sharedcfg.ProjectConfig, error) {
	return func() (sharedcfg.ProjectConfig, error) {
		target := ""
		if f := cmd.Flag("target"); f != nil {
			target = f.Value.String()
		}
		cfg, err := config.LoadConfigWithTarget(configFile, target, cmd.Flags())
		if err != nil {
			return sharedcfg.ProjectConfig{}, err
		}
		if err := cfg.ValidateSources(); err != nil {
			return sharedcfg.ProjectConfig{}, err
		}
		config.GetLogger(cmd.Context()).Debug("project reloaded", slog.String("file", configFile))
		return cfg.Project(), nil
	}
}

// openBrowser opens the default browser to the specified URL.
func openBrowser(url string) {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url) //nolint:noctx
	case "linux":
		cmd = exec.Command("xdg-open", url) //nolint:noctx
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url) //nolint:noctx
	default:
		return
	}

	_ = cmd.Start()
}
