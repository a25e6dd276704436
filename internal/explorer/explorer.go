// Package explorer coordinates the flow-graph engine for one session.
//
// An Explorer owns the current table, graph, layout and selection state.
// Loads run outside the lock and are discarded when a newer load started
// meanwhile. Interaction is ignored until the first table is installed.
package explorer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/leapstack-labs/leapflow/internal/fingerprint"
	"github.com/leapstack-labs/leapflow/internal/flowgraph"
	"github.com/leapstack-labs/leapflow/internal/interaction"
	"github.com/leapstack-labs/leapflow/internal/layout"
	"github.com/leapstack-labs/leapflow/internal/pathmodel"
	"github.com/leapstack-labs/leapflow/internal/selection"
	"github.com/leapstack-labs/leapflow/pkg/core"
)

// ErrSuperseded is returned by Load when a newer load started before this
// one finished. The result was discarded.
var ErrSuperseded = errors.New("load superseded by a newer request")

// DefaultFrameInterval is the resize coalescing window.
const DefaultFrameInterval = 16 * time.Millisecond

// Loader fetches a record table for a configuration.
type Loader interface {
	LoadRecords(ctx context.Context, cfg core.Configuration) (*core.Table, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, cfg core.Configuration) (*core.Table, error)

// LoadRecords implements Loader.
func (f LoaderFunc) LoadRecords(ctx context.Context, cfg core.Configuration) (*core.Table, error) {
	return f(ctx, cfg)
}

// BuilderFactory returns a graph builder for a null-handling policy.
type BuilderFactory func(policy pathmodel.NullHandling, logger *slog.Logger) flowgraph.Builder

// Config configures an Explorer.
type Config struct {
	Loader        Loader
	NewBuilder    BuilderFactory
	Layout        layout.Func
	Width         float64
	Height        float64
	FrameInterval time.Duration
	SampleSize    int
	Bus           *interaction.Bus
	Metrics       *Metrics
	Logger        *slog.Logger
}

// Explorer is safe for concurrent use.
type Explorer struct {
	mu sync.Mutex

	loader     Loader
	newBuilder BuilderFactory
	layoutFn   layout.Func
	frame      time.Duration
	sampleSize int
	metrics    *Metrics
	logger     *slog.Logger

	config     core.Configuration
	loadedHash string
	generation uint64
	lastErr    error

	table     *core.Table
	graph     *flowgraph.Graph
	fp        fingerprint.Fingerprint
	weights   []flowgraph.LinkWeight
	nodeSizes map[flowgraph.NodeKey]float64
	colors    map[flowgraph.NodeKey]string
	laid      layout.Result
	highlight selection.Highlight
	machine   *interaction.Machine

	width, height   float64
	pendingResize   *[2]float64
	resizeScheduled bool
}

// New creates an Explorer with no data.
func New(cfg Config) *Explorer {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.NewBuilder == nil {
		cfg.NewBuilder = flowgraph.NewBuilder
	}
	if cfg.Layout == nil {
		cfg.Layout = layout.Columns
	}
	if cfg.FrameInterval <= 0 {
		cfg.FrameInterval = DefaultFrameInterval
	}
	if cfg.SampleSize <= 0 {
		cfg.SampleSize = selection.DefaultSampleSize
	}
	if cfg.Metrics == nil {
		cfg.Metrics = NewMetrics(nil)
	}
	if cfg.Width <= 0 {
		cfg.Width = 960
	}
	if cfg.Height <= 0 {
		cfg.Height = 540
	}
	return &Explorer{
		loader:     cfg.Loader,
		newBuilder: cfg.NewBuilder,
		layoutFn:   cfg.Layout,
		frame:      cfg.FrameInterval,
		sampleSize: cfg.SampleSize,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger,
		machine:    interaction.NewMachine(cfg.Bus, cfg.Logger),
		width:      cfg.Width,
		height:     cfg.Height,
	}
}

// Bus returns the event bus, possibly nil.
func (e *Explorer) Bus() *interaction.Bus {
	return e.machine.Bus()
}

// Load fetches records for cfg and installs them. An identical
// configuration that already loaded successfully is served from memory.
//
// Errors: *core.ConfigurationError for invalid configuration or records,
// *core.DataUnavailableError when the loader fails, ErrSuperseded when a
// newer load started. In every error case the previous graph stays.
func (e *Explorer) Load(ctx context.Context, cfg core.Configuration) error {
	cfg.ApplyDefaults()
	if err := cfg.Check(); err != nil {
		e.metrics.Loads.WithLabelValues(loadInvalid).Inc()
		return err
	}
	hash := cfg.Hash()

	e.mu.Lock()
	if e.graph != nil && hash == e.loadedHash {
		e.generation++
		e.mu.Unlock()
		e.metrics.Loads.WithLabelValues(loadCached).Inc()
		e.logger.Debug("load served from cache", slog.String("config", hash))
		return nil
	}
	if e.loader == nil {
		e.mu.Unlock()
		return &core.DataUnavailableError{Object: cfg.Object, Err: errors.New("no data source configured")}
	}
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	e.logger.Debug("loading records", slog.String("object", cfg.Object), slog.String("config", hash), slog.Uint64("generation", gen))
	table, err := e.loader.LoadRecords(ctx, cfg)

	e.mu.Lock()
	defer e.mu.Unlock()

	if gen != e.generation {
		e.metrics.Loads.WithLabelValues(loadSuperseded).Inc()
		e.logger.Debug("discarding stale load", slog.Uint64("generation", gen), slog.Uint64("latest", e.generation))
		return ErrSuperseded
	}
	if err != nil {
		var du *core.DataUnavailableError
		if !errors.As(err, &du) && !core.IsConfigurationError(err) {
			err = &core.DataUnavailableError{Object: cfg.Object, Err: err}
		}
		e.lastErr = err
		e.metrics.Loads.WithLabelValues(loadError).Inc()
		e.logger.Warn("load failed", slog.String("object", cfg.Object), slog.String("error", err.Error()))
		return err
	}
	if err := e.installLocked(table, cfg); err != nil {
		e.lastErr = err
		e.metrics.Loads.WithLabelValues(loadError).Inc()
		return err
	}
	e.loadedHash = hash
	e.metrics.Loads.WithLabelValues(loadOK).Inc()
	return nil
}

// Reload fetches the current configuration again even when its hash matches
// the last load, for sources whose data changed underneath.
func (e *Explorer) Reload(ctx context.Context) error {
	e.mu.Lock()
	cfg := e.config
	e.loadedHash = ""
	e.mu.Unlock()
	if cfg.Object == "" {
		return core.ErrNoData
	}
	return e.Load(ctx, cfg)
}

// Install replaces the table directly, bypassing the loader. It supersedes
// any in-flight Load.
func (e *Explorer) Install(table *core.Table, cfg core.Configuration) error {
	cfg.ApplyDefaults()
	if err := cfg.Check(); err != nil {
		e.metrics.Loads.WithLabelValues(loadInvalid).Inc()
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.generation++
	if err := e.installLocked(table, cfg); err != nil {
		e.lastErr = err
		return err
	}
	e.loadedHash = cfg.Hash()
	return nil
}

// installLocked rebuilds when the fingerprint changed and restyles otherwise.
func (e *Explorer) installLocked(table *core.Table, cfg core.Configuration) error {
	if table == nil {
		return &core.DataUnavailableError{Object: cfg.Object, Err: core.ErrNoData}
	}
	fp := fingerprint.Compute(table, cfg.MetricType, cfg.NullHandling)
	if !fingerprint.ShouldRebuild(e.fp, fp) {
		e.config = cfg
		e.table = table
		e.lastErr = nil
		e.projectLocked()
		e.logger.Debug("table unchanged, restyled only", slog.String("fingerprint", fp.Short()))
		return nil
	}

	g, err := e.newBuilder(cfg.NullHandling, e.logger).Build(table)
	if err != nil {
		e.logger.Warn("graph build failed", slog.String("error", err.Error()))
		return err
	}
	e.config = cfg
	e.table = table
	e.lastErr = nil
	e.setGraphLocked(g, fp)
	e.machine.Replace(g.StepCount())
	e.projectLocked()
	e.machine.Publish(interaction.TableLoaded{Records: g.RecordCount(), Steps: g.StepCount(), Rebuilt: true})
	if table.Truncated {
		e.logger.Warn("dataset truncated at limit", slog.Int("limit", cfg.Limit))
	}
	return nil
}

// setGraphLocked swaps in a new graph and everything derived from its
// topology and metric.
func (e *Explorer) setGraphLocked(g *flowgraph.Graph, fp fingerprint.Fingerprint) {
	e.graph = g
	e.fp = fp
	e.weights = flowgraph.Project(g, e.config.MetricType)
	e.nodeSizes = flowgraph.NodeWeights(g, e.config.MetricType)
	e.colors = flowgraph.Colors(g)
	e.layoutLocked()
	e.metrics.Builds.Inc()
	e.metrics.Nodes.Set(float64(len(g.Nodes())))
	e.metrics.Links.Set(float64(len(g.Links())))
	e.logger.Info("graph rebuilt",
		slog.Int("records", g.RecordCount()),
		slog.Int("nodes", len(g.Nodes())),
		slog.Int("links", len(g.Links())),
		slog.String("metric", e.config.MetricType.String()),
		slog.String("fingerprint", fp.Short()))
}

func (e *Explorer) layoutLocked() {
	nodes, links := layout.Inputs(e.graph, e.config.MetricType)
	e.laid = e.layoutFn(nodes, links, e.width, e.height)
	e.metrics.Layouts.Inc()
}

// projectLocked re-runs the highlight projector for the current state.
func (e *Explorer) projectLocked() {
	h, warn := selection.ProjectState(e.graph, e.machine.State())
	if warn != nil {
		e.metrics.Warnings.Inc()
		e.logger.Debug("selection fell back to aggregate view", slog.String("reason", warn.Reason))
	}
	e.highlight = h
	e.metrics.Projections.Inc()
}

// SetMetric switches the layout metric. Thickness changes, so the graph
// is rebuilt and laid out again; the clicked element is cleared while
// the mode and its parameters stay. It supersedes any in-flight Load.
func (e *Explorer) SetMetric(metric core.MetricType) error {
	if metric != core.MetricCount && metric != core.MetricAmount {
		return &core.ConfigurationError{Field: "metric_type", Reason: fmt.Sprintf("unknown metric %q", metric)}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.generation++

	cfg := e.config
	cfg.MetricType = metric
	if e.graph == nil {
		e.config = cfg
		return nil
	}
	fp := fingerprint.Compute(e.table, cfg.MetricType, cfg.NullHandling)
	if !fingerprint.ShouldRebuild(e.fp, fp) {
		return nil
	}
	g, err := e.newBuilder(cfg.NullHandling, e.logger).Build(e.table)
	if err != nil {
		return err
	}
	e.config = cfg
	e.loadedHash = cfg.Hash()
	e.setGraphLocked(g, fp)
	e.machine.ClearClick()
	e.machine.SetStepCount(g.StepCount())
	e.projectLocked()
	return nil
}

// Apply validates an intent and restyles. Before the first table is
// installed intents are ignored and (nil, nil) is returned.
func (e *Explorer) Apply(in interaction.Intent) (interaction.Event, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.graph == nil {
		e.logger.Debug("intent ignored, no data yet", slog.String("intent", in.Kind()))
		return nil, nil
	}
	ev, err := e.machine.Apply(in)
	if err != nil {
		return nil, err
	}
	if ev != nil {
		e.projectLocked()
	}
	return ev, nil
}

// RestoreState replaces the selection state, for sessions resuming.
func (e *Explorer) RestoreState(s interaction.State) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.graph == nil {
		return
	}
	e.machine.Restore(s)
	e.projectLocked()
}

// Hover previews a node's neighborhood. With a clicked element, or for an
// unknown id, the current highlight is returned unchanged.
func (e *Explorer) Hover(id string) selection.Highlight {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.graph == nil || e.machine.State().ClickedID != "" {
		return e.highlight
	}
	if h, ok := selection.Neighborhood(e.graph, id); ok {
		return h
	}
	return e.highlight
}

// Tooltip summarizes the node or link with the given id.
func (e *Explorer) Tooltip(id string) (selection.Tooltip, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.graph == nil {
		return selection.Tooltip{}, core.ErrNoData
	}
	if n, ok := e.graph.NodeByID(id); ok {
		return selection.ForNode(e.graph, n, e.sampleSize), nil
	}
	if l, ok := e.graph.LinkByID(id); ok {
		return selection.ForLink(e.graph, l, e.sampleSize), nil
	}
	return selection.Tooltip{}, fmt.Errorf("no node or link %q", id)
}

// RequestResize records a new viewport size. Requests within one frame
// interval collapse into a single layout pass using the latest size.
func (e *Explorer) RequestResize(width, height float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pendingResize = &[2]float64{width, height}
	if e.resizeScheduled {
		return
	}
	e.resizeScheduled = true
	time.AfterFunc(e.frame, e.FlushResize)
}

// FlushResize applies the most recent pending size, if any. It never
// rebuilds the graph.
func (e *Explorer) FlushResize() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resizeScheduled = false
	if e.pendingResize == nil {
		return
	}
	size := *e.pendingResize
	e.pendingResize = nil
	if size[0] <= 0 || size[1] <= 0 || (size[0] == e.width && size[1] == e.height) {
		return
	}
	e.width, e.height = size[0], size[1]
	if e.graph == nil {
		return
	}
	e.layoutLocked()
	e.projectLocked()
	e.machine.Publish(interaction.LayoutChanged{Width: size[0], Height: size[1]})
}

// Snapshot is an immutable view for rendering surfaces.
type Snapshot struct {
	Ready         bool
	Config        core.Configuration
	Graph         *flowgraph.Graph
	Fingerprint   fingerprint.Fingerprint
	Weights       []flowgraph.LinkWeight
	NodeWeights   map[flowgraph.NodeKey]float64
	Colors        map[flowgraph.NodeKey]string
	Layout        layout.Result
	Highlight     selection.Highlight
	State         interaction.State
	Truncated     bool
	Width, Height float64
	Err           error
}

// Snapshot returns the current view. Ready is false before the first
// successful load.
func (e *Explorer) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := Snapshot{
		Ready:       e.graph != nil,
		Config:      e.config,
		Graph:       e.graph,
		Fingerprint: e.fp,
		Weights:     e.weights,
		NodeWeights: e.nodeSizes,
		Colors:      e.colors,
		Layout:      e.laid,
		Highlight:   e.highlight,
		State:       e.machine.State(),
		Width:       e.width,
		Height:      e.height,
		Err:         e.lastErr,
	}
	if e.table != nil {
		s.Truncated = e.table.Truncated
	}
	return s
}
