// Package tui provides the terminal flow explorer.
//
// The model drives an explorer.Explorer from key presses. Every action is
// an interaction intent; the view re-renders from the explorer snapshot and
// the status line follows the explorer's event bus.
//
// The model is single-threaded within the bubbletea event loop.
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/leapstack-labs/leapflow/internal/explorer"
	"github.com/leapstack-labs/leapflow/internal/flowgraph"
	"github.com/leapstack-labs/leapflow/internal/interaction"
	"github.com/leapstack-labs/leapflow/pkg/core"
)

const (
	headerHeight = 2
	footerHeight = 5
)

// Config configures the explorer TUI.
type Config struct {
	// Explorer must already hold a loaded graph.
	Explorer *explorer.Explorer

	// Context bounds reloads (default: context.Background()).
	Context context.Context

	// Width and Height override the terminal size until the first resize.
	Width  int
	Height int
}

// eventMsg carries an event from the explorer bus.
type eventMsg struct {
	ev interaction.Event
}

// reloadedMsg reports the end of a reload.
type reloadedMsg struct {
	err error
}

// Model is the bubbletea model for the flow explorer.
type Model struct {
	ex     *explorer.Explorer
	ctx    context.Context
	events chan interaction.Event

	keys     keyMap
	help     help.Model
	viewport viewport.Model
	styles   styles

	width  int
	height int
	ready  bool

	// Focused node: a step and an index into that step's nodes.
	focusStep  int
	focusIndex int
	// recordCursor cycles through the focused node's records.
	recordCursor int

	status   string
	err      error
	quitting bool
}

// New creates a model over a loaded explorer.
func New(cfg Config) Model {
	ctx := cfg.Context
	if ctx == nil {
		ctx = context.Background()
	}
	m := Model{
		ex:     cfg.Explorer,
		ctx:    ctx,
		keys:   defaultKeyMap(),
		help:   help.New(),
		styles: defaultStyles(),
		width:  cfg.Width,
		height: cfg.Height,
	}
	if bus := cfg.Explorer.Bus(); bus != nil {
		m.events = bus.Subscribe()
	}
	if m.width > 0 && m.height > 0 {
		m.resize(m.width, m.height)
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return waitForEvent(m.events)
}

func waitForEvent(ch chan interaction.Event) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return eventMsg{ev: ev}
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		m.ex.RequestResize(float64(msg.Width), float64(msg.Height))
		return m, nil

	case eventMsg:
		m.status = interaction.Describe(msg.ev)
		m.clampFocus()
		m.refresh()
		return m, waitForEvent(m.events)

	case reloadedMsg:
		m.err = msg.err
		if msg.err == nil {
			m.status = "reloaded"
		}
		m.clampFocus()
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.err = nil
	g := m.ex.Snapshot().Graph

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		if m.events != nil {
			m.ex.Bus().Unsubscribe(m.events)
			m.events = nil
		}
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, m.keys.Left):
		if m.focusStep > 0 {
			m.focusStep--
			m.recordCursor = 0
			m.clampFocus()
		}
	case key.Matches(msg, m.keys.Right):
		if m.focusStep < g.StepCount()-1 {
			m.focusStep++
			m.recordCursor = 0
			m.clampFocus()
		}
	case key.Matches(msg, m.keys.Up):
		if m.focusIndex > 0 {
			m.focusIndex--
			m.recordCursor = 0
		}
	case key.Matches(msg, m.keys.Down):
		if m.focusIndex < len(g.NodesAt(m.focusStep))-1 {
			m.focusIndex++
			m.recordCursor = 0
		}

	case key.Matches(msg, m.keys.Click):
		if n := m.focused(g); n != nil {
			m.apply(interaction.ClickElementIntent{ID: n.ID})
		}
	case key.Matches(msg, m.keys.Mode):
		m.apply(interaction.SetModeIntent{Mode: nextMode(m.ex.Snapshot().State.Mode)})
	case key.Matches(msg, m.keys.Flow):
		if n := m.focused(g); n != nil {
			m.apply(interaction.SetModeIntent{Mode: interaction.FlowTrace})
			m.apply(interaction.SelectFlowValueIntent{Step: n.Step, Value: n.Key.Value.Text, Unknown: n.Key.Value.Unknown})
		}
	case key.Matches(msg, m.keys.Record):
		if n := m.focused(g); n != nil && n.Members.Len() > 0 {
			members := n.Members.Indices()
			rec := g.Records()[members[m.recordCursor%len(members)]]
			m.recordCursor++
			m.apply(interaction.SetModeIntent{Mode: interaction.RecordTrace})
			m.apply(interaction.SelectRecordIntent{RecordID: rec.ID})
		}
	case key.Matches(msg, m.keys.Next):
		m.apply(interaction.TraceNextIntent{})
	case key.Matches(msg, m.keys.Prev):
		m.apply(interaction.TracePrevIntent{})
	case key.Matches(msg, m.keys.Reset):
		m.apply(interaction.ResetIntent{})

	case key.Matches(msg, m.keys.Metric):
		metric := core.MetricAmount
		if m.ex.Snapshot().Config.MetricType == core.MetricAmount {
			metric = core.MetricCount
		}
		if err := m.ex.SetMetric(metric); err != nil {
			m.err = err
		} else {
			m.status = "metric " + string(metric)
		}

	case key.Matches(msg, m.keys.Reload):
		m.status = "reloading..."
		ex, ctx := m.ex, m.ctx
		return m, func() tea.Msg {
			return reloadedMsg{err: ex.Reload(ctx)}
		}

	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	m.refresh()
	return m, nil
}

func (m *Model) apply(in interaction.Intent) {
	if _, err := m.ex.Apply(in); err != nil {
		m.err = err
	}
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	bodyHeight := max(1, height-headerHeight-footerHeight)
	if !m.ready {
		m.viewport = viewport.New(width, bodyHeight)
		m.viewport.YPosition = headerHeight
		m.ready = true
	} else {
		m.viewport.Width = width
		m.viewport.Height = bodyHeight
	}
	m.help.Width = width
	m.refresh()
}

func (m *Model) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderBody())
}

// focused returns the node under the cursor, or nil for an empty graph.
func (m Model) focused(g *flowgraph.Graph) *flowgraph.Node {
	nodes := g.NodesAt(m.focusStep)
	if m.focusIndex < 0 || m.focusIndex >= len(nodes) {
		return nil
	}
	return nodes[m.focusIndex]
}

// clampFocus keeps the cursor on an existing node after the graph changed.
func (m *Model) clampFocus() {
	g := m.ex.Snapshot().Graph
	m.focusStep = min(m.focusStep, max(0, g.StepCount()-1))
	m.focusIndex = min(m.focusIndex, max(0, len(g.NodesAt(m.focusStep))-1))
}

func nextMode(current interaction.Mode) interaction.Mode {
	for i, mode := range interaction.Modes {
		if mode == current {
			return interaction.Modes[(i+1)%len(interaction.Modes)]
		}
	}
	return interaction.Aggregate
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}
	return m.renderHeader() + "\n" + m.viewport.View() + "\n" + m.renderFooter()
}

// Run starts the TUI program and blocks until the user quits.
func Run(cfg Config) error {
	p := tea.NewProgram(New(cfg), tea.WithAltScreen(), tea.WithContext(cfgContext(cfg)))
	_, err := p.Run()
	return err
}

func cfgContext(cfg Config) context.Context {
	if cfg.Context != nil {
		return cfg.Context
	}
	return context.Background()
}
