package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds the explorer key bindings.
type keyMap struct {
	Left   key.Binding
	Right  key.Binding
	Up     key.Binding
	Down   key.Binding
	Click  key.Binding
	Mode   key.Binding
	Flow   key.Binding
	Record key.Binding
	Next   key.Binding
	Prev   key.Binding
	Metric key.Binding
	Reset  key.Binding
	Reload key.Binding
	Help   key.Binding
	Quit   key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Left:   key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev step")),
		Right:  key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next step")),
		Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "prev node")),
		Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "next node")),
		Click:  key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "select node")),
		Mode:   key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "cycle mode")),
		Flow:   key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "flow trace node")),
		Record: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "trace next record in node")),
		Next:   key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "trace forward")),
		Prev:   key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "trace back")),
		Metric: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "count/amount")),
		Reset:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "reset")),
		Reload: key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "reload")),
		Help:   key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Click, k.Mode, k.Flow, k.Record, k.Reset, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Left, k.Right, k.Up, k.Down},
		{k.Click, k.Mode, k.Flow, k.Record},
		{k.Next, k.Prev, k.Metric, k.Reset},
		{k.Reload, k.Help, k.Quit},
	}
}
