package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/leapstack-labs/leapflow/internal/flowgraph"
	"github.com/leapstack-labs/leapflow/internal/insights"
	"github.com/leapstack-labs/leapflow/internal/interaction"
	"github.com/leapstack-labs/leapflow/internal/selection"
	"github.com/leapstack-labs/leapflow/pkg/core"
)

const minColumnWidth = 16

type styles struct {
	title   lipgloss.Style
	muted   lipgloss.Style
	step    lipgloss.Style
	focused lipgloss.Style
	lit     lipgloss.Style
	dimmed  lipgloss.Style
	trace   lipgloss.Style
	err     lipgloss.Style
	column  lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#4e79a7")),
		muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("#8a8a8a")),
		step:    lipgloss.NewStyle().Bold(true).Underline(true),
		focused: lipgloss.NewStyle().Reverse(true),
		lit:     lipgloss.NewStyle().Bold(true),
		dimmed:  lipgloss.NewStyle().Faint(true),
		trace:   lipgloss.NewStyle().Foreground(lipgloss.Color("#f28e2b")).Bold(true),
		err:     lipgloss.NewStyle().Foreground(lipgloss.Color("#e15759")),
		column:  lipgloss.NewStyle().PaddingRight(2),
	}
}

func (m Model) renderHeader() string {
	snap := m.ex.Snapshot()
	title := m.styles.title.Render("LeapFlow · " + snap.Config.Object)
	info := fmt.Sprintf("  %s · %s · %d records", snap.State.Mode.Label(), snap.Config.MetricType, snap.Graph.RecordCount())
	if snap.Truncated {
		info += " (truncated)"
	}
	return title + m.styles.muted.Render(info)
}

// highlight returns the highlight to draw. In AGGREGATE mode without a
// click, the focused node previews its neighborhood.
func (m Model) highlight() selection.Highlight {
	snap := m.ex.Snapshot()
	if snap.State.Mode != interaction.Aggregate || snap.State.ClickedID != "" {
		return snap.Highlight
	}
	if n := m.focused(snap.Graph); n != nil {
		return m.ex.Hover(n.ID)
	}
	return snap.Highlight
}

func (m Model) renderBody() string {
	snap := m.ex.Snapshot()
	g := snap.Graph
	if g.IsEmpty() {
		return m.styles.muted.Render("No records match the configuration.")
	}
	h := m.highlight()

	steps := g.Steps()
	colWidth := minColumnWidth
	if len(steps) > 0 && m.width > 0 {
		colWidth = max(minColumnWidth, m.width/len(steps)-2)
	}

	columns := make([]string, 0, len(steps))
	for step, name := range steps {
		var b strings.Builder
		b.WriteString(m.styles.step.Render(truncate(name, colWidth)))
		b.WriteString("\n")
		for i, n := range g.NodesAt(step) {
			b.WriteString(m.renderNode(n, h, snap.Colors[n.Key], snap.NodeWeights[n.Key], snap.Config.MetricType, colWidth,
				step == m.focusStep && i == m.focusIndex))
			b.WriteString("\n")
		}
		columns = append(columns, m.styles.column.Render(b.String()))
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top, columns...)

	if detail := m.renderDetail(h); detail != "" {
		body += "\n" + detail
	}
	return body
}

func (m Model) renderNode(n *flowgraph.Node, h selection.Highlight, color string, weight float64, metric core.MetricType, width int, focused bool) string {
	marker := lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render("■")
	value := fmt.Sprintf("%d", n.Members.Len())
	if metric == core.MetricAmount {
		value = selection.CompactAmount(weight)
	}
	label := truncate(n.Label, max(1, width-len(value)-3))
	text := fmt.Sprintf("%s %s", label, value)

	style := lipgloss.NewStyle()
	switch {
	case h.NodeState(n.Key) == selection.NodeDimmed:
		style = m.styles.dimmed
	case h.Active.Restricted():
		style = m.styles.lit
	}
	if focused {
		style = style.Inherit(m.styles.focused)
	}
	return marker + " " + style.Render(text)
}

// renderDetail shows the trace, flow KPIs and lit links under the columns.
func (m Model) renderDetail(h selection.Highlight) string {
	snap := m.ex.Snapshot()
	g := snap.Graph
	var lines []string

	switch snap.State.Mode {
	case interaction.RecordTrace:
		if idx, ok := g.RecordIndex(snap.State.RecordID); ok {
			rec := g.Records()[idx]
			parts := make([]string, 0, len(h.Overlay)+1)
			for i, lk := range h.Overlay {
				if i == 0 {
					parts = append(parts, lk.Source.Value.Label())
				}
				parts = append(parts, lk.Target.Value.Label())
			}
			lines = append(lines, m.styles.trace.Render(fmt.Sprintf("Trace %s %s: %s", rec.ID, rec.Name, strings.Join(parts, " → "))))
		} else {
			lines = append(lines, m.styles.muted.Render("Press r on a node to trace one of its records."))
		}
	case interaction.FlowTrace:
		if k, ok := insights.FlowTrace(g, snap.State); ok {
			lines = append(lines, m.styles.trace.Render(fmt.Sprintf("Flow through %s = %s: %d records · %s%% · $%s",
				g.Steps()[k.Step], k.Label, k.TotalRecords, k.SharePct, selection.CompactAmount(k.TotalAmount))))
		} else {
			lines = append(lines, m.styles.muted.Render("Press f on a node to trace everything through it."))
		}
	}

	lit := 0
	for _, l := range g.Links() {
		if h.LinkState(l.Key) == selection.LinkHighlight {
			lit++
		}
	}
	if h.Active.Restricted() || lit > 0 {
		lines = append(lines, m.styles.muted.Render(fmt.Sprintf("%d of %d links lit", lit, len(g.Links()))))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderFooter() string {
	var lines []string
	if n := m.focused(m.ex.Snapshot().Graph); n != nil {
		if tip, err := m.ex.Tooltip(n.ID); err == nil {
			line := tip.Title + "  " + tip.CountLine()
			if s := tip.SampleLine(); s != "" {
				line += "  " + m.styles.muted.Render(s)
			}
			lines = append(lines, line)
		}
	}
	switch {
	case m.err != nil:
		lines = append(lines, m.styles.err.Render(m.err.Error()))
	case m.status != "":
		lines = append(lines, m.styles.muted.Render(m.status))
	}
	lines = append(lines, m.help.View(m.keys))
	return strings.Join(lines, "\n")
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 1 {
		return string(r[:width])
	}
	return string(r[:width-1]) + "…"
}
