package output

import "github.com/charmbracelet/lipgloss"

// Colors used across the CLI.
var (
	ColorAccent  = lipgloss.Color("#4e79a7")
	ColorSuccess = lipgloss.Color("#59a14f")
	ColorWarning = lipgloss.Color("#edc948")
	ColorError   = lipgloss.Color("#e15759")
	ColorMuted   = lipgloss.Color("#8a8a8a")
)

// Styles holds the lipgloss styles for one renderer.
type Styles struct {
	renderer *lipgloss.Renderer

	Header    lipgloss.Style
	Subheader lipgloss.Style
	Bold      lipgloss.Style
	Muted     lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
	Highlight lipgloss.Style
	Dimmed    lipgloss.Style
	Box       lipgloss.Style
}

// NewStyles builds styles on a lipgloss renderer so color output follows
// that renderer's profile.
func NewStyles(r *lipgloss.Renderer) *Styles {
	return &Styles{
		renderer:  r,
		Header:    r.NewStyle().Bold(true).Foreground(ColorAccent),
		Subheader: r.NewStyle().Bold(true),
		Bold:      r.NewStyle().Bold(true),
		Muted:     r.NewStyle().Foreground(ColorMuted),
		Success:   r.NewStyle().Foreground(ColorSuccess),
		Warning:   r.NewStyle().Foreground(ColorWarning),
		Error:     r.NewStyle().Foreground(ColorError),
		Highlight: r.NewStyle().Bold(true).Foreground(ColorAccent),
		Dimmed:    r.NewStyle().Faint(true),
		Box: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorAccent).
			Padding(0, 1),
	}
}

// Swatch returns a style in the given hex color.
func (s *Styles) Swatch(hex string) lipgloss.Style {
	return s.renderer.NewStyle().Foreground(lipgloss.Color(hex))
}
