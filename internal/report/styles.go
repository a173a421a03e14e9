package report

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Colors match the dashboard palette used elsewhere in the project.
var (
	colorPrimary   = lipgloss.Color("#7C3AED") // Purple
	colorSecondary = lipgloss.Color("#06B6D4") // Cyan
	colorSuccess   = lipgloss.Color("#10B981") // Green
	colorWarning   = lipgloss.Color("#F59E0B") // Amber
	colorError     = lipgloss.Color("#EF4444") // Red
	colorTextMuted = lipgloss.Color("#9CA3AF") // Medium gray
)

const separator = "---------------------------"

// styles holds the rendered styles for one output stream.
type styles struct {
	title   lipgloss.Style
	label   lipgloss.Style
	value   lipgloss.Style
	muted   lipgloss.Style
	ok      lipgloss.Style
	warn    lipgloss.Style
	failure lipgloss.Style
}

// newStyles builds styles bound to r. With plain set, all color is dropped.
func newStyles(r *lipgloss.Renderer, plain bool) styles {
	if plain {
		r.SetColorProfile(termenv.Ascii)
	}
	return styles{
		title:   r.NewStyle().Foreground(colorPrimary).Bold(true),
		label:   r.NewStyle().Foreground(colorTextMuted),
		value:   r.NewStyle().Foreground(colorSecondary),
		muted:   r.NewStyle().Foreground(colorTextMuted),
		ok:      r.NewStyle().Foreground(colorSuccess).Bold(true),
		warn:    r.NewStyle().Foreground(colorWarning).Bold(true),
		failure: r.NewStyle().Foreground(colorError).Bold(true),
	}
}
