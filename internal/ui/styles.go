package ui

import "github.com/charmbracelet/lipgloss"

// Color palette: a single lime accent against dimmed gray chrome.
const (
	colorLime     = "154"
	colorLimeDim  = "106"
	colorGray     = "245"
	colorDarkGray = "238"
	colorRed      = "196"
)

// Styles holds the lipgloss styles a Renderer paints with.
type Styles struct {
	Header lipgloss.Style
	Stage  lipgloss.Style
	Dim    lipgloss.Style
	Error  lipgloss.Style
	Panel  lipgloss.Style
}

// DefaultStyles returns the colored style set.
func DefaultStyles() Styles {
	return Styles{
		Header: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colorLime)),
		Stage:  lipgloss.NewStyle().Foreground(lipgloss.Color(colorLimeDim)),
		Dim:    lipgloss.NewStyle().Foreground(lipgloss.Color(colorGray)),
		Error:  lipgloss.NewStyle().Foreground(lipgloss.Color(colorRed)),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(colorDarkGray)).
			Padding(0, 1),
	}
}

// NoColorStyles returns an unstyled set, used under NO_COLOR or when
// output isn't a color-capable terminal.
func NoColorStyles() Styles {
	return Styles{
		Header: lipgloss.NewStyle(),
		Stage:  lipgloss.NewStyle(),
		Dim:    lipgloss.NewStyle(),
		Error:  lipgloss.NewStyle(),
		Panel:  lipgloss.NewStyle(),
	}
}

// GetStyles picks DefaultStyles or NoColorStyles per noColor.
func GetStyles(noColor bool) Styles {
	if noColor {
		return NoColorStyles()
	}
	return DefaultStyles()
}
