package theme

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/focusflow/internal/model"
)

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue   = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorTeal   = lipgloss.AdaptiveColor{Dark: "#4FB3B3", Light: "#308282"}
	ColorGreen  = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed    = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorGray   = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite  = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// Theme names accepted by Apply.
const (
	ThemeDefault = "default"
	ThemeDark    = "dark"
	ThemeLight   = "light"
)

// Apply selects which side of the adaptive colors is rendered. The
// default theme follows the terminal's detected background; dark and
// light force it.
func Apply(name string) error {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", ThemeDefault:
		return nil
	case ThemeDark:
		lipgloss.SetHasDarkBackground(true)
		return nil
	case ThemeLight:
		lipgloss.SetHasDarkBackground(false)
		return nil
	default:
		return fmt.Errorf("unknown theme %q (want %s, %s or %s)", name, ThemeDefault, ThemeDark, ThemeLight)
	}
}

// HeaderStyle is used for top-level section headers and the application title.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorTeal).
	Padding(0, 1)

// StatusBarStyle is used for the bottom status bar.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorSubtle).
	Padding(0, 1)

// DetailPanelStyle wraps the detail view content area.
var DetailPanelStyle = lipgloss.NewStyle().
	Padding(1, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// ListItemStyle is the base style for items in a list.
var ListItemStyle = lipgloss.NewStyle().
	PaddingLeft(2)

// SelectedItemStyle highlights the currently focused list item.
var SelectedItemStyle = lipgloss.NewStyle().
	PaddingLeft(1).
	Bold(true).
	Foreground(ColorTeal).
	Border(lipgloss.NormalBorder(), false, false, false, true).
	BorderForeground(ColorTeal)

// HelpStyle is used for keyboard shortcut hints and help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// BorderStyle provides a standard rounded border for panels.
var BorderStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// ErrorStyle renders inline form and status errors.
var ErrorStyle = lipgloss.NewStyle().Foreground(ColorRed)

// SuccessStyle renders confirmations.
var SuccessStyle = lipgloss.NewStyle().Foreground(ColorGreen)

// PriorityColor returns the color of a priority: high red, medium
// yellow, low blue.
func PriorityColor(p model.Priority) lipgloss.AdaptiveColor {
	switch p {
	case model.PriorityHigh:
		return ColorRed
	case model.PriorityMedium:
		return ColorYellow
	case model.PriorityLow:
		return ColorBlue
	default:
		return ColorGray
	}
}

// PriorityStyle returns a color-coded style for the given priority.
func PriorityStyle(p model.Priority) lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(PriorityColor(p))
}

// CompletionStyle returns the badge style for a task's completion flag.
func CompletionStyle(complete bool) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	if complete {
		return base.Foreground(ColorGreen)
	}
	return base.Foreground(ColorGray)
}
