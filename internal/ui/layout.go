package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/focusflow/internal/theme"
)

// Layout manages the framed terminal layout dimensions.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	StatusBarHeight int
}

// NewLayout creates a Layout with the given terminal dimensions.
// HeaderHeight and StatusBarHeight default to 1.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		StatusBarHeight: 1,
	}
}

// ContentHeight returns the height available for the main content area,
// accounting for the header and status bar.
func (l Layout) ContentHeight() int {
	h := l.Height - l.HeaderHeight - l.StatusBarHeight
	if h < 0 {
		return 0
	}
	return h
}

// RenderHeader renders the top bar: title on the left, right-aligned
// info (signed-in user, watcher state) on the right.
func (l Layout) RenderHeader(title, right string) string {
	return l.bar(theme.HeaderStyle, title, right)
}

// RenderStatusBar renders the bottom bar with key hints and, when set,
// a transient message on the right.
func (l Layout) RenderStatusBar(hints, message string) string {
	return l.bar(theme.StatusBarStyle, hints, message)
}

// RenderWithFrame composes a full terminal view by vertically joining
// the header, content area, and status bar. Content is padded to the
// available height so the status bar stays at the bottom.
func (l Layout) RenderWithFrame(header, content, statusBar string) string {
	body := lipgloss.NewStyle().Height(l.ContentHeight()).Render(content)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, statusBar)
}

// Center places a block in the middle of the screen, for the auth
// forms and the intro.
func (l Layout) Center(block string) string {
	return lipgloss.Place(l.Width, l.Height, lipgloss.Center, lipgloss.Center, block)
}

func (l Layout) bar(style lipgloss.Style, left, right string) string {
	leftRendered := style.Render(left)
	rightRendered := ""
	if right != "" {
		rightRendered = style.Render(right)
	}

	gap := l.Width - lipgloss.Width(leftRendered) - lipgloss.Width(rightRendered)
	if gap < 0 {
		gap = 0
	}
	filler := lipgloss.NewStyle().
		Width(gap).
		Background(style.GetBackground()).
		Render("")

	return lipgloss.JoinHorizontal(lipgloss.Top, leftRendered, filler, rightRendered)
}
