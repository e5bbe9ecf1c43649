package help

import (
	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/focusflow/internal/keys"
	"github.com/nhle/focusflow/internal/model"
	"github.com/nhle/focusflow/internal/theme"
)

// Model is the help overlay: key bindings plus a short legend of how
// priorities and progress work.
type Model struct {
	keys   *keys.KeyMap
	help   help.Model
	width  int
	height int
}

// New creates a new help view model.
func New(k *keys.KeyMap, width, height int) Model {
	h := help.New()
	h.Width = width
	h.ShowAll = true
	return Model{
		keys:   k,
		help:   h,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the help view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// View renders the help overlay.
func (m Model) View() string {
	heading := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginTop(1)

	var legend []string
	for _, p := range model.Priorities {
		legend = append(legend, theme.PriorityStyle(p).Render("■ "+p.Label()), "  ")
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		heading.Render("Keyboard Shortcuts"),
		m.help.View(m.keys),
		heading.Render("Priorities"),
		lipgloss.JoinHorizontal(lipgloss.Top, legend...),
		heading.Render("Progress"),
		theme.HelpStyle.Render("A task is complete once all of its sub-items are. Tasks without"),
		theme.HelpStyle.Render("sub-items are marked complete by hand with c in the detail view."),
		heading.Render("Commands"),
		theme.HelpStyle.Render("refresh · new · profile · read · intro · logout · quit"),
	)

	return theme.DetailPanelStyle.
		Width(max(m.width-4, 0)).
		Height(max(m.height-4, 0)).
		Render(content)
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width - 4
}
