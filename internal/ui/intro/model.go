package intro

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/focusflow/internal/theme"
)

// DoneMsg is sent when the tutorial ends, either read through or skipped.
type DoneMsg struct {
	Skipped bool
}

// Steps is the tutorial text, one page per step.
var Steps = []string{
	"Hi! I'm MiniFlow, here to help you get going with FocusFlow.",
	"Organize your tasks by priority. High is red, medium is yellow and low is blue.",
	"Your profile lets you update your name, email and password in a few keystrokes.",
	"Don't forget sub-items! They break a task down, and the task completes itself once they are all done.",
	"Ready? Press enter to start.",
}

// Model is the first-run tutorial.
type Model struct {
	step   int
	width  int
	height int
}

// New creates the tutorial at its first step.
func New(width, height int) Model {
	return Model{width: width, height: height}
}

// Step returns the current page index.
func (m Model) Step() int {
	return m.step
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update advances on enter or space and skips on esc or s.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch k.String() {
	case "enter", " ", "right", "l":
		if m.step < len(Steps)-1 {
			m.step++
			return m, nil
		}
		return m, done(false)
	case "left", "h":
		if m.step > 0 {
			m.step--
		}
		return m, nil
	case "esc", "s":
		return m, done(true)
	}
	return m, nil
}

func done(skipped bool) tea.Cmd {
	return func() tea.Msg { return DoneMsg{Skipped: skipped} }
}

// View renders the current step as a speech bubble.
func (m Model) View() string {
	bubble := theme.BorderStyle.
		Padding(1, 3).
		Width(min(max(m.width-8, 30), 64)).
		Align(lipgloss.Center).
		Render(Steps[m.step])

	button := "Next"
	if m.step == len(Steps)-1 {
		button = "Start"
	}
	footer := theme.HelpStyle.Render(fmt.Sprintf("%d/%d · enter %s · esc skip", m.step+1, len(Steps), button))

	robot := lipgloss.NewStyle().Foreground(theme.ColorTeal).Render("[o_o]")

	return lipgloss.JoinVertical(lipgloss.Center, bubble, "", robot, "", footer)
}

// SetSize updates the screen dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
