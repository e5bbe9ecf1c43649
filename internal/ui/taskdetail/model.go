package taskdetail

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/focusflow/internal/keys"
	"github.com/nhle/focusflow/internal/model"
	"github.com/nhle/focusflow/internal/theme"
)

// BackMsg signals the parent to navigate back to the list view.
type BackMsg struct{}

// Action names a mutation requested from the detail view.
type Action int

const (
	ActionToggle Action = iota
	ActionAdd
	ActionRemove
	ActionComplete
	ActionEdit
)

// ActionMsg asks the parent to apply an action to the shown task.
type ActionMsg struct {
	Action   Action
	TaskID   string
	Index    int
	Name     string
	Complete bool
}

// Model is the task detail view: task fields plus a cursor over the
// sub-items.
type Model struct {
	task     *model.Task
	cursor   int
	adding   bool
	input    textinput.Model
	bar      progress.Model
	viewport viewport.Model
	keys     *keys.KeyMap
	width    int
	height   int
}

// New creates a new detail view model.
func New(k *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	ti := textinput.New()
	ti.Placeholder = "new sub-item"
	ti.Prompt = "+ "
	ti.Width = width - 8

	return Model{
		viewport: vp,
		input:    ti,
		bar:      progress.New(progress.WithDefaultGradient(), progress.WithWidth(min(width-8, 40))),
		keys:     k,
		width:    width,
		height:   height,
	}
}

// Init returns the initial command for the detail view.
func (m Model) Init() tea.Cmd {
	return nil
}

// Task returns the task on display, or nil.
func (m Model) Task() *model.Task {
	return m.task
}

// Cursor returns the highlighted sub-item index.
func (m Model) Cursor() int {
	return m.cursor
}

// Adding reports whether the new sub-item input has focus.
func (m Model) Adding() bool {
	return m.adding
}

// SetTask shows task, keeping the cursor when the same task is refreshed.
func (m *Model) SetTask(task *model.Task) {
	if task == nil || m.task == nil || m.task.ID != task.ID {
		m.cursor = 0
		m.adding = false
	}
	m.task = task
	if m.task != nil && m.cursor >= len(m.task.SubItems) {
		m.cursor = max(len(m.task.SubItems)-1, 0)
	}
	m.refresh()
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok || m.task == nil {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	if m.adding {
		return m.handleAddKeys(keyMsg)
	}

	task := m.task
	switch {
	case key.Matches(keyMsg, m.keys.Back):
		return m, func() tea.Msg { return BackMsg{} }

	case key.Matches(keyMsg, m.keys.Down):
		if m.cursor < len(task.SubItems)-1 {
			m.cursor++
			m.refresh()
		}
		return m, nil

	case key.Matches(keyMsg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
			m.refresh()
		}
		return m, nil

	case key.Matches(keyMsg, m.keys.Toggle):
		if len(task.SubItems) == 0 {
			return m, nil
		}
		return m, m.emit(ActionMsg{Action: ActionToggle, Index: m.cursor})

	case key.Matches(keyMsg, m.keys.Delete):
		if len(task.SubItems) == 0 {
			return m, nil
		}
		return m, m.emit(ActionMsg{Action: ActionRemove, Index: m.cursor})

	case key.Matches(keyMsg, m.keys.Complete):
		return m, m.emit(ActionMsg{Action: ActionComplete, Complete: !task.Complete})

	case key.Matches(keyMsg, m.keys.Edit):
		return m, m.emit(ActionMsg{Action: ActionEdit})

	case key.Matches(keyMsg, m.keys.AddItem):
		m.adding = true
		m.input.Reset()
		cmd := m.input.Focus()
		m.refresh()
		return m, cmd
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) handleAddKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		name := strings.TrimSpace(m.input.Value())
		m.adding = false
		m.input.Blur()
		m.refresh()
		if name == "" {
			return m, nil
		}
		return m, m.emit(ActionMsg{Action: ActionAdd, Name: name})

	case "esc":
		m.adding = false
		m.input.Blur()
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.refresh()
	return m, cmd
}

func (m Model) emit(action ActionMsg) tea.Cmd {
	action.TaskID = m.task.ID
	return func() tea.Msg { return action }
}

// View renders the detail view.
func (m Model) View() string {
	if m.task == nil {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("No task selected")
	}
	return m.viewport.View()
}

// refresh re-renders the content and scrolls the cursor into view.
func (m *Model) refresh() {
	content, cursorLine := m.renderContent()
	m.viewport.SetContent(content)
	switch {
	case cursorLine < m.viewport.YOffset:
		m.viewport.SetYOffset(cursorLine)
	case cursorLine >= m.viewport.YOffset+m.viewport.Height:
		m.viewport.SetYOffset(cursorLine - m.viewport.Height + 1)
	}
}

// renderContent builds the detail content and reports the line the
// cursor is on.
func (m Model) renderContent() (string, int) {
	if m.task == nil {
		return "", 0
	}
	task := m.task

	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)
	headStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(strings.Repeat("─", max(min(m.width-4, 80), 0)))

	status := "Open"
	if task.Complete {
		status = "Complete"
	}

	lines := []string{
		headStyle.Render(task.Title),
		lipgloss.JoinHorizontal(lipgloss.Top,
			theme.PriorityStyle(task.Priority).Render(task.Priority.Label()),
			"  ",
			theme.CompletionStyle(task.Complete).Render(status),
		),
		"",
		fmt.Sprintf("%s  %s", metaStyle.Render("Created:"), valStyle.Render(task.CreatedAt.Local().Format("2006-01-02 15:04"))),
		fmt.Sprintf("%s  %s", metaStyle.Render("Updated:"), valStyle.Render(task.UpdatedAt.Local().Format("2006-01-02 15:04"))),
		"",
		headStyle.Render("Description"),
		task.Description,
		"",
		separator,
		"",
		fmt.Sprintf("%s %d%%  %s",
			m.bar.ViewAs(float64(task.Progress)/100), task.Progress,
			metaStyle.Render(fmt.Sprintf("%d of %d done", task.CompletedCount(), len(task.SubItems)))),
		"",
		headStyle.Render("Sub-items"),
	}

	cursorLine := len(lines)
	if len(task.SubItems) == 0 {
		lines = append(lines, metaStyle.Italic(true).Render("No sub-items. Press c to mark the task complete."))
	}
	for i, it := range task.SubItems {
		check := "[ ]"
		if it.Complete {
			check = "[x]"
		}
		line := fmt.Sprintf("%s %s", check, it.Name)
		if it.Complete {
			line = lipgloss.NewStyle().Faint(true).Render(line)
		}
		if i == m.cursor {
			cursorLine = len(lines)
			line = theme.SelectedItemStyle.Render(line)
		} else {
			line = theme.ListItemStyle.Render(line)
		}
		lines = append(lines, line)
	}

	if m.adding {
		lines = append(lines, "", m.input.View())
		cursorLine = len(lines) - 1
	}

	return strings.Join(lines, "\n"), cursorLine
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
	m.input.Width = width - 8
	m.bar.Width = min(width-8, 40)
	m.refresh()
}
