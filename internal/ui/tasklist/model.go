package tasklist

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/focusflow/internal/keys"
	"github.com/nhle/focusflow/internal/model"
	"github.com/nhle/focusflow/internal/store"
	"github.com/nhle/focusflow/internal/tasks"
	"github.com/nhle/focusflow/internal/theme"
)

// SelectedTaskMsg is sent when a user selects a task to view details.
type SelectedTaskMsg struct {
	TaskID string
}

// FilterChangedMsg asks the owner of the watcher to apply a new filter.
type FilterChangedMsg struct {
	Filter store.TaskFilter
}

// sortModes defines the available sort modes cycled by Tab.
var sortModes = []string{
	"updated_at",
	"priority",
	"title",
	"progress",
	"created_at",
}

// Model is the main task list view component. It does not load tasks
// itself: snapshots arrive through SetTasks.
type Model struct {
	list        list.Model
	keys        *keys.KeyMap
	filter      store.TaskFilter
	sortIndex   int
	searchMode  bool
	searchInput textinput.Model
	summary     tasks.Summary
	width       int
	height      int
}

// New creates a new task list model.
func New(k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, NewItemDelegate(), width, height-2)
	l.Title = "Tasks"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	si := textinput.New()
	si.Placeholder = "search tasks..."
	si.Prompt = "/ "
	si.Width = width - 4

	return Model{
		list:        l,
		keys:        k,
		filter:      DefaultFilter(),
		searchInput: si,
		width:       width,
		height:      height,
	}
}

// DefaultFilter is the filter the list starts with: most recently
// updated first.
func DefaultFilter() store.TaskFilter {
	return store.TaskFilter{SortBy: sortModes[0], SortDesc: true}
}

// Filter returns the list's current filter.
func (m Model) Filter() store.TaskFilter {
	return m.filter
}

// Searching reports whether the search input has focus.
func (m Model) Searching() bool {
	return m.searchMode
}

// SetTasks replaces the list content with a new snapshot.
func (m *Model) SetTasks(snapshot []model.Task) tea.Cmd {
	items := make([]list.Item, len(snapshot))
	for i, task := range snapshot {
		items[i] = TaskItem{Task: task}
	}
	m.summary = tasks.Summarize(snapshot)
	m.list.Title = fmt.Sprintf("Tasks  %d/%d done  avg %d%%",
		m.summary.Completed, m.summary.Total, m.summary.AverageProgress)
	return m.list.SetItems(items)
}

// Selected returns the highlighted task, if any.
func (m Model) Selected() (model.Task, bool) {
	item, ok := m.list.SelectedItem().(TaskItem)
	if !ok {
		return model.Task{}, false
	}
	return item.Task, true
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the task list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if m.searchMode {
			return m.handleSearchKeys(msg)
		}
		return m.handleNormalKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// handleSearchKeys processes key input while in search mode.
func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchMode = false
		query := m.searchInput.Value()
		if query != "" {
			m.filter.Query = &query
		} else {
			m.filter.Query = nil
		}
		return m, m.filterChanged()

	case "esc":
		m.searchMode = false
		m.searchInput.Reset()
		m.filter.Query = nil
		return m, m.filterChanged()
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

// handleNormalKeys processes key input in normal (non-search) mode.
func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Select):
		task, ok := m.Selected()
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg {
			return SelectedTaskMsg{TaskID: task.ID}
		}

	case key.Matches(msg, m.keys.Search):
		m.searchMode = true
		m.searchInput.Reset()
		cmd := m.searchInput.Focus()
		return m, cmd

	case key.Matches(msg, m.keys.CycleSort):
		m.sortIndex = (m.sortIndex + 1) % len(sortModes)
		m.filter.SortBy = sortModes[m.sortIndex]
		// Urgent and alphabetical orders read top-down; the rest newest first.
		m.filter.SortDesc = m.filter.SortBy != "priority" && m.filter.SortBy != "title"
		return m, m.filterChanged()
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) filterChanged() tea.Cmd {
	filter := m.filter
	return func() tea.Msg {
		return FilterChangedMsg{Filter: filter}
	}
}

// SortLabel names the active sort mode for the status bar.
func (m Model) SortLabel() string {
	return "sort: " + m.filter.SortBy
}

// View renders the task list view.
func (m Model) View() string {
	if m.searchMode {
		searchBar := lipgloss.NewStyle().
			Foreground(theme.ColorWhite).
			Padding(0, 1).
			Render(m.searchInput.View())
		return lipgloss.JoinVertical(lipgloss.Left, searchBar, m.list.View())
	}

	if len(m.list.Items()) == 0 {
		return m.renderEmptyState()
	}

	return m.list.View()
}

// renderEmptyState shows guidance text when no tasks are available.
func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if m.filter.Query != nil {
		return style.Render("No matching tasks.\nPress / then enter an empty search to clear it.")
	}

	return style.Render("No tasks yet.\n\nPress n to create your first task.")
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
	m.searchInput.Width = width - 4
}
