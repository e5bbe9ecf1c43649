package taskform

import (
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/focusflow/internal/model"
	"github.com/nhle/focusflow/internal/tasks"
	"github.com/nhle/focusflow/internal/theme"
)

// TaskCreatedMsg is dispatched when the create form is submitted.
type TaskCreatedMsg struct {
	Input tasks.CreateInput
}

// TaskUpdatedMsg is dispatched when the edit form is submitted.
type TaskUpdatedMsg struct {
	TaskID string
	Input  tasks.DetailsInput
}

// CancelMsg is dispatched when the user aborts the form.
type CancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	title       string
	description string
	priority    model.Priority
	subItems    string
}

// Model is the Bubble Tea model for the task create/edit form.
type Model struct {
	form     *huh.Form
	fb       *formBindings
	editMode bool
	editID   string
	width    int
	height   int
}

// New creates a new task form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{priority: model.PriorityMedium},
		width:  width,
		height: height,
	}
}

// StartCreate initializes the form for a new task.
func (m *Model) StartCreate() tea.Cmd {
	m.editMode = false
	m.editID = ""
	*m.fb = formBindings{priority: model.PriorityMedium}
	m.form = m.build(true)
	return m.form.Init()
}

// StartEdit initializes the form with an existing task's details. Sub-items
// are edited from the detail view.
func (m *Model) StartEdit(task model.Task) tea.Cmd {
	m.editMode = true
	m.editID = task.ID
	*m.fb = formBindings{
		title:       task.Title,
		description: task.Description,
		priority:    task.Priority,
	}
	if !m.fb.priority.Valid() {
		m.fb.priority = model.PriorityMedium
	}
	m.form = m.build(false)
	return m.form.Init()
}

// Update handles messages for the task form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		return m, m.handleSubmit()
	case huh.StateAborted:
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// View renders the task form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleText := "New Task"
	if m.editMode {
		titleText = "Edit Task"
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := titleStyle.Render(titleText) + "\n" + m.form.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) build(withSubItems bool) *huh.Form {
	opts := make([]huh.Option[model.Priority], len(model.Priorities))
	for i, p := range model.Priorities {
		opts[i] = huh.NewOption(p.Label(), p)
	}

	fields := []huh.Field{
		huh.NewInput().
			Title("Title").
			Placeholder("What needs to be done?").
			Value(&m.fb.title).
			Validate(validateTitle),
		huh.NewText().
			Title("Description").
			Placeholder("A few words about it").
			Value(&m.fb.description).
			Validate(validateDescription),
		huh.NewSelect[model.Priority]().
			Title("Priority").
			Options(opts...).
			Value(&m.fb.priority),
	}
	if withSubItems {
		fields = append(fields,
			huh.NewText().
				Title("Sub-items").
				Description("One per line, prefix with [x] if already done").
				Value(&m.fb.subItems).
				Validate(validateSubItems),
		)
	}

	return huh.NewForm(
		huh.NewGroup(fields...),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) handleSubmit() tea.Cmd {
	if m.editMode {
		id := m.editID
		in := tasks.DetailsInput{
			Title:       m.fb.title,
			Description: m.fb.description,
			Priority:    m.fb.priority,
		}
		return func() tea.Msg { return TaskUpdatedMsg{TaskID: id, Input: in} }
	}

	in := tasks.CreateInput{
		Title:       m.fb.title,
		Description: m.fb.description,
		Priority:    m.fb.priority,
		SubItems:    ParseSubItems(m.fb.subItems),
	}
	return func() tea.Msg { return TaskCreatedMsg{Input: in} }
}

func (m Model) formWidth() int {
	return min(max(m.width-4, 40), 100)
}

func (m Model) formHeight() int {
	return max(m.height-4, 12)
}

// ParseSubItems splits the sub-item field into sub-items, one per
// non-blank line. A leading "[x]" marks the sub-item done and "[ ]" is
// accepted for symmetry.
func ParseSubItems(text string) []model.SubItem {
	var items []model.SubItem
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var it model.SubItem
		switch {
		case strings.HasPrefix(line, "[x]"), strings.HasPrefix(line, "[X]"):
			it.Complete = true
			line = line[3:]
		case strings.HasPrefix(line, "[ ]"):
			line = line[3:]
		}
		it.Name = strings.TrimSpace(line)
		items = append(items, it)
	}
	return items
}

func validateTitle(s string) error {
	err := model.ValidateTaskDetails(s, "-")
	if errors.Is(err, model.ErrEmptyTitle) {
		return err
	}
	return nil
}

func validateDescription(s string) error {
	err := model.ValidateTaskDetails("-", s)
	if errors.Is(err, model.ErrEmptyDescription) {
		return err
	}
	return nil
}

func validateSubItems(s string) error {
	items := ParseSubItems(s)
	if err := model.ValidateTaskCreation("-", "-", items); err != nil {
		return err
	}
	for _, it := range items {
		if it.Name == "" {
			return model.ErrEmptySubItemName
		}
	}
	return nil
}
