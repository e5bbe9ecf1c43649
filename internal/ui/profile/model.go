package profile

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/focusflow/internal/model"
	"github.com/nhle/focusflow/internal/theme"
)

// Action is a profile operation chosen from the menu.
type Action int

const (
	ActionNone Action = iota
	ActionUpdateName
	ActionChangeEmail
	ActionChangePassword
	ActionSignOut
	ActionDeleteAccount
)

// SubmitMsg asks the parent to perform action with value (new name,
// new email or new password; empty for sign out and delete).
type SubmitMsg struct {
	Action Action
	Value  string
}

// BackMsg returns to the task list.
type BackMsg struct{}

// stage is the profile screen's state machine position.
type stage int

const (
	stageMenu stage = iota
	stageInput
	stageConfirmDelete
)

// formBindings holds field values on the heap so that huh's Value()
// pointers survive Bubble Tea model copies.
type formBindings struct {
	choice  Action
	value   string
	confirm string
	sure    bool
}

// Model is the profile screen.
type Model struct {
	user    *model.User
	stage   stage
	form    *huh.Form
	fb      *formBindings
	message string
	isError bool
	width   int
	height  int
}

// New creates the profile screen.
func New(width, height int) Model {
	return Model{fb: &formBindings{}, width: width, height: height}
}

// Start shows the menu for user.
func (m *Model) Start(user *model.User) tea.Cmd {
	m.user = user
	m.message = ""
	return m.menu()
}

// SetUser refreshes the displayed account after an update.
func (m *Model) SetUser(user *model.User) {
	m.user = user
}

// SetStatus shows a message under the form and returns to the menu.
func (m *Model) SetStatus(message string, isError bool) tea.Cmd {
	m.message = message
	m.isError = isError
	return m.menu()
}

func (m *Model) menu() tea.Cmd {
	m.stage = stageMenu
	*m.fb = formBindings{}
	m.form = huh.NewForm(huh.NewGroup(
		huh.NewSelect[Action]().
			Title("Account").
			Options(
				huh.NewOption("Update name", ActionUpdateName),
				huh.NewOption("Change email", ActionChangeEmail),
				huh.NewOption("Change password", ActionChangePassword),
				huh.NewOption("Sign out", ActionSignOut),
				huh.NewOption("Delete account", ActionDeleteAccount),
				huh.NewOption("Back", ActionNone),
			).
			Value(&m.fb.choice),
	)).WithShowHelp(false)
	return m.form.Init()
}

func (m *Model) input(action Action) tea.Cmd {
	m.stage = stageInput
	m.fb.value = ""
	m.fb.confirm = ""

	var fields []huh.Field
	switch action {
	case ActionUpdateName:
		m.fb.value = m.user.DisplayName
		fields = []huh.Field{
			huh.NewInput().Title("Name").Value(&m.fb.value).Validate(nonEmpty("name")),
		}
	case ActionChangeEmail:
		fields = []huh.Field{
			huh.NewInput().
				Title("New email").
				Description("You will be signed out until the new address is verified").
				Value(&m.fb.value).
				Validate(nonEmpty("email")),
		}
	case ActionChangePassword:
		fields = []huh.Field{
			huh.NewInput().
				Title("New password").
				Description(model.PasswordRequirements).
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.value).
				Validate(func(s string) error {
					if !model.ValidatePassword(s) {
						return errors.New(model.PasswordRequirements)
					}
					return nil
				}),
			huh.NewInput().
				Title("Confirm password").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.confirm).
				Validate(func(s string) error {
					if s != m.fb.value {
						return errors.New("passwords do not match")
					}
					return nil
				}),
		}
	}
	m.form = huh.NewForm(huh.NewGroup(fields...)).WithShowHelp(false)
	return m.form.Init()
}

func (m *Model) confirmDelete() tea.Cmd {
	m.stage = stageConfirmDelete
	m.fb.sure = false
	m.form = huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title("Delete your account?").
			Description("All of your tasks will be removed. This cannot be undone.").
			Affirmative("Delete").
			Negative("Cancel").
			Value(&m.fb.sure),
	)).WithShowHelp(false)
	return m.form.Init()
}

// Update handles messages for the profile screen.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateAborted:
		if m.stage == stageMenu {
			return m, func() tea.Msg { return BackMsg{} }
		}
		cmd := m.menu()
		return m, cmd
	case huh.StateCompleted:
		return m.advance()
	}
	return m, cmd
}

// advance moves the state machine forward after a form completes.
func (m Model) advance() (Model, tea.Cmd) {
	choice := m.fb.choice
	switch m.stage {
	case stageMenu:
		switch choice {
		case ActionNone:
			return m, func() tea.Msg { return BackMsg{} }
		case ActionSignOut:
			return m, submit(ActionSignOut, "")
		case ActionDeleteAccount:
			cmd := m.confirmDelete()
			return m, cmd
		default:
			cmd := m.input(choice)
			return m, cmd
		}
	case stageInput:
		value := m.fb.value
		if choice != ActionChangePassword {
			value = strings.TrimSpace(value)
		}
		return m, submit(choice, value)
	case stageConfirmDelete:
		if m.fb.sure {
			return m, submit(ActionDeleteAccount, "")
		}
		cmd := m.menu()
		return m, cmd
	}
	return m, nil
}

func submit(action Action, value string) tea.Cmd {
	return func() tea.Msg { return SubmitMsg{Action: action, Value: value} }
}

// View renders the profile screen.
func (m Model) View() string {
	if m.user == nil || m.form == nil {
		return ""
	}

	label := lipgloss.NewStyle().Foreground(theme.ColorGray)
	value := lipgloss.NewStyle().Foreground(theme.ColorWhite)
	row := func(k, v string) string {
		return fmt.Sprintf("%s %s", label.Render(fmt.Sprintf("%-9s", k)), value.Render(v))
	}

	verified := "yes"
	if !m.user.EmailVerified {
		verified = "no"
	}

	lines := []string{
		lipgloss.NewStyle().Bold(true).Foreground(theme.ColorTeal).Render(m.user.Name()),
		"",
		row("Avatar", m.user.AvatarURL()),
		row("Email", m.user.Email),
		row("Verified", verified),
	}
	if m.user.PendingEmail != "" {
		lines = append(lines, row("Pending", m.user.PendingEmail))
	}
	lines = append(lines, row("Joined", m.user.CreatedAt.Local().Format("2006-01-02")), "", m.form.View())

	if m.message != "" {
		style := theme.SuccessStyle
		if m.isError {
			style = theme.ErrorStyle
		}
		lines = append(lines, style.Render(m.message))
	}

	return theme.DetailPanelStyle.
		Width(max(m.width-4, 20)).
		Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// SetSize updates the screen dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func nonEmpty(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errors.New(field + " is required")
		}
		return nil
	}
}
