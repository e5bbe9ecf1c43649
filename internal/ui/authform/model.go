package authform

import (
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/focusflow/internal/model"
	"github.com/nhle/focusflow/internal/theme"
)

// Mode selects which authentication form is shown.
type Mode int

const (
	ModeLogin Mode = iota
	ModeSignUp
	ModeRecover
	ModeReset
	ModeVerify
)

func (m Mode) title() string {
	switch m {
	case ModeSignUp:
		return "Create account"
	case ModeRecover:
		return "Recover password"
	case ModeReset:
		return "Choose a new password"
	case ModeVerify:
		return "Verify email"
	default:
		return "Sign in"
	}
}

// SubmitMsg carries the values of a completed form.
type SubmitMsg struct {
	Mode     Mode
	Name     string
	Email    string
	Password string
	Token    string
}

// QuitMsg is sent when the login form itself is aborted.
type QuitMsg struct{}

var errPasswordMismatch = errors.New("passwords do not match")

// formBindings holds field values on the heap so that huh's Value()
// pointers survive Bubble Tea model copies.
type formBindings struct {
	name     string
	email    string
	password string
	confirm  string
	token    string
}

// Model is the signed-out screen: login, signup, password recovery and
// email verification.
type Model struct {
	mode    Mode
	form    *huh.Form
	fb      *formBindings
	message string
	isError bool
	width   int
	height  int
}

// New creates the auth screen in login mode.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// Mode returns the form on display.
func (m Model) Mode() Mode {
	return m.mode
}

// Start shows the form for mode. The email typed so far is kept.
func (m *Model) Start(mode Mode) tea.Cmd {
	m.mode = mode
	email := m.fb.email
	*m.fb = formBindings{email: email}
	m.form = m.build()
	return m.form.Init()
}

// SetStatus shows a message under the form.
func (m *Model) SetStatus(message string, isError bool) {
	m.message = message
	m.isError = isError
}

// Init starts the login form.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the auth screen. Control keys switch
// between forms before the form sees them.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	if k, ok := msg.(tea.KeyMsg); ok {
		if next, ok := switchKeys[k.String()]; ok && next != m.mode {
			m.message = ""
			cmd := m.Start(next)
			return m, cmd
		}
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		submit := SubmitMsg{
			Mode:     m.mode,
			Name:     strings.TrimSpace(m.fb.name),
			Email:    strings.TrimSpace(m.fb.email),
			Password: m.fb.password,
			Token:    strings.TrimSpace(m.fb.token),
		}
		return m, func() tea.Msg { return submit }
	case huh.StateAborted:
		if m.mode == ModeLogin {
			return m, func() tea.Msg { return QuitMsg{} }
		}
		m.message = ""
		cmd := m.Start(ModeLogin)
		return m, cmd
	}

	return m, cmd
}

var switchKeys = map[string]Mode{
	"ctrl+l": ModeLogin,
	"ctrl+s": ModeSignUp,
	"ctrl+r": ModeRecover,
	"ctrl+t": ModeReset,
	"ctrl+v": ModeVerify,
}

// View renders the auth screen.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorTeal).
		MarginBottom(1)

	parts := []string{
		titleStyle.Render("FocusFlow · " + m.mode.title()),
		m.form.View(),
	}
	if m.message != "" {
		style := theme.SuccessStyle
		if m.isError {
			style = theme.ErrorStyle
		}
		parts = append(parts, style.Render(m.message))
	}
	parts = append(parts, "", theme.HelpStyle.Render(
		"ctrl+l sign in · ctrl+s sign up · ctrl+r recover · ctrl+t reset code · ctrl+v verify code"))

	return theme.BorderStyle.
		Padding(1, 2).
		Width(min(m.width-4, 72)).
		Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

// SetSize updates the screen dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) build() *huh.Form {
	email := huh.NewInput().
		Title("Email").
		Placeholder("you@example.com").
		Value(&m.fb.email).
		Validate(required("email"))
	password := huh.NewInput().
		Title("Password").
		EchoMode(huh.EchoModePassword).
		Value(&m.fb.password).
		Validate(required("password"))
	newPassword := huh.NewInput().
		Title("Password").
		Description(model.PasswordRequirements).
		EchoMode(huh.EchoModePassword).
		Value(&m.fb.password).
		Validate(validatePassword)
	confirm := huh.NewInput().
		Title("Confirm password").
		EchoMode(huh.EchoModePassword).
		Value(&m.fb.confirm).
		Validate(func(s string) error {
			if s != m.fb.password {
				return errPasswordMismatch
			}
			return nil
		})
	token := huh.NewInput().
		Title("Code").
		Description("The code from the email we sent you").
		Value(&m.fb.token).
		Validate(required("code"))

	var fields []huh.Field
	switch m.mode {
	case ModeSignUp:
		fields = []huh.Field{
			huh.NewInput().Title("Name").Value(&m.fb.name).Validate(required("name")),
			email, newPassword, confirm,
		}
	case ModeRecover:
		fields = []huh.Field{email}
	case ModeReset:
		fields = []huh.Field{token, newPassword, confirm}
	case ModeVerify:
		fields = []huh.Field{token}
	default:
		fields = []huh.Field{email, password}
	}

	return huh.NewForm(huh.NewGroup(fields...)).
		WithWidth(min(max(m.width-12, 30), 64)).
		WithShowHelp(false)
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errors.New(field + " is required")
		}
		return nil
	}
}

func validatePassword(s string) error {
	if !model.ValidatePassword(s) {
		return errors.New(model.PasswordRequirements)
	}
	return nil
}
