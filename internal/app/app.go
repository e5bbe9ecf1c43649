package app

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/focusflow/internal/auth"
	"github.com/nhle/focusflow/internal/credential"
	"github.com/nhle/focusflow/internal/keys"
	"github.com/nhle/focusflow/internal/model"
	appsync "github.com/nhle/focusflow/internal/sync"
	"github.com/nhle/focusflow/internal/tasks"
	"github.com/nhle/focusflow/internal/ui"
	"github.com/nhle/focusflow/internal/ui/authform"
	"github.com/nhle/focusflow/internal/ui/command"
	helpview "github.com/nhle/focusflow/internal/ui/help"
	"github.com/nhle/focusflow/internal/ui/intro"
	"github.com/nhle/focusflow/internal/ui/profile"
	"github.com/nhle/focusflow/internal/ui/taskdetail"
	"github.com/nhle/focusflow/internal/ui/taskform"
	"github.com/nhle/focusflow/internal/ui/tasklist"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewAuth ViewState = iota
	ViewIntro
	ViewList
	ViewDetail
	ViewHelp
	ViewCommand
	ViewTaskCreate
	ViewTaskEdit
	ViewProfile
)

// Deps are the services the terminal UI drives.
type Deps struct {
	Auth  *auth.Service
	Tasks *tasks.Service

	// Sessions persists the session token between runs. Optional.
	Sessions *credential.Sessions

	PollInterval time.Duration
	Logger       *slog.Logger
}

// Model is the root Bubble Tea model that manages view routing, the
// signed-in session and the background watcher.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	keys         *keys.KeyMap

	auth     *auth.Service
	tasks    *tasks.Service
	sessions *credential.Sessions
	interval time.Duration
	logger   *slog.Logger

	user    *model.User
	watcher *appsync.Watcher

	authView    authform.Model
	introView   intro.Model
	taskList    tasklist.Model
	detail      taskdetail.Model
	taskForm    taskform.Model
	profileView profile.Model
	helpView    helpview.Model
	commandView command.Model

	pendingDelete *model.Task
	unreadCount   int
	latestNotice  string
	status        string
	statusIsError bool
	ready         bool
}

// New creates the root application model.
func New(deps Deps) Model {
	k := keys.DefaultKeyMap()
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return Model{
		currentView: ViewAuth,
		keys:        k,
		auth:        deps.Auth,
		tasks:       deps.Tasks,
		sessions:    deps.Sessions,
		interval:    deps.PollInterval,
		logger:      logger.With("component", "tui"),
		authView:    authform.New(80, 24),
		introView:   intro.New(80, 24),
		taskList:    tasklist.New(k, 80, 24),
		detail:      taskdetail.New(k, 80, 24),
		taskForm:    taskform.New(80, 24),
		profileView: profile.New(80, 24),
		helpView:    helpview.New(k, 80, 24),
		commandView: command.New(80, 24),
	}
}

// Init restores a saved session, falling back to the login form.
func (m Model) Init() tea.Cmd {
	return m.restoreSession()
}

// CurrentView returns the active view.
func (m Model) CurrentView() ViewState {
	return m.currentView
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w, h := msg.Width, m.layout.ContentHeight()
		m.authView.SetSize(w, msg.Height)
		m.introView.SetSize(w, msg.Height)
		m.taskList.SetSize(w, h)
		m.detail.SetSize(w, h)
		m.taskForm.SetSize(w, h)
		m.profileView.SetSize(w, h)
		m.helpView.SetSize(w, h)
		m.commandView.SetSize(w, h)
		// Forward to the active view so huh forms can lay themselves out.
		return m.updateActiveView(msg)

	case sessionMsg:
		if msg.err != nil {
			m.logger.Warn("session storage failed", "error", msg.err)
		}
		if msg.user == nil {
			m.currentView = ViewAuth
			cmd := m.authView.Start(authform.ModeLogin)
			return m, cmd
		}
		return m.signedIn(msg.user)

	case authStatusMsg:
		cmd := m.authView.Start(msg.mode)
		m.authView.SetStatus(msg.message, msg.isError)
		return m, cmd

	case authform.SubmitMsg:
		return m, m.submitAuth(msg)

	case authform.QuitMsg:
		return m, tea.Quit

	case introCheckedMsg:
		if msg.seen {
			m.currentView = ViewList
			return m, nil
		}
		m.introView = intro.New(m.layout.Width, m.layout.Height)
		m.currentView = ViewIntro
		return m, nil

	case intro.DoneMsg:
		m.currentView = ViewList
		return m, tea.Batch(m.finishIntro(msg.Skipped), m.fetchUnreadCount())

	case appsync.SnapshotMsg:
		return m.applySnapshot(msg)

	case tasklist.FilterChangedMsg:
		if m.watcher != nil {
			m.watcher.SetFilter(msg.Filter)
		}
		return m, nil

	case tasklist.SelectedTaskMsg:
		return m, m.loadTask(msg.TaskID)

	case taskLoadedMsg:
		if msg.err != nil {
			m.setStatus(userMessage(msg.err), true)
			return m, nil
		}
		m.detail.SetTask(msg.task)
		m.currentView = ViewDetail
		return m, nil

	case taskdetail.BackMsg:
		m.detail.SetTask(nil)
		m.currentView = ViewList
		return m, nil

	case taskdetail.ActionMsg:
		if msg.Action == taskdetail.ActionEdit {
			task := m.detail.Task()
			if task == nil {
				return m, nil
			}
			m.previousView = ViewDetail
			m.currentView = ViewTaskEdit
			cmd := m.taskForm.StartEdit(*task)
			return m, cmd
		}
		return m, m.applyAction(msg)

	case taskform.TaskCreatedMsg:
		m.currentView = ViewList
		return m, m.createTask(msg.Input)

	case taskform.TaskUpdatedMsg:
		m.currentView = m.previousView
		return m, m.updateDetails(msg.TaskID, msg.Input)

	case taskform.CancelMsg:
		m.currentView = m.previousView
		return m, nil

	case taskResultMsg:
		if msg.err != nil {
			m.setStatus(userMessage(msg.err), true)
			return m, nil
		}
		m.setStatus(msg.message, false)
		if msg.task != nil && m.currentView == ViewDetail {
			m.detail.SetTask(msg.task)
		}
		if m.watcher != nil {
			m.watcher.Refresh()
		}
		return m, m.fetchUnreadCount()

	case taskDeletedMsg:
		if msg.err != nil {
			m.setStatus(userMessage(msg.err), true)
			return m, nil
		}
		m.setStatus(fmt.Sprintf("Deleted %q.", msg.title), false)
		if m.watcher != nil {
			m.watcher.Refresh()
		}
		return m, nil

	case unreadCountMsg:
		m.unreadCount = msg.count
		m.latestNotice = msg.latest
		return m, nil

	case profile.SubmitMsg:
		return m, m.submitProfile(msg)

	case profile.BackMsg:
		m.currentView = ViewList
		return m, nil

	case profileResultMsg:
		if msg.err != nil {
			cmd := m.profileView.SetStatus(userMessage(msg.err), true)
			return m, cmd
		}
		if msg.user != nil {
			m.user = msg.user
			m.profileView.SetUser(msg.user)
		}
		cmd := m.profileView.SetStatus(msg.message, false)
		return m, cmd

	case signedOutMsg:
		return m.signOut(msg.message)

	case command.CommandMsg:
		m.currentView = m.previousView
		cmd := m.executeCommand(string(msg))
		return m, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.stopWatcher()
			return m, tea.Quit
		}
		if m.pendingDelete == nil {
			m.status = ""
		}
		if m.currentView == ViewList && !m.taskList.Searching() {
			if next, cmd, handled := m.handleListKeys(msg); handled {
				return next, cmd
			}
		}
		if m.currentView == ViewHelp && (key.Matches(msg, m.keys.Help) || key.Matches(msg, m.keys.Back)) {
			m.currentView = m.previousView
			return m, nil
		}
		if m.currentView == ViewCommand && msg.String() == "esc" {
			m.currentView = m.previousView
			return m, nil
		}
		if m.currentView == ViewDetail && !m.detail.Adding() && key.Matches(msg, m.keys.Help) {
			m.previousView = m.currentView
			m.currentView = ViewHelp
			return m, nil
		}
	}

	return m.updateActiveView(msg)
}

// handleListKeys processes the global shortcuts available on the task
// list. handled is false when the key belongs to the list itself.
func (m Model) handleListKeys(msg tea.KeyMsg) (Model, tea.Cmd, bool) {
	if m.pendingDelete != nil {
		task := *m.pendingDelete
		m.pendingDelete = nil
		if msg.String() == "y" {
			return m, m.deleteTask(task), true
		}
		m.setStatus("Delete cancelled.", false)
		return m, nil, true
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.stopWatcher()
		return m, tea.Quit, true

	case key.Matches(msg, m.keys.Help):
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return m, nil, true

	case key.Matches(msg, m.keys.Command):
		m.previousView = m.currentView
		m.currentView = ViewCommand
		cmd := m.commandView.Focus()
		return m, cmd, true

	case key.Matches(msg, m.keys.Refresh):
		if m.watcher != nil {
			m.watcher.Refresh()
		}
		return m, m.fetchUnreadCount(), true

	case key.Matches(msg, m.keys.New):
		m.previousView = m.currentView
		m.currentView = ViewTaskCreate
		cmd := m.taskForm.StartCreate()
		return m, cmd, true

	case key.Matches(msg, m.keys.Edit):
		task, ok := m.taskList.Selected()
		if !ok {
			return m, nil, true
		}
		m.previousView = m.currentView
		m.currentView = ViewTaskEdit
		cmd := m.taskForm.StartEdit(task)
		return m, cmd, true

	case key.Matches(msg, m.keys.Delete):
		task, ok := m.taskList.Selected()
		if !ok {
			return m, nil, true
		}
		m.pendingDelete = &task
		m.setStatus(fmt.Sprintf("Delete %q? y/n", task.Title), true)
		return m, nil, true

	case key.Matches(msg, m.keys.Profile):
		m.previousView = m.currentView
		m.currentView = ViewProfile
		cmd := m.profileView.Start(m.user)
		return m, cmd, true
	}
	return m, nil, false
}

// signedIn starts the user's session: watcher, intro check and inbox.
func (m Model) signedIn(user *model.User) (tea.Model, tea.Cmd) {
	m.stopWatcher()
	m.user = user
	m.status = ""
	m.taskList.SetTasks(nil)
	m.watcher = appsync.New(m.tasks, user.ID, m.taskList.Filter(), m.interval, m.logger)
	m.currentView = ViewList
	m.logger.Info("signed in", "user", user.ID)
	return m, tea.Batch(m.watcher.Start(), m.checkIntro(), m.fetchUnreadCount())
}

// signOut forgets the session and returns to the login form.
func (m Model) signOut(message string) (tea.Model, tea.Cmd) {
	m.stopWatcher()
	if m.sessions != nil {
		if err := m.sessions.Clear(); err != nil {
			m.logger.Warn("clearing session failed", "error", err)
		}
	}
	if m.user != nil {
		m.logger.Info("signed out", "user", m.user.ID)
	}
	m.user = nil
	m.unreadCount = 0
	m.latestNotice = ""
	m.pendingDelete = nil
	m.detail.SetTask(nil)
	m.currentView = ViewAuth
	cmd := m.authView.Start(authform.ModeLogin)
	m.authView.SetStatus(message, false)
	return m, cmd
}

func (m *Model) stopWatcher() {
	if m.watcher != nil {
		m.watcher.Stop()
		m.watcher = nil
	}
}

// applySnapshot refreshes the list and the open task from a watcher
// snapshot, then waits for the next one.
func (m Model) applySnapshot(msg appsync.SnapshotMsg) (tea.Model, tea.Cmd) {
	if m.watcher == nil {
		// Left over from a session that has ended.
		return m, nil
	}
	wait := m.watcher.WaitForNext()
	if msg.Error != nil {
		m.setStatus("Could not refresh tasks: "+msg.Error.Error(), true)
		return m, wait
	}

	listCmd := m.taskList.SetTasks(msg.Tasks)
	if open := m.detail.Task(); open != nil && m.currentView == ViewDetail {
		for i := range msg.Tasks {
			if msg.Tasks[i].ID == open.ID {
				task := msg.Tasks[i]
				m.detail.SetTask(&task)
				break
			}
		}
	}
	return m, tea.Batch(listCmd, wait, m.fetchUnreadCount())
}

func (m *Model) setStatus(message string, isError bool) {
	m.status = message
	m.statusIsError = isError
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewAuth:
		m.authView, cmd = m.authView.Update(msg)
	case ViewIntro:
		m.introView, cmd = m.introView.Update(msg)
	case ViewList:
		m.taskList, cmd = m.taskList.Update(msg)
	case ViewDetail:
		m.detail, cmd = m.detail.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	case ViewTaskCreate, ViewTaskEdit:
		m.taskForm, cmd = m.taskForm.Update(msg)
	case ViewProfile:
		m.profileView, cmd = m.profileView.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	switch m.currentView {
	case ViewAuth:
		return m.layout.Center(m.authView.View())
	case ViewIntro:
		return m.layout.Center(m.introView.View())
	}

	title := "FocusFlow"
	if m.unreadCount > 0 {
		title = fmt.Sprintf("FocusFlow [%d new]", m.unreadCount)
	}
	header := m.layout.RenderHeader(title, m.headerRight())
	statusBar := m.layout.RenderStatusBar(m.keyHints(), m.statusLine())

	return m.layout.RenderWithFrame(header, m.renderContent(), statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewList:
		return m.taskList.View()
	case ViewDetail:
		return m.detail.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	case ViewTaskCreate, ViewTaskEdit:
		return m.taskForm.View()
	case ViewProfile:
		return m.profileView.View()
	default:
		return ""
	}
}

// headerRight shows who is signed in and the watcher state.
func (m Model) headerRight() string {
	if m.user == nil {
		return ""
	}
	state := "offline"
	if m.watcher != nil {
		switch s := m.watcher.Status(); s.State {
		case appsync.WatchRunning:
			state = "syncing"
		case appsync.WatchError:
			state = "⚠ sync failed"
		default:
			if !s.LastSync.IsZero() {
				state = "synced " + s.LastSync.Format("15:04:05")
			}
		}
	}
	return m.user.Name() + " · " + state
}

// statusLine is the right side of the status bar.
func (m Model) statusLine() string {
	if m.status != "" {
		return m.status
	}
	if m.latestNotice != "" {
		return "Latest: " + m.latestNotice
	}
	return ""
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "enter execute | esc back"
	case ViewDetail:
		return "esc back | j/k move | space toggle | a add | d remove | c complete | e edit"
	case ViewTaskCreate, ViewTaskEdit:
		return "enter submit | esc cancel"
	case ViewProfile:
		return "enter select | esc back"
	default:
		return "q quit | ? help | n new | e edit | d delete | / search | tab " + strings.TrimPrefix(m.taskList.SortLabel(), "sort: ") + " | p profile"
	}
}

// executeCommand handles a command string from the command palette.
func (m *Model) executeCommand(cmd string) tea.Cmd {
	switch cmd {
	case "refresh", "sync":
		if m.watcher != nil {
			m.watcher.Refresh()
		}
		return m.fetchUnreadCount()
	case "quit", "q":
		m.stopWatcher()
		return tea.Quit
	case "new", "new task":
		m.previousView = ViewList
		m.currentView = ViewTaskCreate
		return m.taskForm.StartCreate()
	case "profile":
		m.previousView = ViewList
		m.currentView = ViewProfile
		return m.profileView.Start(m.user)
	case "read", "mark read":
		return m.markAllRead()
	case "intro", "tutorial":
		m.introView = intro.New(m.layout.Width, m.layout.Height)
		m.currentView = ViewIntro
		return nil
	case "logout", "signout", "sign out":
		return func() tea.Msg { return signedOutMsg{} }
	default:
		m.setStatus(fmt.Sprintf("Unknown command %q.", cmd), true)
		return nil
	}
}
