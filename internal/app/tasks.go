package app

import (
	"context"
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/focusflow/internal/auth"
	"github.com/nhle/focusflow/internal/model"
	"github.com/nhle/focusflow/internal/store"
	"github.com/nhle/focusflow/internal/tasks"
	"github.com/nhle/focusflow/internal/ui/taskdetail"
)

// taskLoadedMsg carries a task opened in the detail view.
type taskLoadedMsg struct {
	task *model.Task
	err  error
}

// taskResultMsg is sent after a task mutation.
type taskResultMsg struct {
	task    *model.Task
	message string
	err     error
}

// taskDeletedMsg is sent after a task is removed.
type taskDeletedMsg struct {
	title string
	err   error
}

// unreadCountMsg carries the number of unread notifications and the
// newest one's title.
type unreadCountMsg struct {
	count  int
	latest string
}

// loadTask fetches one of the user's tasks.
func (m Model) loadTask(id string) tea.Cmd {
	svc := m.tasks
	owner := m.user.ID
	return func() tea.Msg {
		task, err := svc.Get(context.Background(), owner, id)
		return taskLoadedMsg{task: task, err: err}
	}
}

// createTask validates and stores a new task.
func (m Model) createTask(in tasks.CreateInput) tea.Cmd {
	svc := m.tasks
	owner := m.user.ID
	return func() tea.Msg {
		task, err := svc.Create(context.Background(), owner, in)
		if err != nil {
			return taskResultMsg{err: err}
		}
		return taskResultMsg{task: task, message: "Task created."}
	}
}

// updateDetails saves an edited title, description and priority.
func (m Model) updateDetails(id string, in tasks.DetailsInput) tea.Cmd {
	svc := m.tasks
	owner := m.user.ID
	return func() tea.Msg {
		task, err := svc.UpdateDetails(context.Background(), owner, id, in)
		if err != nil {
			return taskResultMsg{err: err}
		}
		return taskResultMsg{task: task, message: "Task updated."}
	}
}

// applyAction runs a detail view action against the service.
func (m Model) applyAction(a taskdetail.ActionMsg) tea.Cmd {
	svc := m.tasks
	owner := m.user.ID
	return func() tea.Msg {
		ctx := context.Background()
		var (
			task *model.Task
			err  error
		)
		switch a.Action {
		case taskdetail.ActionToggle:
			task, err = svc.ToggleSubItem(ctx, owner, a.TaskID, a.Index)
		case taskdetail.ActionAdd:
			task, err = svc.AddSubItem(ctx, owner, a.TaskID, a.Name)
		case taskdetail.ActionRemove:
			task, err = svc.RemoveSubItem(ctx, owner, a.TaskID, a.Index)
		case taskdetail.ActionComplete:
			task, err = svc.SetComplete(ctx, owner, a.TaskID, a.Complete)
		default:
			return nil
		}
		return taskResultMsg{task: task, err: err}
	}
}

// deleteTask removes one of the user's tasks.
func (m Model) deleteTask(task model.Task) tea.Cmd {
	svc := m.tasks
	owner := m.user.ID
	return func() tea.Msg {
		err := svc.Delete(context.Background(), owner, task.ID)
		return taskDeletedMsg{title: task.Title, err: err}
	}
}

// fetchUnreadCount queries the user's inbox for unread notifications.
func (m Model) fetchUnreadCount() tea.Cmd {
	if m.user == nil {
		return nil
	}
	svc := m.tasks
	owner := m.user.ID
	return func() tea.Msg {
		unread, err := svc.Inbox(context.Background(), owner, true)
		if err != nil || len(unread) == 0 {
			return unreadCountMsg{}
		}
		return unreadCountMsg{count: len(unread), latest: unread[0].Title}
	}
}

// markAllRead clears the unread badge.
func (m Model) markAllRead() tea.Cmd {
	svc := m.tasks
	owner := m.user.ID
	return func() tea.Msg {
		ctx := context.Background()
		unread, err := svc.Inbox(ctx, owner, true)
		if err == nil {
			for _, n := range unread {
				if err = svc.MarkRead(ctx, owner, n.ID); err != nil {
					break
				}
			}
		}
		if err != nil {
			return taskResultMsg{err: err}
		}
		return unreadCountMsg{}
	}
}

// userMessage turns an error into a status bar line.
func userMessage(err error) string {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		return verr.Error()
	case errors.Is(err, store.ErrNotFound):
		return "That task no longer exists."
	case errors.Is(err, auth.ErrWeakPassword):
		return model.PasswordRequirements
	case errors.Is(err, auth.ErrInvalidEmail),
		errors.Is(err, auth.ErrEmailInUse),
		errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrEmailNotVerified),
		errors.Is(err, auth.ErrSameEmail),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrEmptyName):
		return capitalize(err.Error())
	default:
		return "Something went wrong: " + err.Error()
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:] + "."
}
