package app

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/99designs/keyring"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/focusflow/internal/auth"
	"github.com/nhle/focusflow/internal/credential"
	"github.com/nhle/focusflow/internal/model"
	"github.com/nhle/focusflow/internal/notify"
	"github.com/nhle/focusflow/internal/store"
	"github.com/nhle/focusflow/internal/tasks"
	"github.com/nhle/focusflow/internal/ui/authform"
	"github.com/nhle/focusflow/internal/ui/intro"
	"github.com/nhle/focusflow/internal/ui/profile"
	"github.com/nhle/focusflow/internal/ui/taskdetail"
	"github.com/nhle/focusflow/tests/testutil"
)

type inbox struct {
	mu   sync.Mutex
	last auth.Message
}

func (i *inbox) Send(_ context.Context, msg auth.Message) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.last = msg
	return nil
}

func (i *inbox) code() string {
	i.mu.Lock()
	defer i.mu.Unlock()
	for _, line := range strings.Split(i.last.Body, "\n") {
		if strings.HasPrefix(line, "    ") {
			return strings.TrimSpace(line)
		}
	}
	return ""
}

type harness struct {
	model    Model
	mail     *inbox
	sessions *credential.Sessions
	auth     *auth.Service
	tasks    *tasks.Service
	store    store.Store
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := testutil.NewTestStore(t)
	mail := &inbox{}
	tokens, err := auth.NewTokenIssuer("test", time.Hour)
	require.NoError(t, err)

	authSvc := auth.NewService(s, mail, tokens, model.AuthConfig{RequireVerifiedEmail: true, ResetTTLMinutes: 30}, logger)
	taskSvc := tasks.NewService(s, notify.NewStoreNotifier(s), logger)
	sessions := credential.NewSessions(keyring.NewArrayKeyring(nil))

	m := New(Deps{Auth: authSvc, Tasks: taskSvc, Sessions: sessions, PollInterval: time.Hour, Logger: logger})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	h := &harness{model: next.(Model), mail: mail, sessions: sessions, auth: authSvc, tasks: taskSvc, store: s}
	t.Cleanup(func() { h.model.stopWatcher() })
	return h
}

func (h *harness) update(msg tea.Msg) tea.Cmd {
	next, cmd := h.model.Update(msg)
	h.model = next.(Model)
	return cmd
}

// registerVerified creates a verified account through the service.
func (h *harness) registerVerified(t *testing.T, email string) {
	t.Helper()
	ctx := context.Background()
	_, err := h.auth.SignUp(ctx, "Ana", email, "Secr3t!x")
	require.NoError(t, err)
	_, err = h.auth.VerifyEmail(ctx, h.mail.code())
	require.NoError(t, err)
}

func (h *harness) signIn(t *testing.T, email string) {
	t.Helper()
	msg := h.model.submitAuth(authform.SubmitMsg{Mode: authform.ModeLogin, Email: email, Password: "Secr3t!x"})()
	sess, ok := msg.(sessionMsg)
	require.True(t, ok, "got %T", msg)
	require.NoError(t, sess.err)
	h.update(sess)
}

func TestStartsSignedOut(t *testing.T) {
	h := newHarness(t)
	msg := h.model.Init()()
	assert.Equal(t, sessionMsg{}, msg)

	h.update(msg)
	assert.Equal(t, ViewAuth, h.model.CurrentView())
	assert.Equal(t, authform.ModeLogin, h.model.authView.Mode())
}

func TestLoginSavesSessionAndRestores(t *testing.T) {
	h := newHarness(t)
	h.registerVerified(t, "ana@example.com")
	h.signIn(t, "ana@example.com")

	assert.Equal(t, ViewList, h.model.CurrentView())
	require.NotNil(t, h.model.user)
	assert.NotNil(t, h.model.watcher)

	token, err := h.sessions.Load()
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	restored := h.model.restoreSession()().(sessionMsg)
	require.NotNil(t, restored.user)
	assert.Equal(t, "ana@example.com", restored.user.Email)
}

func TestUnverifiedLoginMovesToVerify(t *testing.T) {
	h := newHarness(t)
	_, err := h.auth.SignUp(context.Background(), "Ana", "ana@example.com", "Secr3t!x")
	require.NoError(t, err)

	msg := h.model.submitAuth(authform.SubmitMsg{Mode: authform.ModeLogin, Email: "ana@example.com", Password: "Secr3t!x"})()
	status, ok := msg.(authStatusMsg)
	require.True(t, ok)
	assert.Equal(t, authform.ModeVerify, status.mode)
	assert.True(t, status.isError)

	msg = h.model.submitAuth(authform.SubmitMsg{Mode: authform.ModeVerify, Token: h.mail.code()})()
	status = msg.(authStatusMsg)
	assert.Equal(t, authform.ModeLogin, status.mode)
	assert.False(t, status.isError)
}

func TestIntroShownOnce(t *testing.T) {
	h := newHarness(t)
	h.registerVerified(t, "ana@example.com")
	h.signIn(t, "ana@example.com")

	h.update(h.model.checkIntro()())
	assert.Equal(t, ViewIntro, h.model.CurrentView())

	h.update(intro.DoneMsg{Skipped: true})
	assert.Equal(t, ViewList, h.model.CurrentView())
	h.model.finishIntro(true)()

	h.update(h.model.checkIntro()())
	assert.Equal(t, ViewList, h.model.CurrentView())

	unread := h.model.fetchUnreadCount()().(unreadCountMsg)
	assert.Equal(t, 1, unread.count)
	assert.Equal(t, "Tutorial skipped", unread.latest)
}

func TestDetailActionsRoundTrip(t *testing.T) {
	h := newHarness(t)
	h.registerVerified(t, "ana@example.com")
	h.signIn(t, "ana@example.com")

	created := h.model.createTask(tasks.CreateInput{
		Title: "Study", Description: "Exam prep", SubItems: []model.SubItem{{Name: "A"}, {Name: "B"}},
	})().(taskResultMsg)
	require.NoError(t, created.err)

	h.update(h.model.loadTask(created.task.ID)())
	require.Equal(t, ViewDetail, h.model.CurrentView())

	res := h.model.applyAction(taskdetail.ActionMsg{Action: taskdetail.ActionToggle, TaskID: created.task.ID, Index: 1})()
	h.update(res)
	require.NotNil(t, h.model.detail.Task())
	assert.Equal(t, 50, h.model.detail.Task().Progress)

	res = h.model.applyAction(taskdetail.ActionMsg{Action: taskdetail.ActionComplete, TaskID: created.task.ID, Complete: true})()
	h.update(res)
	assert.Equal(t, model.ErrCompletionDerived.Error(), h.model.status)
	assert.True(t, h.model.statusIsError)
}

func TestDeleteAskForConfirmation(t *testing.T) {
	h := newHarness(t)
	h.registerVerified(t, "ana@example.com")
	h.signIn(t, "ana@example.com")

	created := h.model.createTask(tasks.CreateInput{
		Title: "Study", Description: "Exam prep", SubItems: []model.SubItem{{Name: "A"}},
	})().(taskResultMsg)
	require.NoError(t, created.err)
	h.model.taskList.SetTasks([]model.Task{*created.task})

	h.update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d")})
	require.NotNil(t, h.model.pendingDelete)
	assert.Contains(t, h.model.status, "y/n")

	cmd := h.update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("y")})
	require.NotNil(t, cmd)
	h.update(cmd())
	assert.Contains(t, h.model.status, "Deleted")

	_, err := h.tasks.Get(context.Background(), h.model.user.ID, created.task.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestProfileSignOutClearsSession(t *testing.T) {
	h := newHarness(t)
	h.registerVerified(t, "ana@example.com")
	h.signIn(t, "ana@example.com")

	h.update(h.model.submitProfile(profile.SubmitMsg{Action: profile.ActionUpdateName, Value: "Ana Maria"})())
	assert.Equal(t, "Ana Maria", h.model.user.DisplayName)

	h.update(h.model.submitProfile(profile.SubmitMsg{Action: profile.ActionSignOut})())
	assert.Equal(t, ViewAuth, h.model.CurrentView())
	assert.Nil(t, h.model.user)
	assert.Nil(t, h.model.watcher)

	_, err := h.sessions.Load()
	assert.ErrorIs(t, err, credential.ErrNoSession)
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "Invalid email or password.", userMessage(auth.ErrInvalidCredentials))
	assert.Equal(t, model.PasswordRequirements, userMessage(auth.ErrWeakPassword))
	assert.Equal(t, "That task no longer exists.", userMessage(store.ErrNotFound))
	assert.Equal(t, model.ErrNoSubItems.Error(), userMessage(model.ErrNoSubItems))
}
