package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/focusflow/internal/auth"
	"github.com/nhle/focusflow/internal/model"
	"github.com/nhle/focusflow/internal/notify"
	"github.com/nhle/focusflow/internal/server"
	"github.com/nhle/focusflow/internal/tasks"
	"github.com/nhle/focusflow/tests/testutil"
)

type captureMailer struct {
	mu   sync.Mutex
	last auth.Message
}

func (m *captureMailer) Send(_ context.Context, msg auth.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last = msg
	return nil
}

func (m *captureMailer) code() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, line := range strings.Split(m.last.Body, "\n") {
		if strings.HasPrefix(line, "    ") {
			return strings.TrimSpace(line)
		}
	}
	return ""
}

type env struct {
	srv    *httptest.Server
	mailer *captureMailer
}

func newEnv(t *testing.T) *env {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := testutil.NewTestStore(t)
	mailer := &captureMailer{}
	tokens, err := auth.NewTokenIssuer("test", time.Hour)
	require.NoError(t, err)

	authSvc := auth.NewService(s, mailer, tokens, model.AuthConfig{RequireVerifiedEmail: true, ResetTTLMinutes: 30}, logger)
	taskSvc := tasks.NewService(s, notify.NewStoreNotifier(s), logger)

	srv := httptest.NewServer(server.New(authSvc, taskSvc, logger).Handler())
	t.Cleanup(srv.Close)
	return &env{srv: srv, mailer: mailer}
}

func (e *env) do(t *testing.T, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, r)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

// signIn registers, verifies and logs in a user, returning the token.
func (e *env) signIn(t *testing.T, email string) string {
	t.Helper()
	password := "Secr3t!x"
	resp, _ := e.do(t, http.MethodPost, "/api/v1/signup", "", map[string]string{
		"name": "Ana", "email": email, "password": password,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = e.do(t, http.MethodPost, "/api/v1/verify", "", map[string]string{"token": e.mailer.code()})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := e.do(t, http.MethodPost, "/api/v1/login", "", map[string]string{
		"email": email, "password": password,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(body, &login))
	require.NotEmpty(t, login.Token)
	return login.Token
}

func decodeTask(t *testing.T, body []byte) model.Task {
	t.Helper()
	var task model.Task
	require.NoError(t, json.Unmarshal(body, &task))
	return task
}

func TestHealthz(t *testing.T) {
	e := newEnv(t)
	resp, body := e.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestUnverifiedLoginIsForbidden(t *testing.T) {
	e := newEnv(t)
	resp, _ := e.do(t, http.MethodPost, "/api/v1/signup", "", map[string]string{
		"name": "Ana", "email": "ana@example.com", "password": "Secr3t!x",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := e.do(t, http.MethodPost, "/api/v1/login", "", map[string]string{
		"email": "ana@example.com", "password": "Secr3t!x",
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Contains(t, string(body), "EmailNotVerified")
}

func TestSignupErrors(t *testing.T) {
	e := newEnv(t)
	resp, body := e.do(t, http.MethodPost, "/api/v1/signup", "", map[string]string{
		"email": "ana@example.com", "password": "abc123",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, string(body), "WeakPassword")

	e.signIn(t, "ana@example.com")
	resp, _ = e.do(t, http.MethodPost, "/api/v1/signup", "", map[string]string{
		"email": "ana@example.com", "password": "Secr3t!x",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestTasksRequireAuth(t *testing.T) {
	e := newEnv(t)
	resp, _ := e.do(t, http.MethodGet, "/api/v1/tasks", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = e.do(t, http.MethodGet, "/api/v1/tasks", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestTaskLifecycle(t *testing.T) {
	e := newEnv(t)
	token := e.signIn(t, "ana@example.com")

	resp, body := e.do(t, http.MethodPost, "/api/v1/tasks", token, map[string]any{
		"titulo":      "Study",
		"description": "Exam prep",
		"subtarefas":  []map[string]any{{"nome": "A"}, {"nome": "B"}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	task := decodeTask(t, body)
	assert.Equal(t, model.PriorityMedium, task.Priority)
	path := "/api/v1/tasks/" + task.ID

	resp, body = e.do(t, http.MethodPost, path+"/subtarefas/0/toggle", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	task = decodeTask(t, body)
	assert.Equal(t, 50, task.Progress)
	assert.False(t, task.Complete)

	resp, body = e.do(t, http.MethodDelete, path+"/subtarefas/1", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	task = decodeTask(t, body)
	assert.True(t, task.Complete)
	assert.Equal(t, 100, task.Progress)

	resp, _ = e.do(t, http.MethodPost, path+"/subtarefas/5/toggle", token, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, body = e.do(t, http.MethodPut, path+"/concluida", token, map[string]bool{"concluida": false})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, string(body), "CompletionDerived")

	resp, body = e.do(t, http.MethodPatch, path, token, map[string]string{"prioridade": "Alta"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	task = decodeTask(t, body)
	assert.Equal(t, model.PriorityHigh, task.Priority)
	assert.Equal(t, "Study", task.Title)

	resp, body = e.do(t, http.MethodGet, "/api/v1/tasks?concluida=true", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []model.Task
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Len(t, list, 1)

	resp, body = e.do(t, http.MethodGet, "/api/v1/notifications", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Task created")

	resp, _ = e.do(t, http.MethodDelete, path, token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = e.do(t, http.MethodGet, path, token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateTaskValidation(t *testing.T) {
	e := newEnv(t)
	token := e.signIn(t, "ana@example.com")

	resp, body := e.do(t, http.MethodPost, "/api/v1/tasks", token, map[string]any{
		"titulo": "Study", "description": "Exam prep",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, string(body), "NoSubItems")

	req, err := http.NewRequest(http.MethodPost, e.srv.URL+"/api/v1/tasks", strings.NewReader("{"))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	raw, err := e.srv.Client().Do(req)
	require.NoError(t, err)
	raw.Body.Close()
	assert.Equal(t, http.StatusBadRequest, raw.StatusCode)
}

func TestCreateTaskKeepsCompletedSubItems(t *testing.T) {
	e := newEnv(t)
	token := e.signIn(t, "ana@example.com")

	resp, body := e.do(t, http.MethodPost, "/api/v1/tasks", token, map[string]any{
		"titulo": "Study", "description": "Exam prep",
		"subtarefas": []map[string]any{
			{"nome": "A", "concluido": true},
			{"nome": "B", "concluido": false},
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	task := decodeTask(t, body)
	require.Len(t, task.SubItems, 2)
	assert.True(t, task.SubItems[0].Complete)
	assert.Equal(t, 50, task.Progress)
	assert.False(t, task.Complete)

	resp, body = e.do(t, http.MethodPost, "/api/v1/tasks", token, map[string]any{
		"titulo": "Read", "description": "Chapter 1",
		"subtarefas": []map[string]any{{"nome": "A", "concluido": true}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Contains(t, string(body), `"concluida":true`)
	task = decodeTask(t, body)
	assert.True(t, task.Complete)
	assert.Equal(t, 100, task.Progress)
}

func TestTasksAreOwnerScoped(t *testing.T) {
	e := newEnv(t)
	ana := e.signIn(t, "ana@example.com")
	bia := e.signIn(t, "bia@example.com")

	resp, body := e.do(t, http.MethodPost, "/api/v1/tasks", ana, map[string]any{
		"titulo": "Mine", "description": "d", "subtarefas": []map[string]any{{"nome": "A"}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	task := decodeTask(t, body)

	resp, _ = e.do(t, http.MethodGet, "/api/v1/tasks/"+task.ID, bia, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMeAndAccountDeletion(t *testing.T) {
	e := newEnv(t)
	token := e.signIn(t, "ana@example.com")

	resp, body := e.do(t, http.MethodPatch, "/api/v1/me", token, map[string]string{"display_name": "Ana Maria"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Ana Maria")
	assert.Contains(t, string(body), "gravatar.com/avatar/")

	resp, _ = e.do(t, http.MethodDelete, "/api/v1/me", token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = e.do(t, http.MethodGet, "/api/v1/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMetricsExposed(t *testing.T) {
	e := newEnv(t)
	e.do(t, http.MethodGet, "/healthz", "", nil)

	resp, body := e.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "focusflow_http_requests_total")
}
