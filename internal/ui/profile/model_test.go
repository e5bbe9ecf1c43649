package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nhle/focusflow/internal/model"
)

func user() *model.User {
	return &model.User{ID: "u1", Email: "ana@example.com", DisplayName: "Ana", EmailVerified: true}
}

func TestMenuAdvances(t *testing.T) {
	m := New(80, 30)
	m.Start(user())

	m.fb.choice = ActionUpdateName
	m, _ = m.advance()
	assert.Equal(t, stageInput, m.stage)
	assert.Equal(t, "Ana", m.fb.value, "name input is prefilled")

	m.fb.value = "  Ana Maria "
	_, cmd := m.advance()
	assert.Equal(t, SubmitMsg{Action: ActionUpdateName, Value: "Ana Maria"}, cmd())
}

func TestSignOutAndBack(t *testing.T) {
	m := New(80, 30)
	m.Start(user())

	m.fb.choice = ActionSignOut
	_, cmd := m.advance()
	assert.Equal(t, SubmitMsg{Action: ActionSignOut}, cmd())

	m.fb.choice = ActionNone
	_, cmd = m.advance()
	assert.IsType(t, BackMsg{}, cmd())
}

func TestDeleteNeedsConfirmation(t *testing.T) {
	m := New(80, 30)
	m.Start(user())

	m.fb.choice = ActionDeleteAccount
	m, _ = m.advance()
	assert.Equal(t, stageConfirmDelete, m.stage)

	m.fb.sure = false
	m, _ = m.advance()
	assert.Equal(t, stageMenu, m.stage)

	m.fb.choice = ActionDeleteAccount
	m, _ = m.advance()
	m.fb.sure = true
	_, cmd := m.advance()
	assert.Equal(t, SubmitMsg{Action: ActionDeleteAccount}, cmd())
}

func TestViewShowsAccount(t *testing.T) {
	m := New(100, 30)
	u := user()
	u.PendingEmail = "new@example.com"
	m.Start(u)
	view := m.View()
	assert.Contains(t, view, "gravatar.com/avatar/")
	assert.Contains(t, view, "new@example.com")
}
