package taskdetail

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/focusflow/internal/keys"
	"github.com/nhle/focusflow/internal/model"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func sample() *model.Task {
	t := &model.Task{
		ID:          "t1",
		Title:       "Study",
		Description: "Exam prep",
		Priority:    model.PriorityHigh,
		SubItems:    []model.SubItem{{Name: "A"}, {Name: "B", Complete: true}, {Name: "C"}},
	}
	t.Reconcile()
	return t
}

func action(t *testing.T, cmd tea.Cmd) ActionMsg {
	t.Helper()
	require.NotNil(t, cmd)
	msg, ok := cmd().(ActionMsg)
	require.True(t, ok)
	return msg
}

func TestCursorAndToggle(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 30)
	m.SetTask(sample())

	m, _ = m.Update(runes("j"))
	m, _ = m.Update(runes("j"))
	m, _ = m.Update(runes("j"))
	assert.Equal(t, 2, m.Cursor())

	_, cmd := m.Update(runes("x"))
	got := action(t, cmd)
	assert.Equal(t, ActionToggle, got.Action)
	assert.Equal(t, "t1", got.TaskID)
	assert.Equal(t, 2, got.Index)

	_, cmd = m.Update(runes("d"))
	assert.Equal(t, ActionRemove, action(t, cmd).Action)
}

func TestCursorClampedOnRefresh(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 30)
	m.SetTask(sample())
	m, _ = m.Update(runes("j"))
	m, _ = m.Update(runes("j"))

	shorter := sample()
	shorter.SubItems = shorter.SubItems[:1]
	m.SetTask(shorter)
	assert.Equal(t, 0, m.Cursor())
}

func TestAddSubItem(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 30)
	m.SetTask(sample())

	m, _ = m.Update(runes("a"))
	require.True(t, m.Adding())
	m, _ = m.Update(runes("Review"))
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, m.Adding())

	got := action(t, cmd)
	assert.Equal(t, ActionAdd, got.Action)
	assert.Equal(t, "Review", got.Name)
}

func TestCompleteAndBack(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 30)
	task := sample()
	task.SubItems = nil
	task.Reconcile()
	m.SetTask(task)

	_, cmd := m.Update(runes("c"))
	got := action(t, cmd)
	assert.Equal(t, ActionComplete, got.Action)
	assert.True(t, got.Complete)

	_, cmd = m.Update(runes("x"))
	assert.Nil(t, cmd)

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.IsType(t, BackMsg{}, cmd())
}

func TestViewShowsProgress(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 30)
	m.SetTask(sample())
	view := m.View()
	assert.Contains(t, view, "Study")
	assert.Contains(t, view, "33%")
	assert.Contains(t, view, "1 of 3 done")
}
