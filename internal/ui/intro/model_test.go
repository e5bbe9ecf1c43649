package intro

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadThrough(t *testing.T) {
	m := New(80, 24)
	var cmd tea.Cmd
	for i := 0; i < len(Steps)-1; i++ {
		m, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		assert.Nil(t, cmd)
	}
	assert.Equal(t, len(Steps)-1, m.Step())
	assert.Contains(t, m.View(), "Start")

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, DoneMsg{Skipped: false}, cmd())
}

func TestSkip(t *testing.T) {
	m := New(80, 24)
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, DoneMsg{Skipped: true}, cmd())
}
