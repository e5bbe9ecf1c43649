package theme

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply(t *testing.T) {
	dark := lipgloss.HasDarkBackground()
	t.Cleanup(func() { lipgloss.SetHasDarkBackground(dark) })

	require.NoError(t, Apply("light"))
	assert.False(t, lipgloss.HasDarkBackground())

	require.NoError(t, Apply(" Dark "))
	assert.True(t, lipgloss.HasDarkBackground())

	require.NoError(t, Apply(ThemeDefault))
	assert.True(t, lipgloss.HasDarkBackground(), "default keeps the current detection")

	assert.Error(t, Apply("solarized"))
}
