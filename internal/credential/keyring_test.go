package credential

import (
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionsRoundTrip(t *testing.T) {
	s := NewSessions(keyring.NewArrayKeyring(nil))

	_, err := s.Load()
	assert.ErrorIs(t, err, ErrNoSession)

	require.NoError(t, s.Save("tok"))
	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, "tok", got)

	require.NoError(t, s.Clear())
	_, err = s.Load()
	assert.ErrorIs(t, err, ErrNoSession)

	assert.NoError(t, s.Clear())
}
