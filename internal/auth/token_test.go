package auth

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssueAndParse(t *testing.T) {
	issuer, err := NewTokenIssuer("secret", time.Hour)
	require.NoError(t, err)

	session, err := issuer.Issue("user-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", session.UserID)

	userID, err := issuer.Parse(session.Token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestTokenExpired(t *testing.T) {
	issuer, err := NewTokenIssuer("secret", time.Minute)
	require.NoError(t, err)

	session, err := issuer.Issue("user-1")
	require.NoError(t, err)

	issuer.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = issuer.Parse(session.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenWrongSecret(t *testing.T) {
	a, err := NewTokenIssuer("a", time.Hour)
	require.NoError(t, err)
	b, err := NewTokenIssuer("b", time.Hour)
	require.NoError(t, err)

	session, err := a.Issue("user-1")
	require.NoError(t, err)
	_, err = b.Parse(session.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenRandomSecret(t *testing.T) {
	a, err := NewTokenIssuer("", time.Hour)
	require.NoError(t, err)
	b, err := NewTokenIssuer("", time.Hour)
	require.NoError(t, err)

	session, err := a.Issue("user-1")
	require.NoError(t, err)
	_, err = b.Parse(session.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestOutboxMailerWritesMessage(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "outbox")
	m := NewOutboxMailer(dir, "no-reply@focusflow.local")

	require.NoError(t, m.Send(context.Background(), Message{
		To:      "ana@example.com",
		Subject: "Verify your FocusFlow email",
		Body:    "code: 1234\n",
	}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ".eml", filepath.Ext(entries[0].Name()))

	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)

	r, err := mail.CreateReader(bytes.NewReader(data))
	require.NoError(t, err)

	subject, err := r.Header.Subject()
	require.NoError(t, err)
	assert.Equal(t, "Verify your FocusFlow email", subject)

	to, err := r.Header.AddressList("To")
	require.NoError(t, err)
	require.Len(t, to, 1)
	assert.Equal(t, "ana@example.com", to[0].Address)

	assert.Contains(t, string(data), "code: 1234")
}
