package credential

import (
	"errors"
	"fmt"

	"github.com/99designs/keyring"
)

const (
	serviceName = "focusflow"
	sessionKey  = "session-token"
)

// ErrNoSession is returned when no session token has been saved.
var ErrNoSession = errors.New("no saved session")

// openKeyring returns a configured keyring instance.
func openKeyring() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/focusflow/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("focusflow-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// Sessions keeps the signed-in user's session token between runs, so
// the terminal client does not ask for a password on every start.
type Sessions struct {
	ring keyring.Keyring
}

// OpenSessions opens the system keyring.
func OpenSessions() (*Sessions, error) {
	ring, err := openKeyring()
	if err != nil {
		return nil, err
	}
	return &Sessions{ring: ring}, nil
}

// NewSessions wraps an existing keyring, e.g. keyring.NewArrayKeyring in tests.
func NewSessions(ring keyring.Keyring) *Sessions {
	return &Sessions{ring: ring}
}

// Save stores the session token.
func (s *Sessions) Save(token string) error {
	err := s.ring.Set(keyring.Item{
		Key:   sessionKey,
		Data:  []byte(token),
		Label: "FocusFlow session",
	})
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// Load returns the saved session token, or ErrNoSession.
func (s *Sessions) Load() (string, error) {
	item, err := s.ring.Get(sessionKey)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", ErrNoSession
	}
	if err != nil {
		return "", fmt.Errorf("loading session: %w", err)
	}
	if len(item.Data) == 0 {
		return "", ErrNoSession
	}
	return string(item.Data), nil
}

// Clear forgets the saved session. Clearing an absent session is not
// an error.
func (s *Sessions) Clear() error {
	err := s.ring.Remove(sessionKey)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}
