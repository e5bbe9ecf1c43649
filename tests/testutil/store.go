package testutil

import (
	"context"
	"testing"

	"github.com/nhle/focusflow/internal/model"
	"github.com/nhle/focusflow/internal/store"
)

// NewTestStore creates an in-memory SQLiteStore with all migrations applied.
// It automatically closes the store when the test completes.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// CreateUser inserts a verified user with the given email and returns it.
func CreateUser(t *testing.T, s store.Store, email string) *model.User {
	t.Helper()

	u := &model.User{
		Email:         email,
		DisplayName:   "Test User",
		PasswordHash:  "x",
		EmailVerified: true,
	}
	if err := s.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("creating test user %s: %v", email, err)
	}
	return u
}
