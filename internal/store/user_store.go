package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/focusflow/internal/model"
)

// ErrEmailTaken is returned when an email is already registered.
var ErrEmailTaken = errors.New("email already registered")

const userColumns = `id, email, display_name, password_hash, email_verified,
	verification_token, pending_email, reset_token, reset_expires_at,
	created_at, updated_at`

// CreateUser inserts a new account. Generates a UUID if ID is empty.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *model.User) error {
	user.Email = strings.TrimSpace(user.Email)
	if user.Email == "" {
		return fmt.Errorf("user email must not be empty")
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Email, user.DisplayName, user.PasswordHash,
		boolToInt(user.EmailVerified), user.VerificationToken, user.PendingEmail,
		user.ResetToken, nullableTime(user.ResetExpiresAt),
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("creating user %s: %w", user.Email, ErrEmailTaken)
		}
		return fmt.Errorf("creating user: %w", err)
	}
	return nil
}

// UpdateUser rewrites an existing account by ID.
func (s *SQLiteStore) UpdateUser(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE users SET
			email = ?, display_name = ?, password_hash = ?, email_verified = ?,
			verification_token = ?, pending_email = ?,
			reset_token = ?, reset_expires_at = ?, updated_at = ?
		WHERE id = ?`,
		user.Email, user.DisplayName, user.PasswordHash, boolToInt(user.EmailVerified),
		user.VerificationToken, user.PendingEmail,
		user.ResetToken, nullableTime(user.ResetExpiresAt), user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("updating user %s: %w", user.ID, ErrEmailTaken)
		}
		return fmt.Errorf("updating user %s: %w", user.ID, err)
	}
	return expectAffected(result, "user", user.ID)
}

// DeleteUser removes an account. Cascades to tasks, notifications and
// preferences.
func (s *SQLiteStore) DeleteUser(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting user %s: %w", id, err)
	}
	return expectAffected(result, "user", id)
}

// GetUserByID retrieves an account by ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return s.getUser(ctx, "id", id)
}

// GetUserByEmail retrieves an account by email, case-insensitively.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.getUser(ctx, "email", strings.TrimSpace(email))
}

// GetUserByVerificationToken retrieves the account awaiting token.
func (s *SQLiteStore) GetUserByVerificationToken(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, fmt.Errorf("empty verification token: %w", ErrNotFound)
	}
	return s.getUser(ctx, "verification_token", token)
}

// GetUserByResetToken retrieves the account holding a password reset token.
func (s *SQLiteStore) GetUserByResetToken(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, fmt.Errorf("empty reset token: %w", ErrNotFound)
	}
	return s.getUser(ctx, "reset_token", token)
}

// getUser loads a single user by a trusted column name.
func (s *SQLiteStore) getUser(ctx context.Context, column, value string) (*model.User, error) {
	var user model.User
	err := s.db.GetContext(ctx, &user,
		"SELECT "+userColumns+" FROM users WHERE "+column+" = ?", value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user with %s: %w", column, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by %s: %w", column, err)
	}
	return &user, nil
}

// nullableTime binds an optional timestamp as NULL or a UTC time.
func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
