package model

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
	"time"
)

// defaultAvatarURL is served when a user has no email on record.
const defaultAvatarURL = "https://www.gravatar.com/avatar/00000000000000000000000000000000?d=identicon"

// User is a registered account.
type User struct {
	ID           string `json:"id" db:"id"`
	Email        string `json:"email" db:"email"`
	DisplayName  string `json:"display_name" db:"display_name"`
	PasswordHash string `json:"-" db:"password_hash"`

	// EmailVerified gates access to tasks.
	EmailVerified bool `json:"email_verified" db:"email_verified"`

	// VerificationToken confirms either the account email or, when
	// PendingEmail is set, an email change.
	VerificationToken string `json:"-" db:"verification_token"`
	PendingEmail      string `json:"pending_email,omitempty" db:"pending_email"`

	ResetToken     string     `json:"-" db:"reset_token"`
	ResetExpiresAt *time.Time `json:"-" db:"reset_expires_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// AvatarURL returns the Gravatar identicon URL for the user's email.
func (u User) AvatarURL() string {
	email := strings.ToLower(strings.TrimSpace(u.Email))
	if email == "" {
		return defaultAvatarURL
	}
	sum := md5.Sum([]byte(email))
	return "https://www.gravatar.com/avatar/" + hex.EncodeToString(sum[:]) + "?d=identicon"
}

// Name returns the display name, falling back to the email address.
func (u User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Email
}
