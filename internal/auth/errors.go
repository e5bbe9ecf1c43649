package auth

import "errors"

// Account errors. Callers map them to user-facing messages.
var (
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrWeakPassword       = errors.New("password does not meet the requirements")
	ErrEmailInUse         = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailNotVerified   = errors.New("email not verified; a new verification email was sent")
	ErrSameEmail          = errors.New("new email must differ from the current one")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrEmptyName          = errors.New("name must not be empty")
)
