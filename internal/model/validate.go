package model

import (
	"strings"
	"unicode/utf8"
)

// MinPasswordLength is the shortest accepted password, in characters.
const MinPasswordLength = 6

// PasswordSpecials is the set of characters that satisfy the
// special-character rule.
const PasswordSpecials = "!@#$%^&*()_+-=[]{};':\"\\|,.<>/?~`"

// PasswordRequirements is the user-facing description of ValidatePassword.
const PasswordRequirements = "Password must be at least 6 characters and contain an " +
	"uppercase letter, a lowercase letter, a digit and a special character."

// ValidateTaskCreation checks a new task's input before anything is
// persisted. The first failing check is reported.
func ValidateTaskCreation(title, description string, items []SubItem) error {
	if err := ValidateTaskDetails(title, description); err != nil {
		return err
	}
	if len(items) == 0 {
		return ErrNoSubItems
	}
	return nil
}

// ValidateTaskDetails checks the descriptive fields of a task.
func ValidateTaskDetails(title, description string) error {
	if strings.TrimSpace(title) == "" {
		return ErrEmptyTitle
	}
	if strings.TrimSpace(description) == "" {
		return ErrEmptyDescription
	}
	return nil
}

// ValidatePassword reports whether candidate is long enough and mixes
// lowercase, uppercase, digit and special characters.
func ValidatePassword(candidate string) bool {
	if utf8.RuneCountInString(candidate) < MinPasswordLength {
		return false
	}
	var lower, upper, digit, special bool
	for _, r := range candidate {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(PasswordSpecials, r):
			special = true
		}
	}
	return lower && upper && digit && special
}
