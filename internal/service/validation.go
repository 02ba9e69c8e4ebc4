package service

import (
	"regexp"
	"strings"
)

var (
	emailRegex    = regexp.MustCompile(`^\w+([.-]?\w+)*@\w+([.-]?\w+)*(\.\w{2,})+$`)
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
)

// NormalizeEmail trims and lower-cases an email address. Accounts store
// the normalized form so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks if an email address is valid
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return &MissingFieldError{Field: "email"}
	}
	if !emailRegex.MatchString(email) {
		return &ValidationError{Field: "email", Message: "invalid email format"}
	}
	return nil
}

// ValidateUsername checks if a username is valid: 3-30 characters of
// letters, numbers and underscores
func ValidateUsername(username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return &MissingFieldError{Field: "username"}
	}
	if len(username) < 3 {
		return &ValidationError{Field: "username", Message: "username must be at least 3 characters"}
	}
	if len(username) > 30 {
		return &ValidationError{Field: "username", Message: "username cannot exceed 30 characters"}
	}
	if !usernameRegex.MatchString(username) {
		return &ValidationError{Field: "username", Message: "username can only contain letters, numbers, and underscores"}
	}
	return nil
}
