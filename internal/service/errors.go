package service

import (
	"errors"
	"fmt"
	"strings"
)

// Operational errors returned by the identity service. Handlers map
// these onto HTTP status codes; anything not listed here is treated as
// an internal fault and must not leak detail to the caller.
var (
	ErrNotFound           = errors.New("no account found with this email address")
	ErrUnverified         = errors.New("email address has not been verified")
	ErrAlreadyVerified    = errors.New("email is already verified")
	ErrInvalidCredentials = errors.New("invalid password")

	ErrTokenExpired = errors.New("token has expired")
	ErrTokenInvalid = errors.New("token is invalid")
	ErrTokenPurpose = errors.New("invalid token purpose")

	ErrNoActiveChallenge     = errors.New("no password reset is pending")
	ErrChallengeExpired      = errors.New("password reset secret has expired")
	ErrChallengeLocked       = errors.New("password reset is temporarily locked")
	ErrSecretMismatch        = errors.New("password reset secret does not match")
	ErrResetInvalidOrExpired = errors.New("invalid or expired password reset token")
)

// MissingFieldError reports a required request field that was empty
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s is required", e.Field)
}

// ValidationError reports a request field that failed validation
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// WeakPasswordError carries the messages for every unmet strength
// criterion, in the order the criteria are checked
type WeakPasswordError struct {
	Messages []string
}

func (e *WeakPasswordError) Error() string {
	return strings.Join(e.Messages, ", ")
}

// DuplicateError reports a unique-constraint conflict on registration
type DuplicateError struct {
	Field string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("an account with this %s already exists", e.Field)
}

// DeliveryError wraps a failed outbound email. For registration the
// account row is already persisted when this is returned; resend covers
// the gap.
type DeliveryError struct {
	Err error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("failed to send email: %v", e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// HashingError wraps a fault in the password hashing primitive. It is
// internal, never a mismatch.
type HashingError struct {
	Err error
}

func (e *HashingError) Error() string {
	return fmt.Sprintf("password hashing failed: %v", e.Err)
}

func (e *HashingError) Unwrap() error { return e.Err }
