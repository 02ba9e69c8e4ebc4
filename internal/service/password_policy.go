package service

import "strings"

const passwordSpecialChars = `!@#$%^&*(),.?":{}|<>`

// PasswordStrength is the result of scoring a password against the
// policy. Each satisfied criterion contributes one strength point.
type PasswordStrength struct {
	IsValid        bool
	HasLength      bool
	HasUpperCase   bool
	HasLowerCase   bool
	HasNumber      bool
	HasSpecialChar bool
	Strength       int
	Messages       []string
}

// CheckPasswordStrength scores a password against the five policy
// criteria: minimum length, uppercase, lowercase, digit, special
// character. Messages names the unmet criteria in check order.
func CheckPasswordStrength(password string) PasswordStrength {
	status := PasswordStrength{}

	if len(password) >= 8 {
		status.HasLength = true
		status.Strength++
	} else {
		status.Messages = append(status.Messages, "Password must be at least 8 characters long")
	}

	if strings.ContainsFunc(password, func(r rune) bool { return r >= 'A' && r <= 'Z' }) {
		status.HasUpperCase = true
		status.Strength++
	} else {
		status.Messages = append(status.Messages, "Must contain at least one uppercase letter")
	}

	if strings.ContainsFunc(password, func(r rune) bool { return r >= 'a' && r <= 'z' }) {
		status.HasLowerCase = true
		status.Strength++
	} else {
		status.Messages = append(status.Messages, "Must contain at least one lowercase letter")
	}

	if strings.ContainsFunc(password, func(r rune) bool { return r >= '0' && r <= '9' }) {
		status.HasNumber = true
		status.Strength++
	} else {
		status.Messages = append(status.Messages, "Must contain at least one number")
	}

	if strings.ContainsAny(password, passwordSpecialChars) {
		status.HasSpecialChar = true
		status.Strength++
	} else {
		status.Messages = append(status.Messages, "Must contain at least one special character")
	}

	status.IsValid = status.HasLength && status.HasUpperCase && status.HasLowerCase &&
		status.HasNumber && status.HasSpecialChar

	return status
}

// ValidatePassword checks a password against the policy and returns a
// WeakPasswordError naming every unmet criterion
func ValidatePassword(password string) error {
	status := CheckPasswordStrength(password)
	if !status.IsValid {
		return &WeakPasswordError{Messages: status.Messages}
	}
	return nil
}
