package service

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// DefaultHashCost is the bcrypt cost used when none is configured.
// Stored hashes with a different cost are upgraded on the next
// successful login.
const DefaultHashCost = 10

// SecretHasher hashes and verifies passwords with bcrypt at a fixed
// cost. Each hash carries its own salt, so hashing the same password
// twice yields different outputs.
type SecretHasher struct {
	cost int
}

// NewSecretHasher creates a hasher with the given bcrypt cost. Costs
// outside bcrypt's supported range fall back to DefaultHashCost.
func NewSecretHasher(cost int) *SecretHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultHashCost
	}
	return &SecretHasher{cost: cost}
}

// Hash generates a salted bcrypt hash of the plaintext
func (h *SecretHasher) Hash(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", &HashingError{Err: err}
	}
	return string(hashed), nil
}

// Verify reports whether plaintext matches the stored hash. A mismatch
// is false, not an error; only primitive-level faults (a malformed
// stored hash) return a HashingError.
func (h *SecretHasher) Verify(plaintext, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, &HashingError{Err: err}
}

// NeedsRehash reports whether the stored hash was generated at a
// different cost than the configured one
func (h *SecretHasher) NeedsRehash(hash string) bool {
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		return false
	}
	return cost != h.cost
}
