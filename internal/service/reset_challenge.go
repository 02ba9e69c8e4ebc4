package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"oasisauth/internal/models"
)

const (
	resetChallengeTTL = 30 * time.Minute
	resetLockDuration = 1 * time.Hour
	maxResetAttempts  = 3
	resetSecretBytes  = 32
)

// HashResetSecret returns the hex-encoded SHA-256 digest of a reset
// secret. Only this digest is ever persisted.
func HashResetSecret(secret string) string {
	digest := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(digest[:])
}

// ResetChallengeStore manages the one-time password-reset secret for
// an account: generation, hashed storage, expiry, attempt counting and
// lockout. Consume calls for the same account are serialized so the
// attempt counter can never be under-counted by a race.
type ResetChallengeStore struct {
	repo AccountRepository

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewResetChallengeStore creates a challenge store persisting through
// the given repository
func NewResetChallengeStore(repo AccountRepository) *ResetChallengeStore {
	return &ResetChallengeStore{
		repo:  repo,
		locks: make(map[string]*sync.Mutex),
	}
}

// accountLock returns the mutex serializing challenge mutations for
// one account
func (s *ResetChallengeStore) accountLock(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[id] = lock
	}
	return lock
}

// Begin mints a fresh reset secret for the account, replacing any
// pending challenge. It stores only the secret's hash with a 30 minute
// expiry, resets the attempt counter and clears any lockout, then
// returns the plaintext secret for one-time delivery to the caller.
// The plaintext is never persisted or logged.
func (s *ResetChallengeStore) Begin(ctx context.Context, account *models.Account) (string, error) {
	lock := s.accountLock(account.ID)
	lock.Lock()
	defer lock.Unlock()

	buf := make([]byte, resetSecretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate reset secret: %w", err)
	}
	secret := hex.EncodeToString(buf)

	account.Reset = &models.ResetChallenge{
		TokenHash: HashResetSecret(secret),
		ExpiresAt: time.Now().Add(resetChallengeTTL),
		Attempts:  0,
	}

	if err := s.repo.Update(ctx, account); err != nil {
		return "", fmt.Errorf("failed to save reset challenge: %w", err)
	}

	return secret, nil
}

// Consume checks a candidate secret against the pending challenge.
//
// Failure modes, in order: ErrNoActiveChallenge when nothing is
// pending, ErrChallengeLocked while a lockout is in force (even for a
// correct secret), ErrChallengeExpired past the expiry (expiry is not
// an attempted guess, so the counter is untouched), and
// ErrSecretMismatch on a wrong secret, which increments the persisted
// attempt counter and locks the challenge for an hour on the third
// failure.
//
// The caller's copy of the account may be stale, so the challenge is
// re-read from the repository under the per-account lock and every
// check runs against that persisted state; the caller's struct is
// synced to it before returning. Trusting the caller's copy would let
// two requests increment the same stale counter, or let a copy read
// before a lockout match straight past it.
//
// On a match Consume returns nil and leaves the challenge in place;
// the caller clears it only after the password change has been applied
// so a crash in between cannot burn the secret with no password
// rotated.
func (s *ResetChallengeStore) Consume(ctx context.Context, account *models.Account, candidate string) error {
	lock := s.accountLock(account.ID)
	lock.Lock()
	defer lock.Unlock()

	fresh, err := s.repo.FindByID(ctx, account.ID)
	if err != nil {
		return fmt.Errorf("failed to reload reset challenge: %w", err)
	}
	if fresh == nil || !fresh.HasResetChallenge() {
		account.ClearResetChallenge()
		return ErrNoActiveChallenge
	}
	account.Reset = fresh.Reset

	now := time.Now()
	if fresh.Reset.IsLocked(now) {
		return ErrChallengeLocked
	}
	if fresh.Reset.IsExpired(now) {
		return ErrChallengeExpired
	}

	candidateHash := HashResetSecret(candidate)
	if subtle.ConstantTimeCompare([]byte(candidateHash), []byte(fresh.Reset.TokenHash)) == 1 {
		return nil
	}

	fresh.Reset.Attempts++
	if fresh.Reset.Attempts >= maxResetAttempts {
		lockedUntil := now.Add(resetLockDuration)
		fresh.Reset.LockedUntil = &lockedUntil
	}
	if err := s.repo.Update(ctx, fresh); err != nil {
		return fmt.Errorf("failed to record reset attempt: %w", err)
	}

	return ErrSecretMismatch
}

// Clear wipes the account's challenge state in memory. It does not
// persist; the caller saves the account alongside whatever change the
// match authorized. Idempotent.
func (s *ResetChallengeStore) Clear(account *models.Account) {
	account.ClearResetChallenge()
}
