package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"oasisauth/internal/models"
)

func newTestChallengeStore(t *testing.T) (*ResetChallengeStore, *memoryRepo, *models.Account) {
	t.Helper()

	repo := newMemoryRepo()
	account, err := repo.Create(context.Background(), &models.Account{
		Username: "some_user",
		Email:    "user@example.com",
		Role:     models.RoleCustomer,
		Verified: true,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	return NewResetChallengeStore(repo), repo, account
}

func TestResetChallengeBegin(t *testing.T) {
	store, repo, account := newTestChallengeStore(t)

	secret, err := store.Begin(context.Background(), account)
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}

	if len(secret) != 64 {
		t.Errorf("secret length = %d, want 64 hex characters", len(secret))
	}

	if !account.HasResetChallenge() {
		t.Fatal("expected a pending challenge")
	}
	if account.Reset.TokenHash == secret {
		t.Error("plaintext secret was stored instead of its hash")
	}
	if account.Reset.TokenHash != HashResetSecret(secret) {
		t.Error("stored hash does not match the returned secret")
	}
	if account.Reset.Attempts != 0 {
		t.Errorf("Attempts = %d, want 0", account.Reset.Attempts)
	}

	// The challenge must be persisted, not only held in memory
	saved, err := repo.FindByID(context.Background(), account.ID)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if saved == nil || !saved.HasResetChallenge() {
		t.Fatal("challenge was not persisted")
	}
}

func TestResetChallengeBeginReplacesPending(t *testing.T) {
	store, _, account := newTestChallengeStore(t)
	ctx := context.Background()

	first, err := store.Begin(ctx, account)
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	second, err := store.Begin(ctx, account)
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}

	if first == second {
		t.Fatal("expected a fresh secret on each Begin")
	}
	if err := store.Consume(ctx, account, first); !errors.Is(err, ErrSecretMismatch) {
		t.Errorf("Consume(old secret) error = %v, want ErrSecretMismatch", err)
	}
	if err := store.Consume(ctx, account, second); err != nil {
		t.Errorf("Consume(current secret) error = %v, want nil", err)
	}
}

func TestResetChallengeConsumeMatchLeavesChallenge(t *testing.T) {
	store, _, account := newTestChallengeStore(t)
	ctx := context.Background()

	secret, err := store.Begin(ctx, account)
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}

	if err := store.Consume(ctx, account, secret); err != nil {
		t.Fatalf("Consume() error = %v", err)
	}

	// A match does not burn the challenge; the caller clears it after
	// the authorized change is applied
	if !account.HasResetChallenge() {
		t.Fatal("challenge was cleared by Consume")
	}

	store.Clear(account)
	if account.HasResetChallenge() {
		t.Fatal("challenge survived Clear")
	}
}

func TestResetChallengeConsumeNoChallenge(t *testing.T) {
	store, _, account := newTestChallengeStore(t)

	err := store.Consume(context.Background(), account, "anything")
	if !errors.Is(err, ErrNoActiveChallenge) {
		t.Fatalf("Consume() error = %v, want ErrNoActiveChallenge", err)
	}
}

func TestResetChallengeLockout(t *testing.T) {
	store, repo, account := newTestChallengeStore(t)
	ctx := context.Background()

	secret, err := store.Begin(ctx, account)
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}

	for i := 1; i <= 3; i++ {
		if err := store.Consume(ctx, account, "wrong-secret"); !errors.Is(err, ErrSecretMismatch) {
			t.Fatalf("attempt %d: error = %v, want ErrSecretMismatch", i, err)
		}
		if account.Reset.Attempts != i {
			t.Fatalf("attempt %d: Attempts = %d, want %d", i, account.Reset.Attempts, i)
		}
	}

	if account.Reset.LockedUntil == nil {
		t.Fatal("expected a lockout after the third failed attempt")
	}

	// Even the correct secret is rejected while locked
	if err := store.Consume(ctx, account, secret); !errors.Is(err, ErrChallengeLocked) {
		t.Fatalf("Consume() while locked error = %v, want ErrChallengeLocked", err)
	}

	// The counter and lockout survive a reload
	saved, err := repo.FindByID(ctx, account.ID)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if saved.Reset == nil || saved.Reset.Attempts != 3 || saved.Reset.LockedUntil == nil {
		t.Fatal("lockout state was not persisted")
	}
}

func TestResetChallengeConsumeCountsAcrossStaleCopies(t *testing.T) {
	store, repo, account := newTestChallengeStore(t)
	ctx := context.Background()

	secret, err := store.Begin(ctx, account)
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}

	fetch := func() *models.Account {
		t.Helper()
		a, err := repo.FindByID(ctx, account.ID)
		if err != nil || a == nil {
			t.Fatalf("FindByID() = %v, %v", a, err)
		}
		return a
	}

	// Two requests holding independently fetched copies each guess
	// wrong; both failures must land on the persisted counter
	copyA, copyB := fetch(), fetch()
	if err := store.Consume(ctx, copyA, "wrong-1"); !errors.Is(err, ErrSecretMismatch) {
		t.Fatalf("Consume(copyA) error = %v, want ErrSecretMismatch", err)
	}
	if err := store.Consume(ctx, copyB, "wrong-2"); !errors.Is(err, ErrSecretMismatch) {
		t.Fatalf("Consume(copyB) error = %v, want ErrSecretMismatch", err)
	}

	if got := fetch().Reset.Attempts; got != 2 {
		t.Fatalf("persisted Attempts = %d after two failed guesses, want 2", got)
	}

	// A copy fetched before the lockout lands must not slip past it
	stale := fetch()
	if err := store.Consume(ctx, fetch(), "wrong-3"); !errors.Is(err, ErrSecretMismatch) {
		t.Fatalf("Consume() error = %v, want ErrSecretMismatch", err)
	}
	if fetch().Reset.LockedUntil == nil {
		t.Fatal("expected a lockout after the third failed attempt")
	}
	if err := store.Consume(ctx, stale, secret); !errors.Is(err, ErrChallengeLocked) {
		t.Fatalf("Consume(stale copy, correct secret) error = %v, want ErrChallengeLocked", err)
	}
}

func TestResetChallengeConsumeExpired(t *testing.T) {
	store, repo, account := newTestChallengeStore(t)
	ctx := context.Background()

	secret, err := store.Begin(ctx, account)
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	account.Reset.ExpiresAt = time.Now().Add(-time.Minute)
	if err := repo.Update(ctx, account); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	// Presenting a secret past expiry is not a guess; the counter
	// stays untouched even for the correct secret
	if err := store.Consume(ctx, account, secret); !errors.Is(err, ErrChallengeExpired) {
		t.Fatalf("Consume() error = %v, want ErrChallengeExpired", err)
	}
	if account.Reset.Attempts != 0 {
		t.Errorf("Attempts = %d, want 0 after expiry", account.Reset.Attempts)
	}

	if err := store.Consume(ctx, account, "wrong-secret"); !errors.Is(err, ErrChallengeExpired) {
		t.Fatalf("Consume() error = %v, want ErrChallengeExpired", err)
	}
	if account.Reset.Attempts != 0 {
		t.Errorf("Attempts = %d, want 0 after expiry", account.Reset.Attempts)
	}
}
