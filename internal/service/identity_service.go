package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"oasisauth/internal/models"
)

// AccountRepository is the persistent account store. Find methods
// return (nil, nil) when no account matches; Create and Update return
// a DuplicateError on a unique-constraint violation.
type AccountRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	FindByID(ctx context.Context, id string) (*models.Account, error)
	FindByEmailOrUsername(ctx context.Context, email, username string) (*models.Account, error)
	// FindByResetTokenHash matches only accounts whose reset challenge
	// has not yet expired.
	FindByResetTokenHash(ctx context.Context, tokenHash string) (*models.Account, error)
	Create(ctx context.Context, account *models.Account) (*models.Account, error)
	Update(ctx context.Context, account *models.Account) error
}

// Notifier delivers outbound email. Implementations should honor the
// context deadline; the identity service bounds every send.
type Notifier interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// DefaultMailTimeout bounds a single outbound email on the request path
const DefaultMailTimeout = 10 * time.Second

// IdentityService orchestrates registration, login, email
// verification and the two-phase password reset flow. It holds no
// in-process session state; the account row is the sole unit of
// durable truth.
type IdentityService struct {
	repo        AccountRepository
	notifier    Notifier
	hasher      *SecretHasher
	tokens      *TokenIssuer
	resets      *ResetChallengeStore
	baseURL     string
	mailTimeout time.Duration
}

// NewIdentityService creates the identity service. baseURL is the
// public application URL used to build emailed links.
func NewIdentityService(repo AccountRepository, notifier Notifier, hasher *SecretHasher, tokens *TokenIssuer, resets *ResetChallengeStore, baseURL string, mailTimeout time.Duration) *IdentityService {
	if mailTimeout <= 0 {
		mailTimeout = DefaultMailTimeout
	}
	return &IdentityService{
		repo:        repo,
		notifier:    notifier,
		hasher:      hasher,
		tokens:      tokens,
		resets:      resets,
		baseURL:     strings.TrimRight(baseURL, "/"),
		mailTimeout: mailTimeout,
	}
}

// LoginResult is returned by a successful login
type LoginResult struct {
	Account models.Profile `json:"user"`
	Token   string         `json:"token"`
}

// ResetGrant is returned after a reset-authorization token is
// redeemed: the one-time secret for the actual password reset. It is
// handed directly to the caller, never emailed.
type ResetGrant struct {
	Secret string `json:"resetToken"`
	Email  string `json:"email"`
}

// sendMail delivers one notification with a bounded timeout. Any
// failure, including timeout, surfaces as a DeliveryError.
func (s *IdentityService) sendMail(ctx context.Context, to, subject, htmlBody string) error {
	ctx, cancel := context.WithTimeout(ctx, s.mailTimeout)
	defer cancel()

	if err := s.notifier.Send(ctx, to, subject, htmlBody); err != nil {
		return &DeliveryError{Err: err}
	}
	return nil
}

// Register creates a new unverified account and emails a verification
// link. If the email cannot be delivered the account row stays
// persisted and a DeliveryError is returned; ResendVerification covers
// the gap.
func (s *IdentityService) Register(ctx context.Context, email, username, password string) (models.Profile, error) {
	email = NormalizeEmail(email)
	username = strings.TrimSpace(username)

	if err := ValidateEmail(email); err != nil {
		return models.Profile{}, err
	}
	if err := ValidateUsername(username); err != nil {
		return models.Profile{}, err
	}
	if password == "" {
		return models.Profile{}, &MissingFieldError{Field: "password"}
	}

	existing, err := s.repo.FindByEmailOrUsername(ctx, email, username)
	if err != nil {
		return models.Profile{}, fmt.Errorf("failed to check existing account: %w", err)
	}
	if existing != nil {
		if existing.Email == email {
			return models.Profile{}, &DuplicateError{Field: "email"}
		}
		return models.Profile{}, &DuplicateError{Field: "username"}
	}

	if err := ValidatePassword(password); err != nil {
		return models.Profile{}, err
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return models.Profile{}, err
	}

	account, err := s.repo.Create(ctx, &models.Account{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         models.RoleCustomer,
	})
	if err != nil {
		var dup *DuplicateError
		if errors.As(err, &dup) {
			return models.Profile{}, dup
		}
		return models.Profile{}, fmt.Errorf("failed to create account: %w", err)
	}

	token, err := s.tokens.Issue(EmailVerificationToken, account)
	if err != nil {
		return models.Profile{}, fmt.Errorf("failed to issue verification token: %w", err)
	}

	subject, htmlBody := verificationEmail(s.baseURL, token, false)
	if err := s.sendMail(ctx, account.Email, subject, htmlBody); err != nil {
		// The account is already persisted; registration fails but a
		// later resend can deliver the link.
		return models.Profile{}, err
	}

	return account.Profile(), nil
}

// Login authenticates an account and issues a session token. A stored
// hash at an outdated cost is opportunistically re-hashed on success.
func (s *IdentityService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, &MissingFieldError{Field: "email"}
	}
	if password == "" {
		return nil, &MissingFieldError{Field: "password"}
	}

	account, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}
	if account == nil {
		return nil, ErrNotFound
	}

	if !account.Verified {
		return nil, ErrUnverified
	}

	ok, err := s.hasher.Verify(password, account.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	if s.hasher.NeedsRehash(account.PasswordHash) {
		if newHash, err := s.hasher.Hash(password); err == nil {
			account.PasswordHash = newHash
			if err := s.repo.Update(ctx, account); err != nil {
				log.Printf("Warning: failed to upgrade password hash for account %s: %v", account.ID, err)
			}
		}
	}

	token, err := s.tokens.Issue(SessionToken, account)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session token: %w", err)
	}

	return &LoginResult{Account: account.Profile(), Token: token}, nil
}

// Verify marks an account as verified using an email-verification
// token
func (s *IdentityService) Verify(ctx context.Context, token string) (models.Profile, error) {
	if token == "" {
		return models.Profile{}, &MissingFieldError{Field: "token"}
	}

	claims, err := s.tokens.Verify(EmailVerificationToken, token)
	if err != nil {
		return models.Profile{}, err
	}

	account, err := s.repo.FindByID(ctx, claims.AccountID)
	if err != nil {
		return models.Profile{}, fmt.Errorf("failed to look up account: %w", err)
	}
	if account == nil {
		return models.Profile{}, ErrNotFound
	}

	if account.Verified {
		return models.Profile{}, ErrAlreadyVerified
	}

	account.Verified = true
	if err := s.repo.Update(ctx, account); err != nil {
		return models.Profile{}, fmt.Errorf("failed to save account: %w", err)
	}

	return account.Profile(), nil
}

// ResendVerification re-issues the verification token and re-sends the
// activation link
func (s *IdentityService) ResendVerification(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	if email == "" {
		return &MissingFieldError{Field: "email"}
	}

	account, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to look up account: %w", err)
	}
	if account == nil {
		return ErrNotFound
	}
	if account.Verified {
		return ErrAlreadyVerified
	}

	token, err := s.tokens.Issue(EmailVerificationToken, account)
	if err != nil {
		return fmt.Errorf("failed to issue verification token: %w", err)
	}

	subject, htmlBody := verificationEmail(s.baseURL, token, true)
	return s.sendMail(ctx, account.Email, subject, htmlBody)
}

// ForgotPassword emails a short-lived reset-authorization link. This
// step only proves mailbox control; the one-time reset secret is not
// minted until the link is redeemed.
func (s *IdentityService) ForgotPassword(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	if email == "" {
		return &MissingFieldError{Field: "email"}
	}

	account, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to look up account: %w", err)
	}
	if account == nil {
		return ErrNotFound
	}

	token, err := s.tokens.Issue(ResetAuthorizationToken, account)
	if err != nil {
		return fmt.Errorf("failed to issue reset authorization token: %w", err)
	}

	subject, htmlBody := resetAuthorizationEmail(s.baseURL, token)
	return s.sendMail(ctx, account.Email, subject, htmlBody)
}

// VerifyResetAuthorization redeems a reset-authorization token and
// mints the one-time reset secret, returned directly to the caller
func (s *IdentityService) VerifyResetAuthorization(ctx context.Context, token string) (*ResetGrant, error) {
	if token == "" {
		return nil, &MissingFieldError{Field: "token"}
	}

	claims, err := s.tokens.Verify(ResetAuthorizationToken, token)
	if err != nil {
		return nil, err
	}

	account, err := s.repo.FindByID(ctx, claims.AccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}
	if account == nil {
		return nil, ErrNotFound
	}

	secret, err := s.resets.Begin(ctx, account)
	if err != nil {
		return nil, err
	}

	return &ResetGrant{Secret: secret, Email: account.Email}, nil
}

// ResetPassword redeems the one-time reset secret and rotates the
// password. The new password is written before the challenge is
// cleared and both are persisted together, so a crash mid-way leaves
// the secret usable for a safe retry rather than burned with no
// password change applied.
func (s *IdentityService) ResetPassword(ctx context.Context, secret, newPassword string) error {
	if secret == "" {
		return &MissingFieldError{Field: "token"}
	}
	if newPassword == "" {
		return &MissingFieldError{Field: "password"}
	}

	account, err := s.repo.FindByResetTokenHash(ctx, HashResetSecret(secret))
	if err != nil {
		return fmt.Errorf("failed to look up reset challenge: %w", err)
	}
	if account == nil {
		return ErrResetInvalidOrExpired
	}

	if err := s.resets.Consume(ctx, account, secret); err != nil {
		if errors.Is(err, ErrChallengeLocked) {
			return ErrChallengeLocked
		}
		return ErrResetInvalidOrExpired
	}

	if err := ValidatePassword(newPassword); err != nil {
		return err
	}

	passwordHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	account.PasswordHash = passwordHash
	s.resets.Clear(account)

	if err := s.repo.Update(ctx, account); err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}

	return nil
}
