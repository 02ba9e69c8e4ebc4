package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"oasisauth/internal/database"
	"oasisauth/internal/models"
	"oasisauth/internal/service"
)

const accountColumns = `id, username, email, password_hash, role, verified,
	reset_token_hash, reset_expires_at, reset_attempts, reset_locked_until,
	created_at, updated_at`

// AccountRepository is the SQL-backed account store. Uniqueness of
// email and username is enforced by database constraints; violations
// surface as service.DuplicateError.
type AccountRepository struct {
	db *database.DB
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create inserts a new account, assigning its id and timestamps
func (r *AccountRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	account.ID = uuid.NewString()
	now := time.Now().UTC()
	account.CreatedAt = now
	account.UpdatedAt = now

	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	args := []interface{}{
		account.ID,
		account.Username,
		account.Email,
		account.PasswordHash,
		string(account.Role),
		account.Verified,
	}
	args = append(args, resetArgs(account)...)
	args = append(args, account.CreatedAt, account.UpdatedAt)

	_, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if field, ok := uniqueViolationField(err); ok {
			return nil, &service.DuplicateError{Field: field}
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	return account, nil
}

// Update saves every mutable field of the account and refreshes
// updated_at
func (r *AccountRepository) Update(ctx context.Context, account *models.Account) error {
	account.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE accounts
		SET username = ?, email = ?, password_hash = ?, role = ?, verified = ?,
			reset_token_hash = ?, reset_expires_at = ?, reset_attempts = ?, reset_locked_until = ?,
			updated_at = ?
		WHERE id = ?
	`
	args := []interface{}{
		account.Username,
		account.Email,
		account.PasswordHash,
		string(account.Role),
		account.Verified,
	}
	args = append(args, resetArgs(account)...)
	args = append(args, account.UpdatedAt, account.ID)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if field, ok := uniqueViolationField(err); ok {
			return &service.DuplicateError{Field: field}
		}
		return fmt.Errorf("failed to update account: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("account %s not found", account.ID)
	}

	return nil
}

// FindByEmail retrieves an account by its (normalized) email address
func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := "SELECT " + accountColumns + " FROM accounts WHERE email = ?"
	return r.findOne(ctx, query, email)
}

// FindByID retrieves an account by id
func (r *AccountRepository) FindByID(ctx context.Context, id string) (*models.Account, error) {
	query := "SELECT " + accountColumns + " FROM accounts WHERE id = ?"
	return r.findOne(ctx, query, id)
}

// FindByEmailOrUsername retrieves an account matching either field.
// When both match different rows the email match wins, so duplicate
// registration reports the email conflict first.
func (r *AccountRepository) FindByEmailOrUsername(ctx context.Context, email, username string) (*models.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE email = ? OR username = ?
		ORDER BY CASE WHEN email = ? THEN 0 ELSE 1 END
		LIMIT 1
	`
	return r.findOne(ctx, query, email, username, email)
}

// FindByResetTokenHash retrieves the account holding an unexpired
// reset challenge with the given secret hash
func (r *AccountRepository) FindByResetTokenHash(ctx context.Context, tokenHash string) (*models.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE reset_token_hash = ? AND reset_expires_at > ?
	`
	return r.findOne(ctx, query, tokenHash, time.Now().UTC())
}

func (r *AccountRepository) findOne(ctx context.Context, query string, args ...interface{}) (*models.Account, error) {
	row := r.db.QueryRowContext(ctx, query, args...)

	account, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

// resetArgs flattens the optional reset challenge into the four
// nullable columns
func resetArgs(account *models.Account) []interface{} {
	if account.Reset == nil {
		return []interface{}{nil, nil, 0, nil}
	}
	var lockedUntil interface{}
	if account.Reset.LockedUntil != nil {
		lockedUntil = account.Reset.LockedUntil.UTC()
	}
	return []interface{}{
		account.Reset.TokenHash,
		account.Reset.ExpiresAt.UTC(),
		account.Reset.Attempts,
		lockedUntil,
	}
}

func scanAccount(row *sql.Row) (*models.Account, error) {
	var (
		account          models.Account
		role             string
		resetTokenHash   sql.NullString
		resetExpiresAt   sql.NullTime
		resetAttempts    int
		resetLockedUntil sql.NullTime
	)

	err := row.Scan(
		&account.ID,
		&account.Username,
		&account.Email,
		&account.PasswordHash,
		&role,
		&account.Verified,
		&resetTokenHash,
		&resetExpiresAt,
		&resetAttempts,
		&resetLockedUntil,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	account.Role = models.Role(role)

	if resetTokenHash.Valid {
		challenge := &models.ResetChallenge{
			TokenHash: resetTokenHash.String,
			ExpiresAt: resetExpiresAt.Time,
			Attempts:  resetAttempts,
		}
		if resetLockedUntil.Valid {
			lockedUntil := resetLockedUntil.Time
			challenge.LockedUntil = &lockedUntil
		}
		account.Reset = challenge
	}

	return &account, nil
}

// uniqueViolationField classifies a driver error as a unique-constraint
// violation and names the conflicting column. The three supported
// drivers all name the constraint or column in the message
// ("UNIQUE constraint failed: accounts.email", "accounts_email_key",
// "for key 'accounts.username'"). Only the part naming the constraint
// is inspected: MySQL's message also embeds the duplicated value, and a
// value like 'likes_email' must not be mistaken for the column name.
func uniqueViolationField(err error) (string, bool) {
	msg := err.Error()

	var constraint string
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed:"):
		constraint = msg[strings.Index(msg, "UNIQUE constraint failed:"):]
	case strings.Contains(msg, "duplicate key value violates unique constraint"):
		constraint = msg[strings.Index(msg, "duplicate key value violates unique constraint"):]
	case strings.Contains(msg, "Duplicate entry"):
		idx := strings.Index(msg, "for key")
		if idx < 0 {
			return "account", true
		}
		constraint = msg[idx:]
	default:
		return "", false
	}

	if strings.Contains(constraint, "email") {
		return "email", true
	}
	if strings.Contains(constraint, "username") {
		return "username", true
	}
	return "account", true
}
