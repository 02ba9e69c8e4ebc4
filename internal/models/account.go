package models

import "time"

// Role identifies the access level of an account
type Role string

const (
	RoleCustomer Role = "Customer"
	RoleSponsor  Role = "Sponsor"
	RoleOwner    Role = "Owner"
)

// IsValid reports whether the role is one of the known values
func (r Role) IsValid() bool {
	switch r {
	case RoleCustomer, RoleSponsor, RoleOwner:
		return true
	}
	return false
}

// Account represents a registered identity
type Account struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Role         Role
	Verified     bool
	Reset        *ResetChallenge
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ResetChallenge holds the state of a pending one-time password-reset
// secret. Only the hash of the secret is ever stored.
type ResetChallenge struct {
	TokenHash   string
	ExpiresAt   time.Time
	Attempts    int
	LockedUntil *time.Time
}

// IsExpired checks if the challenge has expired
func (c *ResetChallenge) IsExpired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// IsLocked checks if the challenge is locked out after too many
// failed guesses
func (c *ResetChallenge) IsLocked(now time.Time) bool {
	return c.LockedUntil != nil && now.Before(*c.LockedUntil)
}

// HasResetChallenge reports whether a reset challenge is pending
func (a *Account) HasResetChallenge() bool {
	return a.Reset != nil
}

// ClearResetChallenge wipes the reset challenge state. Calling it with
// no pending challenge is a no-op.
func (a *Account) ClearResetChallenge() {
	a.Reset = nil
}

// Profile is the public projection of an account, safe to return to
// clients. It never carries the password hash or reset state.
type Profile struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Profile returns the public projection of the account
func (a *Account) Profile() Profile {
	return Profile{
		ID:        a.ID,
		Username:  a.Username,
		Email:     a.Email,
		Role:      a.Role,
		Verified:  a.Verified,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}
