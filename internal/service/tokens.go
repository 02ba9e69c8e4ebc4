package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"oasisauth/internal/models"
)

// TokenKind selects the lifetime and claim shape of an issued token.
// All kinds are signed with the same key and algorithm.
type TokenKind int

const (
	// SessionToken authenticates API requests after login
	SessionToken TokenKind = iota
	// EmailVerificationToken proves control of the registered mailbox
	EmailVerificationToken
	// ResetAuthorizationToken authorizes minting the one-time reset secret
	ResetAuthorizationToken
)

// resetPurpose is the purpose claim embedded in reset-authorization
// tokens and checked on verification
const resetPurpose = "password_reset"

// Claims is the signed claim set carried by every bearer token
type Claims struct {
	jwt.RegisteredClaims
	AccountID string `json:"id"`
	Email     string `json:"email"`
	Role      string `json:"role,omitempty"`
	Purpose   string `json:"purpose,omitempty"`
}

// TokenLifetimes holds the configured expiry per token kind
type TokenLifetimes struct {
	Session            time.Duration
	EmailVerification  time.Duration
	ResetAuthorization time.Duration
}

// DefaultTokenLifetimes returns the standard lifetimes: 24h sessions,
// 30m verification links, 15m reset authorizations
func DefaultTokenLifetimes() TokenLifetimes {
	return TokenLifetimes{
		Session:            24 * time.Hour,
		EmailVerification:  30 * time.Minute,
		ResetAuthorization: 15 * time.Minute,
	}
}

// TokenIssuer mints and verifies signed bearer tokens. Verification is
// a pure cryptographic and claim-shape check; it never touches
// persistent state.
type TokenIssuer struct {
	key       []byte
	lifetimes TokenLifetimes
}

// NewTokenIssuer creates an issuer signing with the given key
func NewTokenIssuer(signingKey []byte, lifetimes TokenLifetimes) *TokenIssuer {
	return &TokenIssuer{key: signingKey, lifetimes: lifetimes}
}

func (t *TokenIssuer) lifetime(kind TokenKind) time.Duration {
	switch kind {
	case EmailVerificationToken:
		return t.lifetimes.EmailVerification
	case ResetAuthorizationToken:
		return t.lifetimes.ResetAuthorization
	default:
		return t.lifetimes.Session
	}
}

// Issue signs a token of the given kind for the account
func (t *TokenIssuer) Issue(kind TokenKind, account *models.Account) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.lifetime(kind))),
		},
		AccountID: account.ID,
		Email:     account.Email,
	}

	if kind == ResetAuthorizationToken {
		claims.Purpose = resetPurpose
	} else {
		claims.Role = string(account.Role)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.key)
}

// Verify parses and validates a token of the given kind. It returns
// ErrTokenExpired past the embedded expiry, ErrTokenInvalid on a bad
// signature or malformed structure, and ErrTokenPurpose when a
// reset-authorization token does not carry the password_reset purpose.
func (t *TokenIssuer) Verify(kind TokenKind, tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return t.key, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}

	if kind == ResetAuthorizationToken && claims.Purpose != resetPurpose {
		return nil, ErrTokenPurpose
	}

	return claims, nil
}
