package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"oasisauth/internal/security"
	"oasisauth/internal/service"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const ClaimsContextKey ContextKey = "claims"

// Middleware holds dependencies for middleware functions
type Middleware struct {
	tokens  *service.TokenIssuer
	limiter *security.RateLimiter
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(tokens *service.TokenIssuer, limiter *security.RateLimiter) *Middleware {
	return &Middleware{
		tokens:  tokens,
		limiter: limiter,
	}
}

// RequireAuth is middleware that requires a valid bearer session token
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			respondJSON(w, http.StatusUnauthorized, map[string]string{"message": "Authentication required"})
			return
		}

		claims, err := m.tokens.Verify(service.SessionToken, token)
		if err != nil {
			respondError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
		next(w, r.WithContext(ctx))
	}
}

// RateLimit is middleware that throttles requests per client IP
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := security.GetClientIP(r)
		if !m.limiter.Allow(ip) {
			respondJSON(w, http.StatusTooManyRequests, map[string]string{
				"message": "Too many requests. Please try again later.",
			})
			return
		}
		next(w, r)
	}
}

// Logging middleware logs HTTP requests
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		next.ServeHTTP(w, r)

		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

// bearerToken extracts the token from an "Authorization: Bearer ..."
// header
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

// ClaimsFromContext retrieves the verified token claims from the
// request context
func ClaimsFromContext(ctx context.Context) (*service.Claims, bool) {
	claims, ok := ctx.Value(ClaimsContextKey).(*service.Claims)
	return claims, ok
}
