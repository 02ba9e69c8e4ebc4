package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"oasisauth/internal/models"
	"oasisauth/internal/security"
	"oasisauth/internal/service"
)

func newTestMiddleware(t *testing.T) (*Middleware, *service.TokenIssuer) {
	t.Helper()

	tokens := service.NewTokenIssuer([]byte("test-signing-key"), service.DefaultTokenLifetimes())
	limiter := security.NewRateLimiter(2, time.Minute)
	t.Cleanup(limiter.Close)
	return NewMiddleware(tokens, limiter), tokens
}

func sessionToken(t *testing.T, tokens *service.TokenIssuer) string {
	t.Helper()

	token, err := tokens.Issue(service.SessionToken, &models.Account{
		ID:       "acct-1",
		Email:    "user@example.com",
		Role:     models.RoleCustomer,
		Verified: true,
	})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	return token
}

func TestRequireAuth(t *testing.T) {
	middleware, tokens := newTestMiddleware(t)

	var gotClaims *service.Claims
	handler := middleware.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		gotClaims, _ = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{name: "valid bearer token", authHeader: "Bearer " + sessionToken(t, tokens), wantStatus: http.StatusOK},
		{name: "no header", authHeader: "", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", authHeader: "Basic abc123", wantStatus: http.StatusUnauthorized},
		{name: "empty token", authHeader: "Bearer ", wantStatus: http.StatusUnauthorized},
		{name: "garbage token", authHeader: "Bearer not.a.token", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotClaims = nil
			request := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
			if tt.authHeader != "" {
				request.Header.Set("Authorization", tt.authHeader)
			}
			recorder := httptest.NewRecorder()

			handler(recorder, request)

			if recorder.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", recorder.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK {
				if gotClaims == nil {
					t.Fatal("claims missing from request context")
				}
				if gotClaims.AccountID != "acct-1" {
					t.Errorf("AccountID = %q, want %q", gotClaims.AccountID, "acct-1")
				}
			}
		})
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	middleware, _ := newTestMiddleware(t)

	handler := middleware.RateLimit(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	send := func(ip string) int {
		request := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		request.RemoteAddr = ip + ":1234"
		recorder := httptest.NewRecorder()
		handler(recorder, request)
		return recorder.Code
	}

	// The limiter allows two requests per window per client
	if code := send("10.0.0.1"); code != http.StatusOK {
		t.Fatalf("first request: status = %d, want 200", code)
	}
	if code := send("10.0.0.1"); code != http.StatusOK {
		t.Fatalf("second request: status = %d, want 200", code)
	}
	if code := send("10.0.0.1"); code != http.StatusTooManyRequests {
		t.Fatalf("third request: status = %d, want 429", code)
	}

	// Another client is unaffected
	if code := send("10.0.0.2"); code != http.StatusOK {
		t.Fatalf("other client: status = %d, want 200", code)
	}
}
