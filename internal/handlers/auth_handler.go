package handlers

import (
	"encoding/json"
	"net/http"

	"oasisauth/internal/service"
)

// AuthHandler exposes the identity service as a JSON API
type AuthHandler struct {
	identity *service.IdentityService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(identity *service.IdentityService) *AuthHandler {
	return &AuthHandler{identity: identity}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
		return false
	}
	return true
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	profile, err := h.identity.Register(r.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Account created. Please check your email to verify your address.",
		"user":    profile,
	})
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.identity.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Verify handles GET /auth/verify/{token}
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	profile, err := h.identity.Verify(r.Context(), r.PathValue("token"))
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Email verified successfully",
		"user":    profile,
	})
}

// Resend handles POST /auth/resend
func (h *AuthHandler) Resend(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.identity.ResendVerification(r.Context(), req.Email); err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Verification email has been resent successfully",
	})
}

// ForgotPassword handles POST /auth/forgot-password
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.identity.ForgotPassword(r.Context(), req.Email); err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Password reset verification email sent successfully",
	})
}

// VerifyReset handles GET /auth/verify-reset/{token}: it redeems the
// emailed authorization link and returns the one-time reset secret
func (h *AuthHandler) VerifyReset(w http.ResponseWriter, r *http.Request) {
	grant, err := h.identity.VerifyResetAuthorization(r.Context(), r.PathValue("token"))
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message":    "Email verified successfully",
		"resetToken": grant.Secret,
		"email":      grant.Email,
	})
}

// Reset handles POST /auth/reset
func (h *AuthHandler) Reset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.identity.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Password has been reset successfully",
	})
}

// Me handles GET /auth/me, returning the claims of the presented
// session token
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		respondJSON(w, http.StatusUnauthorized, map[string]string{"message": "Authentication required"})
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"id":    claims.AccountID,
		"email": claims.Email,
		"role":  claims.Role,
	})
}
