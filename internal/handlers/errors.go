package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"oasisauth/internal/service"
)

// respondJSON writes a JSON response body with the given status
func respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// respondError maps a service error onto an HTTP status and a JSON
// {"message": ...} body. Unrecognized errors are logged and surfaced
// as an opaque 500 so internal detail never leaks.
func respondError(w http.ResponseWriter, err error) {
	status, message := errorStatus(err)
	if status == http.StatusInternalServerError {
		log.Printf("Internal error: %v", err)
		message = "Internal server error"
	}
	respondJSON(w, status, map[string]string{"message": message})
}

func errorStatus(err error) (int, string) {
	var (
		missing   *service.MissingFieldError
		invalid   *service.ValidationError
		weak      *service.WeakPasswordError
		duplicate *service.DuplicateError
		delivery  *service.DeliveryError
	)

	switch {
	case errors.As(err, &missing):
		return http.StatusBadRequest, missing.Error()
	case errors.As(err, &invalid):
		return http.StatusBadRequest, invalid.Error()
	case errors.As(err, &weak):
		return http.StatusBadRequest, weak.Error()
	case errors.As(err, &duplicate):
		return http.StatusConflict, duplicate.Error()
	case errors.As(err, &delivery):
		return http.StatusBadGateway, "Failed to send email. Please try again later."
	}

	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, service.ErrUnverified),
		errors.Is(err, service.ErrAlreadyVerified),
		errors.Is(err, service.ErrResetInvalidOrExpired):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrTokenExpired),
		errors.Is(err, service.ErrTokenInvalid),
		errors.Is(err, service.ErrTokenPurpose):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, service.ErrChallengeLocked):
		return http.StatusLocked, "Account is temporarily locked. Please try again later."
	}

	return http.StatusInternalServerError, ""
}
