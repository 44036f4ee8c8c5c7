package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/PeluPrice/PeluPrice-MVP/internal/auth"
	"github.com/PeluPrice/PeluPrice-MVP/internal/device"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes.
const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeNotFound     = "not_found"
	ErrCodeUnauthorized = "unauthorised"
	ErrCodeConflict     = "conflict"
	ErrCodeInternal     = "internal_error"
	ErrCodeUnavailable  = "service_unavailable"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// writeNotFound writes a 404 error response.
func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// writeUnauthorized writes a 401 error response.
func writeUnauthorized(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// writeConflict writes a 409 error response.
func writeConflict(w http.ResponseWriter, message string) {
	writeError(w, http.StatusConflict, ErrCodeConflict, message)
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// writeDomainError maps domain sentinel errors to HTTP responses.
// Anything unrecognised is a 500 with a generic message; the real error
// goes to the log at the call site, never to the client.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, device.ErrNotFound), errors.Is(err, auth.ErrUserNotFound):
		writeNotFound(w, "not found")
	case errors.Is(err, device.ErrActivationKeyInUse):
		writeConflict(w, "activation key belongs to another device")
	case errors.Is(err, device.ErrAlreadyActivated):
		writeConflict(w, "device already activated")
	case errors.Is(err, device.ErrInvalidDeviceID),
		errors.Is(err, device.ErrInvalidActivationKey),
		errors.Is(err, device.ErrInvalidMetadata):
		writeBadRequest(w, err.Error())
	case errors.Is(err, auth.ErrInvalidEmail),
		errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, auth.ErrInvalidName):
		writeBadRequest(w, err.Error())
	case errors.Is(err, auth.ErrEmailExists):
		writeConflict(w, "email already registered")
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrTokenInvalid),
		errors.Is(err, auth.ErrTokenExpired),
		errors.Is(err, auth.ErrTokenReuse),
		errors.Is(err, auth.ErrUserInactive):
		writeUnauthorized(w, "invalid credentials")
	default:
		writeInternalError(w, "internal server error")
	}
}
