// Package handler contains the HTTP layer: request parsing, response
// writing, and the mapping from domain errors to status codes. Handlers
// never touch the database and never make permission decisions — both
// belong to the layers below.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/softdeskhq/softdesk/internal/apperror"
)

// ErrorResponse is the standard error shape returned by every endpoint:
//
//	{"error": "not_found", "message": "project not found with id abc123"}
//
// One shape for all status codes keeps client-side error handling dumb.
type ErrorResponse struct {
	Error   string `json:"error"`   // Machine-readable error type (e.g., "not_found")
	Message string `json:"message"` // Human-readable description
	Field   string `json:"field,omitempty"`
}

// writeJSON sends a JSON response with the given status code. Headers
// must be set before the first body write — hence the strict order here.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already gone — all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to an HTTP status code and sends it.
//
// The service layer returns apperror values; errors.Is walks the wrap
// chain (AppError implements Unwrap), so a wrapped sentinel anywhere in
// the chain picks the right status. Anything unrecognized is a 500 with
// a generic message — internal details stay out of responses.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		errorType := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
			errorType = "validation_error"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
			errorType = "not_found"
		case errors.Is(err, apperror.ErrForbidden):
			status = http.StatusForbidden
			errorType = "forbidden"
		case errors.Is(err, apperror.ErrUnauthenticated):
			status = http.StatusUnauthorized
			errorType = "unauthenticated"
		case errors.Is(err, apperror.ErrConflict):
			// Datastore constraint violations (duplicate username,
			// duplicate membership) are reported as bad input, not as
			// a separate status class.
			status = http.StatusBadRequest
			errorType = "validation_error"
		}

		writeJSON(w, status, ErrorResponse{
			Error:   errorType,
			Message: appErr.Message,
			Field:   appErr.Field,
		})
		return
	}

	slog.Error("unhandled error in handler", slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "an internal error occurred",
	})
}

// decodeJSON parses a request body into dst, rejecting unknown fields so
// typos in field names fail loudly instead of silently doing nothing.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperror.ValidationFailed("", "invalid JSON body: "+err.Error())
	}
	return nil
}
