package handler

// RESPONSE ENVELOPE:
// Every response body is a JSON object with a boolean "success". Errors
// add a machine-readable "error" type next to the human "message":
//
//	{"success": true,  "message": "comment deleted"}
//	{"success": true,  "data": {"posts": [...], "pagination": {...}}}
//	{"success": false, "error": "forbidden", "message": "no permission to delete this post"}
//
// The status code carries the category; clients should not need to parse
// the message to decide what happened.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/qaforum/internal/apperror"
)

// Response is the success envelope.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// ErrorResponse is the failure envelope.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already out; all that is left is to log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

func writeOK(w http.ResponseWriter, message string, data any) {
	writeJSON(w, http.StatusOK, Response{Success: true, Message: message, Data: data})
}

// writeError maps a service error to a status code and writes the error
// envelope.
//
//	ErrValidation, ErrConflict → 400
//	ErrUnauthorized            → 401
//	ErrForbidden               → 403
//	ErrNotFound                → 404
//	ErrUnavailable, ErrInternal→ 500 with their fixed message
//	anything else              → 500 "server error: <detail>"
//
// Username collisions are 400, not 409: clients of this API have always
// treated them as a form error.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		errorType := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status, errorType = http.StatusBadRequest, "validation_error"
		case errors.Is(err, apperror.ErrConflict):
			status, errorType = http.StatusBadRequest, "conflict"
		case errors.Is(err, apperror.ErrUnauthorized):
			status, errorType = http.StatusUnauthorized, "unauthorized"
		case errors.Is(err, apperror.ErrForbidden):
			status, errorType = http.StatusForbidden, "forbidden"
		case errors.Is(err, apperror.ErrNotFound):
			status, errorType = http.StatusNotFound, "not_found"
		case errors.Is(err, apperror.ErrUnavailable):
			errorType = "database_unavailable"
		}

		if status >= http.StatusInternalServerError {
			attrs := []any{slog.String("error", appErr.Message)}
			if appErr.Cause != nil {
				attrs = append(attrs, slog.String("cause", appErr.Cause.Error()))
			}
			slog.Error("request failed", attrs...)
		}

		writeJSON(w, status, ErrorResponse{
			Error:   errorType,
			Message: appErr.Message,
			Field:   appErr.Field,
		})
		return
	}

	// The detail goes back to the client. API consumers rely on it for
	// diagnosing driver failures, so it is not masked.
	slog.Error("unexpected error", slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "server error: " + err.Error(),
	})
}
