package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/p-n-ai/pai-progress/internal/extract"
	"github.com/p-n-ai/pai-progress/internal/session"
	"github.com/p-n-ai/pai-progress/internal/tracker"
)

// Error codes returned in the envelope.
const (
	CodeInvalidInput     = "invalid_input"
	CodeValidationFailed = "validation_failed"
	CodeNotFound         = "not_found"
	CodeUnauthorized     = "unauthorized"
	CodeUnsupportedMedia = "unsupported_media_type"
	CodeTooLarge         = "payload_too_large"
	CodeInternal         = "internal"
)

// ErrorEnvelope is the body of every error response.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// APIError describes a failed request.
type APIError struct {
	Message string       `json:"message"`
	Code    string       `json:"code"`
	Fields  []FieldError `json:"fields,omitempty"`
}

// FieldError is one schema violation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Warn("encode response failed", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorEnvelope{Error: APIError{Message: message, Code: code}})
}

// respondErr maps domain errors to HTTP statuses.
func respondErr(w http.ResponseWriter, r *http.Request, err error) {
	var verr *ValidationError
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &verr):
		respondJSON(w, http.StatusBadRequest, ErrorEnvelope{Error: APIError{
			Message: verr.Error(),
			Code:    CodeValidationFailed,
			Fields:  verr.Fields,
		}})
	case errors.As(err, &maxErr):
		respondError(w, http.StatusRequestEntityTooLarge, CodeTooLarge, err.Error())
	case errors.Is(err, tracker.ErrInvalid):
		respondError(w, http.StatusBadRequest, CodeInvalidInput, err.Error())
	case errors.Is(err, tracker.ErrNotFound):
		respondError(w, http.StatusNotFound, CodeNotFound, err.Error())
	case errors.Is(err, session.ErrNotFound):
		respondError(w, http.StatusUnauthorized, CodeUnauthorized, "invalid or expired session")
	case errors.Is(err, extract.ErrUnsupported):
		respondError(w, http.StatusUnsupportedMediaType, CodeUnsupportedMedia, err.Error())
	default:
		slog.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		respondError(w, http.StatusInternalServerError, CodeInternal, "internal server error")
	}
}
