package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/dulakshi2002/Edu-Code/internal/codeexec"
	appI18n "github.com/dulakshi2002/Edu-Code/internal/i18n"
	"github.com/dulakshi2002/Edu-Code/internal/store"
	"github.com/dulakshi2002/Edu-Code/internal/validate"
)

const maxBodyBytes = 1 << 20

// envelope is the body of every API response.
type envelope struct {
	Success bool                  `json:"success"`
	Message string                `json:"message"`
	Data    any                   `json:"data,omitempty"`
	Code    string                `json:"code,omitempty"`
	Fields  []validate.FieldError `json:"fields,omitempty"`
}

// apiError is a failure with a fixed status and message.
type apiError struct {
	status int
	code   string
	msgID  string
}

func (e *apiError) Error() string { return e.code }

var (
	errInvalidJSON        = &apiError{http.StatusBadRequest, "invalid_json", "InvalidJSON"}
	errInvalidUpload      = &apiError{http.StatusBadRequest, "invalid_upload", "InvalidUpload"}
	errUnauthorized       = &apiError{http.StatusUnauthorized, "unauthorized", "Unauthorized"}
	errInvalidCredentials = &apiError{http.StatusUnauthorized, "invalid_credentials", "InvalidCredentials"}
	errForbidden          = &apiError{http.StatusForbidden, "forbidden", "Forbidden"}
	errAssistantDisabled  = &apiError{http.StatusServiceUnavailable, "assistant_disabled", "AssistantDisabled"}
	errAssistantFailed    = &apiError{http.StatusBadGateway, "assistant_failed", "AssistantFailed"}
	errRunnerDisabled     = &apiError{http.StatusServiceUnavailable, "execution_unavailable", "ExecutionUnavailable"}
)

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondOK(w http.ResponseWriter, r *http.Request, status int, msgID string, data any) {
	respondJSON(w, status, envelope{
		Success: true,
		Message: appI18n.T(r.Context(), msgID),
		Data:    data,
	})
}

// respondError maps err to a status code and a localized message. resource
// names the missing or conflicting thing for not-found and duplicate errors.
func respondError(w http.ResponseWriter, r *http.Request, err error, resource string) {
	ctx := r.Context()

	var apiErr *apiError
	var verr *validate.Error
	switch {
	case errors.As(err, &apiErr):
		respondJSON(w, apiErr.status, envelope{Message: appI18n.T(ctx, apiErr.msgID), Code: apiErr.code})
	case errors.As(err, &verr):
		respondJSON(w, http.StatusBadRequest, envelope{
			Message: appI18n.T(ctx, "ValidationFailed"),
			Code:    "validation_failed",
			Fields:  verr.Fields,
		})
	case errors.Is(err, store.ErrNotFound):
		respondJSON(w, http.StatusNotFound, envelope{
			Message: appI18n.Td(ctx, "NotFound", map[string]any{"Resource": resource}),
			Code:    "not_found",
		})
	case errors.Is(err, store.ErrDuplicate):
		respondJSON(w, http.StatusConflict, envelope{
			Message: appI18n.Td(ctx, "AlreadyExists", map[string]any{"Resource": resource}),
			Code:    "already_exists",
		})
	case errors.Is(err, codeexec.ErrUnsupportedLanguage):
		respondJSON(w, http.StatusBadRequest, envelope{
			Message: appI18n.T(ctx, "ValidationFailed"),
			Code:    "validation_failed",
			Fields:  []validate.FieldError{{Field: "language", Message: err.Error()}},
		})
	case errors.Is(err, codeexec.ErrTransport):
		slog.Warn("code execution failed", "error", err)
		respondJSON(w, http.StatusBadGateway, envelope{Message: appI18n.T(ctx, "ExecutionUnavailable"), Code: "execution_unavailable"})
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		respondJSON(w, http.StatusInternalServerError, envelope{Message: appI18n.T(ctx, "InternalError"), Code: "internal_error"})
	}
}

// decodeJSON reads a JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		slog.Debug("invalid request body", "path", r.URL.Path, "error", err)
		return errInvalidJSON
	}
	return nil
}

// decodeOptionalJSON is decodeJSON for endpoints whose body may be empty.
func decodeOptionalJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	slog.Debug("invalid request body", "path", r.URL.Path, "error", err)
	return errInvalidJSON
}

// requireID returns a validation error when id is empty.
func requireID(field, id string) error {
	if id == "" {
		return validate.Field(field, field+" is a required field")
	}
	return nil
}
