// Package handler implements the HTTP layer: request decoding, calling
// services, and encoding the response envelope. Handlers never touch the
// database and services never touch HTTP.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/harplab/site-api/internal/apperror"
)

// envelope is the uniform JSON response shape. Success responses carry
// either data or message; failures carry error and optionally details.
type envelope struct {
	Success bool           `json:"success"`
	Data    any            `json:"data,omitempty"`
	Message string         `json:"message,omitempty"`
	Error   string         `json:"error,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are already sent; nothing to do but log.
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// writeData responds with {"success":true,"data":...}.
func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

// writeMessage responds with {"success":true,"message":...} for operations
// that have nothing useful to return.
func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Success: true, Message: message})
}

// writeError maps the error taxonomy to status codes and emits the failure
// envelope. Unclassified errors become an opaque 500; their detail goes to
// the log, not the client.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		resp := envelope{Success: false, Error: appErr.Message}
		if appErr.Field != "" {
			resp.Details = map[string]any{"field": appErr.Field}
		}
		writeJSON(w, statusFor(appErr.Err), resp)
		return
	}

	logger.Error("request failed", slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, envelope{
		Success: false,
		Error:   "internal server error",
	})
}

// NotFound is the router fallback for unmatched paths, keeping the error
// envelope consistent with handler failures.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, envelope{Success: false, Error: "resource not found"})
}

// MethodNotAllowed is the router fallback for a known path with the wrong
// method.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, envelope{Success: false, Error: "method not allowed"})
}

func statusFor(sentinel error) int {
	switch {
	case errors.Is(sentinel, apperror.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(sentinel, apperror.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(sentinel, apperror.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(sentinel, apperror.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(sentinel, apperror.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads a JSON request body into dst, rejecting unknown fields
// and oversized bodies.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperror.ValidationFailed("body", "request body must be valid JSON")
	}
	return nil
}
