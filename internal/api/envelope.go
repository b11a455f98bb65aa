// Package api exposes the HTTP surface of the panel service: CRUD for
// judges and assemblies, the evaluation endpoint, and health/metrics.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/chainguard-dev/clog"
)

// SuccessMessage is the response body for successful operations.
type SuccessMessage struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Content any    `json:"content,omitempty"`
}

// ErrorMessage is the response body for failed operations.
type ErrorMessage struct {
	Success bool   `json:"success"`
	Type    string `json:"type"`
	Title   string `json:"title"`
	Detail  any    `json:"detail,omitempty"`
}

// writeJSON encodes v as the response body with the given status code.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		clog.FromContext(r.Context()).ErrorContext(r.Context(), "encode response", "error", err)
	}
}

// writeError encodes a failure envelope with the given status code.
func writeError(w http.ResponseWriter, r *http.Request, status int, errType, title string, detail any) {
	writeJSON(w, r, status, ErrorMessage{
		Success: false,
		Type:    errType,
		Title:   title,
		Detail:  detail,
	})
}

// writeValidationError reports a 400 with the invalid-params detail shape.
func writeValidationError(w http.ResponseWriter, r *http.Request, detail any) {
	writeError(w, r, http.StatusBadRequest,
		"Validation Error",
		"Your request parameters didn't validate.",
		map[string]any{"invalid-params": detail})
}
