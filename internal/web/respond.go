package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shanshui/giftplanner/internal/catalog"
	"github.com/shanshui/giftplanner/internal/ingest"
)

// errorResponse is the JSON body for all error responses.
type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// writeError writes a JSON error body with the given status.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// respondError maps domain errors to HTTP status codes.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var formatErr *ingest.FormatError
	var decodeErr *ingest.DecodeError

	switch {
	case errors.Is(err, catalog.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.As(err, &formatErr), errors.As(err, &decodeErr):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		slog.ErrorContext(r.Context(), "request failed", "error", err, "path", r.URL.Path)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// decodeBody decodes a JSON request body into v. Unknown fields are ignored
// so clients can send extra keys without breaking.
func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
