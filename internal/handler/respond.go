package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/steeplehq/steeple/internal/access"
	"github.com/steeplehq/steeple/internal/apperr"
)

// envelope is the uniform result shape every endpoint returns. Failures come
// back as success=false with a message; recoverable errors carry their
// message verbatim, internal ones a generic line.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Count   *int   `json:"count,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, envelope{Success: true, Message: message, Data: data})
}

func writeList(w http.ResponseWriter, message string, data any, count int) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: message, Data: data, Count: &count})
}

// writeError maps the error taxonomy onto HTTP statuses. Anything outside the
// taxonomy is an internal error: logged in full, reported generically.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case apperr.IsValidation(err):
		writeJSON(w, http.StatusBadRequest, envelope{Success: false, Message: err.Error()})
	case apperr.IsReference(err):
		writeJSON(w, http.StatusNotFound, envelope{Success: false, Message: err.Error()})
	case apperr.IsConflict(err):
		writeJSON(w, http.StatusConflict, envelope{Success: false, Message: err.Error()})
	default:
		logger.Error("internal error", "error", err)
		writeJSON(w, http.StatusInternalServerError, envelope{Success: false, Message: "internal error"})
	}
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, envelope{Success: false, Message: message})
}

func parseIDParam(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(r.PathValue(name), 10, 64)
}

// scopeFrom returns the request scope; RequireScope guarantees it is present
// on every route that reaches a handler.
func scopeFrom(r *http.Request) access.Scope {
	sc, _ := access.ScopeFrom(r.Context())
	return sc
}
