package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/crucial707/itam/internal/errs"
)

// ErrMessageInternal is the generic message for 500 responses. Do not expose internal details to clients.
const ErrMessageInternal = "internal server error"

// JSONError sends a JSON error response with a single "error" field.
func JSONError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// JSONValidationError sends a JSON error response with "error" and optional "fields" for field-level details.
// status is typically http.StatusBadRequest (400).
func JSONValidationError(w http.ResponseWriter, message string, fields map[string]string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	out := map[string]interface{}{"error": message}
	if len(fields) > 0 {
		out["fields"] = fields
	}
	json.NewEncoder(w).Encode(out)
}

// ServiceError maps an error from the workflow layer to a response:
// validation 400, not found 404, conflicts and invalid transitions 409,
// anything else 500 with a generic message.
func ServiceError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	var e *errs.Error
	if !errors.As(err, &e) {
		e = errs.Wrap(errs.Persistence, "unclassified failure", err)
	}

	switch e.Code {
	case errs.Validation:
		JSONValidationError(w, e.Message, e.Fields, http.StatusBadRequest)
	case errs.NotFound:
		JSONError(w, e.Message, http.StatusNotFound)
	case errs.Conflict, errs.InvalidTransition:
		JSONError(w, e.Message, http.StatusConflict)
	default:
		if log == nil {
			log = slog.Default()
		}
		log.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
	}
}
