// Package response writes JSON bodies and maps domain errors to statuses.
package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"libraryapi/internal/domain"
	"libraryapi/pkg/logger"
)

type ErrorBody struct {
	Error string `json:"error"`
}

func JSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		json.NewEncoder(w).Encode(body)
	}
}

func Message(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, ErrorBody{Error: msg})
}

// StatusFor returns the HTTP status for err's kind.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrInvalidState),
		errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Error writes err as {"error": msg}. Errors without a public message are
// logged and reported as a generic 500.
func Error(w http.ResponseWriter, r *http.Request, log logger.Logger, err error) {
	msg, ok := domain.PublicMessage(err)
	if !ok {
		log.ErrorContext(r.Context(), "Request failed", map[string]interface{}{
			"method": r.Method,
			"path":   r.URL.Path,
			"error":  err.Error(),
		})
		Message(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	Message(w, StatusFor(err), msg)
}
