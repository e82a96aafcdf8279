package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"libraryapi/internal/domain"
)

var errInvalidBody = domain.NewValidationError("Invalid request body")

func decodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.NewValidationError("Request body is required")
		}
		return errInvalidBody
	}
	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewValidationError(name + " must be a positive integer")
	}
	return id, nil
}

// queryInt reads a positive integer query parameter, returning def when it
// is absent.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, domain.NewValidationError(name + " must be a positive integer")
	}
	return n, nil
}

func pageFromQuery(r *http.Request, sizeParam string, defSize, maxSize int) (domain.Page, error) {
	page, err := queryInt(r, "page", 1)
	if err != nil {
		return domain.Page{}, err
	}
	size, err := queryInt(r, sizeParam, defSize)
	if err != nil {
		return domain.Page{}, err
	}
	if maxSize > 0 && size > maxSize {
		return domain.Page{}, domain.NewValidationError(sizeParam + " must be at most " + strconv.Itoa(maxSize))
	}
	return domain.Page{Page: page, PerPage: size}, nil
}

// identity leaves a handler unwrapped.
func identity(next http.Handler) http.Handler {
	return next
}
