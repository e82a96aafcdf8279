package domain

import "errors"

// Error kinds. The API layer maps each kind to one HTTP status.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.kind }

func newError(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

// NewValidationError builds a request validation failure with msg as the
// client-facing text.
func NewValidationError(msg string) error {
	return newError(ErrValidation, msg)
}

var (
	ErrBookNotFound        = newError(ErrNotFound, "Book not found")
	ErrUserNotFound        = newError(ErrNotFound, "User not found")
	ErrBorrowNotFound      = newError(ErrNotFound, "Borrow record not found")
	ErrBookAlreadyBorrowed = newError(ErrConflict, "Book is already borrowed")
	ErrUserAlreadyExists   = newError(ErrConflict, "Email or Username already registered")
	ErrDuplicateISBN       = newError(ErrConflict, "A book with this ISBN already exists")
	ErrBookNotBorrowed     = newError(ErrInvalidState, "Book is not currently borrowed")
	ErrNoOutstandingFine   = newError(ErrInvalidState, "No outstanding fine for this book")
	ErrInvalidCredentials  = newError(ErrUnauthorized, "Invalid credentials")
	ErrInvalidToken        = newError(ErrUnauthorized, "Invalid or expired token")
	ErrMissingToken        = newError(ErrUnauthorized, "Missing Authorization Header")
	ErrAdminOnly           = newError(ErrForbidden, "Access forbidden: Admins only")
)

// PublicMessage returns the client-facing message for domain errors and
// false for anything else.
func PublicMessage(err error) (string, bool) {
	var ke *kindError
	if errors.As(err, &ke) {
		return ke.msg, true
	}
	return "", false
}
