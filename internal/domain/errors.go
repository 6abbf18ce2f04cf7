package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a uniqueness constraint was hit.
	ErrAlreadyExists = errors.New("already exists")
	// ErrForbidden indicates the caller does not own the entity.
	ErrForbidden = errors.New("forbidden")
)

// ValidationError is a user-facing input problem. Title and Message are
// shown verbatim by the client.
type ValidationError struct {
	Title   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Title + ": " + e.Message
}

// Invalid builds a ValidationError.
func Invalid(title, message string) error {
	return &ValidationError{Title: title, Message: message}
}
