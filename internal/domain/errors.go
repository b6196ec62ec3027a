package domain

import "errors"

var (
	// ErrNotFound is returned by stores when a lookup matches nothing.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a unique constraint would be violated.
	ErrConflict = errors.New("conflict")
	// ErrUnknownReference is returned when a record points at a row that does not exist.
	ErrUnknownReference = errors.New("unknown reference")
)

// ValidationError carries the first rule a submitted form broke.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return e.Message
}
