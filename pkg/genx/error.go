package genx

import (
	"errors"
	"fmt"
)

// ErrNoContent is returned when a response carries no usable part.
var ErrNoContent = errors.New("genx: no content in response")

// BackendError is an error reported by the language backend itself, as
// opposed to a transport or encoding failure.
type BackendError struct {
	// Code is the HTTP status or backend error code, 0 when unknown.
	Code int

	// Status is the backend status string (e.g. INVALID_ARGUMENT).
	Status string

	Message string
}

func (e *BackendError) Error() string {
	switch {
	case e.Code != 0 && e.Status != "":
		return fmt.Sprintf("genx: backend error: %s (code=%d, status=%s)", e.Message, e.Code, e.Status)
	case e.Code != 0:
		return fmt.Sprintf("genx: backend error: %s (code=%d)", e.Message, e.Code)
	default:
		return "genx: backend error: " + e.Message
	}
}

// AsBackendError extracts *BackendError from an error.
func AsBackendError(err error) (*BackendError, bool) {
	var e *BackendError
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
