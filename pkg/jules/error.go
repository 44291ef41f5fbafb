package jules

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a non-2xx response from the Jules API.
type Error struct {
	// HTTPStatus is the HTTP status code.
	HTTPStatus int `json:"-"`

	// Status is the API status string when the body carried one
	// (e.g. NOT_FOUND).
	Status string `json:"status,omitempty"`

	Message string `json:"message"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("jules: %s (http=%d)", e.Message, e.HTTPStatus)
}

// IsNotFound returns true if the resource does not exist.
func (e *Error) IsNotFound() bool {
	return e.HTTPStatus == http.StatusNotFound
}

// IsUnauthorized returns true if the API key was rejected.
func (e *Error) IsUnauthorized() bool {
	return e.HTTPStatus == http.StatusUnauthorized || e.HTTPStatus == http.StatusForbidden
}

// AsError extracts *Error from an error.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
