package client

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrTransport    = errors.New("transport failure")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrServer       = errors.New("server error")
)

// Error is returned by every Client call that fails. Kind is one of the
// sentinels above, so callers can use errors.Is.
type Error struct {
	Kind    error
	Status  int // 0 when no response was received
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is matches the error's kind. Forbidden also matches ErrUnauthorized since
// both ask the user to sign in with a different account.
func (e *Error) Is(target error) bool {
	if target == e.Kind {
		return true
	}
	return e.Kind == ErrForbidden && target == ErrUnauthorized
}

func (e *Error) Unwrap() error { return e.Err }

func kindForStatus(status int) error {
	switch status {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
		return ErrValidation
	}
	if status >= 500 {
		return ErrServer
	}
	return ErrValidation
}
