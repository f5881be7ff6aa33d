package client

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrEmptyKey is returned before any request when a key is required but empty.
	ErrEmptyKey = errors.New("url map key is empty")
	// ErrNotFound matches a StatusError with status 404.
	ErrNotFound = errors.New("url map not found")
	// ErrUnauthorized matches a StatusError with status 401 or 403.
	ErrUnauthorized = errors.New("authorization rejected")
)

// StatusError reports a non-2xx answer from the API.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// Is lets callers match on ErrNotFound and ErrUnauthorized.
func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	}
	return false
}
