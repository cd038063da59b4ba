package remote

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found on server")
	ErrRejected     = errors.New("rejected by server")
	ErrMalformed    = errors.New("malformed server response")
)

// StatusError describes a non-successful response.
type StatusError struct {
	Method  string
	Path    string
	Status  int
	Message string
	kind    error
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: %d", e.Method, e.Path, e.Status)
	if e.Message != "" {
		msg += " " + e.Message
	}
	return msg + ": " + e.kind.Error()
}

func (e *StatusError) Unwrap() error { return e.kind }

// classify maps an HTTP status to one of the sentinel errors.
func classify(status int) error {
	switch {
	case status >= 500,
		status == http.StatusRequestTimeout,
		status == http.StatusTooManyRequests:
		return ErrUnavailable
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return ErrUnauthorized
	case status == http.StatusNotFound:
		return ErrNotFound
	default:
		return ErrRejected
	}
}
