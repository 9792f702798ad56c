package petoneer

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrInvalidArgument matches every *ArgumentError.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrAuthentication is returned when login yields no access token.
	ErrAuthentication = errors.New("petoneer authentication failed")
	// ErrUnauthorized is returned when the API rejects the session token.
	ErrUnauthorized = errors.New("petoneer api unauthorized")
)

// ArgumentError reports a bad argument caught before any request was made.
type ArgumentError struct {
	Op      string
	Arg     string
	Message string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("petoneer.%s: invalid argument %q: %s", e.Op, e.Arg, e.Message)
}

func (e *ArgumentError) Unwrap() error {
	return ErrInvalidArgument
}

func argumentError(op, arg, message string) error {
	return &ArgumentError{Op: op, Arg: arg, Message: message}
}

// HTTPStatusError is a non-200 HTTP response from the API server.
type HTTPStatusError struct {
	Path   string
	Status int
	Body   string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("petoneer api error %d on %s: %s", e.Status, e.Path, strings.TrimSpace(e.Body))
}

func (e *HTTPStatusError) Unwrap() error {
	if e.Status == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}

// APIError is a 200 response whose envelope carries a failure code.
type APIError struct {
	Path    string
	Code    int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("petoneer api %s returned code %d", e.Path, e.Code)
	}
	return fmt.Sprintf("petoneer api %s returned code %d: %s", e.Path, e.Code, e.Message)
}
