// Package serviceerr defines the closed error taxonomy produced at the
// request gateway boundary. Downstream components match on these kinds
// instead of inspecting transport errors or response bodies themselves.
package serviceerr

import (
	"errors"
	"fmt"
)

var (
	// ErrCredentials is a 400/401 on the login endpoint. Local and
	// recoverable: the user retries, the session is untouched.
	ErrCredentials = errors.New("invalid credentials")

	// ErrSessionInvalid is a 401 on any authenticated call, or a failed
	// refresh. Fatal to the session.
	ErrSessionInvalid = errors.New("session invalid")

	// ErrUnreachable is a transport failure or timeout: no HTTP status
	// was received at all.
	ErrUnreachable = errors.New("service unreachable")

	// ErrServer is a 5xx response. It does not by itself invalidate the
	// session.
	ErrServer = errors.New("server error")
)

// Error carries the kind sentinel together with the HTTP status and the
// server-provided message, when one was received.
type Error struct {
	kind       error
	StatusCode int
	Message    string
}

func New(kind error, statusCode int, message string) *Error {
	return &Error{kind: kind, StatusCode: statusCode, Message: message}
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.kind.Error(), e.Message)
}

func (e *Error) Unwrap() error {
	return e.kind
}

// Kind maps any error to one of the four sentinels, or nil for errors
// from outside the taxonomy.
func Kind(err error) error {
	for _, kind := range []error{ErrCredentials, ErrSessionInvalid, ErrUnreachable, ErrServer} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// Recoverable reports whether the error leaves the current session
// usable. Session-invalidating errors are the only fatal kind.
func Recoverable(err error) bool {
	return !errors.Is(err, ErrSessionInvalid)
}
