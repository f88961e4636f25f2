package backend

import (
	"errors"
	"fmt"
)

// TransportError means the backend could not be reached at all.
type TransportError struct {
	Op  Operation
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: backend unreachable: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// BackendError is a non-2xx response. Message is the backend's own error
// text and may be empty.
type BackendError struct {
	Op         Operation
	StatusCode int
	Message    string
}

func (e *BackendError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: backend returned status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: backend returned status %d: %s", e.Op, e.StatusCode, e.Message)
}

// DecodeError is a 2xx response whose body is not the expected JSON.
type DecodeError struct {
	Op  Operation
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: malformed response: %v", e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Message returns the backend-supplied message carried by err, if any.
func Message(err error) (string, bool) {
	var be *BackendError
	if errors.As(err, &be) && be.Message != "" {
		return be.Message, true
	}
	return "", false
}

// IsUnreachable reports whether err is a connection-level failure.
func IsUnreachable(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
