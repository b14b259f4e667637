package http

import (
	"errors"
	"fmt"
)

// Sentinel errors that can be checked using errors.Is
var (
	// ErrInvalidArgument is returned when a builder argument is empty or out of range.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrConfiguration is returned when a request cannot be built from the
	// accumulated configuration.
	ErrConfiguration = errors.New("invalid request configuration")

	// ErrMissingURL is returned when Execute is called before To.
	ErrMissingURL = fmt.Errorf("%w: no target URL set", ErrConfiguration)

	// ErrAlreadyExecuted is returned when a builder is used after Execute.
	ErrAlreadyExecuted = fmt.Errorf("%w: request builder already executed", ErrConfiguration)

	// ErrSerialization is returned when a JSON body cannot be encoded or decoded.
	ErrSerialization = errors.New("serialization failed")

	// ErrExecution is returned when the transport fails to complete the exchange.
	ErrExecution = errors.New("request execution failed")

	// ErrTimeout is returned when the configured timeout elapses. A timeout is
	// also an ErrExecution.
	ErrTimeout = fmt.Errorf("%w: request timeout", ErrExecution)
)

// ErrorKind categorizes a RequestError.
type ErrorKind string

const (
	KindInvalidArgument ErrorKind = "invalid_argument"
	KindConfiguration   ErrorKind = "configuration"
	KindSerialization   ErrorKind = "serialization"
	KindExecution       ErrorKind = "execution"
	KindTimeout         ErrorKind = "timeout"
)

// RequestError provides context about a failed builder operation or request.
type RequestError struct {
	// Op is the builder operation that failed, e.g. "WithHeader" or "Execute"
	Op string

	// Method and URL describe the request; URL is empty if it was never set
	Method Method
	URL    string

	// Kind categorizes the error for errors.Is matching
	Kind ErrorKind

	// Err is the underlying error
	Err error
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("fetch: %s %s %s: %v", e.Op, e.Method, e.URL, e.Err)
	}
	return fmt.Sprintf("fetch: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *RequestError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel that corresponds to the error kind, so callers can
// test errors.Is(err, ErrTimeout) regardless of the wrapped cause.
func (e *RequestError) Is(target error) bool {
	switch e.Kind {
	case KindInvalidArgument:
		return target == ErrInvalidArgument
	case KindConfiguration:
		return target == ErrConfiguration
	case KindSerialization:
		return target == ErrSerialization
	case KindExecution:
		return target == ErrExecution
	case KindTimeout:
		return target == ErrTimeout || target == ErrExecution
	}
	return false
}
