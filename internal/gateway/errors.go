package gateway

import (
	"errors"
	"fmt"
)

// Kind classifies a remote failure.
type Kind string

const (
	KindAuthentication Kind = "authentication"
	KindNetwork        Kind = "network"
	KindRateLimit      Kind = "rate_limit"
	KindRemoteSchema   Kind = "remote_schema"
)

// Error is a classified remote failure.
type Error struct {
	Kind       Kind
	Message    string
	StatusCode int
	Err        error
}

var (
	ErrAuthentication = &Error{Kind: KindAuthentication}
	ErrNetwork        = &Error{Kind: KindNetwork}
	ErrRateLimit      = &Error{Kind: KindRateLimit}
	ErrRemoteSchema   = &Error{Kind: KindRemoteSchema}
)

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind) + " error"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any Error of the same kind, so the Err* values work as sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Retryable reports whether a failure is transient. Authentication and
// schema failures are never retryable.
func Retryable(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == KindNetwork || e.Kind == KindRateLimit
}

// RemoteSchemaf reports a response that does not match the expected shape.
func RemoteSchemaf(format string, args ...any) error {
	return &Error{Kind: KindRemoteSchema, Message: fmt.Sprintf(format, args...)}
}

func newError(kind Kind, status int, msg string, err error) *Error {
	return &Error{Kind: kind, StatusCode: status, Message: msg, Err: err}
}
