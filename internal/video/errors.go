package video

import (
	"fmt"

	"github.com/pkg/errors"
)

// Error kinds. Every error returned by Service matches exactly one of them
// with errors.Is.
var (
	ErrInvalid        = errors.New("invalid")
	ErrForbidden      = errors.New("forbidden")
	ErrNotFound       = errors.New("not_found")
	ErrRejected       = errors.New("rejected")
	ErrUpstream       = errors.New("upstream")
	ErrPartialFailure = errors.New("partial_failure")
	ErrUnavailable    = errors.New("unavailable")
)

// Error is a kinded failure with a client facing message.
// Details carries the upstream message, if any.
type Error struct {
	Kind    error
	Message string
	Details string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.cause != nil {
		return []error{e.Kind, e.cause}
	}
	return []error{e.Kind}
}

// Kind names the kind of err, "upstream" for anything unkinded.
func Kind(err error) string {
	for _, k := range []error{ErrInvalid, ErrForbidden, ErrNotFound, ErrRejected, ErrPartialFailure, ErrUnavailable} {
		if errors.Is(err, k) {
			return k.Error()
		}
	}
	return ErrUpstream.Error()
}

// Message returns the client facing message of err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}

// Details returns the upstream message attached to err, if any.
func Details(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Details
	}
	return ""
}

func invalid(format string, args ...any) error {
	return &Error{Kind: ErrInvalid, Message: fmt.Sprintf(format, args...)}
}

func upstream(msg string, err error) error {
	return &Error{Kind: ErrUpstream, Message: msg, Details: errors.Cause(err).Error(), cause: err}
}

func partial(msg string, err error) error {
	return &Error{Kind: ErrPartialFailure, Message: msg, Details: err.Error(), cause: err}
}
