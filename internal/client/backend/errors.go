package backend

import (
	"context"
	"errors"
	"fmt"
)

// Kind categorizes a backend failure structurally, so callers never have to
// match on message text.
type Kind int

const (
	KindInternal Kind = iota
	// KindAborted marks a request cancelled on purpose (e.g. in-flight calls
	// torn down by sign-out). Treated as expected noise, not failure.
	KindAborted
	// KindUnavailable covers timeouts and transport failures: the backend
	// could not be reached, or did not answer in time.
	KindUnavailable
	// KindInvalidCredentials is a rejected email/password pair.
	KindInvalidCredentials
	// KindEmailNotConfirmed is a sign-in attempt before the confirmation
	// email was acted on.
	KindEmailNotConfirmed
	KindUnauthorized
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindAborted:
		return "aborted"
	case KindUnavailable:
		return "unavailable"
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindEmailNotConfirmed:
		return "email_not_confirmed"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error is a categorized backend failure. Message carries the backend's own
// wording (surfaced verbatim on credential screens); Kind drives branching.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.cause != nil {
		return e.cause.Error()
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.cause }

// newError builds a categorized error wrapping cause.
func newError(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, cause: cause}
}

// KindOf extracts the Kind from err, or KindInternal if err carries none.
func KindOf(err error) Kind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	if errors.Is(err, context.Canceled) {
		return KindAborted
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindUnavailable
	}
	return KindInternal
}

// IsAborted reports whether err is an intentional cancellation.
func IsAborted(err error) bool { return err != nil && KindOf(err) == KindAborted }

// IsUnavailable reports whether err is a transient reachability failure.
func IsUnavailable(err error) bool { return err != nil && KindOf(err) == KindUnavailable }

// wrapTransport maps a transport-level error (dial failure, cancelled
// context, timeout) to a categorized error.
func wrapTransport(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, context.Canceled):
		return newError(KindAborted, "request aborted", err)
	case errors.Is(err, context.DeadlineExceeded):
		return newError(KindUnavailable, "backend timed out", err)
	default:
		return newError(KindUnavailable, fmt.Sprintf("backend unreachable: %v", err), err)
	}
}
