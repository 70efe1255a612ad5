// Package apperr defines the application error taxonomy shared by the
// authorization pipeline and the HTTP layer. Store failures cross component
// boundaries as a single opaque kind so handlers never leak driver detail.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an application error.
type Kind int

const (
	// Internal covers missing configuration and unexpected failures.
	Internal Kind = iota
	// NotFound reports a missing entity.
	NotFound
	// IllegalToken reports a session token that failed verification. A bad
	// signature and a revoked token are deliberately indistinguishable.
	IllegalToken
	// NotAuthorized reports an identity whose access has not been granted
	// or has been revoked.
	NotAuthorized
	// BadRequest reports a capability or ownership violation.
	BadRequest
	// PeerBanned reports a network address over the abuse threshold.
	PeerBanned
	// CookiesUnapproved reports a request made before cookie consent.
	CookiesUnapproved
	// Store wraps an opaque storage-layer failure.
	Store
)

// Error is the single error type rendered to clients. Every rejection
// carries a status, a human description and an optional redirect hint.
type Error struct {
	Kind   Kind
	Detail string
	cause  error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.description(), e.cause)
	}
	return e.description()
}

func (e *Error) Unwrap() error { return e.cause }

// Is makes two taxonomy errors of the same kind match under errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func (e *Error) description() string {
	switch e.Kind {
	case NotFound:
		return "one of the requested items hasn't been found, please ensure your request is correct"
	case IllegalToken:
		return "your authentication token is not correct, please reconnect in order to regenerate it"
	case NotAuthorized:
		if e.Detail != "" {
			return fmt.Sprintf("the following user's access has not been granted or has been revoked: %s", e.Detail)
		}
		return "your access has not been granted or has been revoked"
	case BadRequest:
		return "you don't have access to this resource, or the way you are trying to access it is wrong"
	case PeerBanned:
		return fmt.Sprintf("the peer %s has been banned following repeated client errors", e.Detail)
	case CookiesUnapproved:
		return "you haven't approved cookies yet, approve them prior to any usage of the application"
	case Store:
		return "a storage error happened, it has been reported and will be resolved as soon as possible"
	default:
		return "an internal error happened, it has been reported and will be resolved as soon as possible"
	}
}

// Status maps the error to its HTTP status code.
func (e *Error) Status() int {
	switch e.Kind {
	case NotFound:
		return http.StatusNotFound
	case IllegalToken, BadRequest, CookiesUnapproved, PeerBanned:
		return http.StatusBadRequest
	case NotAuthorized:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Redirect returns the path the client should be sent to, if any.
// Token failures force a logout so a fresh token can be emitted.
func (e *Error) Redirect() (string, bool) {
	switch e.Kind {
	case IllegalToken:
		return "/logout", true
	case CookiesUnapproved:
		return "/cookies", true
	default:
		return "", false
	}
}

// Description returns the human-readable message rendered to the client.
func (e *Error) Description() string { return e.description() }

// New builds a taxonomy error with an optional detail string.
func New(kind Kind, detail string) *Error {
	return &Error{Kind: kind, Detail: detail}
}

// Wrap attaches a cause to a taxonomy error. The cause is kept for logs
// and never rendered to clients.
func Wrap(kind Kind, cause error) *Error {
	return &Error{Kind: kind, cause: cause}
}

// WrapStore wraps a storage-layer failure into the opaque store kind.
func WrapStore(cause error) *Error {
	return &Error{Kind: Store, cause: cause}
}

// KindOf extracts the taxonomy kind of err, defaulting to Internal for
// errors that never went through this package.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// From normalizes any error into a taxonomy error.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Kind: Internal, cause: err}
}
