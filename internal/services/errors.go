package services

import (
	"errors"
	"fmt"
)

// Kind classifies service failures so transports can map them once.
type Kind int

const (
	KindInternal Kind = iota
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindConflict
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindValidation:
		return "validation"
	default:
		return "internal"
	}
}

// Error is a classified service failure. Msg is safe to show to clients.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	return e.Msg
}

// Is matches another *Error with the same kind and message, which lets the
// package-level sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return other.Kind == e.Kind && other.Msg == e.Msg
}

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func notFound(format string, args ...any) *Error {
	return newError(KindNotFound, format, args...)
}

func conflict(format string, args ...any) *Error {
	return newError(KindConflict, format, args...)
}

func forbidden(format string, args ...any) *Error {
	return newError(KindForbidden, format, args...)
}

func invalid(format string, args ...any) *Error {
	return newError(KindValidation, format, args...)
}

var (
	ErrUnauthenticated    = &Error{Kind: KindUnauthenticated, Msg: "unauthorized"}
	ErrInvalidCredentials = &Error{Kind: KindUnauthenticated, Msg: "invalid credentials"}
	ErrInsufficientRole   = &Error{Kind: KindForbidden, Msg: "insufficient permissions"}
	ErrPendingApproval    = &Error{Kind: KindForbidden, Msg: "your librarian account is pending approval"}
	ErrBanned             = &Error{Kind: KindForbidden, Msg: "your account has been banned"}
	ErrNotOwner           = &Error{Kind: KindForbidden, Msg: "you can only modify your own books"}
)

// KindOf reports the kind of err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Kind
	}
	return KindInternal
}
