// Package apperr defines the error kinds the workflow layer reports and how
// they map onto HTTP statuses.
package apperr

import (
	"errors"
	"net/http"
)

type Kind int

const (
	KindUnexpected Kind = iota
	KindValidation
	KindDuplicate
	KindInvalidCredentials
	KindInvalidOperation
	KindConflict
	KindUnauthenticated
	KindForbidden
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindDuplicate:
		return "duplicate"
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindInvalidOperation:
		return "invalid_operation"
	case KindConflict:
		return "conflict"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	default:
		return "unexpected"
	}
}

// Error is a classified failure. Message is safe to show to the caller; Err
// is the underlying cause and is only logged.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind, so sentinels below work with
// errors.Is regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Kind == e.Kind
}

var (
	ErrValidation         = &Error{Kind: KindValidation}
	ErrDuplicate          = &Error{Kind: KindDuplicate}
	ErrInvalidCredentials = &Error{Kind: KindInvalidCredentials}
	ErrInvalidOperation   = &Error{Kind: KindInvalidOperation}
	ErrConflict           = &Error{Kind: KindConflict}
	ErrUnauthenticated    = &Error{Kind: KindUnauthenticated}
	ErrForbidden          = &Error{Kind: KindForbidden}
	ErrNotFound           = &Error{Kind: KindNotFound}
)

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Validation(message string) *Error         { return New(KindValidation, message) }
func Duplicate(message string) *Error          { return New(KindDuplicate, message) }
func InvalidCredentials(message string) *Error { return New(KindInvalidCredentials, message) }
func InvalidOperation(message string) *Error   { return New(KindInvalidOperation, message) }
func Conflict(message string) *Error           { return New(KindConflict, message) }
func Unauthenticated(message string) *Error    { return New(KindUnauthenticated, message) }
func Forbidden(message string) *Error          { return New(KindForbidden, message) }
func NotFound(message string) *Error           { return New(KindNotFound, message) }

func Unexpected(err error) *Error {
	return Wrap(KindUnexpected, "Server error", err)
}

// KindOf reports the kind of err, or KindUnexpected for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnexpected
}

// Status maps err onto the HTTP status returned to the client.
func Status(err error) int {
	switch KindOf(err) {
	case KindValidation, KindDuplicate, KindInvalidCredentials, KindInvalidOperation, KindConflict:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the client-facing message for err. Unclassified errors
// never leak their text.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindUnexpected && e.Message != "" {
		return e.Message
	}
	if errors.As(err, &e) && e.Kind != KindUnexpected {
		return e.Kind.String()
	}
	return "Server error"
}
