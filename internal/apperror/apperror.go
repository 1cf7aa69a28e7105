// Package apperror defines the error taxonomy shared by services, middleware and handlers.
package apperror

import (
	"errors"
	"net/http"
)

// Kind classifies an error for transport mapping.
type Kind int

const (
	Internal Kind = iota
	Validation
	Unauthenticated
	InvalidToken
	Forbidden
	NotFound
	Conflict
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case Unauthenticated:
		return "unauthenticated"
	case InvalidToken:
		return "invalid_token"
	case Forbidden:
		return "forbidden"
	case NotFound:
		return "not_found"
	case Conflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error carries a Kind, a client-safe message and an optional cause.
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

func (e *Error) Unwrap() error { return e.Err }

// Is matches sentinel errors by identity and bare kind errors by Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if e == t {
		return true
	}
	return t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

// New creates an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches a cause to a new error of the given kind.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Internalf wraps a store or unexpected failure.
func Internalf(message string, err error) *Error {
	return Wrap(Internal, message, err)
}

// Sentinel errors. Compare with errors.Is.
var (
	ErrUnauthenticated    = New(Unauthenticated, "authorization is missing")
	ErrInvalidToken       = New(InvalidToken, "invalid or expired token")
	ErrInvalidCredentials = New(Unauthenticated, "invalid email or password")
	ErrForbidden          = New(Forbidden, "access denied")
	ErrNotAuthorized      = New(Forbidden, "not authorized")
	ErrNotOwned           = New(Forbidden, "library entry does not belong to the user")
	ErrInvalidRating      = New(Validation, "rating must be between 1 and 5")
	ErrDuplicateReview    = New(Conflict, "the library entry has already been reviewed")
	ErrDuplicateEntry     = New(Conflict, "the game is already in the library")
	ErrEmailTaken         = New(Conflict, "email already registered")
)

// KindOf returns the Kind of err, Internal when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// HTTPStatus maps err to a response status code.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case Validation:
		return http.StatusBadRequest
	case Unauthenticated, InvalidToken:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message safe to send to a client.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != Internal {
		return e.Message
	}
	return "internal server error"
}
