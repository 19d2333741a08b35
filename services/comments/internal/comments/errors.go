package comments

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so boundary layers can map it to a status.
type Kind int

const (
	KindInvalidIdentifier Kind = iota + 1
	KindValidation
	KindNotFound
	KindForbidden
	KindQueryFailed
	KindPersistence
)

func (k Kind) String() string {
	switch k {
	case KindInvalidIdentifier:
		return "INVALID_IDENTIFIER"
	case KindValidation:
		return "VALIDATION_ERROR"
	case KindNotFound:
		return "NOT_FOUND"
	case KindForbidden:
		return "FORBIDDEN"
	case KindQueryFailed:
		return "QUERY_FAILED"
	case KindPersistence:
		return "PERSISTENCE_ERROR"
	}
	return "UNKNOWN"
}

// Sentinels for errors.Is. Every *Error matches the sentinel of its Kind.
var (
	ErrInvalidIdentifier = errors.New("invalid identifier")
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrQueryFailed       = errors.New("query failed")
	ErrPersistence       = errors.New("persistence failed")
)

var sentinels = map[Kind]error{
	KindInvalidIdentifier: ErrInvalidIdentifier,
	KindValidation:        ErrValidation,
	KindNotFound:          ErrNotFound,
	KindForbidden:         ErrForbidden,
	KindQueryFailed:       ErrQueryFailed,
	KindPersistence:       ErrPersistence,
}

// Error is returned by every Service operation.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	if target == sentinels[e.Kind] {
		return true
	}
	// A malformed identifier is also a validation failure.
	return e.Kind == KindInvalidIdentifier && target == ErrValidation
}

func newError(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Err: cause}
}

// KindOf returns the Kind carried by err, or 0 when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
