package auth

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindInvalidCredentials
	KindDuplicateUser
	KindUnauthenticated
	KindInvalidToken
	KindSessionExpired
	KindForbidden
	KindNotFound
)

var kindNames = map[Kind]string{
	KindInternal:           "internal",
	KindValidation:         "validation",
	KindInvalidCredentials: "invalid_credentials",
	KindDuplicateUser:      "duplicate_user",
	KindUnauthenticated:    "unauthenticated",
	KindInvalidToken:       "invalid_token",
	KindSessionExpired:     "session_expired_or_invalid",
	KindForbidden:          "forbidden",
	KindNotFound:           "not_found",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error carries a kind, a message safe to show clients and an optional
// internal cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth: %s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("auth: %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so the sentinels below work with
// errors.Is regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrValidation         = &Error{Kind: KindValidation, Message: "invalid input"}
	ErrInvalidCredentials = &Error{Kind: KindInvalidCredentials, Message: "invalid credentials"}
	ErrDuplicateUser      = &Error{Kind: KindDuplicateUser, Message: "username or email already exists"}
	ErrUnauthenticated    = &Error{Kind: KindUnauthenticated, Message: "authentication required"}
	ErrInvalidToken       = &Error{Kind: KindInvalidToken, Message: "invalid token"}
	ErrSessionExpired     = &Error{Kind: KindSessionExpired, Message: "session expired or invalid"}
	ErrForbidden          = &Error{Kind: KindForbidden, Message: "forbidden"}
	ErrNotFound           = &Error{Kind: KindNotFound, Message: "not found"}
	ErrInternal           = &Error{Kind: KindInternal, Message: "internal error"}
)

func newError(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Err: cause}
}

func validation(msg string) *Error { return newError(KindValidation, msg, nil) }

func internal(msg string, cause error) *Error { return newError(KindInternal, msg, cause) }

// KindOf reports the kind of err. Errors that are not *Error are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
