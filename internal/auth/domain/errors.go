package domain

import (
	"errors"
	"net/http"
)

// Kind classifies failures surfaced to API clients.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindAuthentication
)

// StatusCode maps a kind to the HTTP status returned for it.
func (k Kind) StatusCode() int {
	switch k {
	case KindValidation, KindConflict:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindAuthentication:
		return "authentication"
	default:
		return "internal"
	}
}

// Error carries a client-facing message. The cause is kept for logs only.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

func newError(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

func ValidationError(message string) *Error {
	return newError(KindValidation, message, nil)
}

func ConflictError(message string, cause error) *Error {
	return newError(KindConflict, message, cause)
}

func AuthenticationError(message string, cause error) *Error {
	return newError(KindAuthentication, message, cause)
}

func InternalError(cause error) *Error {
	return newError(KindInternal, MsgInternal, cause)
}

// KindOf returns the kind of err, treating anything unclassified as internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Client-visible messages.
const (
	MsgMissingCredentials = "Please enter username and password"
	MsgInvalidUsername    = "Invalid Username. It should be at least 3 characters long and the first character should be a letter."
	MsgUsernameTaken      = "Please use a different username"
	MsgInvalidEmail       = "Invalid email format"
	MsgEmailTaken         = "Please use a different email"
	MsgInvalidPassword    = "Invalid password. Ensure the password is at least 5 characters long"
	MsgInvalidIsAdmin     = "Invalid isadmin value. Use true or false"
	MsgInvalidCredentials = "Invalid username or password"
	MsgInvalidToken       = "Invalid or expired token"
	MsgMissingToken       = "Authorization header required"
	MsgFreshTokenRequired = "Fresh token required"
	MsgInternal           = "Internal server error"
)

// Storage level sentinels.
var (
	ErrDuplicateUsername = errors.New("duplicate username")
	ErrDuplicateEmail    = errors.New("duplicate email")
)
