package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrDuplicate  = errors.New("duplicate key")
	ErrInvalidID  = errors.New("invalid id")

	// Service-level errors. These are the kinds carried by *Error and
	// mapped to HTTP statuses by the transport layer.
	ErrorInternal      = errors.New("internal error")
	ErrorUnauthorized  = errors.New("unauthorized")
	ErrValidation      = errors.New("validation error")
	ErrConflict        = errors.New("conflict")
	ErrTooManyAttempts = errors.New("too many attempts")
	ErrDelivery        = errors.New("delivery failed")

	// Session token errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// Error is a service failure with a client-facing message. Kind is one of
// the sentinels above, so callers match with errors.Is(err, common.ErrValidation).
type Error struct {
	Kind    error
	Message string
	Err     error
}

// NewError builds an *Error of the given kind.
func NewError(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WrapError builds an *Error of the given kind that also keeps the
// underlying cause for logging.
func WrapError(kind error, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}
