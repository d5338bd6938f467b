package auth

import (
	"errors"
	"net/http"
)

// Failure kinds. Every *Error unwraps to exactly one of these.
var (
	ErrMissingCredential = errors.New("auth: missing credential")
	ErrInvalidHeader     = errors.New("auth: invalid header")
	ErrKeyNotFound       = errors.New("auth: signing key not found")
	ErrExpiredToken      = errors.New("auth: token expired")
	ErrInvalidClaims     = errors.New("auth: invalid claims")
	ErrInvalidSignature  = errors.New("auth: invalid signature")
	ErrInsufficientScope = errors.New("auth: insufficient scope")
	ErrKeySetUnavailable = errors.New("auth: key set unavailable")
)

// Error is an authentication or authorization failure with the code and
// description reported to the client.
type Error struct {
	Kind        error
	Code        string
	Description string
	Status      int
}

func (e *Error) Error() string { return e.Code + ": " + e.Description }

func (e *Error) Unwrap() error { return e.Kind }

// NewError builds an *Error whose HTTP status is derived from kind.
func NewError(kind error, code, description string) *Error {
	return &Error{Kind: kind, Code: code, Description: description, Status: statusFor(kind)}
}

func statusFor(kind error) int {
	switch {
	case errors.Is(kind, ErrInsufficientScope):
		return http.StatusForbidden
	case errors.Is(kind, ErrKeySetUnavailable):
		return http.StatusInternalServerError
	default:
		return http.StatusUnauthorized
	}
}

func errHeaderMissing() *Error {
	return NewError(ErrMissingCredential, "authorization_header_missing", "Authorization header is expected.")
}

func errMalformed(description string) *Error {
	return NewError(ErrMissingCredential, "invalid_header", description)
}

// InsufficientScope is returned when a verified caller lacks a permission.
func InsufficientScope() *Error {
	return NewError(ErrInsufficientScope, "insufficient_scope", "Permission not found.")
}

// Unauthenticated is returned when no verified claims are available.
func Unauthenticated() *Error {
	return NewError(ErrMissingCredential, "unauthenticated", "No verified credentials on request.")
}
