package models

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrBadRequest     = errors.New("bad request")
	ErrDependency     = errors.New("dependency unavailable")
	ErrInternalServer = errors.New("internal server error")
)

// Authentication failures. All of them satisfy errors.Is(err, ErrUnauthorized).
var (
	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	ErrMissingToken       = fmt.Errorf("%w: missing token", ErrUnauthorized)
	ErrInvalidToken       = fmt.Errorf("%w: invalid token", ErrUnauthorized)
	ErrTokenExpired       = fmt.Errorf("%w: expired token", ErrUnauthorized)
)

// Account standing errors. All of them satisfy errors.Is(err, ErrForbidden).
var (
	ErrAccountDeactivated = fmt.Errorf("%w: account is deactivated", ErrForbidden)
	ErrEmailNotVerified   = fmt.Errorf("%w: email address not verified", ErrForbidden)
	ErrAccountLocked      = fmt.Errorf("%w: account is temporarily locked", ErrForbidden)
	ErrNotAdmin           = fmt.Errorf("%w: not an admin", ErrForbidden)
)

// Input errors. All of them satisfy errors.Is(err, ErrBadRequest).
var (
	ErrInvalidOTP       = fmt.Errorf("%w: invalid or expired OTP", ErrBadRequest)
	ErrInvalidRole      = fmt.Errorf("%w: invalid role", ErrBadRequest)
	ErrSelfModification = fmt.Errorf("%w: cannot apply this change to your own account", ErrBadRequest)
)

// ValidationError carries every rule an input violated so callers can
// present all problems at once.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "validation failed"
	}
	return "validation failed: " + strings.Join(e.Errors, "; ")
}

// Unwrap lets errors.Is(err, ErrBadRequest) match validation failures.
func (e *ValidationError) Unwrap() error {
	return ErrBadRequest
}
