package services

import (
	"errors"
	"fmt"
)

var (
	// ErrNotAuthenticated is returned when an operation needs an identity or
	// ownership the caller does not have.
	ErrNotAuthenticated = errors.New("You need to be logged in!")
	// ErrBadCredentials is returned by Login for an unknown email or a wrong password.
	ErrBadCredentials = errors.New("Incorrect credentials")
	// ErrTooManyAttempts is returned when credential attempts are throttled
	ErrTooManyAttempts = errors.New("too many attempts, try again later")
	// ErrAvatarsDisabled is returned when no object storage is configured
	ErrAvatarsDisabled = errors.New("avatar uploads are not configured")
)

// ValidationError reports input the caller can fix
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
