package client

import (
	"errors"
	"fmt"
)

// ErrUnauthenticated matches errors the server reports as UNAUTHENTICATED
var ErrUnauthenticated = errors.New("not authenticated")

// Error is the first error of a GraphQL response
type Error struct {
	Message string
	Code    string
	Path    []interface{}
}

func (e *Error) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

// Is lets errors.Is(err, ErrUnauthenticated) hold for authorization failures
func (e *Error) Is(target error) bool {
	return target == ErrUnauthenticated && e.Code == "UNAUTHENTICATED"
}

// StatusError is returned when the endpoint answers with a non-200 status
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}
