package graph

import (
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/deepthoughts/thoughts-server/internal/services"
)

// Error codes reported in extensions.code
const (
	CodeUnauthenticated = "UNAUTHENTICATED"
	CodeBadUserInput    = "BAD_USER_INPUT"
	CodeTooManyRequests = "TOO_MANY_REQUESTS"
	CodeInternal        = "INTERNAL"
)

// Error is a resolver error carrying a machine readable code
type Error struct {
	Message string
	Code    string
	Field   string
}

func (e *Error) Error() string {
	return e.Message
}

// Extensions is read by the executor and copied into the response
func (e *Error) Extensions() map[string]interface{} {
	ext := map[string]interface{}{"code": e.Code}
	if e.Field != "" {
		ext["field"] = e.Field
	}
	return ext
}

// translate maps service errors onto client facing errors. Anything not
// recognised is logged and reported as a generic internal error.
func translate(op string, err error) error {
	if err == nil {
		return nil
	}

	var verr *services.ValidationError
	switch {
	case errors.Is(err, services.ErrNotAuthenticated), errors.Is(err, services.ErrBadCredentials):
		return &Error{Message: err.Error(), Code: CodeUnauthenticated}
	case errors.As(err, &verr):
		return &Error{Message: verr.Error(), Code: CodeBadUserInput, Field: verr.Field}
	case errors.Is(err, services.ErrTooManyAttempts):
		return &Error{Message: err.Error(), Code: CodeTooManyRequests}
	case errors.Is(err, services.ErrAvatarsDisabled):
		return &Error{Message: err.Error(), Code: CodeInternal}
	}

	log.Error().Err(err).Str("operation", op).Msg("Resolver failed")
	return &Error{Message: "internal server error", Code: CodeInternal}
}
