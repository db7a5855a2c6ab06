package middleware

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/deepthoughts/thoughts-server/internal/auth"
)

// TokenParser turns a session token into an identity
type TokenParser interface {
	ParseToken(token string) (auth.Identity, error)
}

// Identify resolves the caller identity from the Authorization header and
// attaches it to the request context. A missing or invalid token leaves the
// request anonymous; it is never rejected here.
func Identify(parser TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := Resolve(parser, BearerToken(r))
			ctx := auth.WithIdentity(r.Context(), id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header, or returns an empty string
func BearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// Resolve parses token, falling back to Anonymous
func Resolve(parser TokenParser, token string) auth.Identity {
	if token == "" {
		return auth.Anonymous
	}
	id, err := parser.ParseToken(token)
	if err != nil {
		log.Debug().Err(err).Msg("Ignoring invalid session token")
		return auth.Anonymous
	}
	return id
}
