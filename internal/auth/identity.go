// Package auth defines the caller identity that is resolved once per request
// and handed explicitly to every service call.
package auth

import "context"

// Identity is either Anonymous or Authenticated. The zero value is Anonymous.
type Identity struct {
	userID   string
	username string
	email    string
}

// Anonymous is the identity of a request without a valid session token.
var Anonymous = Identity{}

// Authenticated returns the identity of a verified session holder.
func Authenticated(userID, username, email string) Identity {
	return Identity{userID: userID, username: username, email: email}
}

// IsAuthenticated reports whether the identity carries a user.
func (i Identity) IsAuthenticated() bool {
	return i.userID != ""
}

// UserID returns the user's id, empty when anonymous.
func (i Identity) UserID() string { return i.userID }

// Username returns the user's username, empty when anonymous.
func (i Identity) Username() string { return i.username }

// Email returns the user's email, empty when anonymous.
func (i Identity) Email() string { return i.email }

type contextKey struct{}

// WithIdentity stores the identity in ctx
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the identity stored in ctx, or Anonymous
func FromContext(ctx context.Context) Identity {
	id, ok := ctx.Value(contextKey{}).(Identity)
	if !ok {
		return Anonymous
	}
	return id
}
