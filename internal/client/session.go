package client

import (
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Profile is the user data carried inside a session token
type Profile struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type sessionClaims struct {
	Data Profile `json:"data"`
	jwt.RegisteredClaims
}

// Session holds the token of one signed in user. It starts when Login or
// AddUser succeeds (or when a stored token is restored) and ends on Logout or
// once the token has expired.
type Session struct {
	mu    sync.Mutex
	token string
	store TokenStore
	now   func() time.Time
}

// NewSession creates a session backed by store, restoring any token it holds.
// store may be nil for a session that is never persisted.
func NewSession(store TokenStore) (*Session, error) {
	s := &Session{store: store, now: time.Now}
	if store != nil {
		token, err := store.Load()
		if err != nil {
			return nil, fmt.Errorf("failed to restore session: %w", err)
		}
		s.token = token
	}
	return s, nil
}

// Token returns the current token, or an empty string when logged out
func (s *Session) Token() string {
	if s == nil {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *Session) set(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	if s.store != nil {
		if err := s.store.Save(token); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
	}
	return nil
}

// Logout forgets the token
func (s *Session) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	if s.store != nil {
		if err := s.store.Clear(); err != nil {
			return fmt.Errorf("failed to clear session: %w", err)
		}
	}
	return nil
}

func (s *Session) claims() (*sessionClaims, bool) {
	token := s.Token()
	if token == "" {
		return nil, false
	}
	var claims sessionClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return nil, false
	}
	return &claims, true
}

// Expired reports whether the token carries an expiry that has passed.
// Tokens that cannot be decoded count as expired.
func (s *Session) Expired() bool {
	claims, ok := s.claims()
	if !ok {
		return true
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !s.now().Before(claims.ExpiresAt.Time)
}

// LoggedIn reports whether a usable token is held. An expired token ends the
// session. The signature is not checked here; only the server can do that.
func (s *Session) LoggedIn() bool {
	if s.Token() == "" {
		return false
	}
	if s.Expired() {
		_ = s.Logout()
		return false
	}
	return true
}

// Profile decodes the user carried by the token
func (s *Session) Profile() (Profile, bool) {
	claims, ok := s.claims()
	if !ok || !s.LoggedIn() {
		return Profile{}, false
	}
	return claims.Data, true
}
