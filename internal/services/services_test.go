package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/deepthoughts/thoughts-server/internal/auth"
	"github.com/deepthoughts/thoughts-server/internal/events"
	"github.com/deepthoughts/thoughts-server/internal/ratelimit"
	"github.com/deepthoughts/thoughts-server/internal/repository/memory"
)

type recorder struct {
	mu  sync.Mutex
	got []events.Event
}

func (r *recorder) Publish(ctx context.Context, evt events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, evt)
	return nil
}

func (r *recorder) events() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.Event(nil), r.got...)
}

// clock hands out strictly increasing times
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

type fixture struct {
	store    *memory.Store
	users    *UserService
	thoughts *ThoughtService
	events   *recorder
}

func newFixture(t *testing.T, limiter ratelimit.Limiter) *fixture {
	t.Helper()
	store := memory.NewStore()
	rec := &recorder{}
	clk := &clock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}

	users := NewUserService(store.Users(), store.Thoughts(), NewCredentials("test-secret", time.Hour), limiter, rec)
	users.now = clk.now
	thoughts := NewThoughtService(store.Thoughts(), store.Users(), rec)
	thoughts.now = clk.now

	return &fixture{store: store, users: users, thoughts: thoughts, events: rec}
}

func (f *fixture) signUp(t *testing.T, username string) auth.Identity {
	t.Helper()
	payload, err := f.users.SignUp(context.Background(), SignUpInput{
		Username: username,
		Email:    username + "@example.com",
		Password: "secret1",
	})
	require.NoError(t, err)
	return auth.Authenticated(payload.User.ID, payload.User.Username, payload.User.Email)
}
