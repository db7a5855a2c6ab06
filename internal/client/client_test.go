package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepthoughts/thoughts-server/internal/graph"
	"github.com/deepthoughts/thoughts-server/internal/handlers"
	"github.com/deepthoughts/thoughts-server/internal/models"
	"github.com/deepthoughts/thoughts-server/internal/repository/memory"
	"github.com/deepthoughts/thoughts-server/internal/services"
)

func newTestClient(t *testing.T) (*Client, *services.Credentials) {
	t.Helper()
	store := memory.NewStore()
	creds := services.NewCredentials("client-secret", time.Hour)
	hub := services.NewWSHub()
	users := services.NewUserService(store.Users(), store.Thoughts(), creds, nil, hub)
	thoughts := services.NewThoughtService(store.Thoughts(), store.Users(), hub)
	schema, err := graph.NewSchema(graph.NewResolver(users, thoughts, nil))
	require.NoError(t, err)

	srv := httptest.NewServer(handlers.NewRouter(handlers.RouterConfig{
		Schema: schema,
		Hub:    hub,
		Tokens: creds,
	}))
	t.Cleanup(srv.Close)
	return New(srv.URL + "/graphql"), creds
}

func newSession(t *testing.T) *Session {
	t.Helper()
	s, err := NewSession(NewMemoryStore())
	require.NoError(t, err)
	return s
}

func TestSignUpLoginAndLogout(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestClient(t)
	s := newSession(t)

	user, err := c.AddUser(ctx, s, "ana", "a@x.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "ana", user.Username)
	assert.True(t, s.LoggedIn())

	profile, ok := s.Profile()
	require.True(t, ok)
	assert.Equal(t, user.ID, profile.ID)

	require.NoError(t, s.Logout())
	assert.False(t, s.LoggedIn())

	_, err = c.Me(ctx, s)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = c.Login(ctx, s, "a@x.com", "wrong")
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.False(t, s.LoggedIn())

	again, err := c.Login(ctx, s, "a@x.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID)

	me, err := c.Me(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, "ana", me.Username)
}

func TestThoughtOperations(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestClient(t)
	ana := newSession(t)
	bob := newSession(t)

	_, err := c.AddUser(ctx, ana, "ana", "a@x.com", "secret123")
	require.NoError(t, err)
	_, err = c.AddUser(ctx, bob, "bob", "b@x.com", "secret123")
	require.NoError(t, err)

	_, err = c.AddThought(ctx, nil, "anonymous")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	thought, err := c.AddThought(ctx, ana, "hi")
	require.NoError(t, err)
	assert.Equal(t, "ana", thought.Username)
	assert.Equal(t, 0, thought.ReactionCount)
	assert.NotEmpty(t, thought.CreatedAt)

	reacted, err := c.AddReaction(ctx, bob, thought.ID, "hello back")
	require.NoError(t, err)
	require.Len(t, reacted.Reactions, 1)

	fetched, err := c.Thought(ctx, nil, thought.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, fetched.ReactionCount)

	missing, err := c.Thought(ctx, nil, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	list, err := c.Thoughts(ctx, nil, "ana")
	require.NoError(t, err)
	require.Len(t, list, 1)

	unreacted, err := c.RemoveReaction(ctx, bob, thought.ID, reacted.Reactions[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 0, unreacted.ReactionCount)

	_, err = c.RemoveThought(ctx, bob, thought.ID)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	removed, err := c.RemoveThought(ctx, ana, thought.ID)
	require.NoError(t, err)
	require.NotNil(t, removed)

	list, err = c.Thoughts(ctx, nil, "")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestFriendOperations(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestClient(t)
	ana := newSession(t)
	bob := newSession(t)

	_, err := c.AddUser(ctx, ana, "ana", "a@x.com", "secret123")
	require.NoError(t, err)
	bobUser, err := c.AddUser(ctx, bob, "bob", "b@x.com", "secret123")
	require.NoError(t, err)

	updated, err := c.AddFriend(ctx, ana, bobUser.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.FriendCount)
	require.Len(t, updated.Friends, 1)
	assert.Equal(t, "bob", updated.Friends[0].Username)

	ok, err := c.IsFriend(ctx, ana, "bob")
	require.NoError(t, err)
	assert.True(t, ok)

	profile, err := c.User(ctx, nil, "ana")
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, 1, profile.FriendCount)

	users, err := c.Users(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	updated, err = c.RemoveFriend(ctx, ana, bobUser.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, updated.FriendCount)

	_, err = c.AvatarUploadURL(ctx, ana, "image/png")
	var gqlErr *Error
	require.ErrorAs(t, err, &gqlErr)
	assert.Equal(t, "INTERNAL", gqlErr.Code)
}

func TestStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	_, err := New(srv.URL).Users(context.Background(), nil)
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
}

func TestSessionExpiry(t *testing.T) {
	creds := services.NewCredentials("s", time.Minute)
	token, err := creds.IssueToken(&models.User{ID: "u1", Username: "ana", Email: "a@x.com"})
	require.NoError(t, err)

	store := NewMemoryStore()
	require.NoError(t, store.Save(token))
	s, err := NewSession(store)
	require.NoError(t, err)
	assert.True(t, s.LoggedIn())

	s.now = func() time.Time { return time.Now().Add(time.Hour) }
	assert.True(t, s.Expired())
	assert.False(t, s.LoggedIn())

	stored, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, stored, "an expired session is torn down")
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	store := NewFileStore(path)

	token, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, store.Save("abc"))
	restored, err := NewSession(NewFileStore(path))
	require.NoError(t, err)
	assert.Equal(t, "abc", restored.Token())

	require.NoError(t, restored.Logout())
	token, err = NewFileStore(path).Load()
	require.NoError(t, err)
	assert.Empty(t, token)
	assert.NoError(t, store.Clear())
}
