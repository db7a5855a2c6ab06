// Package repotest holds a conformance suite shared by every storage driver.
package repotest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepthoughts/thoughts-server/internal/models"
	"github.com/deepthoughts/thoughts-server/internal/repository"
)

// Factory returns fresh, empty repositories for one subtest.
type Factory func(t *testing.T) (repository.UserRepository, repository.ThoughtRepository)

// Run executes the suite against the driver built by newRepos.
func Run(t *testing.T, newRepos Factory) {
	t.Run("user uniqueness", func(t *testing.T) { testUserUniqueness(t, newRepos) })
	t.Run("user lookups", func(t *testing.T) { testUserLookups(t, newRepos) })
	t.Run("friend set semantics", func(t *testing.T) { testFriends(t, newRepos) })
	t.Run("thought references", func(t *testing.T) { testThoughtRefs(t, newRepos) })
	t.Run("thought listing", func(t *testing.T) { testThoughtListing(t, newRepos) })
	t.Run("reactions", func(t *testing.T) { testReactions(t, newRepos) })
	t.Run("delete thought", func(t *testing.T) { testDeleteThought(t, newRepos) })
}

func newUser(name string) *models.User {
	return &models.User{
		Username:  name,
		Email:     name + "@example.com",
		Password:  "hash",
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
}

func newThought(username, text string, at time.Time) *models.Thought {
	return &models.Thought{
		ThoughtText: text,
		Username:    username,
		CreatedAt:   at.UTC().Truncate(time.Millisecond),
	}
}

func testUserUniqueness(t *testing.T, newRepos Factory) {
	ctx := context.Background()
	users, _ := newRepos(t)

	ana := newUser("ana")
	require.NoError(t, users.Create(ctx, ana))
	require.NotEmpty(t, ana.ID)

	sameName := newUser("ana")
	sameName.Email = "other@example.com"
	assert.ErrorIs(t, users.Create(ctx, sameName), repository.ErrDuplicate)

	sameEmail := newUser("bob")
	sameEmail.Email = ana.Email
	assert.ErrorIs(t, users.Create(ctx, sameEmail), repository.ErrDuplicate)
}

func testUserLookups(t *testing.T, newRepos Factory) {
	ctx := context.Background()
	users, _ := newRepos(t)

	ana := newUser("ana")
	bob := newUser("bob")
	require.NoError(t, users.Create(ctx, ana))
	require.NoError(t, users.Create(ctx, bob))

	got, err := users.GetByID(ctx, ana.ID)
	require.NoError(t, err)
	assert.Equal(t, "ana", got.Username)
	assert.Equal(t, "hash", got.Password)

	got, err = users.GetByUsername(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, bob.ID, got.ID)

	got, err = users.GetByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, ana.ID, got.ID)

	_, err = users.GetByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = users.GetByID(ctx, "not-an-id")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	all, err := users.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	some, err := users.ListByIDs(ctx, []string{bob.ID, otherID(ana.ID)})
	require.NoError(t, err)
	require.Len(t, some, 1)
	assert.Equal(t, bob.ID, some[0].ID)
}

func testFriends(t *testing.T, newRepos Factory) {
	ctx := context.Background()
	users, _ := newRepos(t)

	ana := newUser("ana")
	bob := newUser("bob")
	require.NoError(t, users.Create(ctx, ana))
	require.NoError(t, users.Create(ctx, bob))

	updated, err := users.AddFriend(ctx, ana.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{bob.ID}, updated.FriendIDs)

	updated, err = users.AddFriend(ctx, ana.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{bob.ID}, updated.FriendIDs, "adding twice keeps one entry")

	other, err := users.GetByID(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, other.FriendIDs, "friendship is one-directional")

	updated, err = users.RemoveFriend(ctx, ana.ID, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, updated.FriendIDs)

	updated, err = users.RemoveFriend(ctx, ana.ID, bob.ID)
	require.NoError(t, err, "removing an absent friend is a no-op")
	assert.Empty(t, updated.FriendIDs)

	_, err = users.AddFriend(ctx, otherID(ana.ID), bob.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func testThoughtRefs(t *testing.T, newRepos Factory) {
	ctx := context.Background()
	users, thoughts := newRepos(t)

	ana := newUser("ana")
	require.NoError(t, users.Create(ctx, ana))

	th := newThought("ana", "hi", time.Now())
	require.NoError(t, thoughts.Create(ctx, th))
	require.NotEmpty(t, th.ID)

	updated, err := users.PushThought(ctx, ana.ID, th.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{th.ID}, updated.ThoughtIDs)

	updated, err = users.PullThought(ctx, ana.ID, th.ID)
	require.NoError(t, err)
	assert.Empty(t, updated.ThoughtIDs)

	updated, err = users.SetAvatarURL(ctx, ana.ID, "https://cdn.example.com/a.png")
	require.NoError(t, err)
	require.NotNil(t, updated.AvatarURL)
	assert.Equal(t, "https://cdn.example.com/a.png", *updated.AvatarURL)
}

func testThoughtListing(t *testing.T, newRepos Factory) {
	ctx := context.Background()
	_, thoughts := newRepos(t)

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	first := newThought("ana", "first", base)
	second := newThought("bob", "second", base.Add(time.Minute))
	third := newThought("ana", "third", base.Add(2*time.Minute))
	for _, th := range []*models.Thought{first, second, third} {
		require.NoError(t, thoughts.Create(ctx, th))
	}

	all, err := thoughts.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"third", "second", "first"}, texts(all))

	anas, err := thoughts.List(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, []string{"third", "first"}, texts(anas))

	byIDs, err := thoughts.ListByIDs(ctx, []string{first.ID, third.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{"third", "first"}, texts(byIDs))

	got, err := thoughts.GetByID(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob", got.Username)
	assert.True(t, got.CreatedAt.Equal(second.CreatedAt))
	assert.Empty(t, got.Reactions)
}

func testReactions(t *testing.T, newRepos Factory) {
	ctx := context.Background()
	_, thoughts := newRepos(t)

	th := newThought("ana", "hi", time.Now())
	require.NoError(t, thoughts.Create(ctx, th))

	reaction := &models.Reaction{
		ReactionBody: "nice",
		Username:     "bob",
		CreatedAt:    time.Now().UTC().Truncate(time.Millisecond),
	}
	updated, err := thoughts.PushReaction(ctx, th.ID, reaction)
	require.NoError(t, err)
	require.Len(t, updated.Reactions, 1)
	require.NotEmpty(t, reaction.ID)
	assert.Equal(t, reaction.ID, updated.Reactions[0].ID)
	assert.Equal(t, "nice", updated.Reactions[0].ReactionBody)
	assert.Equal(t, "bob", updated.Reactions[0].Username)

	updated, err = thoughts.PullReaction(ctx, th.ID, reaction.ID)
	require.NoError(t, err)
	assert.Empty(t, updated.Reactions)

	_, err = thoughts.PushReaction(ctx, otherID(th.ID), reaction)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func testDeleteThought(t *testing.T, newRepos Factory) {
	ctx := context.Background()
	_, thoughts := newRepos(t)

	th := newThought("ana", "bye", time.Now())
	require.NoError(t, thoughts.Create(ctx, th))
	require.NoError(t, thoughts.Delete(ctx, th.ID))

	_, err := thoughts.GetByID(ctx, th.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, thoughts.Delete(ctx, th.ID), repository.ErrNotFound)
}

// otherID returns a well-formed id that differs from known in its last
// hex digit.
func otherID(known string) string {
	b := []byte(known)
	if b[len(b)-1] == '0' {
		b[len(b)-1] = '1'
	} else {
		b[len(b)-1] = '0'
	}
	return string(b)
}

func texts(thoughts []*models.Thought) []string {
	out := make([]string, len(thoughts))
	for i, th := range thoughts {
		out[i] = th.ThoughtText
	}
	return out
}
