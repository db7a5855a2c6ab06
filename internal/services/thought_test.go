package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepthoughts/thoughts-server/internal/auth"
	"github.com/deepthoughts/thoughts-server/internal/events"
)

func TestAddThought(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	ana := f.signUp(t, "ana")

	thought, err := f.thoughts.Add(ctx, ana, "hello world")
	require.NoError(t, err)
	assert.NotEmpty(t, thought.ID)
	assert.Equal(t, "ana", thought.Username)
	assert.Equal(t, 0, thought.ReactionCount())
	assert.False(t, thought.CreatedAt.IsZero())

	me, err := f.users.Me(ctx, ana)
	require.NoError(t, err)
	assert.Equal(t, []string{thought.ID}, me.ThoughtIDs)

	evts := f.events.events()
	require.Len(t, evts, 1)
	assert.Equal(t, events.ThoughtAdded, evts[0].Type)
	assert.Empty(t, evts[0].Recipient)
	assert.Equal(t, thought.ID, evts[0].ThoughtID)
}

func TestAddThoughtValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	ana := f.signUp(t, "ana")

	_, err := f.thoughts.Add(ctx, auth.Anonymous, "hi")
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	var verr *ValidationError
	_, err = f.thoughts.Add(ctx, ana, "   ")
	assert.ErrorAs(t, err, &verr)

	_, err = f.thoughts.Add(ctx, ana, strings.Repeat("é", MaxTextLength+1))
	assert.ErrorAs(t, err, &verr)

	_, err = f.thoughts.Add(ctx, ana, strings.Repeat("é", MaxTextLength))
	assert.NoError(t, err)
}

func TestListThoughts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	ana := f.signUp(t, "ana")
	bob := f.signUp(t, "bob")

	a1, err := f.thoughts.Add(ctx, ana, "a1")
	require.NoError(t, err)
	b1, err := f.thoughts.Add(ctx, bob, "b1")
	require.NoError(t, err)
	a2, err := f.thoughts.Add(ctx, ana, "a2")
	require.NoError(t, err)

	all, err := f.thoughts.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{a2.ID, b1.ID, a1.ID}, []string{all[0].ID, all[1].ID, all[2].ID})

	anas, err := f.thoughts.List(ctx, "ana")
	require.NoError(t, err)
	require.Len(t, anas, 2)
	assert.Equal(t, a2.ID, anas[0].ID)

	none, err := f.thoughts.List(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	got, err := f.thoughts.Get(ctx, b1.ID)
	require.NoError(t, err)
	assert.Equal(t, "b1", got.ThoughtText)

	got, err = f.thoughts.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestReactions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	ana := f.signUp(t, "ana")
	bob := f.signUp(t, "bob")
	carl := f.signUp(t, "carl")

	thought, err := f.thoughts.Add(ctx, ana, "react to me")
	require.NoError(t, err)

	updated, err := f.thoughts.AddReaction(ctx, bob, thought.ID, "nice")
	require.NoError(t, err)
	require.Equal(t, 1, updated.ReactionCount())
	reaction := updated.Reactions[0]
	assert.NotEmpty(t, reaction.ID)
	assert.Equal(t, "bob", reaction.Username)

	evts := f.events.events()
	last := evts[len(evts)-1]
	assert.Equal(t, events.ReactionAdded, last.Type)
	assert.Equal(t, "ana", last.Recipient)
	assert.Equal(t, reaction.ID, last.ReactionID)

	before := len(f.events.events())
	_, err = f.thoughts.AddReaction(ctx, ana, thought.ID, "thanks")
	require.NoError(t, err)
	assert.Len(t, f.events.events(), before, "reacting to your own thought notifies nobody")

	missing, err := f.thoughts.AddReaction(ctx, bob, "missing", "hello")
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = f.thoughts.AddReaction(ctx, auth.Anonymous, thought.ID, "hello")
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	var verr *ValidationError
	_, err = f.thoughts.AddReaction(ctx, bob, thought.ID, "")
	assert.ErrorAs(t, err, &verr)

	t.Run("stranger cannot remove", func(t *testing.T) {
		_, err := f.thoughts.RemoveReaction(ctx, carl, thought.ID, reaction.ID)
		assert.ErrorIs(t, err, ErrNotAuthenticated)
	})

	t.Run("author removes", func(t *testing.T) {
		updated, err := f.thoughts.RemoveReaction(ctx, bob, thought.ID, reaction.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, updated.ReactionCount())
		_, found := updated.FindReaction(reaction.ID)
		assert.False(t, found)
	})

	t.Run("owner removes", func(t *testing.T) {
		current, err := f.thoughts.Get(ctx, thought.ID)
		require.NoError(t, err)
		updated, err := f.thoughts.RemoveReaction(ctx, ana, thought.ID, current.Reactions[0].ID)
		require.NoError(t, err)
		assert.Equal(t, 0, updated.ReactionCount())
	})

	t.Run("unknown reaction is a no-op", func(t *testing.T) {
		updated, err := f.thoughts.RemoveReaction(ctx, ana, thought.ID, "missing")
		require.NoError(t, err)
		assert.Equal(t, thought.ID, updated.ID)
	})
}

func TestRemoveThought(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	ana := f.signUp(t, "ana")
	bob := f.signUp(t, "bob")

	thought, err := f.thoughts.Add(ctx, ana, "short lived")
	require.NoError(t, err)

	_, err = f.thoughts.Remove(ctx, auth.Anonymous, thought.ID)
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	_, err = f.thoughts.Remove(ctx, bob, thought.ID)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	still, err := f.thoughts.Get(ctx, thought.ID)
	require.NoError(t, err)
	assert.NotNil(t, still)

	removed, err := f.thoughts.Remove(ctx, ana, thought.ID)
	require.NoError(t, err)
	require.NotNil(t, removed)
	assert.Equal(t, thought.ID, removed.ID)

	gone, err := f.thoughts.Get(ctx, thought.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	me, err := f.users.Me(ctx, ana)
	require.NoError(t, err)
	assert.Empty(t, me.ThoughtIDs)

	again, err := f.thoughts.Remove(ctx, ana, thought.ID)
	require.NoError(t, err)
	assert.Nil(t, again)
}
