package graph

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	graphql "github.com/graph-gophers/graphql-go"
	gqlerrors "github.com/graph-gophers/graphql-go/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepthoughts/thoughts-server/internal/auth"
	"github.com/deepthoughts/thoughts-server/internal/repository/memory"
	"github.com/deepthoughts/thoughts-server/internal/services"
)

type testEnv struct {
	schema *graphql.Schema
	creds  *services.Credentials
	store  *memory.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.NewStore()
	creds := services.NewCredentials("graph-secret", time.Hour)
	users := services.NewUserService(store.Users(), store.Thoughts(), creds, nil, nil)
	thoughts := services.NewThoughtService(store.Thoughts(), store.Users(), nil)

	schema, err := NewSchema(NewResolver(users, thoughts, nil))
	require.NoError(t, err)
	return &testEnv{schema: schema, creds: creds, store: store}
}

func (e *testEnv) exec(t *testing.T, id auth.Identity, query string, vars map[string]interface{}, out interface{}) []*gqlerrors.QueryError {
	t.Helper()
	ctx := auth.WithIdentity(context.Background(), id)
	resp := e.schema.Exec(ctx, query, "", vars)
	if out != nil && len(resp.Data) > 0 {
		require.NoError(t, json.Unmarshal(resp.Data, out))
	}
	return resp.Errors
}

func (e *testEnv) identity(t *testing.T, token string) auth.Identity {
	t.Helper()
	id, err := e.creds.ParseToken(token)
	require.NoError(t, err)
	return id
}

type authData struct {
	Token string `json:"token"`
	User  struct {
		ID       string `json:"_id"`
		Username string `json:"username"`
	} `json:"user"`
}

const addUserMutation = `mutation($username: String!, $email: String!, $password: String!) {
	addUser(username: $username, email: $email, password: $password) { token user { _id username } }
}`

const loginMutation = `mutation($email: String!, $password: String!) {
	login(email: $email, password: $password) { token user { _id username } }
}`

func (e *testEnv) signUp(t *testing.T, username string) auth.Identity {
	t.Helper()
	var out struct{ AddUser authData }
	errs := e.exec(t, auth.Anonymous, addUserMutation, map[string]interface{}{
		"username": username,
		"email":    username + "@x.com",
		"password": "secret123",
	}, &out)
	require.Empty(t, errs)
	return e.identity(t, out.AddUser.Token)
}

func errorCode(err *gqlerrors.QueryError) interface{} {
	return err.Extensions["code"]
}

func TestSignUpAndLogin(t *testing.T) {
	env := newTestEnv(t)

	var signup struct{ AddUser authData }
	errs := env.exec(t, auth.Anonymous, addUserMutation, map[string]interface{}{
		"username": "ana",
		"email":    "a@x.com",
		"password": "secret123",
	}, &signup)
	require.Empty(t, errs)
	assert.Equal(t, "ana", signup.AddUser.User.Username)
	assert.Equal(t, signup.AddUser.User.ID, env.identity(t, signup.AddUser.Token).UserID())

	var login struct{ Login authData }
	errs = env.exec(t, auth.Anonymous, loginMutation, map[string]interface{}{
		"email":    "a@x.com",
		"password": "secret123",
	}, &login)
	require.Empty(t, errs)
	assert.Equal(t, signup.AddUser.User.ID, env.identity(t, login.Login.Token).UserID())

	wrongPassword := env.exec(t, auth.Anonymous, loginMutation, map[string]interface{}{
		"email":    "a@x.com",
		"password": "nope",
	}, nil)
	unknownEmail := env.exec(t, auth.Anonymous, loginMutation, map[string]interface{}{
		"email":    "b@x.com",
		"password": "secret123",
	}, nil)
	require.Len(t, wrongPassword, 1)
	require.Len(t, unknownEmail, 1)
	assert.Equal(t, wrongPassword[0].Message, unknownEmail[0].Message)
	assert.Equal(t, CodeUnauthenticated, errorCode(wrongPassword[0]))
	assert.Equal(t, CodeUnauthenticated, errorCode(unknownEmail[0]))
}

func TestDuplicateSignUp(t *testing.T) {
	env := newTestEnv(t)
	env.signUp(t, "ana")

	errs := env.exec(t, auth.Anonymous, addUserMutation, map[string]interface{}{
		"username": "ana",
		"email":    "other@x.com",
		"password": "secret123",
	}, nil)
	require.Len(t, errs, 1)
	assert.Equal(t, CodeBadUserInput, errorCode(errs[0]))
}

func TestPasswordIsNotExposed(t *testing.T) {
	env := newTestEnv(t)
	errs := env.exec(t, auth.Anonymous, `{ users { password } }`, nil, nil)
	assert.NotEmpty(t, errs)
}

func TestAddThought(t *testing.T) {
	env := newTestEnv(t)
	ana := env.signUp(t, "ana")

	const mutation = `mutation($text: String!) {
		addThought(thoughtText: $text) { _id thoughtText username createdAt reactionCount }
	}`

	errs := env.exec(t, auth.Anonymous, mutation, map[string]interface{}{"text": "hi"}, nil)
	require.Len(t, errs, 1)
	assert.Equal(t, CodeUnauthenticated, errorCode(errs[0]))
	assert.Equal(t, services.ErrNotAuthenticated.Error(), errs[0].Message)

	var out struct {
		AddThought struct {
			ID            string `json:"_id"`
			ThoughtText   string `json:"thoughtText"`
			Username      string `json:"username"`
			CreatedAt     string `json:"createdAt"`
			ReactionCount int    `json:"reactionCount"`
		}
	}
	errs = env.exec(t, ana, mutation, map[string]interface{}{"text": "hi"}, &out)
	require.Empty(t, errs)
	assert.Equal(t, "ana", out.AddThought.Username)
	assert.Equal(t, "hi", out.AddThought.ThoughtText)
	assert.Equal(t, 0, out.AddThought.ReactionCount)
	_, err := time.Parse(time.RFC3339, out.AddThought.CreatedAt)
	assert.NoError(t, err)

	thoughts, err := env.store.Thoughts().List(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, thoughts, 1, "the anonymous attempt stored nothing")
}

func TestThoughtsQuery(t *testing.T) {
	env := newTestEnv(t)
	ana := env.signUp(t, "ana")
	bob := env.signUp(t, "bob")

	for _, post := range []struct {
		id   auth.Identity
		text string
	}{{ana, "one"}, {bob, "two"}, {ana, "three"}} {
		errs := env.exec(t, post.id, `mutation($t: String!) { addThought(thoughtText: $t) { _id } }`,
			map[string]interface{}{"t": post.text}, nil)
		require.Empty(t, errs)
		time.Sleep(5 * time.Millisecond)
	}

	type thoughtRow struct {
		ID          string `json:"_id"`
		ThoughtText string `json:"thoughtText"`
		Username    string `json:"username"`
	}

	var all struct{ Thoughts []thoughtRow }
	require.Empty(t, env.exec(t, auth.Anonymous, `{ thoughts { _id thoughtText username } }`, nil, &all))
	require.Len(t, all.Thoughts, 3)
	assert.Equal(t, []string{"three", "two", "one"},
		[]string{all.Thoughts[0].ThoughtText, all.Thoughts[1].ThoughtText, all.Thoughts[2].ThoughtText})

	var filtered struct{ Thoughts []thoughtRow }
	require.Empty(t, env.exec(t, auth.Anonymous, `query($u: String) { thoughts(username: $u) { _id thoughtText username } }`,
		map[string]interface{}{"u": "ana"}, &filtered))
	require.Len(t, filtered.Thoughts, 2)
	for _, row := range filtered.Thoughts {
		assert.Equal(t, "ana", row.Username)
	}

	var single struct{ Thought *thoughtRow }
	require.Empty(t, env.exec(t, auth.Anonymous, `query($id: ID!) { thought(_id: $id) { _id thoughtText username } }`,
		map[string]interface{}{"id": all.Thoughts[1].ID}, &single))
	require.NotNil(t, single.Thought)
	assert.Equal(t, "two", single.Thought.ThoughtText)

	var missing struct{ Thought *thoughtRow }
	require.Empty(t, env.exec(t, auth.Anonymous, `{ thought(_id: "nope") { _id } }`, nil, &missing))
	assert.Nil(t, missing.Thought)
}

func TestReactionsAndRemoval(t *testing.T) {
	env := newTestEnv(t)
	ana := env.signUp(t, "ana")
	bob := env.signUp(t, "bob")

	var added struct {
		AddThought struct {
			ID string `json:"_id"`
		}
	}
	require.Empty(t, env.exec(t, ana, `mutation { addThought(thoughtText: "react") { _id } }`, nil, &added))
	thoughtID := added.AddThought.ID

	var reacted struct {
		AddReaction struct {
			ReactionCount int `json:"reactionCount"`
			Reactions     []struct {
				ID       string `json:"_id"`
				Username string `json:"username"`
			}
		}
	}
	require.Empty(t, env.exec(t, bob, `mutation($id: ID!) {
		addReaction(thoughtId: $id, reactionBody: "nice") { reactionCount reactions { _id username } }
	}`, map[string]interface{}{"id": thoughtID}, &reacted))
	require.Equal(t, 1, reacted.AddReaction.ReactionCount)
	assert.Equal(t, "bob", reacted.AddReaction.Reactions[0].Username)

	var missing struct{ AddReaction *struct{ ID string } }
	require.Empty(t, env.exec(t, bob, `mutation { addReaction(thoughtId: "nope", reactionBody: "x") { _id } }`, nil, &missing))
	assert.Nil(t, missing.AddReaction)

	errs := env.exec(t, bob, `mutation($id: ID!) { removeThought(thoughtId: $id) { _id } }`,
		map[string]interface{}{"id": thoughtID}, nil)
	require.Len(t, errs, 1)
	assert.Equal(t, CodeUnauthenticated, errorCode(errs[0]))

	var removed struct {
		RemoveReaction struct {
			ReactionCount int `json:"reactionCount"`
		}
	}
	require.Empty(t, env.exec(t, bob, `mutation($t: ID!, $r: ID!) { removeReaction(thoughtId: $t, reactionId: $r) { reactionCount } }`,
		map[string]interface{}{"t": thoughtID, "r": reacted.AddReaction.Reactions[0].ID}, &removed))
	assert.Equal(t, 0, removed.RemoveReaction.ReactionCount)

	var gone struct {
		RemoveThought *struct {
			ID string `json:"_id"`
		}
	}
	require.Empty(t, env.exec(t, ana, `mutation($id: ID!) { removeThought(thoughtId: $id) { _id } }`,
		map[string]interface{}{"id": thoughtID}, &gone))
	require.NotNil(t, gone.RemoveThought)
	assert.Equal(t, thoughtID, gone.RemoveThought.ID)

	var me struct {
		Me struct {
			Thoughts []struct{ ID string }
		}
	}
	require.Empty(t, env.exec(t, ana, `{ me { thoughts { _id } } }`, nil, &me))
	assert.Empty(t, me.Me.Thoughts)
}

func TestFriends(t *testing.T) {
	env := newTestEnv(t)
	ana := env.signUp(t, "ana")
	bob := env.signUp(t, "bob")

	const addFriend = `mutation($id: ID!) { addFriend(friendId: $id) { friendCount friends { username } } }`
	type friendsData struct {
		FriendCount int `json:"friendCount"`
		Friends     []struct {
			Username string `json:"username"`
		}
	}

	errs := env.exec(t, auth.Anonymous, addFriend, map[string]interface{}{"id": bob.UserID()}, nil)
	require.Len(t, errs, 1)
	assert.Equal(t, CodeUnauthenticated, errorCode(errs[0]))

	for i := 0; i < 2; i++ {
		var out struct{ AddFriend friendsData }
		require.Empty(t, env.exec(t, ana, addFriend, map[string]interface{}{"id": bob.UserID()}, &out))
		assert.Equal(t, 1, out.AddFriend.FriendCount)
		require.Len(t, out.AddFriend.Friends, 1)
		assert.Equal(t, "bob", out.AddFriend.Friends[0].Username)
	}

	var isFriend struct{ IsFriend bool }
	require.Empty(t, env.exec(t, ana, `{ isFriend(username: "bob") }`, nil, &isFriend))
	assert.True(t, isFriend.IsFriend)
	require.Empty(t, env.exec(t, bob, `{ isFriend(username: "ana") }`, nil, &isFriend))
	assert.False(t, isFriend.IsFriend)
	require.Empty(t, env.exec(t, auth.Anonymous, `{ isFriend(username: "bob") }`, nil, &isFriend))
	assert.False(t, isFriend.IsFriend)

	const removeFriend = `mutation($id: ID!) { removeFriend(friendId: $id) { friendCount } }`
	for i := 0; i < 2; i++ {
		var out struct{ RemoveFriend friendsData }
		require.Empty(t, env.exec(t, ana, removeFriend, map[string]interface{}{"id": bob.UserID()}, &out))
		assert.Equal(t, 0, out.RemoveFriend.FriendCount)
	}

	errs = env.exec(t, auth.Anonymous, removeFriend, map[string]interface{}{"id": bob.UserID()}, nil)
	require.Len(t, errs, 1)
	assert.Equal(t, CodeUnauthenticated, errorCode(errs[0]))
}

func TestUserLookups(t *testing.T) {
	env := newTestEnv(t)
	env.signUp(t, "ana")

	var out struct {
		User *struct {
			Username  string  `json:"username"`
			AvatarURL *string `json:"avatarUrl"`
		}
	}
	require.Empty(t, env.exec(t, auth.Anonymous, `{ user(username: "ana") { username avatarUrl } }`, nil, &out))
	require.NotNil(t, out.User)
	assert.Equal(t, "ana", out.User.Username)
	assert.Nil(t, out.User.AvatarURL)

	out.User = nil
	require.Empty(t, env.exec(t, auth.Anonymous, `{ user(username: "nobody") { username } }`, nil, &out))
	assert.Nil(t, out.User)

	errs := env.exec(t, auth.Anonymous, `{ me { username } }`, nil, nil)
	require.Len(t, errs, 1)
	assert.Equal(t, CodeUnauthenticated, errorCode(errs[0]))
}

func TestAvatarUploadDisabled(t *testing.T) {
	env := newTestEnv(t)
	ana := env.signUp(t, "ana")

	errs := env.exec(t, ana, `mutation { avatarUploadUrl(contentType: "image/png") { uploadUrl } }`, nil, nil)
	require.Len(t, errs, 1)
	assert.Equal(t, CodeInternal, errorCode(errs[0]))
}
