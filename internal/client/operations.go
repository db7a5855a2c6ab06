package client

import (
	"context"
	"fmt"
)

// Reaction is a reply to a thought
type Reaction struct {
	ID           string `json:"_id"`
	ReactionBody string `json:"reactionBody"`
	CreatedAt    string `json:"createdAt"`
	Username     string `json:"username"`
}

// Thought is a short post
type Thought struct {
	ID            string     `json:"_id"`
	ThoughtText   string     `json:"thoughtText"`
	CreatedAt     string     `json:"createdAt"`
	Username      string     `json:"username"`
	ReactionCount int        `json:"reactionCount"`
	Reactions     []Reaction `json:"reactions"`
}

// User is a member. Friends and Thoughts are filled by Me and User only.
type User struct {
	ID          string    `json:"_id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	AvatarURL   *string   `json:"avatarUrl"`
	FriendCount int       `json:"friendCount"`
	Friends     []User    `json:"friends"`
	Thoughts    []Thought `json:"thoughts"`
}

// AvatarUpload describes where to PUT a new avatar image
type AvatarUpload struct {
	UploadURL string `json:"uploadUrl"`
	AvatarURL string `json:"avatarUrl"`
	ExpiresIn int    `json:"expiresIn"`
}

type authPayload struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

const (
	reactionFields = `_id reactionBody createdAt username`
	thoughtFields  = `_id thoughtText createdAt username reactionCount reactions { ` + reactionFields + ` }`
	userFields     = `_id username email avatarUrl friendCount`
	profileFields  = userFields + ` friends { _id username } thoughts { ` + thoughtFields + ` }`
)

const (
	queryThoughts = `query thoughts($username: String) { thoughts(username: $username) { ` + thoughtFields + ` } }`
	queryThought  = `query thought($id: ID!) { thought(_id: $id) { ` + thoughtFields + ` } }`
	queryMe       = `query me { me { ` + profileFields + ` } }`
	queryUsers    = `query users { users { ` + userFields + ` } }`
	queryUser     = `query user($username: String!) { user(username: $username) { ` + profileFields + ` } }`
	queryIsFriend = `query isFriend($username: String!) { isFriend(username: $username) }`

	mutationLogin          = `mutation login($email: String!, $password: String!) { login(email: $email, password: $password) { token user { ` + userFields + ` } } }`
	mutationAddUser        = `mutation addUser($username: String!, $email: String!, $password: String!) { addUser(username: $username, email: $email, password: $password) { token user { ` + userFields + ` } } }`
	mutationAddThought     = `mutation addThought($thoughtText: String!) { addThought(thoughtText: $thoughtText) { ` + thoughtFields + ` } }`
	mutationAddReaction    = `mutation addReaction($thoughtId: ID!, $reactionBody: String!) { addReaction(thoughtId: $thoughtId, reactionBody: $reactionBody) { ` + thoughtFields + ` } }`
	mutationAddFriend      = `mutation addFriend($id: ID!) { addFriend(friendId: $id) { ` + userFields + ` friends { _id username } } }`
	mutationRemoveFriend   = `mutation removeFriend($id: ID!) { removeFriend(friendId: $id) { ` + userFields + ` friends { _id username } } }`
	mutationRemoveThought  = `mutation removeThought($thoughtId: ID!) { removeThought(thoughtId: $thoughtId) { ` + thoughtFields + ` } }`
	mutationRemoveReaction = `mutation removeReaction($thoughtId: ID!, $reactionId: ID!) { removeReaction(thoughtId: $thoughtId, reactionId: $reactionId) { ` + thoughtFields + ` } }`
	mutationAvatarUpload   = `mutation avatarUploadUrl($contentType: String!) { avatarUploadUrl(contentType: $contentType) { uploadUrl avatarUrl expiresIn } }`
)

// Thoughts lists thoughts newest first, only username's when it is not empty
func (c *Client) Thoughts(ctx context.Context, s *Session, username string) ([]Thought, error) {
	vars := map[string]interface{}{}
	if username != "" {
		vars["username"] = username
	}
	var out struct {
		Thoughts []Thought `json:"thoughts"`
	}
	if err := c.do(ctx, s, queryThoughts, vars, &out); err != nil {
		return nil, err
	}
	return out.Thoughts, nil
}

// Thought fetches one thought, nil when it does not exist
func (c *Client) Thought(ctx context.Context, s *Session, id string) (*Thought, error) {
	var out struct {
		Thought *Thought `json:"thought"`
	}
	if err := c.do(ctx, s, queryThought, map[string]interface{}{"id": id}, &out); err != nil {
		return nil, err
	}
	return out.Thought, nil
}

// Me fetches the signed in user with friends and thoughts
func (c *Client) Me(ctx context.Context, s *Session) (*User, error) {
	var out struct {
		Me *User `json:"me"`
	}
	if err := c.do(ctx, s, queryMe, nil, &out); err != nil {
		return nil, err
	}
	return out.Me, nil
}

// Users lists every user
func (c *Client) Users(ctx context.Context, s *Session) ([]User, error) {
	var out struct {
		Users []User `json:"users"`
	}
	if err := c.do(ctx, s, queryUsers, nil, &out); err != nil {
		return nil, err
	}
	return out.Users, nil
}

// User fetches a profile by username, nil when there is none
func (c *Client) User(ctx context.Context, s *Session, username string) (*User, error) {
	var out struct {
		User *User `json:"user"`
	}
	if err := c.do(ctx, s, queryUser, map[string]interface{}{"username": username}, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

// IsFriend reports whether username is on the signed in user's friend list
func (c *Client) IsFriend(ctx context.Context, s *Session, username string) (bool, error) {
	var out struct {
		IsFriend bool `json:"isFriend"`
	}
	if err := c.do(ctx, s, queryIsFriend, map[string]interface{}{"username": username}, &out); err != nil {
		return false, err
	}
	return out.IsFriend, nil
}

func (c *Client) authenticate(ctx context.Context, s *Session, query, field string, vars map[string]interface{}) (*User, error) {
	if s == nil {
		return nil, fmt.Errorf("%s needs a session to store the token in", field)
	}
	var out map[string]authPayload
	if err := c.do(ctx, s, query, vars, &out); err != nil {
		return nil, err
	}
	payload, ok := out[field]
	if !ok || payload.Token == "" {
		return nil, fmt.Errorf("%s returned no token", field)
	}
	if err := s.set(payload.Token); err != nil {
		return nil, err
	}
	return &payload.User, nil
}

// Login starts a session for the email/password pair
func (c *Client) Login(ctx context.Context, s *Session, email, password string) (*User, error) {
	return c.authenticate(ctx, s, mutationLogin, "login", map[string]interface{}{
		"email":    email,
		"password": password,
	})
}

// AddUser signs up and starts a session for the new user
func (c *Client) AddUser(ctx context.Context, s *Session, username, email, password string) (*User, error) {
	return c.authenticate(ctx, s, mutationAddUser, "addUser", map[string]interface{}{
		"username": username,
		"email":    email,
		"password": password,
	})
}

func (c *Client) thoughtMutation(ctx context.Context, s *Session, query, field string, vars map[string]interface{}) (*Thought, error) {
	var out map[string]*Thought
	if err := c.do(ctx, s, query, vars, &out); err != nil {
		return nil, err
	}
	return out[field], nil
}

// AddThought posts a thought as the signed in user
func (c *Client) AddThought(ctx context.Context, s *Session, text string) (*Thought, error) {
	return c.thoughtMutation(ctx, s, mutationAddThought, "addThought", map[string]interface{}{"thoughtText": text})
}

// AddReaction replies to a thought. It returns nil when the thought is gone.
func (c *Client) AddReaction(ctx context.Context, s *Session, thoughtID, body string) (*Thought, error) {
	return c.thoughtMutation(ctx, s, mutationAddReaction, "addReaction", map[string]interface{}{
		"thoughtId":    thoughtID,
		"reactionBody": body,
	})
}

// RemoveThought deletes one of the signed in user's thoughts
func (c *Client) RemoveThought(ctx context.Context, s *Session, thoughtID string) (*Thought, error) {
	return c.thoughtMutation(ctx, s, mutationRemoveThought, "removeThought", map[string]interface{}{"thoughtId": thoughtID})
}

// RemoveReaction deletes a reaction from a thought
func (c *Client) RemoveReaction(ctx context.Context, s *Session, thoughtID, reactionID string) (*Thought, error) {
	return c.thoughtMutation(ctx, s, mutationRemoveReaction, "removeReaction", map[string]interface{}{
		"thoughtId":  thoughtID,
		"reactionId": reactionID,
	})
}

func (c *Client) friendMutation(ctx context.Context, s *Session, query, field, friendID string) (*User, error) {
	var out map[string]*User
	if err := c.do(ctx, s, query, map[string]interface{}{"id": friendID}, &out); err != nil {
		return nil, err
	}
	return out[field], nil
}

// AddFriend adds friendID to the signed in user's friend list
func (c *Client) AddFriend(ctx context.Context, s *Session, friendID string) (*User, error) {
	return c.friendMutation(ctx, s, mutationAddFriend, "addFriend", friendID)
}

// RemoveFriend removes friendID from the signed in user's friend list
func (c *Client) RemoveFriend(ctx context.Context, s *Session, friendID string) (*User, error) {
	return c.friendMutation(ctx, s, mutationRemoveFriend, "removeFriend", friendID)
}

// AvatarUploadURL asks for a presigned URL to upload a new avatar
func (c *Client) AvatarUploadURL(ctx context.Context, s *Session, contentType string) (*AvatarUpload, error) {
	var out struct {
		AvatarUploadURL *AvatarUpload `json:"avatarUploadUrl"`
	}
	if err := c.do(ctx, s, mutationAvatarUpload, map[string]interface{}{"contentType": contentType}, &out); err != nil {
		return nil, err
	}
	return out.AvatarUploadURL, nil
}
