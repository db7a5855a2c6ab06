package models

import "time"

// User represents a registered account
type User struct {
	ID         string    `json:"_id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	Password   string    `json:"-"`
	AvatarURL  *string   `json:"avatarUrl,omitempty"`
	ThoughtIDs []string  `json:"-"`
	FriendIDs  []string  `json:"-"`
	CreatedAt  time.Time `json:"createdAt"`
}

// FriendCount is the number of stored friend references, resolvable or not.
func (u *User) FriendCount() int {
	return len(u.FriendIDs)
}

// HasFriend reports whether id is in the user's friend list
func (u *User) HasFriend(id string) bool {
	for _, f := range u.FriendIDs {
		if f == id {
			return true
		}
	}
	return false
}

// Thought represents a short post owned by a user
type Thought struct {
	ID          string     `json:"_id"`
	ThoughtText string     `json:"thoughtText"`
	Username    string     `json:"username"`
	CreatedAt   time.Time  `json:"createdAt"`
	Reactions   []Reaction `json:"reactions"`
}

// ReactionCount returns the number of embedded reactions
func (t *Thought) ReactionCount() int {
	return len(t.Reactions)
}

// FindReaction returns the reaction with the given id, if present
func (t *Thought) FindReaction(id string) (*Reaction, bool) {
	for i := range t.Reactions {
		if t.Reactions[i].ID == id {
			return &t.Reactions[i], true
		}
	}
	return nil, false
}

// Reaction is a comment embedded in its parent thought
type Reaction struct {
	ID           string    `json:"_id"`
	ReactionBody string    `json:"reactionBody"`
	Username     string    `json:"username"`
	CreatedAt    time.Time `json:"createdAt"`
}
