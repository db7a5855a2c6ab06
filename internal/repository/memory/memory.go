// Package memory is an in-process storage driver. It keeps the same
// single-record atomicity as the database drivers by serializing every
// write behind one lock.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/deepthoughts/thoughts-server/internal/models"
	"github.com/deepthoughts/thoughts-server/internal/repository"
)

// Store holds users and thoughts in memory
type Store struct {
	mu       sync.RWMutex
	users    map[string]*models.User
	thoughts map[string]*models.Thought
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		users:    make(map[string]*models.User),
		thoughts: make(map[string]*models.Thought),
	}
}

// Users returns the user repository view of the store
func (s *Store) Users() *UserRepository {
	return &UserRepository{s: s}
}

// Thoughts returns the thought repository view of the store
func (s *Store) Thoughts() *ThoughtRepository {
	return &ThoughtRepository{s: s}
}

func copyUser(u *models.User) *models.User {
	c := *u
	c.ThoughtIDs = append([]string(nil), u.ThoughtIDs...)
	c.FriendIDs = append([]string(nil), u.FriendIDs...)
	if u.AvatarURL != nil {
		url := *u.AvatarURL
		c.AvatarURL = &url
	}
	return &c
}

func copyThought(t *models.Thought) *models.Thought {
	c := *t
	c.Reactions = append([]models.Reaction(nil), t.Reactions...)
	return &c
}

func sortNewestFirst(thoughts []*models.Thought) {
	sort.SliceStable(thoughts, func(i, j int) bool {
		return thoughts[i].CreatedAt.After(thoughts[j].CreatedAt)
	})
}

// UserRepository implements repository.UserRepository
type UserRepository struct {
	s *Store
}

var _ repository.UserRepository = (*UserRepository)(nil)

// Create stores a new user, enforcing unique username and email.
// An empty ID is filled in.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if _, exists := r.s.users[user.ID]; exists {
		return repository.ErrDuplicate
	}
	for _, u := range r.s.users {
		if u.Username == user.Username || strings.EqualFold(u.Email, user.Email) {
			return repository.ErrDuplicate
		}
	}
	r.s.users[user.ID] = copyUser(user)
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyUser(u), nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.Username == username })
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return strings.EqualFold(u.Email, email) })
}

func (r *UserRepository) find(match func(*models.User) bool) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if match(u) {
			return copyUser(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

// List returns all users ordered by creation time
func (r *UserRepository) List(ctx context.Context) ([]*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	users := make([]*models.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		users = append(users, copyUser(u))
	}
	sort.SliceStable(users, func(i, j int) bool {
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return users, nil
}

// ListByIDs returns users in the order of ids, skipping unknown ones
func (r *UserRepository) ListByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	users := make([]*models.User, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if u, ok := r.s.users[id]; ok {
			users = append(users, copyUser(u))
		}
	}
	return users, nil
}

func (r *UserRepository) update(userID string, mutate func(u *models.User)) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	mutate(u)
	return copyUser(u), nil
}

func (r *UserRepository) PushThought(ctx context.Context, userID, thoughtID string) (*models.User, error) {
	return r.update(userID, func(u *models.User) {
		u.ThoughtIDs = append(u.ThoughtIDs, thoughtID)
	})
}

func (r *UserRepository) PullThought(ctx context.Context, userID, thoughtID string) (*models.User, error) {
	return r.update(userID, func(u *models.User) {
		u.ThoughtIDs = without(u.ThoughtIDs, thoughtID)
	})
}

func (r *UserRepository) AddFriend(ctx context.Context, userID, friendID string) (*models.User, error) {
	return r.update(userID, func(u *models.User) {
		if !u.HasFriend(friendID) {
			u.FriendIDs = append(u.FriendIDs, friendID)
		}
	})
}

func (r *UserRepository) RemoveFriend(ctx context.Context, userID, friendID string) (*models.User, error) {
	return r.update(userID, func(u *models.User) {
		u.FriendIDs = without(u.FriendIDs, friendID)
	})
}

func (r *UserRepository) SetAvatarURL(ctx context.Context, userID, url string) (*models.User, error) {
	return r.update(userID, func(u *models.User) {
		u.AvatarURL = &url
	})
}

func without(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// ThoughtRepository implements repository.ThoughtRepository
type ThoughtRepository struct {
	s *Store
}

var _ repository.ThoughtRepository = (*ThoughtRepository)(nil)

func (r *ThoughtRepository) Create(ctx context.Context, thought *models.Thought) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if thought.ID == "" {
		thought.ID = uuid.New().String()
	}
	if _, exists := r.s.thoughts[thought.ID]; exists {
		return repository.ErrDuplicate
	}
	r.s.thoughts[thought.ID] = copyThought(thought)
	return nil
}

func (r *ThoughtRepository) GetByID(ctx context.Context, id string) (*models.Thought, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.thoughts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyThought(t), nil
}

func (r *ThoughtRepository) List(ctx context.Context, username string) ([]*models.Thought, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	thoughts := make([]*models.Thought, 0, len(r.s.thoughts))
	for _, t := range r.s.thoughts {
		if username != "" && t.Username != username {
			continue
		}
		thoughts = append(thoughts, copyThought(t))
	}
	sortNewestFirst(thoughts)
	return thoughts, nil
}

func (r *ThoughtRepository) ListByIDs(ctx context.Context, ids []string) ([]*models.Thought, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	thoughts := make([]*models.Thought, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if t, ok := r.s.thoughts[id]; ok {
			thoughts = append(thoughts, copyThought(t))
		}
	}
	sortNewestFirst(thoughts)
	return thoughts, nil
}

func (r *ThoughtRepository) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.thoughts[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.thoughts, id)
	return nil
}

func (r *ThoughtRepository) PushReaction(ctx context.Context, thoughtID string, reaction *models.Reaction) (*models.Thought, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.thoughts[thoughtID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if reaction.ID == "" {
		reaction.ID = uuid.New().String()
	}
	t.Reactions = append(t.Reactions, *reaction)
	return copyThought(t), nil
}

func (r *ThoughtRepository) PullReaction(ctx context.Context, thoughtID, reactionID string) (*models.Thought, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.thoughts[thoughtID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	kept := t.Reactions[:0]
	for _, rc := range t.Reactions {
		if rc.ID != reactionID {
			kept = append(kept, rc)
		}
	}
	t.Reactions = kept
	return copyThought(t), nil
}
