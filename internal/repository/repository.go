// Package repository defines the storage contracts for users and thoughts.
// Drivers live in the mongodb, postgres and memory subpackages; all of them
// apply array mutations (push, pull, add-to-set) as a single atomic write
// against one record.
package repository

import (
	"context"
	"errors"

	"github.com/deepthoughts/thoughts-server/internal/models"
)

var (
	// ErrNotFound is returned when a record does not exist or the id is malformed
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique field is already taken
	ErrDuplicate = errors.New("duplicate key")
)

// UserRepository handles persistence of users
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	// ListByIDs returns the users that exist among ids. Unknown ids are skipped.
	ListByIDs(ctx context.Context, ids []string) ([]*models.User, error)

	PushThought(ctx context.Context, userID, thoughtID string) (*models.User, error)
	PullThought(ctx context.Context, userID, thoughtID string) (*models.User, error)
	// AddFriend adds friendID only if it is not already present.
	AddFriend(ctx context.Context, userID, friendID string) (*models.User, error)
	// RemoveFriend removes every occurrence of friendID.
	RemoveFriend(ctx context.Context, userID, friendID string) (*models.User, error)
	SetAvatarURL(ctx context.Context, userID, url string) (*models.User, error)
}

// ThoughtRepository handles persistence of thoughts and their reactions
type ThoughtRepository interface {
	Create(ctx context.Context, thought *models.Thought) error
	GetByID(ctx context.Context, id string) (*models.Thought, error)
	// List returns thoughts newest first, filtered by username when it is not empty.
	List(ctx context.Context, username string) ([]*models.Thought, error)
	// ListByIDs returns the thoughts that exist among ids, newest first.
	ListByIDs(ctx context.Context, ids []string) ([]*models.Thought, error)
	Delete(ctx context.Context, id string) error

	PushReaction(ctx context.Context, thoughtID string, reaction *models.Reaction) (*models.Thought, error)
	PullReaction(ctx context.Context, thoughtID, reactionID string) (*models.Thought, error)
}
