package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/deepthoughts/thoughts-server/internal/auth"
	"github.com/deepthoughts/thoughts-server/internal/events"
	"github.com/deepthoughts/thoughts-server/internal/models"
	"github.com/deepthoughts/thoughts-server/internal/repository"
)

// MaxTextLength bounds thought and reaction bodies, in characters
const MaxTextLength = 280

// ThoughtService handles thoughts and their reactions
type ThoughtService struct {
	thoughtRepo repository.ThoughtRepository
	userRepo    repository.UserRepository
	publisher   events.Publisher
	now         func() time.Time
}

// NewThoughtService creates a new thought service. publisher may be nil.
func NewThoughtService(
	thoughtRepo repository.ThoughtRepository,
	userRepo repository.UserRepository,
	publisher events.Publisher,
) *ThoughtService {
	return &ThoughtService{
		thoughtRepo: thoughtRepo,
		userRepo:    userRepo,
		publisher:   publisher,
		now:         time.Now,
	}
}

func (s *ThoughtService) publish(ctx context.Context, evt events.Event) {
	if s.publisher == nil {
		return
	}
	_ = s.publisher.Publish(ctx, evt)
}

func validateText(field, text string) error {
	if strings.TrimSpace(text) == "" {
		return invalid(field, "is required")
	}
	if utf8.RuneCountInString(text) > MaxTextLength {
		return invalid(field, fmt.Sprintf("must be at most %d characters", MaxTextLength))
	}
	return nil
}

// List returns thoughts newest first, all of them when username is empty
func (s *ThoughtService) List(ctx context.Context, username string) ([]*models.Thought, error) {
	thoughts, err := s.thoughtRepo.List(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to list thoughts: %w", err)
	}
	if thoughts == nil {
		thoughts = []*models.Thought{}
	}
	return thoughts, nil
}

// Get returns a thought, or nil when it does not exist
func (s *ThoughtService) Get(ctx context.Context, id string) (*models.Thought, error) {
	thought, err := s.thoughtRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get thought: %w", err)
	}
	return thought, nil
}

// Add creates a thought for the caller and links it to the caller's record.
// The two writes are not atomic; if linking fails the thought is left
// unreferenced and logged.
func (s *ThoughtService) Add(ctx context.Context, id auth.Identity, text string) (*models.Thought, error) {
	if !id.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}
	if err := validateText("thoughtText", text); err != nil {
		return nil, err
	}

	thought := &models.Thought{
		ThoughtText: text,
		Username:    id.Username(),
		CreatedAt:   s.now().UTC(),
		Reactions:   []models.Reaction{},
	}
	if err := s.thoughtRepo.Create(ctx, thought); err != nil {
		return nil, fmt.Errorf("failed to create thought: %w", err)
	}

	if _, err := s.userRepo.PushThought(ctx, id.UserID(), thought.ID); err != nil {
		log.Error().
			Err(err).
			Str("user_id", id.UserID()).
			Str("thought_id", thought.ID).
			Msg("Thought created but not linked to its owner")
		return nil, fmt.Errorf("failed to link thought: %w", err)
	}

	log.Info().
		Str("user_id", id.UserID()).
		Str("thought_id", thought.ID).
		Msg("Thought added")

	evt := events.New(events.ThoughtAdded, id.Username())
	evt.ThoughtID = thought.ID
	evt.Text = thought.ThoughtText
	s.publish(ctx, evt)

	return thought, nil
}

// AddReaction appends a reaction by the caller. It returns nil when the
// thought does not exist.
func (s *ThoughtService) AddReaction(ctx context.Context, id auth.Identity, thoughtID, body string) (*models.Thought, error) {
	if !id.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}
	if err := validateText("reactionBody", body); err != nil {
		return nil, err
	}

	reaction := &models.Reaction{
		ReactionBody: body,
		Username:     id.Username(),
		CreatedAt:    s.now().UTC(),
	}
	thought, err := s.thoughtRepo.PushReaction(ctx, thoughtID, reaction)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to add reaction: %w", err)
	}

	if thought.Username != id.Username() {
		evt := events.New(events.ReactionAdded, id.Username())
		evt.Recipient = thought.Username
		evt.ThoughtID = thought.ID
		evt.ReactionID = reaction.ID
		evt.Text = reaction.ReactionBody
		s.publish(ctx, evt)
	}
	return thought, nil
}

// Remove deletes one of the caller's thoughts and detaches it from the
// caller's record. It returns the removed thought, or nil when there was none.
func (s *ThoughtService) Remove(ctx context.Context, id auth.Identity, thoughtID string) (*models.Thought, error) {
	if !id.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}

	thought, err := s.Get(ctx, thoughtID)
	if err != nil || thought == nil {
		return nil, err
	}
	if thought.Username != id.Username() {
		return nil, ErrNotAuthenticated
	}

	if err := s.thoughtRepo.Delete(ctx, thought.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to delete thought: %w", err)
	}
	if _, err := s.userRepo.PullThought(ctx, id.UserID(), thought.ID); err != nil {
		log.Warn().
			Err(err).
			Str("user_id", id.UserID()).
			Str("thought_id", thought.ID).
			Msg("Thought deleted but reference not removed")
	}

	log.Info().
		Str("user_id", id.UserID()).
		Str("thought_id", thought.ID).
		Msg("Thought removed")
	return thought, nil
}

// RemoveReaction removes a reaction. The reaction's author and the thought's
// owner may do so. It returns the updated thought, or nil when the thought
// does not exist.
func (s *ThoughtService) RemoveReaction(ctx context.Context, id auth.Identity, thoughtID, reactionID string) (*models.Thought, error) {
	if !id.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}

	thought, err := s.Get(ctx, thoughtID)
	if err != nil || thought == nil {
		return nil, err
	}
	reaction, ok := thought.FindReaction(reactionID)
	if !ok {
		return thought, nil
	}
	if reaction.Username != id.Username() && thought.Username != id.Username() {
		return nil, ErrNotAuthenticated
	}

	updated, err := s.thoughtRepo.PullReaction(ctx, thought.ID, reactionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to remove reaction: %w", err)
	}
	return updated, nil
}
