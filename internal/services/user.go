package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/deepthoughts/thoughts-server/internal/auth"
	"github.com/deepthoughts/thoughts-server/internal/events"
	"github.com/deepthoughts/thoughts-server/internal/models"
	"github.com/deepthoughts/thoughts-server/internal/ratelimit"
	"github.com/deepthoughts/thoughts-server/internal/repository"
)

const minPasswordLength = 5

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// AuthPayload is returned by signup and login
type AuthPayload struct {
	Token string
	User  *models.User
}

// SignUpInput represents a request to create an account
type SignUpInput struct {
	Username string
	Email    string
	Password string
}

// UserService handles accounts, sessions and friend lists
type UserService struct {
	userRepo    repository.UserRepository
	thoughtRepo repository.ThoughtRepository
	creds       *Credentials
	limiter     ratelimit.Limiter
	publisher   events.Publisher
	now         func() time.Time
}

// NewUserService creates a new user service. limiter and publisher may be nil.
func NewUserService(
	userRepo repository.UserRepository,
	thoughtRepo repository.ThoughtRepository,
	creds *Credentials,
	limiter ratelimit.Limiter,
	publisher events.Publisher,
) *UserService {
	return &UserService{
		userRepo:    userRepo,
		thoughtRepo: thoughtRepo,
		creds:       creds,
		limiter:     limiter,
		publisher:   publisher,
		now:         time.Now,
	}
}

// Credentials exposes the token issuer used by this service
func (s *UserService) Credentials() *Credentials {
	return s.creds
}

func (s *UserService) throttle(ctx context.Context, key string) error {
	if s.limiter == nil {
		return nil
	}
	ok, err := s.limiter.Allow(ctx, key)
	if err != nil {
		// fail open
		log.Warn().Err(err).Str("key", key).Msg("Rate limiter unavailable")
		return nil
	}
	if !ok {
		return ErrTooManyAttempts
	}
	return nil
}

func (s *UserService) publish(ctx context.Context, evt events.Event) {
	if s.publisher == nil {
		return
	}
	_ = s.publisher.Publish(ctx, evt)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignUp creates a user and issues a session token for it
func (s *UserService) SignUp(ctx context.Context, in SignUpInput) (*AuthPayload, error) {
	username := strings.TrimSpace(in.Username)
	email := normalizeEmail(in.Email)

	if username == "" {
		return nil, invalid("username", "is required")
	}
	if !emailPattern.MatchString(email) {
		return nil, invalid("email", "must be a valid email address")
	}
	if len(in.Password) < minPasswordLength {
		return nil, invalid("password", fmt.Sprintf("must be at least %d characters", minPasswordLength))
	}
	if err := s.throttle(ctx, "signup:"+email); err != nil {
		return nil, err
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:   username,
		Email:      email,
		Password:   hash,
		ThoughtIDs: []string{},
		FriendIDs:  []string{},
		CreatedAt:  s.now().UTC(),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, invalid("username", "username or email is already taken")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.creds.IssueToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	log.Info().Str("user_id", user.ID).Str("username", user.Username).Msg("User created")
	return &AuthPayload{Token: token, User: user}, nil
}

// Login verifies an email/password pair. Unknown email and wrong password
// fail with the same ErrBadCredentials.
func (s *UserService) Login(ctx context.Context, email, password string) (*AuthPayload, error) {
	email = normalizeEmail(email)
	if err := s.throttle(ctx, "login:"+email); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrBadCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if !VerifyPassword(password, user.Password) {
		return nil, ErrBadCredentials
	}

	token, err := s.creds.IssueToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &AuthPayload{Token: token, User: user}, nil
}

// Me returns the caller's own record
func (s *UserService) Me(ctx context.Context, id auth.Identity) (*models.User, error) {
	if !id.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}
	user, err := s.userRepo.GetByID(ctx, id.UserID())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotAuthenticated
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// Users returns every user
func (s *UserService) Users(ctx context.Context) ([]*models.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// User returns the user with the given username, or nil
func (s *UserService) User(ctx context.Context, username string) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// IsFriend reports whether username is on the caller's friend list.
// Anonymous callers and unknown usernames get false.
func (s *UserService) IsFriend(ctx context.Context, id auth.Identity, username string) (bool, error) {
	if !id.IsAuthenticated() {
		return false, nil
	}
	me, err := s.userRepo.GetByID(ctx, id.UserID())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get user: %w", err)
	}
	other, err := s.User(ctx, username)
	if err != nil || other == nil {
		return false, err
	}
	return me.HasFriend(other.ID), nil
}

// AddFriend adds friendID to the caller's friend list only. The friend's own
// list is left untouched.
func (s *UserService) AddFriend(ctx context.Context, id auth.Identity, friendID string) (*models.User, error) {
	if !id.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}
	if friendID == id.UserID() {
		return nil, invalid("friendId", "cannot add yourself as a friend")
	}

	friend, err := s.userRepo.GetByID(ctx, friendID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, invalid("friendId", "user not found")
		}
		return nil, fmt.Errorf("failed to get friend: %w", err)
	}

	updated, err := s.userRepo.AddFriend(ctx, id.UserID(), friend.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotAuthenticated
		}
		return nil, fmt.Errorf("failed to add friend: %w", err)
	}

	evt := events.New(events.FriendAdded, id.Username())
	evt.Recipient = friend.Username
	evt.FriendID = id.UserID()
	s.publish(ctx, evt)

	return updated, nil
}

// RemoveFriend removes every occurrence of friendID from the caller's list.
// Removing an id that is not there is not an error.
func (s *UserService) RemoveFriend(ctx context.Context, id auth.Identity, friendID string) (*models.User, error) {
	if !id.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}
	updated, err := s.userRepo.RemoveFriend(ctx, id.UserID(), friendID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotAuthenticated
		}
		return nil, fmt.Errorf("failed to remove friend: %w", err)
	}
	return updated, nil
}

// Friends resolves a user's friend references. Ids that no longer resolve
// are dropped.
func (s *UserService) Friends(ctx context.Context, user *models.User) ([]*models.User, error) {
	if len(user.FriendIDs) == 0 {
		return []*models.User{}, nil
	}
	friends, err := s.userRepo.ListByIDs(ctx, user.FriendIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get friends: %w", err)
	}
	return friends, nil
}

// Thoughts resolves a user's thought references newest first. Ids that no
// longer resolve are dropped.
func (s *UserService) Thoughts(ctx context.Context, user *models.User) ([]*models.Thought, error) {
	if len(user.ThoughtIDs) == 0 {
		return []*models.Thought{}, nil
	}
	thoughts, err := s.thoughtRepo.ListByIDs(ctx, user.ThoughtIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get thoughts: %w", err)
	}
	return thoughts, nil
}
