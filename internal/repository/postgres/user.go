package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/deepthoughts/thoughts-server/internal/models"
	"github.com/deepthoughts/thoughts-server/internal/repository"
)

const userColumns = `id, username, email, password, avatar_url, thought_ids, friend_ids, created_at`

// UserRepository handles database operations for users
type UserRepository struct {
	db *pgxpool.Pool
}

var _ repository.UserRepository = (*UserRepository)(nil)

// NewUserRepository creates a new user repository
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row rowScanner) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID, &user.Username, &user.Email, &user.Password, &user.AvatarURL,
		&user.ThoughtIDs, &user.FriendIDs, &user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	query := `
		INSERT INTO users (id, username, email, password, avatar_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.Exec(ctx, query, user.ID, user.Username, user.Email, user.Password, user.AvatarURL, user.CreatedAt)
	if err != nil {
		return mapError(err, "user")
	}
	return nil
}

func (r *UserRepository) getOne(ctx context.Context, where string, arg any) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where
	user, err := scanUser(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		return nil, mapError(err, "user")
	}
	return user, nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, `id = $1`, id)
}

// GetByUsername retrieves a user by username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, `username = $1`, username)
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, `email = $1`, email)
}

func (r *UserRepository) list(ctx context.Context, query string, args ...any) ([]*models.User, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}

// List retrieves all users
func (r *UserRepository) List(ctx context.Context) ([]*models.User, error) {
	return r.list(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at`)
}

// ListByIDs retrieves the users whose id is in ids
func (r *UserRepository) ListByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	users, err := r.list(ctx, `SELECT `+userColumns+` FROM users WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	return orderByIDs(users, ids), nil
}

func orderByIDs(users []*models.User, ids []string) []*models.User {
	byID := make(map[string]*models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	ordered := make([]*models.User, 0, len(users))
	for _, id := range ids {
		if u, ok := byID[id]; ok {
			ordered = append(ordered, u)
			delete(byID, id)
		}
	}
	return ordered
}

func (r *UserRepository) update(ctx context.Context, set string, userID string, arg any) (*models.User, error) {
	query := `UPDATE users SET ` + set + ` WHERE id = $1 RETURNING ` + userColumns
	user, err := scanUser(r.db.QueryRow(ctx, query, userID, arg))
	if err != nil {
		return nil, mapError(err, "user")
	}
	return user, nil
}

// PushThought appends a thought reference
func (r *UserRepository) PushThought(ctx context.Context, userID, thoughtID string) (*models.User, error) {
	return r.update(ctx, `thought_ids = array_append(thought_ids, $2)`, userID, thoughtID)
}

// PullThought removes every reference to a thought
func (r *UserRepository) PullThought(ctx context.Context, userID, thoughtID string) (*models.User, error) {
	return r.update(ctx, `thought_ids = array_remove(thought_ids, $2)`, userID, thoughtID)
}

// AddFriend appends friendID unless it is already present
func (r *UserRepository) AddFriend(ctx context.Context, userID, friendID string) (*models.User, error) {
	return r.update(ctx, `friend_ids = CASE
			WHEN $2 = ANY(friend_ids) THEN friend_ids
			ELSE array_append(friend_ids, $2)
		END`, userID, friendID)
}

// RemoveFriend removes every occurrence of friendID
func (r *UserRepository) RemoveFriend(ctx context.Context, userID, friendID string) (*models.User, error) {
	return r.update(ctx, `friend_ids = array_remove(friend_ids, $2)`, userID, friendID)
}

// SetAvatarURL updates the avatar URL for a user
func (r *UserRepository) SetAvatarURL(ctx context.Context, userID, url string) (*models.User, error) {
	return r.update(ctx, `avatar_url = $2`, userID, url)
}
