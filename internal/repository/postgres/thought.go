package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/deepthoughts/thoughts-server/internal/models"
	"github.com/deepthoughts/thoughts-server/internal/repository"
)

const thoughtColumns = `id, thought_text, username, created_at, reactions`

// ThoughtRepository handles database operations for thoughts
type ThoughtRepository struct {
	db *pgxpool.Pool
}

var _ repository.ThoughtRepository = (*ThoughtRepository)(nil)

// NewThoughtRepository creates a new thought repository
func NewThoughtRepository(db *pgxpool.Pool) *ThoughtRepository {
	return &ThoughtRepository{db: db}
}

func scanThought(row rowScanner) (*models.Thought, error) {
	var thought models.Thought
	err := row.Scan(
		&thought.ID, &thought.ThoughtText, &thought.Username, &thought.CreatedAt, &thought.Reactions,
	)
	if err != nil {
		return nil, err
	}
	return &thought, nil
}

// Create creates a new thought
func (r *ThoughtRepository) Create(ctx context.Context, thought *models.Thought) error {
	if thought.ID == "" {
		thought.ID = uuid.New().String()
	}
	reactions := thought.Reactions
	if reactions == nil {
		reactions = []models.Reaction{}
	}
	query := `
		INSERT INTO thoughts (id, thought_text, username, created_at, reactions)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.Exec(ctx, query, thought.ID, thought.ThoughtText, thought.Username, thought.CreatedAt, reactions)
	if err != nil {
		return mapError(err, "thought")
	}
	return nil
}

// GetByID retrieves a thought by ID
func (r *ThoughtRepository) GetByID(ctx context.Context, id string) (*models.Thought, error) {
	query := `SELECT ` + thoughtColumns + ` FROM thoughts WHERE id = $1`
	thought, err := scanThought(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapError(err, "thought")
	}
	return thought, nil
}

func (r *ThoughtRepository) list(ctx context.Context, query string, args ...any) ([]*models.Thought, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get thoughts: %w", err)
	}
	defer rows.Close()

	var thoughts []*models.Thought
	for rows.Next() {
		thought, err := scanThought(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan thought: %w", err)
		}
		thoughts = append(thoughts, thought)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating thoughts: %w", err)
	}
	return thoughts, nil
}

// List retrieves thoughts newest first, optionally for one username
func (r *ThoughtRepository) List(ctx context.Context, username string) ([]*models.Thought, error) {
	if username == "" {
		return r.list(ctx, `SELECT `+thoughtColumns+` FROM thoughts ORDER BY created_at DESC`)
	}
	return r.list(ctx, `SELECT `+thoughtColumns+` FROM thoughts WHERE username = $1 ORDER BY created_at DESC`, username)
}

// ListByIDs retrieves the thoughts whose id is in ids, newest first
func (r *ThoughtRepository) ListByIDs(ctx context.Context, ids []string) ([]*models.Thought, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.list(ctx, `SELECT `+thoughtColumns+` FROM thoughts WHERE id = ANY($1) ORDER BY created_at DESC`, ids)
}

// Delete deletes a thought by ID
func (r *ThoughtRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM thoughts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete thought: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("thought not found: %w", repository.ErrNotFound)
	}
	return nil
}

// PushReaction appends a reaction to the thought's reactions array
func (r *ThoughtRepository) PushReaction(ctx context.Context, thoughtID string, reaction *models.Reaction) (*models.Thought, error) {
	if reaction.ID == "" {
		reaction.ID = uuid.New().String()
	}
	query := `
		UPDATE thoughts SET reactions = reactions || jsonb_build_array($2::jsonb)
		WHERE id = $1
		RETURNING ` + thoughtColumns
	thought, err := scanThought(r.db.QueryRow(ctx, query, thoughtID, reaction))
	if err != nil {
		return nil, mapError(err, "thought")
	}
	return thought, nil
}

// PullReaction removes the reaction with the given id
func (r *ThoughtRepository) PullReaction(ctx context.Context, thoughtID, reactionID string) (*models.Thought, error) {
	query := `
		UPDATE thoughts SET reactions = COALESCE(
			(SELECT jsonb_agg(elem) FROM jsonb_array_elements(reactions) AS elem WHERE elem->>'_id' <> $2),
			'[]'::jsonb
		)
		WHERE id = $1
		RETURNING ` + thoughtColumns
	thought, err := scanThought(r.db.QueryRow(ctx, query, thoughtID, reactionID))
	if err != nil {
		return nil, mapError(err, "thought")
	}
	return thought, nil
}
