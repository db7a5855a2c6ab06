// Package postgres is the pgx storage driver. Thought and friend
// references are text[] columns and reactions are a jsonb array, so every
// array mutation is a single UPDATE statement against one row.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/deepthoughts/thoughts-server/internal/repository"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id          TEXT PRIMARY KEY,
	username    TEXT NOT NULL UNIQUE,
	email       TEXT NOT NULL UNIQUE,
	password    TEXT NOT NULL,
	avatar_url  TEXT,
	thought_ids TEXT[] NOT NULL DEFAULT '{}',
	friend_ids  TEXT[] NOT NULL DEFAULT '{}',
	created_at  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS thoughts (
	id           TEXT PRIMARY KEY,
	thought_text TEXT NOT NULL,
	username     TEXT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL,
	reactions    JSONB NOT NULL DEFAULT '[]'
);

CREATE INDEX IF NOT EXISTS thoughts_username_created_at_idx ON thoughts (username, created_at DESC);
`

// Connect opens a pool and makes sure the schema exists
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if err := Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate creates the tables if they do not exist
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// mapError translates driver errors into repository sentinels
func mapError(err error, what string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s not found: %w", what, repository.ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%s already exists: %w", what, repository.ErrDuplicate)
	}
	return fmt.Errorf("failed to query %s: %w", what, err)
}
