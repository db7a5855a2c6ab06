// Package graph exposes the services through a GraphQL schema.
package graph

import (
	_ "embed"
	"fmt"

	graphql "github.com/graph-gophers/graphql-go"

	"github.com/deepthoughts/thoughts-server/internal/services"
)

//go:embed schema.graphql
var schemaSDL string

const (
	maxDepth       = 12
	maxParallelism = 10
)

// Resolver is the root resolver for queries and mutations
type Resolver struct {
	users    *services.UserService
	thoughts *services.ThoughtService
	avatars  *services.AvatarService
}

// NewResolver creates a new root resolver. avatars may be nil.
func NewResolver(users *services.UserService, thoughts *services.ThoughtService, avatars *services.AvatarService) *Resolver {
	return &Resolver{users: users, thoughts: thoughts, avatars: avatars}
}

// NewSchema parses the embedded schema against the resolver
func NewSchema(r *Resolver) (*graphql.Schema, error) {
	schema, err := graphql.ParseSchema(schemaSDL, r,
		graphql.MaxDepth(maxDepth),
		graphql.MaxParallelism(maxParallelism),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}
	return schema, nil
}
