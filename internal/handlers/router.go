package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	graphql "github.com/graph-gophers/graphql-go"
	"github.com/rs/cors"

	"github.com/deepthoughts/thoughts-server/internal/middleware"
	"github.com/deepthoughts/thoughts-server/internal/services"
)

// RouterConfig holds what the HTTP surface is built from
type RouterConfig struct {
	Schema         *graphql.Schema
	Hub            *services.WSHub
	Tokens         middleware.TokenParser
	AllowedOrigins []string
	HealthCheck    func(ctx context.Context) error
}

// NewRouter wires the GraphQL endpoint, the live feed and the health check
func NewRouter(cfg RouterConfig) http.Handler {
	gqlHandler := NewGraphQLHandler(cfg.Schema)
	wsHandler := NewWebSocketHandler(cfg.Hub, cfg.Tokens, cfg.AllowedOrigins)
	healthHandler := NewHealthHandler(cfg.HealthCheck, cfg.Hub.Online)

	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Identify(cfg.Tokens))
		r.Method(http.MethodPost, "/graphql", gqlHandler)
		r.Method(http.MethodGet, "/graphql", gqlHandler)
	})

	r.Get("/ws", wsHandler.HandleWebSocket)
	r.Method(http.MethodGet, "/health", healthHandler)

	return r
}
