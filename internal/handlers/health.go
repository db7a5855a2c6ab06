package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status string `json:"status"`
	Online int    `json:"online"`
}

// HealthHandler reports whether the store is reachable
type HealthHandler struct {
	check  func(ctx context.Context) error
	online func() int
}

// NewHealthHandler creates a new health handler. Either func may be nil.
func NewHealthHandler(check func(ctx context.Context) error, online func() int) *HealthHandler {
	return &HealthHandler{check: check, online: online}
}

// ServeHTTP handles GET /health
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok"}
	if h.online != nil {
		resp.Online = h.online()
	}

	if h.check != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.check(ctx); err != nil {
			log.Error().Err(err).Msg("Health check failed")
			resp.Status = "unavailable"
			respondJSON(w, resp, http.StatusServiceUnavailable)
			return
		}
	}
	respondJSON(w, resp, http.StatusOK)
}
