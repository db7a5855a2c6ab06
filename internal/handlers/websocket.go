package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/deepthoughts/thoughts-server/internal/middleware"
	"github.com/deepthoughts/thoughts-server/internal/services"
)

const maxMessageBytes = 4096

// WebSocketHandler serves the live feed
type WebSocketHandler struct {
	hub      *services.WSHub
	tokens   middleware.TokenParser
	upgrader websocket.Upgrader
}

// NewWebSocketHandler creates a new WebSocket handler. Browser connections
// are accepted from allowedOrigins only; "*" allows any origin.
func NewWebSocketHandler(hub *services.WSHub, tokens middleware.TokenParser, allowedOrigins []string) *WebSocketHandler {
	return &WebSocketHandler{
		hub:    hub,
		tokens: tokens,
		upgrader: websocket.Upgrader{
			CheckOrigin: originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}
}

// HandleWebSocket handles GET /ws. The session token comes from the token
// query parameter or the Authorization header.
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = middleware.BearerToken(r)
	}
	id := middleware.Resolve(h.tokens, token)
	if !id.IsAuthenticated() {
		respondError(w, "invalid token", http.StatusUnauthorized)
		return
	}
	username := id.Username()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}
	conn.SetReadLimit(maxMessageBytes)

	h.hub.Register(username, conn)
	defer h.hub.Unregister(username, conn)

	log.Info().Str("username", username).Msg("WebSocket connection established")

	for {
		_, messageBytes, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error().Err(err).Str("username", username).Msg("WebSocket error")
			}
			break
		}

		var msg services.WSMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			h.reply(username, services.WSMessage{Type: services.WSError, Message: "Invalid message format"})
			continue
		}

		switch msg.Type {
		case services.WSPing:
			h.reply(username, services.WSMessage{Type: services.WSPong})
		default:
			h.reply(username, services.WSMessage{Type: services.WSError, Message: "Unknown message type"})
		}
	}
}

func (h *WebSocketHandler) reply(username string, msg services.WSMessage) {
	if err := h.hub.SendToUser(username, msg); err != nil {
		log.Error().Err(err).Str("username", username).Str("type", msg.Type).Msg("Failed to send message")
	}
}
