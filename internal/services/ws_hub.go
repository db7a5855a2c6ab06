package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/deepthoughts/thoughts-server/internal/events"
)

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type       string `json:"type"`
	Timestamp  int64  `json:"timestamp,omitempty"`
	Actor      string `json:"actor,omitempty"`
	ThoughtID  string `json:"thought_id,omitempty"`
	ReactionID string `json:"reaction_id,omitempty"`
	FriendID   string `json:"friend_id,omitempty"`
	Text       string `json:"text,omitempty"`
	Message    string `json:"message,omitempty"`
}

// WS message types that are not domain events
const (
	WSPing  = "ping"
	WSPong  = "pong"
	WSError = "error"
)

type wsClient struct {
	conn *websocket.Conn
	// gorilla connections allow one concurrent writer
	writeMu sync.Mutex
}

func (c *wsClient) write(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// WSHub manages live feed connections, one per username
type WSHub struct {
	mu          sync.RWMutex
	connections map[string]*wsClient
}

var _ events.Publisher = (*WSHub)(nil)

// NewWSHub creates a new WebSocket hub
func NewWSHub() *WSHub {
	return &WSHub{
		connections: make(map[string]*wsClient),
	}
}

// Register registers a connection for a user, closing any previous one
func (h *WSHub) Register(username string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if existing, exists := h.connections[username]; exists {
		existing.conn.Close()
	}
	h.connections[username] = &wsClient{conn: conn}

	log.Info().Str("username", username).Msg("WebSocket connection registered")
}

// Unregister removes the user's connection if it is still conn. A nil conn
// removes whatever is registered.
func (h *WSHub) Unregister(username string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client, exists := h.connections[username]
	if !exists || (conn != nil && client.conn != conn) {
		return
	}
	client.conn.Close()
	delete(h.connections, username)
	log.Info().Str("username", username).Msg("WebSocket connection unregistered")
}

// IsOnline checks if a user is connected
func (h *WSHub) IsOnline(username string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, exists := h.connections[username]
	return exists
}

// Online returns the number of connected users
func (h *WSHub) Online() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// SendToUser sends a message to a specific user
func (h *WSHub) SendToUser(username string, message WSMessage) error {
	h.mu.RLock()
	client, exists := h.connections[username]
	h.mu.RUnlock()

	if !exists {
		return fmt.Errorf("user %s is not connected", username)
	}

	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if err := client.write(data); err != nil {
		h.Unregister(username, client.conn)
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// Broadcast sends a message to every connected user
func (h *WSHub) Broadcast(message WSMessage) {
	h.mu.RLock()
	usernames := make([]string, 0, len(h.connections))
	for username := range h.connections {
		usernames = append(usernames, username)
	}
	h.mu.RUnlock()

	for _, username := range usernames {
		if err := h.SendToUser(username, message); err != nil {
			log.Debug().Err(err).Str("username", username).Msg("Broadcast delivery failed")
		}
	}
}

// Publish delivers a domain event to the live feed. Events for a user who is
// offline are dropped.
func (h *WSHub) Publish(_ context.Context, evt events.Event) error {
	message := WSMessage{
		Type:       evt.Type,
		Timestamp:  evt.Timestamp,
		Actor:      evt.Actor,
		ThoughtID:  evt.ThoughtID,
		ReactionID: evt.ReactionID,
		FriendID:   evt.FriendID,
		Text:       evt.Text,
	}
	if evt.Recipient == "" {
		h.Broadcast(message)
		return nil
	}
	if !h.IsOnline(evt.Recipient) {
		return nil
	}
	return h.SendToUser(evt.Recipient, message)
}
