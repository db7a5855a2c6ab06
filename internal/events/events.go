// Package events carries domain notifications from the services to the live
// feed and to external subscribers.
package events

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Event types
const (
	ThoughtAdded  = "thought_added"
	ReactionAdded = "reaction_added"
	FriendAdded   = "friend_added"
)

// Event describes something that happened to a thought or a friend list.
// Recipient is the username the event concerns; empty means everyone.
type Event struct {
	Type       string `json:"type"`
	Recipient  string `json:"recipient,omitempty"`
	Actor      string `json:"actor"`
	ThoughtID  string `json:"thought_id,omitempty"`
	ReactionID string `json:"reaction_id,omitempty"`
	FriendID   string `json:"friend_id,omitempty"`
	Text       string `json:"text,omitempty"`
	Timestamp  int64  `json:"timestamp"`
}

// New returns an event stamped with the current time
func New(eventType, actor string) Event {
	return Event{Type: eventType, Actor: actor, Timestamp: time.Now().UnixMilli()}
}

// Publisher delivers events
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

// Fanout publishes to every publisher, logging failures instead of returning them
type Fanout []Publisher

// Publish sends evt to all publishers
func (f Fanout) Publish(ctx context.Context, evt Event) error {
	for _, p := range f {
		if err := p.Publish(ctx, evt); err != nil {
			log.Error().
				Err(err).
				Str("type", evt.Type).
				Str("recipient", evt.Recipient).
				Msg("Failed to publish event")
		}
	}
	return nil
}
