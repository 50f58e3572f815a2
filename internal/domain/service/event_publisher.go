package service

import (
	"context"
)

// BroadcastEvent is a realtime message fanned out to gateway instances.
// Target empty means broadcast to every connected user.
type BroadcastEvent struct {
	RequestID string `json:"request_id,omitempty"` // For distributed tracing.
	Target    string `json:"target,omitempty"`     // User ID the event is addressed to.
	Event     string `json:"event"`                // Application event name.
	Payload   string `json:"payload"`              // JSON-encoded event body.
}

// EventPublisher defines the interface for publishing events to a message queue
type EventPublisher interface {
	// PublishBroadcastEvent publishes a realtime broadcast for async fan-out
	// to other gateway instances.
	PublishBroadcastEvent(ctx context.Context, event *BroadcastEvent) error

	// Close releases any resources held by the publisher
	Close() error
}
