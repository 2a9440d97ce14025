package messaging

import (
	"context"
)

// Broker is the message transport the outbox processor publishes through.
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}

// Message is the wire envelope for published events.
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}
