// Package eventbus provides the publish/subscribe transport for workflow
// lifecycle events.
package eventbus

import (
	"context"

	"github.com/norbye/interesse/pkg/events"
)

// Event is anything publishable on the bus.
type Event interface {
	GetType() events.EventType
}

// EventPublisher publishes lifecycle events keyed by a routing key.
type EventPublisher interface {
	Publish(ctx context.Context, key string, event Event) error
}

// EventHandler processes one received event.
type EventHandler func(ctx context.Context, event any) error

// EventSubscriber registers handlers and starts consumption.
type EventSubscriber interface {
	Handle(eventType events.EventType, handler EventHandler) error
	Subscribe(ctx context.Context) error
}

// EventBus combines publishing and subscription over one transport.
type EventBus interface {
	EventPublisher
	EventSubscriber
	Close() error
	GenerateID() string
}
