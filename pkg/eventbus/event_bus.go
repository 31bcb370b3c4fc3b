// Package eventbus provides the change feed over Watermill publishers and subscribers.
package eventbus

import (
	"context"

	"github.com/dukex/pressdesk/pkg/events"
)

type EventPublisher interface {
	Publish(ctx context.Context, key string, event events.Event) error
}

// Envelope is one decoded message delivered to a subscriber.
type Envelope struct {
	Key   string
	Event events.Event
}

// EventSubscriber delivers the change feed as a stream. The channel closes when ctx is done
// or the underlying subscription ends.
type EventSubscriber interface {
	Subscribe(ctx context.Context) (<-chan Envelope, error)
}

type EventBus interface {
	EventPublisher
	EventSubscriber
	Close() error
	GenerateID() string
}
