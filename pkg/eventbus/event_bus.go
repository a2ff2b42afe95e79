// Package eventbus provides the messaging layer between the execution engine,
// the tracker and downstream websocket consumers.
package eventbus

import (
	"context"

	"github.com/flowtrack-io/flowtrack/pkg/events"
)

type Event interface {
	GetType() events.EventType
}

type EventPublisher interface {
	Publish(ctx context.Context, key string, event Event) error
}

type EventSubscriber interface {
	Handle(eventType events.EventType, handler EventHandler) error
	Subscribe(ctx context.Context) error
}

type EventHandler func(ctx context.Context, event any) error

// Notifier pushes websocket-ready notification payloads. Notifications are
// fire-and-forget: a failed push is logged by the caller and never retried
// inline.
type Notifier interface {
	Notify(ctx context.Context, topic string, notification *events.Notification) error
}

type EventBus interface {
	EventPublisher
	EventSubscriber
	Notifier
	Close() error
	GenerateID() string
}
