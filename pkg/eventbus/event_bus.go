// Package eventbus provides event-driven communication between the ingress
// surfaces and the workflow execution workers.
package eventbus

import (
	"context"

	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/events"
)

type Event interface {
	GetType() events.EventType
}

type EventHandler func(ctx context.Context, event any) error

type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

type EventSubscriber interface {
	Handle(eventType events.EventType, handler EventHandler)
	Subscribe(ctx context.Context) error
}

type EventBus interface {
	EventPublisher
	EventSubscriber
	Close() error
}
