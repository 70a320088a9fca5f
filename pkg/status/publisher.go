// Package status broadcasts per-node lifecycle events to live subscribers.
// Channels are transient: delivery is best effort and publish failures never
// fail the node that emitted them.
package status

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/models"
)

const topicPrefix = "status."

// Event is the payload carried on a node-type status channel. For a given
// (run, node) a loading event always precedes the terminal success/error
// event, and nothing is published afterward.
type Event struct {
	NodeID  string            `json:"nodeId"`
	Status  models.NodeStatus `json:"status"`
	Message string            `json:"message,omitempty"`
}

// Topic maps a node type to its channel topic. Node type tags may contain
// ":" which some brokers reject in topic names.
func Topic(nodeType string) string {
	return topicPrefix + strings.ReplaceAll(nodeType, ":", ".")
}

// Publisher fans node status events out over a watermill publisher, one
// topic per node type.
type Publisher struct {
	publisher message.Publisher
	logger    *slog.Logger
}

// NewPublisher wraps a watermill publisher. The publisher's lifecycle is
// owned by the caller and tied to process startup/shutdown.
func NewPublisher(pub message.Publisher, logger *slog.Logger) *Publisher {
	return &Publisher{
		publisher: pub,
		logger:    logger.With("module", "status"),
	}
}

// Publish emits one status event on the node type's channel. Fire-and-forget:
// failures are logged and swallowed.
func (p *Publisher) Publish(ctx context.Context, nodeType string, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.WarnContext(ctx, "Failed to encode status event",
			"node_id", event.NodeID, "error", err)

		return
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)

	if err := p.publisher.Publish(Topic(nodeType), msg); err != nil {
		p.logger.WarnContext(ctx, "Failed to publish status event",
			"node_id", event.NodeID, "topic", Topic(nodeType), "error", err)
	}
}

// Subscribe attaches to one node type's channel and decodes its events.
// Intended for live UI consumers and tests.
func Subscribe(ctx context.Context, sub message.Subscriber, nodeType string) (<-chan Event, error) {
	messages, err := sub.Subscribe(ctx, Topic(nodeType))
	if err != nil {
		return nil, err
	}

	events := make(chan Event)

	go func() {
		defer close(events)

		for msg := range messages {
			var event Event
			if err := json.Unmarshal(msg.Payload, &event); err != nil {
				msg.Nack()

				continue
			}

			select {
			case events <- event:
				msg.Ack()
			case <-ctx.Done():
				msg.Nack()

				return
			}
		}
	}()

	return events, nil
}
