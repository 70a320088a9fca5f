package cmd

import (
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/channels/gochannel"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/channels/kafka"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/eventbus"
)

// NewChannel builds the raw watermill publisher/subscriber pair for the
// selected provider. The in-memory channel serves single-process setups;
// Kafka distributes execution requests across worker processes.
func NewChannel(provider, serviceName string, logger *slog.Logger) (message.Publisher, message.Subscriber, error) {
	wmLogger := watermill.NewSlogLogger(logger)

	switch provider {
	case "kafka":
		pub, sub, err := kafka.CreateChannel(wmLogger, serviceName)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create kafka channel: %w", err)
		}

		return pub, sub, nil
	case "", "gochannel":
		pub, sub := gochannel.CreateChannel(wmLogger)

		return pub, sub, nil
	default:
		return nil, nil, fmt.Errorf("unsupported event bus provider %q", provider)
	}
}

// NewEventBus builds the run lifecycle bus for the selected provider.
func NewEventBus(provider, serviceName string, logger *slog.Logger) (eventbus.EventBus, error) {
	pub, sub, err := NewChannel(provider, serviceName, logger)
	if err != nil {
		return nil, err
	}

	return eventbus.NewWatermillEventBus(pub, sub), nil
}
