package status

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/models"
)

func newTestPubSub(t *testing.T) *gochannel.GoChannel {
	t.Helper()

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	t.Cleanup(func() {
		_ = pubSub.Close()
	})

	return pubSub
}

func TestTopic(t *testing.T) {
	assert.Equal(t, "status.httprequest", Topic("httprequest"))
	assert.Equal(t, "status.trigger.webhook", Topic("trigger:webhook"))
}

func TestPublisher_LoadingPrecedesTerminal(t *testing.T) {
	pubSub := newTestPubSub(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := Subscribe(ctx, pubSub, "httprequest")
	require.NoError(t, err)

	publisher := NewPublisher(pubSub, slog.Default())
	publisher.Publish(ctx, "httprequest", Event{NodeID: "node-1", Status: models.NodeStatusLoading})
	publisher.Publish(ctx, "httprequest", Event{NodeID: "node-1", Status: models.NodeStatusSuccess})

	first := receiveEvent(t, events)
	assert.Equal(t, models.NodeStatusLoading, first.Status)

	second := receiveEvent(t, events)
	assert.Equal(t, models.NodeStatusSuccess, second.Status)
	assert.Equal(t, "node-1", second.NodeID)
}

func TestPublisher_ChannelsAreIndependent(t *testing.T) {
	pubSub := newTestPubSub(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	emailEvents, err := Subscribe(ctx, pubSub, "email")
	require.NoError(t, err)

	publisher := NewPublisher(pubSub, slog.Default())
	publisher.Publish(ctx, "httprequest", Event{NodeID: "http-1", Status: models.NodeStatusLoading})
	publisher.Publish(ctx, "email", Event{NodeID: "email-1", Status: models.NodeStatusLoading})

	event := receiveEvent(t, emailEvents)
	assert.Equal(t, "email-1", event.NodeID)
}

func TestPublisher_ErrorCarriesMessage(t *testing.T) {
	pubSub := newTestPubSub(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := Subscribe(ctx, pubSub, "email")
	require.NoError(t, err)

	publisher := NewPublisher(pubSub, slog.Default())
	publisher.Publish(ctx, "email", Event{
		NodeID:  "email-1",
		Status:  models.NodeStatusError,
		Message: "missing required field 'to'",
	})

	event := receiveEvent(t, events)
	assert.Equal(t, models.NodeStatusError, event.Status)
	assert.Equal(t, "missing required field 'to'", event.Message)
}

func receiveEvent(t *testing.T, ch <-chan Event) Event {
	t.Helper()

	select {
	case event := <-ch:
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for status event")

		return Event{}
	}
}
