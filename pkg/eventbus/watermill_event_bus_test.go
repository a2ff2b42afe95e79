package eventbus_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowtrack-io/flowtrack/pkg/channels/gochannel"
	"github.com/flowtrack-io/flowtrack/pkg/eventbus"
	"github.com/flowtrack-io/flowtrack/pkg/events"
)

func setupTestBus(t *testing.T) eventbus.EventBus {
	t.Helper()

	pub, sub, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)
	t.Cleanup(func() { _ = bus.Close() })

	return bus
}

func TestWatermillEventBus_PublishAndSubscribe(t *testing.T) {
	t.Parallel()

	bus := setupTestBus(t)

	received := make(chan *events.TaskFinished, 1)

	err := bus.Handle(events.TaskFinishedEvent, func(_ context.Context, event any) error {
		finished, ok := event.(*events.TaskFinished)
		require.True(t, ok)

		received <- finished

		return nil
	})
	require.NoError(t, err)

	require.NoError(t, bus.Subscribe(t.Context()))

	sent := &events.TaskFinished{
		BaseEvent: events.NewBaseEvent("inst-1"),
		TaskID:    "task-1",
		Outputs:   map[string]any{"status": "ok"},
	}
	require.NoError(t, bus.Publish(t.Context(), "inst-1", sent))

	select {
	case got := <-received:
		assert.Equal(t, "inst-1", got.InstanceID)
		assert.Equal(t, "task-1", got.TaskID)
		assert.Equal(t, "ok", got.Outputs["status"])
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestWatermillEventBus_IgnoresUnhandledEventTypes(t *testing.T) {
	t.Parallel()

	bus := setupTestBus(t)

	received := make(chan any, 1)

	err := bus.Handle(events.WorkflowFinishedEvent, func(_ context.Context, event any) error {
		received <- event

		return nil
	})
	require.NoError(t, err)

	require.NoError(t, bus.Subscribe(t.Context()))

	// No handler is registered for task starts; the message is acked and
	// dropped without touching the workflow handler.
	require.NoError(t, bus.Publish(t.Context(), "inst-1", &events.TaskStarted{
		BaseEvent: events.NewBaseEvent("inst-1"),
		TaskID:    "task-1",
	}))
	require.NoError(t, bus.Publish(t.Context(), "inst-1", &events.WorkflowFinished{
		BaseEvent: events.NewBaseEvent("inst-1"),
	}))

	select {
	case got := <-received:
		_, ok := got.(*events.WorkflowFinished)
		assert.True(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestWatermillEventBus_Notify(t *testing.T) {
	t.Parallel()

	pub, sub, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)
	t.Cleanup(func() { _ = bus.Close() })

	messages, err := sub.Subscribe(t.Context(), events.NotificationTopic)
	require.NoError(t, err)

	topic := events.TaskReportingTopic("inst-1", "task-1")
	notification := &events.Notification{
		Type:      events.TaskProgressEvent,
		Timestamp: time.Now().UTC(),
		Topic:     topic,
		Service:   "tracker-test",
		Data:      map[string]any{"done": float64(3)},
	}

	// Test channel publishes block until the subscriber acks, so the push
	// has to run alongside the receive below.
	notifyErr := make(chan error, 1)
	go func() {
		notifyErr <- bus.Notify(t.Context(), topic, notification)
	}()

	select {
	case msg := <-messages:
		msg.Ack()

		// The websocket routing topic travels in metadata because brokers
		// reject '/' in topic names.
		assert.Equal(t,
			"websocket/workflow/exec/inst-1/tasks/task-1/reporting",
			msg.Metadata.Get(events.WebsocketTopicMetadataKey))
		assert.Equal(t, string(events.TaskProgressEvent), msg.Metadata.Get(events.EventTypeMetadataKey))

		var decoded events.Notification
		require.NoError(t, json.Unmarshal(msg.Payload, &decoded))
		assert.Equal(t, notification.Topic, decoded.Topic)
		assert.Equal(t, notification.Data, decoded.Data)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for notification")
	}

	require.NoError(t, <-notifyErr)
}

func TestWatermillEventBus_GenerateID(t *testing.T) {
	t.Parallel()

	bus := setupTestBus(t)

	first := bus.GenerateID()
	second := bus.GenerateID()

	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
}
