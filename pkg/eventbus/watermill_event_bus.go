package eventbus

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/flowtrack-io/flowtrack/pkg/events"
	"github.com/flowtrack-io/flowtrack/pkg/otelhelper"
)

// WatermillEventBus carries both inbound engine events and outbound
// notifications over a watermill publisher/subscriber pair. Engine events
// travel on events.Topic keyed by instance id; notifications travel on
// events.NotificationTopic with the websocket topic in message metadata,
// since transports like Kafka reject '/' in topic names.
type WatermillEventBus struct {
	publisher     message.Publisher
	subscriber    message.Subscriber
	subscriptions map[events.EventType]EventHandler
	tracer        trace.Tracer
}

func NewWatermillEventBus(pub message.Publisher, sub message.Subscriber) EventBus {
	return &WatermillEventBus{
		publisher:     pub,
		subscriber:    sub,
		subscriptions: make(map[events.EventType]EventHandler),
	}
}

// SetTracer enables per-message tracing on the subscribe loop. Without it
// messages are consumed untraced.
func (eb *WatermillEventBus) SetTracer(tracer trace.Tracer) {
	eb.tracer = tracer
}

func (eb *WatermillEventBus) GenerateID() string {
	return watermill.NewULID()
}

func (eb *WatermillEventBus) Publish(ctx context.Context, key string, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := message.NewMessage("msg-"+eb.GenerateID(), payload)
	msg.Metadata.Set(events.EventMetadataKey, key)
	msg.Metadata.Set(events.EventTypeMetadataKey, string(event.GetType()))

	return eb.publisher.Publish(events.Topic, msg)
}

func (eb *WatermillEventBus) Notify(ctx context.Context, topic string, notification *events.Notification) error {
	payload, err := json.Marshal(notification)
	if err != nil {
		return err
	}

	msg := message.NewMessage("ntf-"+eb.GenerateID(), payload)
	msg.Metadata.Set(events.WebsocketTopicMetadataKey, events.WebsocketTopic(topic))
	msg.Metadata.Set(events.EventTypeMetadataKey, string(notification.Type))

	return eb.publisher.Publish(events.NotificationTopic, msg)
}

func (eb *WatermillEventBus) Subscribe(ctx context.Context) error {
	messages, err := eb.subscriber.Subscribe(ctx, events.Topic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			var event any

			eventType := events.EventType(msg.Metadata.Get(events.EventTypeMetadataKey))

			handler, exists := eb.subscriptions[eventType]
			if !exists {
				msg.Ack()

				continue
			}

			switch eventType {
			case events.WorkflowTriggeredEvent:
				event = &events.WorkflowTriggered{}
			case events.WorkflowStartedEvent:
				event = &events.WorkflowStarted{}
			case events.WorkflowProgressEvent:
				event = &events.WorkflowProgress{}
			case events.WorkflowFinishedEvent:
				event = &events.WorkflowFinished{}
			case events.WorkflowFailedEvent:
				event = &events.WorkflowFailed{}
			case events.TaskStartedEvent:
				event = &events.TaskStarted{}
			case events.TaskProgressEvent:
				event = &events.TaskProgress{}
			case events.TaskFinishedEvent:
				event = &events.TaskFinished{}
			case events.TaskFailedEvent:
				event = &events.TaskFailed{}
			case events.TaskTimeoutEvent:
				event = &events.TaskTimeout{}
			case events.ContactProgressEvent:
				event = &events.ContactProgress{}
			default:
				msg.Nack()

				continue
			}

			err := json.Unmarshal(msg.Payload, event)
			if err != nil {
				msg.Nack()

				continue
			}

			err = eb.dispatch(ctx, eventType, msg, handler, event)
			if err != nil {
				msg.Nack()

				continue
			}

			msg.Ack()
		}
	}()

	return nil
}

func (eb *WatermillEventBus) dispatch(
	ctx context.Context,
	eventType events.EventType,
	msg *message.Message,
	handler EventHandler,
	event any,
) error {
	if eb.tracer == nil {
		return handler(ctx, event)
	}

	spanCtx, span := otelhelper.StartSpan(ctx, eb.tracer, "eventbus consume",
		attribute.String(otelhelper.EventTypeKey, string(eventType)),
		attribute.String(otelhelper.InstanceIDKey, msg.Metadata.Get(events.EventMetadataKey)),
	)
	defer span.End()

	err := handler(spanCtx, event)
	if err != nil {
		otelhelper.SetError(span, err)

		return err
	}

	span.AddEvent("event_handled")

	return nil
}

func (eb *WatermillEventBus) Handle(eventType events.EventType, handler EventHandler) error {
	eb.subscriptions[eventType] = handler

	return nil
}

func (eb *WatermillEventBus) Close() error {
	err := eb.publisher.Close()
	if err != nil {
		return err
	}

	return eb.subscriber.Close()
}
