package eventbus

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/dukex/pressdesk/pkg/events"
)

type WatermillEventBus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	logger     *slog.Logger
}

func NewWatermillEventBus(logger *slog.Logger, pub message.Publisher, sub message.Subscriber) *WatermillEventBus {
	return &WatermillEventBus{
		publisher:  pub,
		subscriber: sub,
		logger:     logger.With("module", "eventbus"),
	}
}

func (eb *WatermillEventBus) GenerateID() string {
	return watermill.NewULID()
}

func (eb *WatermillEventBus) Publish(_ context.Context, key string, event events.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := message.NewMessage("msg-"+eb.GenerateID(), payload)
	msg.Metadata.Set(events.EventMetadataKey, key)
	msg.Metadata.Set(events.EventTypeMetadataKey, string(event.GetType()))

	return eb.publisher.Publish(events.Topic, msg)
}

// Subscribe streams decoded events. A message is acked once the receiver has taken it;
// undecodable messages are acked and dropped.
func (eb *WatermillEventBus) Subscribe(ctx context.Context) (<-chan Envelope, error) {
	messages, err := eb.subscriber.Subscribe(ctx, events.Topic)
	if err != nil {
		return nil, err
	}

	out := make(chan Envelope)

	go func() {
		defer close(out)

		for msg := range messages {
			eventType := events.EventType(msg.Metadata.Get(events.EventTypeMetadataKey))

			event, err := events.Decode(eventType, msg.Payload)
			if err != nil {
				eb.logger.WarnContext(ctx, "Dropping undecodable event", "event_type", eventType, "error", err)
				msg.Ack()

				continue
			}

			select {
			case out <- Envelope{Key: msg.Metadata.Get(events.EventMetadataKey), Event: event}:
				msg.Ack()
			case <-ctx.Done():
				msg.Nack()

				return
			}
		}
	}()

	return out, nil
}

func (eb *WatermillEventBus) Close() error {
	err := eb.publisher.Close()
	if err != nil {
		return err
	}

	return eb.subscriber.Close()
}
