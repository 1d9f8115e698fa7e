package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"
)

// Handler processes one decoded event. A returned error nacks the message.
type Handler func(ctx context.Context, event *Event) error

// Consume feeds every message on topic to handle until ctx is cancelled or
// the subscriber is closed. Undecodable payloads are acked and dropped.
func Consume(ctx context.Context, subscriber message.Subscriber, topic string, handle Handler, logger *slog.Logger) error {
	messages, err := subscriber.Subscribe(ctx, topic)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}

	for msg := range messages {
		var event Event
		if err := json.Unmarshal(msg.Payload, &event); err != nil {
			logger.Warn("Dropping malformed event", "message_uuid", msg.UUID, "error", err)
			msg.Ack()
			continue
		}

		if err := handle(msg.Context(), &event); err != nil {
			logger.Error("Event handler failed",
				"event_id", event.ID,
				"event_type", event.Type,
				"error", err)
			msg.Nack()
			continue
		}
		msg.Ack()
	}
	return nil
}

// LogHandler writes each event to logger; used as the audit trail when no
// broker is configured.
func LogHandler(logger *slog.Logger) Handler {
	return func(ctx context.Context, event *Event) error {
		logger.Info("Domain event",
			"event_id", event.ID,
			"event_type", event.Type,
			"timestamp", event.Timestamp)
		return nil
	}
}
