package pubsub

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	deliverycontext "storefront/internal/delivery/context"
	"storefront/internal/domain/service"

	"github.com/pkg/errors"
)

// orderMessage is an order event encoded once and shared by every transport.
type orderMessage struct {
	// Key groups one order's events; used as ordering key or partition key.
	Key        string
	ID         string
	Data       []byte
	Attributes map[string]string
	Time       time.Time
}

func newOrderMessage(event *service.OrderEvent) (*orderMessage, error) {
	if event == nil {
		return nil, errors.New("order event is nil")
	}

	data, err := json.Marshal(event)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode order event")
	}

	attributes := map[string]string{
		"type":     event.Type,
		"order_id": event.OrderID,
		"user_id":  event.UserID,
		"scope":    event.Scope,
	}
	if event.RequestID != "" {
		attributes["request_id"] = event.RequestID
	}

	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	return &orderMessage{
		Key:        event.OrderID,
		ID:         event.OrderID + "/" + event.Type,
		Data:       data,
		Attributes: attributes,
		Time:       occurredAt.UTC(),
	}, nil
}

// requestID returns the tracing id carried by the message, if any.
func (m *orderMessage) requestID() string {
	return m.Attributes["request_id"]
}

// eventLogger prefers the logger of the request that produced the event.
func eventLogger(ctx context.Context, fallback *slog.Logger, transport string, msg *orderMessage) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, fallback).With(
		slog.String("transport", transport),
		slog.String("type", msg.Attributes["type"]),
		slog.String("order_id", msg.Key),
	)
}
