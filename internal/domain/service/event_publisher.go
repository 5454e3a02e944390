package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Order event types.
const (
	OrderEventPlaced    = "order.placed"
	OrderEventCancelled = "order.cancelled"
)

// OrderEvent describes a change in an order's lifecycle.
type OrderEvent struct {
	RequestID  string          `json:"request_id,omitempty"` // For distributed tracing
	Type       string          `json:"type"`
	OrderID    string          `json:"order_id"`
	UserID     string          `json:"user_id"`
	Scope      string          `json:"scope"`
	Total      decimal.Decimal `json:"total"`
	ItemCount  int             `json:"item_count"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// EventPublisher defines the interface for publishing events to a message queue
type EventPublisher interface {
	// PublishOrderEvent publishes an order lifecycle event
	PublishOrderEvent(ctx context.Context, event *OrderEvent) error

	// Close releases any resources held by the publisher
	Close() error
}
