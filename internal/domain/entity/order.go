package entity

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is a stage of the simulated fulfilment timeline.
type OrderStatus string

const (
	OrderStatusPlaced         OrderStatus = "Order Placed"
	OrderStatusConfirmed      OrderStatus = "Confirmed"
	OrderStatusShipped        OrderStatus = "Shipped"
	OrderStatusOutForDelivery OrderStatus = "Out for Delivery"
	OrderStatusDelivered      OrderStatus = "Delivered"
	OrderStatusCancelled      OrderStatus = "Cancelled"
)

// OrderTimeline is the linear fulfilment sequence, earliest first.
var OrderTimeline = []OrderStatus{
	OrderStatusPlaced,
	OrderStatusConfirmed,
	OrderStatusShipped,
	OrderStatusOutForDelivery,
	OrderStatusDelivered,
}

// statusThresholds maps a minimum age (exclusive) to a status, longest age first.
var statusThresholds = []struct {
	age    time.Duration
	status OrderStatus
}{
	{6 * 24 * time.Hour, OrderStatusDelivered},
	{4 * 24 * time.Hour, OrderStatusOutForDelivery},
	{2 * 24 * time.Hour, OrderStatusShipped},
	{6 * time.Hour, OrderStatusConfirmed},
}

// DeriveOrderStatus maps the age of a non-cancelled order to its timeline stage.
func DeriveOrderStatus(placedAt, now time.Time) OrderStatus {
	age := now.Sub(placedAt)
	for _, threshold := range statusThresholds {
		if age > threshold.age {
			return threshold.status
		}
	}

	return OrderStatusPlaced
}

// Step returns the index of the status in OrderTimeline, or -1 for Cancelled.
func (s OrderStatus) Step() int {
	for i, status := range OrderTimeline {
		if status == s {
			return i
		}
	}

	return -1
}

// IsCancellable reports whether an order in this status may still be cancelled.
func (s OrderStatus) IsCancellable() bool {
	return s == OrderStatusPlaced || s == OrderStatusConfirmed
}

// Order is an immutable purchase snapshot. Only Status and CancelledAt change after creation.
//
// An order is either active, with its status derived from Date on every read, or cancelled,
// with CancelledAt set and the status fixed at Cancelled. The stored Status is never a
// derived value.
type Order struct {
	ID          string          `json:"id"`
	UserID      string          `json:"userId"`
	Items       []CartItem      `json:"items"`
	Total       decimal.Decimal `json:"total"`
	ItemCount   int             `json:"itemCount"`
	Address     *Address        `json:"address,omitempty"`
	Date        time.Time       `json:"date"`
	Status      OrderStatus     `json:"status"`
	CancelledAt *time.Time      `json:"cancelledAt,omitempty"`
}

// IsCancelled reports whether the order has reached the terminal state.
func (o *Order) IsCancelled() bool {
	return o.CancelledAt != nil || o.Status == OrderStatusCancelled
}

// StatusAt returns the status the order has at the given time.
func (o *Order) StatusAt(now time.Time) OrderStatus {
	if o.IsCancelled() {
		return OrderStatusCancelled
	}

	return DeriveOrderStatus(o.Date, now)
}

// Clone returns a deep copy of the order.
func (o *Order) Clone() Order {
	clone := *o
	clone.Items = slices.Clone(o.Items)
	if o.Address != nil {
		address := *o.Address
		clone.Address = &address
	}
	if o.CancelledAt != nil {
		cancelledAt := *o.CancelledAt
		clone.CancelledAt = &cancelledAt
	}

	return clone
}

// WithDerivedStatus returns a copy whose Status is the status at now.
func (o *Order) WithDerivedStatus(now time.Time) Order {
	view := o.Clone()
	view.Status = o.StatusAt(now)

	return view
}

// Cancel moves the order to the terminal state.
func (o *Order) Cancel(at time.Time) {
	cancelledAt := at
	o.Status = OrderStatusCancelled
	o.CancelledAt = &cancelledAt
}
