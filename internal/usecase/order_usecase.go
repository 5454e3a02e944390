package usecase

import (
	"context"

	"storefront/internal/domain/entity"

	"github.com/shopspring/decimal"
)

// PlaceOrderInput is the cart snapshot an order is created from.
type PlaceOrderInput struct {
	Items     []entity.CartItem
	Total     decimal.Decimal
	ItemCount int
	Address   *entity.Address
}

// OrderUsecase owns the order history of the signed-in user.
type OrderUsecase interface {
	PlaceOrder(ctx context.Context, input *PlaceOrderInput) (*entity.Order, error)
	CancelOrder(ctx context.Context, orderID string) (*entity.Order, error)
	GetOrder(ctx context.Context, orderID string) (*entity.Order, error)
	// ListOrders returns the user's orders, most recent first, with derived statuses.
	ListOrders(ctx context.Context) []entity.Order
}
