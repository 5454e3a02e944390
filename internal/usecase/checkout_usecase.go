package usecase

import (
	"context"

	"storefront/internal/domain/entity"
)

// CheckoutInput carries the validated delivery address.
type CheckoutInput struct {
	Address *entity.Address
}

// CheckoutUsecase turns the cart into an order for the signed-in user.
type CheckoutUsecase interface {
	Checkout(ctx context.Context, input *CheckoutInput) (*entity.Order, error)
}
