package impl

import (
	"context"
	"log/slog"

	deliverycontext "storefront/internal/delivery/context"
	"storefront/internal/domain/entity"
	domainerrors "storefront/internal/domain/errors"
	"storefront/internal/usecase"

	"github.com/pkg/errors"
)

// checkoutService implements the CheckoutUsecase interface. It has no state of its own.
type checkoutService struct {
	identity usecase.IdentityUsecase
	cart     usecase.CartUsecase
	orders   usecase.OrderUsecase
	logger   *slog.Logger
}

func newCheckoutService(
	identity usecase.IdentityUsecase,
	cart usecase.CartUsecase,
	orders usecase.OrderUsecase,
	logger *slog.Logger,
) *checkoutService {
	return &checkoutService{
		identity: identity,
		cart:     cart,
		orders:   orders,
		logger:   logger,
	}
}

// Checkout places an order from the current cart and empties the cart.
func (srv *checkoutService) Checkout(ctx context.Context, input *usecase.CheckoutInput) (*entity.Order, error) {
	logger := deliverycontext.GetLoggerOrDefault(ctx, srv.logger)

	if srv.identity.CurrentSession(ctx) == nil {
		return nil, domainerrors.ErrAuthenticationRequired
	}

	cart := srv.cart.Snapshot(ctx)
	if cart.IsEmpty() {
		return nil, domainerrors.ErrCartEmpty
	}

	var address *entity.Address
	if input != nil {
		address = input.Address
	}

	order, err := srv.orders.PlaceOrder(ctx, &usecase.PlaceOrderInput{
		Items:     cart.Items,
		Total:     cart.TotalPrice,
		ItemCount: cart.TotalItems,
		Address:   address,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to place order")
	}

	srv.cart.Clear(ctx)

	logger.Debug("Checkout completed", slog.String("orderID", order.ID))

	return order, nil
}
