package impl

import (
	"context"
	"log/slog"
	"slices"
	"time"

	deliverycontext "storefront/internal/delivery/context"
	"storefront/internal/domain/entity"
	domainerrors "storefront/internal/domain/errors"
	"storefront/internal/domain/repository"
	"storefront/internal/domain/service"
	"storefront/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// orderService implements the OrderUsecase interface. Orders are kept per user and are
// only reachable through the active session.
type orderService struct {
	storage  scopedStorage
	identity usecase.IdentityUsecase
	now      func() time.Time
	logger   *slog.Logger

	loaded bool
	orders map[string][]entity.Order // userID -> orders, most recent first
	// outbox holds lifecycle events until the workspace lock is released.
	outbox []*service.OrderEvent
}

func newOrderService(
	storage scopedStorage,
	identity usecase.IdentityUsecase,
	now func() time.Time,
	logger *slog.Logger,
) *orderService {
	return &orderService{
		storage:  storage,
		identity: identity,
		now:      now,
		logger:   logger,
		orders:   map[string][]entity.Order{},
	}
}

func (srv *orderService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

func (srv *orderService) hydrate(ctx context.Context) {
	if srv.loaded {
		return
	}

	var stored map[string][]entity.Order
	if _, err := srv.storage.load(ctx, srv.log(ctx), repository.KeyOrders, &stored); err != nil {
		return
	}
	srv.loaded = true

	if stored == nil {
		stored = map[string][]entity.Order{}
	}

	// Orders placed while storage was unreadable are newer than anything stored.
	merged := false
	for userID, pending := range srv.orders {
		for i := len(pending) - 1; i >= 0; i-- {
			order := pending[i]
			if slices.ContainsFunc(stored[userID], func(o entity.Order) bool { return o.ID == order.ID }) {
				continue
			}
			stored[userID] = append([]entity.Order{order}, stored[userID]...)
			merged = true
		}
	}
	srv.orders = stored

	if merged {
		srv.persist(ctx)
	}
}

// PlaceOrder records a new order for the signed-in user at the front of their history.
func (srv *orderService) PlaceOrder(ctx context.Context, input *usecase.PlaceOrderInput) (*entity.Order, error) {
	srv.hydrate(ctx)

	session := srv.identity.CurrentSession(ctx)
	if session == nil {
		return nil, domainerrors.ErrAuthenticationRequired
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate order id")
	}

	order := entity.Order{
		ID:        id.String(),
		UserID:    session.ID,
		Items:     slices.Clone(input.Items),
		Total:     input.Total,
		ItemCount: input.ItemCount,
		Date:      srv.now(),
		Status:    entity.OrderStatusPlaced,
	}
	if input.Address != nil {
		address := *input.Address
		order.Address = &address
	}

	srv.orders[session.ID] = append([]entity.Order{order}, srv.orders[session.ID]...)
	srv.persist(ctx)

	srv.log(ctx).Info("Order placed",
		slog.String("orderID", order.ID),
		slog.String("userID", order.UserID),
		slog.String("total", order.Total.String()),
		slog.Int("itemCount", order.ItemCount),
	)
	srv.enqueue(ctx, service.OrderEventPlaced, &order)

	placed := order.Clone()

	return &placed, nil
}

// CancelOrder cancels one of the signed-in user's orders while it is still Order Placed or Confirmed.
func (srv *orderService) CancelOrder(ctx context.Context, orderID string) (*entity.Order, error) {
	srv.hydrate(ctx)

	session := srv.identity.CurrentSession(ctx)
	if session == nil {
		return nil, domainerrors.ErrAuthenticationRequired
	}

	orders := srv.orders[session.ID]
	idx := slices.IndexFunc(orders, func(o entity.Order) bool { return o.ID == orderID })
	if idx < 0 {
		return nil, domainerrors.ErrOrderNotFound
	}

	now := srv.now()
	order := &orders[idx]
	if status := order.StatusAt(now); !status.IsCancellable() {
		srv.log(ctx).Info("Order cancellation rejected",
			slog.String("orderID", orderID),
			slog.String("status", string(status)),
		)

		return nil, domainerrors.ErrOrderNotCancellable.WrapMessage("order is " + string(status))
	}

	order.Cancel(now)
	srv.persist(ctx)

	srv.log(ctx).Info("Order cancelled", slog.String("orderID", orderID))
	srv.enqueue(ctx, service.OrderEventCancelled, order)

	view := order.WithDerivedStatus(now)

	return &view, nil
}

// GetOrder returns one of the signed-in user's orders with its derived status.
func (srv *orderService) GetOrder(ctx context.Context, orderID string) (*entity.Order, error) {
	srv.hydrate(ctx)

	session := srv.identity.CurrentSession(ctx)
	if session == nil {
		return nil, domainerrors.ErrAuthenticationRequired
	}

	for _, order := range srv.orders[session.ID] {
		if order.ID == orderID {
			view := order.WithDerivedStatus(srv.now())

			return &view, nil
		}
	}

	return nil, domainerrors.ErrOrderNotFound
}

// ListOrders returns the signed-in user's orders, most recent first. Empty when signed out.
func (srv *orderService) ListOrders(ctx context.Context) []entity.Order {
	srv.hydrate(ctx)

	session := srv.identity.CurrentSession(ctx)
	if session == nil {
		return []entity.Order{}
	}

	now := srv.now()
	orders := srv.orders[session.ID]
	views := make([]entity.Order, 0, len(orders))
	for i := range orders {
		views = append(views, orders[i].WithDerivedStatus(now))
	}

	return views
}

// persist writes the order book. Skipped before the first good read, so a partial
// mirror never replaces the stored orders.
func (srv *orderService) persist(ctx context.Context) {
	if !srv.loaded {
		return
	}
	srv.storage.save(ctx, srv.log(ctx), repository.KeyOrders, srv.orders)
}

// enqueue records an order event for publishing once the caller leaves the workspace.
func (srv *orderService) enqueue(ctx context.Context, eventType string, order *entity.Order) {
	srv.outbox = append(srv.outbox, &service.OrderEvent{
		RequestID:  deliverycontext.GetRequestIDFromContext(ctx),
		Type:       eventType,
		OrderID:    order.ID,
		UserID:     order.UserID,
		Scope:      srv.storage.scope,
		Total:      order.Total,
		ItemCount:  order.ItemCount,
		OccurredAt: srv.now(),
	})
}

// takeEvents empties the outbox.
func (srv *orderService) takeEvents() []*service.OrderEvent {
	events := srv.outbox
	srv.outbox = nil

	return events
}
