package impl

import (
	"context"
	"testing"
	"time"

	"storefront/internal/domain/entity"
	domainerrors "storefront/internal/domain/errors"
	"storefront/internal/domain/service"
	"storefront/internal/usecase"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func placeTestOrder(t *testing.T, ws usecase.Workspace) *entity.Order {
	t.Helper()

	item := entity.NewCartItem(testProduct(1, 100, 5))
	item.Quantity = 2

	order, err := ws.Orders().PlaceOrder(context.Background(), &usecase.PlaceOrderInput{
		Items:     []entity.CartItem{item},
		Total:     decimal.NewFromInt(200),
		ItemCount: 2,
		Address:   testAddress(),
	})
	require.NoError(t, err)

	return order
}

func TestOrderService_PlaceOrder(t *testing.T) {
	f := createTestWorkspaceManager(t, nil)
	f.allowEvents()
	ctx := context.Background()

	f.in(t, func(ws usecase.Workspace) {
		session := signUp(t, ws, "Ravi", "ravi@test.com")

		first := placeTestOrder(t, ws)
		assert.NotEmpty(t, first.ID)
		assert.Equal(t, session.ID, first.UserID)
		assert.Equal(t, entity.OrderStatusPlaced, first.Status)
		assert.Equal(t, f.clock.Now(), first.Date)
		assert.Nil(t, first.CancelledAt)
		require.NotNil(t, first.Address)
		assert.Equal(t, "560001", first.Address.Pin)

		f.clock.Advance(time.Minute)
		second := placeTestOrder(t, ws)
		assert.NotEqual(t, first.ID, second.ID)

		orders := ws.Orders().ListOrders(ctx)
		require.Len(t, orders, 2)
		assert.Equal(t, second.ID, orders[0].ID, "most recent first")
		assert.Equal(t, first.ID, orders[1].ID)
	})
}

func TestOrderService_PlaceOrderRequiresSession(t *testing.T) {
	f := createTestWorkspaceManager(t, nil)

	f.in(t, func(ws usecase.Workspace) {
		_, err := ws.Orders().PlaceOrder(context.Background(), &usecase.PlaceOrderInput{})
		assert.True(t, errors.Is(err, domainerrors.ErrAuthenticationRequired))
	})
}

func TestOrderService_SnapshotIsImmutable(t *testing.T) {
	f := createTestWorkspaceManager(t, nil)
	f.allowEvents()
	ctx := context.Background()

	f.in(t, func(ws usecase.Workspace) {
		signUp(t, ws, "Ravi", "ravi@test.com")

		items := []entity.CartItem{entity.NewCartItem(testProduct(1, 100, 5))}
		address := testAddress()
		order, err := ws.Orders().PlaceOrder(ctx, &usecase.PlaceOrderInput{
			Items:     items,
			Total:     decimal.NewFromInt(100),
			ItemCount: 1,
			Address:   address,
		})
		require.NoError(t, err)

		items[0].Price = decimal.NewFromInt(1)
		address.City = "Elsewhere"
		order.Items[0].Quantity = 99

		stored, err := ws.Orders().GetOrder(ctx, order.ID)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(100).Equal(stored.Items[0].Price))
		assert.Equal(t, 1, stored.Items[0].Quantity)
		assert.Equal(t, "Bengaluru", stored.Address.City)
	})
}

func TestOrderService_StatusFollowsAge(t *testing.T) {
	f := createTestWorkspaceManager(t, nil)
	f.allowEvents()
	ctx := context.Background()

	f.in(t, func(ws usecase.Workspace) {
		signUp(t, ws, "Ravi", "ravi@test.com")
		order := placeTestOrder(t, ws)
		placedAt := f.clock.Now()

		tests := []struct {
			age  time.Duration
			want entity.OrderStatus
		}{
			{time.Hour, entity.OrderStatusPlaced},
			{7 * time.Hour, entity.OrderStatusConfirmed},
			{5 * 24 * time.Hour, entity.OrderStatusOutForDelivery},
			{3 * 24 * time.Hour, entity.OrderStatusShipped},
			{7 * 24 * time.Hour, entity.OrderStatusDelivered},
		}

		for _, tt := range tests {
			f.clock.now = placedAt.Add(tt.age)

			got, err := ws.Orders().GetOrder(ctx, order.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Status, "age %s", tt.age)

			listed := ws.Orders().ListOrders(ctx)
			require.Len(t, listed, 1)
			assert.Equal(t, tt.want, listed[0].Status)
		}
	})
}

func TestOrderService_CancelIsTerminal(t *testing.T) {
	f := createTestWorkspaceManager(t, nil)
	f.allowEvents()
	ctx := context.Background()

	f.in(t, func(ws usecase.Workspace) {
		signUp(t, ws, "Ravi", "ravi@test.com")
		order := placeTestOrder(t, ws)

		f.clock.Advance(time.Hour)
		cancelledAt := f.clock.Now()

		cancelled, err := ws.Orders().CancelOrder(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.OrderStatusCancelled, cancelled.Status)
		require.NotNil(t, cancelled.CancelledAt)
		assert.Equal(t, cancelledAt, *cancelled.CancelledAt)

		f.clock.Advance(30 * 24 * time.Hour)

		reread, err := ws.Orders().GetOrder(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.OrderStatusCancelled, reread.Status, "cancelled orders never advance")
		require.NotNil(t, reread.CancelledAt)
		assert.Equal(t, cancelledAt, *reread.CancelledAt)

		_, err = ws.Orders().CancelOrder(ctx, order.ID)
		assert.True(t, errors.Is(err, domainerrors.ErrOrderNotCancellable))
	})
}

func TestOrderService_CancelEligibility(t *testing.T) {
	tests := []struct {
		name    string
		age     time.Duration
		wantErr error
	}{
		{"just placed", time.Minute, nil},
		{"confirmed", 12 * time.Hour, nil},
		{"shipped", 3 * 24 * time.Hour, domainerrors.ErrOrderNotCancellable},
		{"out for delivery", 5 * 24 * time.Hour, domainerrors.ErrOrderNotCancellable},
		{"delivered", 10 * 24 * time.Hour, domainerrors.ErrOrderNotCancellable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := createTestWorkspaceManager(t, nil)
			f.allowEvents()
			ctx := context.Background()

			f.in(t, func(ws usecase.Workspace) {
				signUp(t, ws, "Ravi", "ravi@test.com")
				order := placeTestOrder(t, ws)
				f.clock.Advance(tt.age)

				_, err := ws.Orders().CancelOrder(ctx, order.ID)
				if tt.wantErr != nil {
					assert.True(t, errors.Is(err, tt.wantErr))

					current, getErr := ws.Orders().GetOrder(ctx, order.ID)
					require.NoError(t, getErr)
					assert.Nil(t, current.CancelledAt)

					return
				}
				assert.NoError(t, err)
			})
		})
	}
}

func TestOrderService_CancelUnknownOrder(t *testing.T) {
	f := createTestWorkspaceManager(t, nil)
	ctx := context.Background()

	f.in(t, func(ws usecase.Workspace) {
		_, err := ws.Orders().CancelOrder(ctx, "missing")
		assert.True(t, errors.Is(err, domainerrors.ErrAuthenticationRequired))

		signUp(t, ws, "Ravi", "ravi@test.com")

		_, err = ws.Orders().CancelOrder(ctx, "missing")
		assert.True(t, errors.Is(err, domainerrors.ErrOrderNotFound))

		_, err = ws.Orders().GetOrder(ctx, "missing")
		assert.True(t, errors.Is(err, domainerrors.ErrOrderNotFound))
	})
}

func TestOrderService_UsersSeeOnlyTheirOrders(t *testing.T) {
	f := createTestWorkspaceManager(t, nil)
	f.allowEvents()
	ctx := context.Background()

	f.in(t, func(ws usecase.Workspace) {
		signUp(t, ws, "Ravi", "ravi@test.com")
		ravisOrder := placeTestOrder(t, ws)
		ws.Identity().Logout(ctx)

		assert.Empty(t, ws.Orders().ListOrders(ctx), "signed out sees nothing")

		signUp(t, ws, "Anita", "anita@test.com")
		assert.Empty(t, ws.Orders().ListOrders(ctx))

		_, err := ws.Orders().GetOrder(ctx, ravisOrder.ID)
		assert.True(t, errors.Is(err, domainerrors.ErrOrderNotFound))

		_, err = ws.Orders().CancelOrder(ctx, ravisOrder.ID)
		assert.True(t, errors.Is(err, domainerrors.ErrOrderNotFound))

		ws.Identity().Logout(ctx)
		_, err = ws.Identity().Login(ctx, &usecase.LoginInput{Email: "ravi@test.com", Password: "secret1"})
		require.NoError(t, err)

		orders := ws.Orders().ListOrders(ctx)
		require.Len(t, orders, 1)
		assert.Equal(t, ravisOrder.ID, orders[0].ID)
		assert.Nil(t, orders[0].CancelledAt)
	})
}

func TestOrderService_SurvivesReload(t *testing.T) {
	f := createTestWorkspaceManager(t, nil)
	f.allowEvents()
	ctx := context.Background()

	var placed *entity.Order
	f.in(t, func(ws usecase.Workspace) {
		signUp(t, ws, "Ravi", "ravi@test.com")
		placed = placeTestOrder(t, ws)
		_, err := ws.Orders().CancelOrder(ctx, placed.ID)
		require.NoError(t, err)
	})

	f.manager.Evict(usecase.DefaultScope)

	f.in(t, func(ws usecase.Workspace) {
		orders := ws.Orders().ListOrders(ctx)
		require.Len(t, orders, 1)
		assert.Equal(t, placed.ID, orders[0].ID)
		assert.Equal(t, entity.OrderStatusCancelled, orders[0].Status)
		assert.True(t, decimal.NewFromInt(200).Equal(orders[0].Total))
	})
}

func TestOrderService_PublishesLifecycleEvents(t *testing.T) {
	f := createTestWorkspaceManager(t, nil)
	ctx := context.Background()

	var userID string
	isEvent := func(eventType string) any {
		return mock.MatchedBy(func(event *service.OrderEvent) bool {
			return event.Type == eventType &&
				event.UserID == userID &&
				event.Scope == usecase.DefaultScope &&
				event.ItemCount == 2 &&
				event.Total.Equal(decimal.NewFromInt(200))
		})
	}

	f.publisher.On("PublishOrderEvent", mock.Anything, isEvent(service.OrderEventPlaced)).Return(nil).Once()
	f.publisher.On("PublishOrderEvent", mock.Anything, isEvent(service.OrderEventCancelled)).Return(nil).Once()

	f.in(t, func(ws usecase.Workspace) {
		userID = signUp(t, ws, "Ravi", "ravi@test.com").ID
		order := placeTestOrder(t, ws)

		_, err := ws.Orders().CancelOrder(ctx, order.ID)
		require.NoError(t, err)
	})
}

func TestOrderService_PublisherFailureIsTolerated(t *testing.T) {
	f := createTestWorkspaceManager(t, nil)
	f.publisher.On("PublishOrderEvent", mock.Anything, mock.Anything).Return(errors.New("broker unreachable"))
	ctx := context.Background()

	f.in(t, func(ws usecase.Workspace) {
		signUp(t, ws, "Ravi", "ravi@test.com")
		order := placeTestOrder(t, ws)

		_, err := ws.Orders().CancelOrder(ctx, order.ID)
		assert.NoError(t, err)
		assert.Len(t, ws.Orders().ListOrders(ctx), 1)
	})
}
