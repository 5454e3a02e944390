package impl

import (
	"context"
	"sync"
	"testing"

	"storefront/internal/domain/repository"
	"storefront/internal/domain/service"
	"storefront/internal/infra/persistence/memory"
	"storefront/internal/usecase"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestWorkspaceManager_ScopesAreIsolated(t *testing.T) {
	f := createTestWorkspaceManager(t, nil)
	ctx := context.Background()

	f.inScope(t, "browser-a", func(ws usecase.Workspace) {
		signUp(t, ws, "Ravi", "ravi@test.com")
		ws.Cart().AddOrIncrement(ctx, testProduct(1, 100, 5))
	})

	f.inScope(t, "browser-b", func(ws usecase.Workspace) {
		assert.Nil(t, ws.Identity().CurrentSession(ctx))
		assert.True(t, ws.Cart().Snapshot(ctx).IsEmpty())

		signUp(t, ws, "Ravi", "ravi@test.com")
	})

	_, err := f.kv.Get(ctx, repository.ScopedKey("browser-a", repository.KeyUsers))
	assert.NoError(t, err)
	_, err = f.kv.Get(ctx, repository.ScopedKey("browser-b", repository.KeyUsers))
	assert.NoError(t, err)
	_, err = f.kv.Get(ctx, repository.ScopedKey("browser-b", repository.KeyCart))
	assert.ErrorIs(t, err, repository.ErrKeyNotFound)
}

func TestWorkspaceManager_BlankScopeIsDefault(t *testing.T) {
	f := createTestWorkspaceManager(t, nil)
	ctx := context.Background()

	f.inScope(t, "   ", func(ws usecase.Workspace) {
		signUp(t, ws, "Ravi", "ravi@test.com")
	})

	f.in(t, func(ws usecase.Workspace) {
		assert.NotNil(t, ws.Identity().CurrentSession(ctx))
	})
}

func TestWorkspaceManager_ReturnsCallbackError(t *testing.T) {
	f := createTestWorkspaceManager(t, nil)
	sentinel := errors.New("stop")

	err := f.manager.Execute(context.Background(), "s", func(usecase.Workspace) error {
		return sentinel
	})
	assert.Equal(t, sentinel, err)
}

func TestWorkspaceManager_EvictReloadsFromStorage(t *testing.T) {
	f := createTestWorkspaceManager(t, nil)
	ctx := context.Background()

	var first usecase.Workspace
	f.in(t, func(ws usecase.Workspace) {
		first = ws
		signUp(t, ws, "Ravi", "ravi@test.com")
	})

	f.in(t, func(ws usecase.Workspace) {
		assert.Same(t, first, ws, "workspace is reused until evicted")
	})

	f.manager.Evict(usecase.DefaultScope)

	f.in(t, func(ws usecase.Workspace) {
		assert.NotSame(t, first, ws)
		require.NotNil(t, ws.Identity().CurrentSession(ctx))
		assert.Equal(t, "Ravi", ws.Identity().CurrentSession(ctx).Name)
	})
}

func TestWorkspaceManager_KeepsWorkingWhenStorageIsDown(t *testing.T) {
	f := createTestWorkspaceManager(t, unavailableKV{})
	f.allowEvents()
	ctx := context.Background()

	f.in(t, func(ws usecase.Workspace) {
		signUp(t, ws, "Ravi", "ravi@test.com")
		ws.Identity().Logout(ctx)

		_, err := ws.Identity().Login(ctx, &usecase.LoginInput{Email: "ravi@test.com", Password: "secret1"})
		require.NoError(t, err)

		ws.Cart().AddOrIncrement(ctx, testProduct(1, 100, 5))
		order, err := ws.Checkout().Checkout(ctx, &usecase.CheckoutInput{Address: testAddress()})
		require.NoError(t, err)

		_, err = ws.Orders().CancelOrder(ctx, order.ID)
		require.NoError(t, err)
		assert.Len(t, ws.Orders().ListOrders(ctx), 1)
	})

	f.manager.Evict(usecase.DefaultScope)

	f.in(t, func(ws usecase.Workspace) {
		assert.Nil(t, ws.Identity().CurrentSession(ctx), "nothing survives without storage")
	})
}

func TestWorkspaceManager_SerialisesCallsPerScope(t *testing.T) {
	f := createTestWorkspaceManager(t, nil)
	ctx := context.Background()

	const workers = 20

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_ = f.manager.Execute(ctx, usecase.DefaultScope, func(ws usecase.Workspace) error {
				ws.Cart().AddOrIncrement(ctx, testProduct(1, 100, workers*2))

				return nil
			})
		}()
	}
	wg.Wait()

	f.in(t, func(ws usecase.Workspace) {
		cart := ws.Cart().Snapshot(ctx)
		require.Len(t, cart.Items, 1)
		assert.Equal(t, workers, cart.Items[0].Quantity)
	})
}

func TestWorkspaceManager_TransientReadFailureKeepsStoredAccounts(t *testing.T) {
	kv := &flakyKV{KeyValueStore: memory.NewKeyValueStore()}
	f := createTestWorkspaceManager(t, kv)
	ctx := context.Background()

	f.in(t, func(ws usecase.Workspace) {
		signUp(t, ws, "Ravi", "ravi@test.com")
	})
	f.manager.Evict(usecase.DefaultScope)

	kv.failNextGets(1)
	f.in(t, func(ws usecase.Workspace) {
		signUp(t, ws, "Anita", "anita@test.com")
	})
	f.manager.Evict(usecase.DefaultScope)

	f.in(t, func(ws usecase.Workspace) {
		session := ws.Identity().CurrentSession(ctx)
		require.NotNil(t, session)
		assert.Equal(t, "Anita", session.Name)

		ws.Identity().Logout(ctx)
		_, err := ws.Identity().Login(ctx, &usecase.LoginInput{Email: "ravi@test.com", Password: "secret1"})
		require.NoError(t, err)
	})
}

func TestWorkspaceManager_OutageWritesNothingUntilStorageIsRead(t *testing.T) {
	kv := &flakyKV{KeyValueStore: memory.NewKeyValueStore()}
	f := createTestWorkspaceManager(t, kv)
	f.allowEvents()
	ctx := context.Background()

	var ravisOrder string
	f.in(t, func(ws usecase.Workspace) {
		signUp(t, ws, "Ravi", "ravi@test.com")
		ws.Cart().AddOrIncrement(ctx, testProduct(1, 100, 5))
		order, err := ws.Checkout().Checkout(ctx, &usecase.CheckoutInput{Address: testAddress()})
		require.NoError(t, err)
		ravisOrder = order.ID
	})
	f.manager.Evict(usecase.DefaultScope)

	storedOrders, err := kv.KeyValueStore.Get(ctx, repository.ScopedKey(usecase.DefaultScope, repository.KeyOrders))
	require.NoError(t, err)

	var anitasOrder string
	kv.failNextGets(1000)
	f.in(t, func(ws usecase.Workspace) {
		signUp(t, ws, "Anita", "anita@test.com")
		ws.Cart().AddOrIncrement(ctx, testProduct(2, 50, 5))
		order, err := ws.Checkout().Checkout(ctx, &usecase.CheckoutInput{Address: testAddress()})
		require.NoError(t, err)
		anitasOrder = order.ID
	})

	afterOutage, err := kv.KeyValueStore.Get(ctx, repository.ScopedKey(usecase.DefaultScope, repository.KeyOrders))
	require.NoError(t, err)
	assert.Equal(t, storedOrders, afterOutage, "nothing is written while storage is unreadable")

	kv.failNextGets(0)
	f.in(t, func(ws usecase.Workspace) {
		orders := ws.Orders().ListOrders(ctx)
		require.Len(t, orders, 1)
		assert.Equal(t, anitasOrder, orders[0].ID)
	})
	f.manager.Evict(usecase.DefaultScope)

	f.in(t, func(ws usecase.Workspace) {
		require.NotNil(t, ws.Identity().CurrentSession(ctx))
		assert.Len(t, ws.Orders().ListOrders(ctx), 1)
		assert.True(t, ws.Cart().Snapshot(ctx).IsEmpty())

		ws.Identity().Logout(ctx)
		_, err := ws.Identity().Login(ctx, &usecase.LoginInput{Email: "ravi@test.com", Password: "secret1"})
		require.NoError(t, err)

		orders := ws.Orders().ListOrders(ctx)
		require.Len(t, orders, 1)
		assert.Equal(t, ravisOrder, orders[0].ID)
	})
}

func TestWorkspaceManager_EvictsLeastRecentlyUsedScope(t *testing.T) {
	f := createTestWorkspaceManager(t, nil)
	f.manager.limit = 2
	ctx := context.Background()

	f.inScope(t, "a", func(ws usecase.Workspace) {
		signUp(t, ws, "Ravi", "ravi@test.com")
	})
	f.inScope(t, "b", func(usecase.Workspace) {})
	f.inScope(t, "a", func(usecase.Workspace) {})
	f.inScope(t, "c", func(usecase.Workspace) {})

	assert.Len(t, f.manager.workspaces, 2)
	assert.Contains(t, f.manager.workspaces, "a")
	assert.NotContains(t, f.manager.workspaces, "b")

	f.inScope(t, "d", func(usecase.Workspace) {})
	assert.NotContains(t, f.manager.workspaces, "a")

	f.inScope(t, "a", func(ws usecase.Workspace) {
		session := ws.Identity().CurrentSession(ctx)
		require.NotNil(t, session, "evicted scope reloads from storage")
		assert.Equal(t, "Ravi", session.Name)
	})
}

func TestWorkspaceManager_KeepsBusyScopeResident(t *testing.T) {
	f := createTestWorkspaceManager(t, nil)
	f.manager.limit = 1

	f.inScope(t, "a", func(usecase.Workspace) {
		f.inScope(t, "b", func(usecase.Workspace) {})

		assert.Contains(t, f.manager.workspaces, "a", "a caller is inside a")
	})

	f.inScope(t, "c", func(usecase.Workspace) {})
	assert.Len(t, f.manager.workspaces, 1)
	assert.Contains(t, f.manager.workspaces, "c")
}

func TestWorkspaceManager_PublishesAfterReleasingScope(t *testing.T) {
	f := createTestWorkspaceManager(t, nil)
	ctx := context.Background()

	var published []string
	f.publisher.On("PublishOrderEvent", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			publishCtx := args.Get(0).(context.Context)
			_, bounded := publishCtx.Deadline()
			assert.True(t, bounded, "publishing has its own deadline")

			ws := f.manager.workspaces[usecase.DefaultScope]
			require.True(t, ws.mu.TryLock(), "scope lock is free while publishing")
			ws.mu.Unlock()

			published = append(published, args.Get(1).(*service.OrderEvent).Type)
		}).
		Return(nil)

	f.in(t, func(ws usecase.Workspace) {
		signUp(t, ws, "Ravi", "ravi@test.com")
		order := placeTestOrder(t, ws)

		_, err := ws.Orders().CancelOrder(ctx, order.ID)
		require.NoError(t, err)

		assert.Empty(t, published, "nothing is sent while the scope is held")
	})

	assert.Equal(t, []string{service.OrderEventPlaced, service.OrderEventCancelled}, published)
}
