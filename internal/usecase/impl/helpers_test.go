package impl

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"storefront/internal/domain/entity"
	"storefront/internal/domain/repository"
	"storefront/internal/infra/persistence/memory"
	mockSvc "storefront/internal/mocks/service"
	"storefront/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

// plainHasher stands in for bcrypt so tests stay fast.
type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) {
	return "plain:" + password, nil
}

func (plainHasher) Check(password, hash string) bool {
	return hash == "plain:"+password
}

// unavailableKV fails every call, like a backend that is down.
type unavailableKV struct{}

var errBackendDown = errors.New("backend down")

func (unavailableKV) Get(context.Context, string) ([]byte, error) { return nil, errBackendDown }
func (unavailableKV) Set(context.Context, string, []byte) error  { return errBackendDown }
func (unavailableKV) Delete(context.Context, string) error       { return errBackendDown }

// flakyKV wraps a working store and fails the next failGets reads.
type flakyKV struct {
	repository.KeyValueStore

	mu       sync.Mutex
	failGets int
}

func (kv *flakyKV) failNextGets(n int) {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	kv.failGets = n
}

func (kv *flakyKV) Get(ctx context.Context, key string) ([]byte, error) {
	kv.mu.Lock()
	fail := kv.failGets > 0
	if fail {
		kv.failGets--
	}
	kv.mu.Unlock()

	if fail {
		return nil, errBackendDown
	}

	return kv.KeyValueStore.Get(ctx, key)
}

type workspaceFixtures struct {
	manager   *workspaceManager
	kv        repository.KeyValueStore
	clock     *fakeClock
	oauth     *mockSvc.MockOAuthAuthService
	publisher *mockSvc.MockEventPublisher
}

func createTestWorkspaceManager(t *testing.T, kv repository.KeyValueStore) workspaceFixtures {
	t.Helper()

	if kv == nil {
		kv = memory.NewKeyValueStore()
	}
	clock := &fakeClock{now: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
	oauth := mockSvc.NewMockOAuthAuthService(t)
	publisher := mockSvc.NewMockEventPublisher(t)

	manager := newWorkspaceManager(WorkspaceManagerParams{
		KV:                kv,
		Hasher:            plainHasher{},
		GoogleAuthService: oauth,
		Publisher:         publisher,
		Logger:            newDiscardLogger(),
	}, clock.Now)

	return workspaceFixtures{
		manager:   manager,
		kv:        kv,
		clock:     clock,
		oauth:     oauth,
		publisher: publisher,
	}
}

// allowEvents accepts any number of published order events.
func (f workspaceFixtures) allowEvents() {
	f.publisher.On("PublishOrderEvent", mock.Anything, mock.Anything).Return(nil).Maybe()
}

// in runs fn against the default scope.
func (f workspaceFixtures) in(t *testing.T, fn func(ws usecase.Workspace)) {
	t.Helper()
	f.inScope(t, usecase.DefaultScope, fn)
}

func (f workspaceFixtures) inScope(t *testing.T, scope string, fn func(ws usecase.Workspace)) {
	t.Helper()

	err := f.manager.Execute(context.Background(), scope, func(ws usecase.Workspace) error {
		fn(ws)

		return nil
	})
	require.NoError(t, err)
}

func testProduct(id int64, price int64, stock int) *entity.Product {
	return &entity.Product{
		ID:       id,
		Title:    "Product",
		Price:    decimal.NewFromInt(price),
		Category: "electronics",
		Image:    "https://example.com/p.png",
		Stock:    stock,
	}
}

func testAddress() *entity.Address {
	return &entity.Address{
		FullName: "Swati Singh",
		Phone:    "9876543210",
		Line1:    "12 MG Road",
		City:     "Bengaluru",
		State:    "Karnataka",
		Pin:      "560001",
		Type:     entity.AddressTypeHome,
	}
}

func signUp(t *testing.T, ws usecase.Workspace, name, email string) *entity.Session {
	t.Helper()

	session, err := ws.Identity().Register(context.Background(), &usecase.RegisterInput{
		Name:     name,
		Email:    email,
		Password: "secret1",
	})
	require.NoError(t, err)

	return session
}
