package impl

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	deliverycontext "storefront/internal/delivery/context"
	"storefront/internal/domain/repository"
	"storefront/internal/domain/service"
	"storefront/internal/usecase"

	"go.uber.org/fx"
)

// workspace holds the stores of one storage scope. mu serialises every operation on them.
type workspace struct {
	mu sync.Mutex

	// Guarded by workspaceManager.mu.
	active   int
	lastUsed uint64

	identity *identityService
	cart     *cartService
	orders   *orderService
	checkout *checkoutService
}

func (ws *workspace) Identity() usecase.IdentityUsecase { return ws.identity }
func (ws *workspace) Cart() usecase.CartUsecase         { return ws.cart }
func (ws *workspace) Orders() usecase.OrderUsecase      { return ws.orders }
func (ws *workspace) Checkout() usecase.CheckoutUsecase { return ws.checkout }

// workspaceManager implements the WorkspaceManager interface.
type workspaceManager struct {
	kv                repository.KeyValueStore
	hasher            service.PasswordHasher
	googleAuthService service.OAuthAuthService
	publisher         service.EventPublisher
	now               func() time.Time
	logger            *slog.Logger

	mu         sync.Mutex
	workspaces map[string]*workspace
	limit      int
	clock      uint64
}

// defaultWorkspaceLimit caps the mirrors held in memory. Stored data outlives eviction.
const defaultWorkspaceLimit = 1024

// WorkspaceManagerParams holds dependencies for the WorkspaceManager, injected by Fx.
type WorkspaceManagerParams struct {
	fx.In

	KV                repository.KeyValueStore
	Hasher            service.PasswordHasher
	GoogleAuthService service.OAuthAuthService
	Publisher         service.EventPublisher
	Logger            *slog.Logger
}

// NewWorkspaceManager is the constructor for workspaceManager.
func NewWorkspaceManager(params WorkspaceManagerParams) usecase.WorkspaceManager {
	return newWorkspaceManager(params, time.Now)
}

func newWorkspaceManager(params WorkspaceManagerParams, now func() time.Time) *workspaceManager {
	return &workspaceManager{
		kv:                params.KV,
		hasher:            params.Hasher,
		googleAuthService: params.GoogleAuthService,
		publisher:         params.Publisher,
		now:               now,
		logger:            params.Logger,
		workspaces:        map[string]*workspace{},
		limit:             defaultWorkspaceLimit,
	}
}

// Execute runs fn against the scope's workspace, one caller at a time per scope.
func (m *workspaceManager) Execute(ctx context.Context, scope string, fn func(ws usecase.Workspace) error) error {
	ws := m.acquire(normalizeScope(scope))
	defer m.release(ws)

	events, err := ws.run(fn)
	m.publish(ctx, events)

	return err
}

// run calls fn under the workspace lock and collects the order events it queued.
func (ws *workspace) run(fn func(usecase.Workspace) error) ([]*service.OrderEvent, error) {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	err := fn(ws)

	return ws.orders.takeEvents(), err
}

// publishTimeout bounds each event publish so a slow broker only delays its own request.
const publishTimeout = 5 * time.Second

// publish sends order events outside the scope lock. Failures are logged and never
// reach the caller.
func (m *workspaceManager) publish(ctx context.Context, events []*service.OrderEvent) {
	if m.publisher == nil {
		return
	}

	for _, event := range events {
		publishCtx, cancel := context.WithTimeout(ctx, publishTimeout)
		err := m.publisher.PublishOrderEvent(publishCtx, event)
		cancel()

		if err != nil {
			deliverycontext.GetLoggerOrDefault(ctx, m.logger).Warn("Failed to publish order event",
				slog.String("type", event.Type),
				slog.String("orderID", event.OrderID),
				slog.Any("error", err),
			)
		}
	}
}

// Evict forgets the in-memory mirror of a scope. Stored data is kept.
func (m *workspaceManager) Evict(scope string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.workspaces, normalizeScope(scope))
}

func (m *workspaceManager) acquire(scope string) *workspace {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.clock++
	ws, ok := m.workspaces[scope]
	if !ok {
		ws = m.build(scope)
		m.workspaces[scope] = ws
		m.logger.Debug("Workspace created", slog.String("scope", scope))
	}
	ws.active++
	ws.lastUsed = m.clock

	if !ok {
		m.evictIdle()
	}

	return ws
}

func (m *workspaceManager) release(ws *workspace) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ws.active--
}

// evictIdle drops least recently used workspaces until the limit holds. A workspace
// with a caller inside is never dropped, so a scope never has two live mirrors.
// Callers hold m.mu.
func (m *workspaceManager) evictIdle() {
	for len(m.workspaces) > m.limit {
		victim := ""
		var oldest uint64
		for scope, ws := range m.workspaces {
			if ws.active > 0 {
				continue
			}
			if victim == "" || ws.lastUsed < oldest {
				victim, oldest = scope, ws.lastUsed
			}
		}
		if victim == "" {
			return
		}

		delete(m.workspaces, victim)
		m.logger.Debug("Workspace evicted", slog.String("scope", victim))
	}
}

func (m *workspaceManager) build(scope string) *workspace {
	storage := scopedStorage{kv: m.kv, scope: scope}
	logger := m.logger.With(slog.String("scope", scope))

	identity := newIdentityService(storage, m.hasher, m.googleAuthService, m.now, logger)
	cart := newCartService(storage, logger)
	orders := newOrderService(storage, identity, m.now, logger)

	return &workspace{
		identity: identity,
		cart:     cart,
		orders:   orders,
		checkout: newCheckoutService(identity, cart, orders, logger),
	}
}

func normalizeScope(scope string) string {
	scope = strings.TrimSpace(scope)
	if scope == "" {
		return usecase.DefaultScope
	}

	return scope
}
