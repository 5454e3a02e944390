package usecase

import "context"

// DefaultScope is used when a client does not identify its storage scope.
const DefaultScope = "default"

// Workspace bundles the stores of one storage scope.
type Workspace interface {
	Identity() IdentityUsecase
	Cart() CartUsecase
	Orders() OrderUsecase
	Checkout() CheckoutUsecase
}

// WorkspaceManager hands out per-scope workspaces. Operations on the same scope run one at a time.
type WorkspaceManager interface {
	// Execute runs fn with the scope's workspace while holding the scope exclusively.
	Execute(ctx context.Context, scope string, fn func(ws Workspace) error) error

	// Evict drops the in-memory mirror of a scope; the next Execute reloads it from storage.
	Evict(scope string)
}
