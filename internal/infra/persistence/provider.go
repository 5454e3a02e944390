// Package persistence selects the key-value backend behind the stores.
package persistence

import (
	"context"
	"log/slog"
	"time"

	"storefront/config"
	"storefront/internal/domain/lifecycle"
	"storefront/internal/domain/repository"
	"storefront/internal/infra/persistence/memory"
	"storefront/internal/infra/persistence/postgres"
	"storefront/internal/infra/persistence/redis"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// StoreParams holds dependencies for the KeyValueStore, injected by Fx
type StoreParams struct {
	fx.In

	Lc     fx.Lifecycle
	Config *config.Config
	Logger *slog.Logger
}

// NewKeyValueStore creates the backend named by storage.provider, wrapped with the
// configured key prefix and per-call timeout.
func NewKeyValueStore(params StoreParams) (repository.KeyValueStore, error) {
	cfg := params.Config.Storage
	logger := params.Logger

	provider := config.StorageProviderMemory
	if cfg != nil && cfg.Provider != "" {
		provider = cfg.Provider
	}

	var store repository.KeyValueStore

	switch provider {
	case config.StorageProviderMemory:
		logger.Info("Using in-memory storage, data is lost on restart")

		store = memory.NewKeyValueStore()

	case config.StorageProviderRedis:
		client, err := redis.New(redis.Params{Lifecycle: params.Lc, Config: params.Config, Logger: logger})
		if err != nil {
			return nil, err
		}
		logger.Info("Using Redis storage", slog.String("addr", cfg.Redis.Addr))

		store = redis.NewKeyValueStore(client)

	case config.StorageProviderPostgres:
		db, err := postgres.New(postgres.Params{Lifecycle: params.Lc, Config: params.Config, Logger: logger})
		if err != nil {
			return nil, err
		}

		ctx, cancel := context.WithTimeout(context.Background(), lifecycle.DefaultTimeout)
		defer cancel()

		store, err = postgres.NewKeyValueStore(ctx, db)
		if err != nil {
			return nil, err
		}
		logger.Info("Using PostgreSQL storage")

	default:
		return nil, errors.Errorf("unknown storage provider: %s", provider)
	}

	var prefix string
	var timeout time.Duration
	if cfg != nil {
		prefix, timeout = cfg.KeyPrefix, cfg.OperationTimeout
	}

	return newBoundedStore(store, prefix, timeout), nil
}

// boundedStore prefixes every key and caps how long a single call may take.
type boundedStore struct {
	inner   repository.KeyValueStore
	prefix  string
	timeout time.Duration
}

func newBoundedStore(inner repository.KeyValueStore, prefix string, timeout time.Duration) repository.KeyValueStore {
	if prefix == "" && timeout <= 0 {
		return inner
	}

	return &boundedStore{inner: inner, prefix: prefix, timeout: timeout}
}

func (s *boundedStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}

	return context.WithTimeout(ctx, s.timeout)
}

func (s *boundedStore) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.inner.Get(ctx, s.prefix+key)
}

func (s *boundedStore) Set(ctx context.Context, key string, value []byte) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.inner.Set(ctx, s.prefix+key, value)
}

func (s *boundedStore) Delete(ctx context.Context, key string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.inner.Delete(ctx, s.prefix+key)
}

// Module provides the persistence FX module
//
//nolint:gochecknoglobals
var Module = fx.Options(
	fx.Provide(NewKeyValueStore),
)
