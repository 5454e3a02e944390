package redis

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"

	"storefront/config"
	"storefront/internal/domain/repository"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
)

// newTestClient connects to TEST_REDIS_ADDR, skipping when it is not set.
func newTestClient(t *testing.T) *goredis.Client {
	t.Helper()

	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}

	client := goredis.NewClient(&goredis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(context.Background()).Err())

	return client
}

func TestKVStore_RoundTrip(t *testing.T) {
	store := NewKeyValueStore(newTestClient(t))
	ctx := context.Background()

	key := repository.ScopedKey("test-"+uuid.NewString(), repository.KeySession)
	t.Cleanup(func() { _ = store.Delete(ctx, key) })

	_, err := store.Get(ctx, key)
	assert.ErrorIs(t, err, repository.ErrKeyNotFound)

	require.NoError(t, store.Set(ctx, key, []byte(`{"id":"u1"}`)))
	value, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"u1"}`, string(value))

	require.NoError(t, store.Delete(ctx, key))
	_, err = store.Get(ctx, key)
	assert.ErrorIs(t, err, repository.ErrKeyNotFound)
}

func TestNew_RequiresAddress(t *testing.T) {
	_, err := New(Params{
		Lifecycle: fxtest.NewLifecycle(t),
		Config:    &config.Config{Storage: &config.StorageConfig{Redis: &config.RedisConfig{}}},
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	assert.ErrorContains(t, err, "storage.redis.addr")
}
