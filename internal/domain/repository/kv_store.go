// Package repository defines the persistence ports used by the stores.
package repository

import (
	"context"

	"storefront/internal/errors"
)

// ErrKeyNotFound is returned by KeyValueStore.Get when nothing is stored under the key.
var ErrKeyNotFound = errors.New("key not found")

// Keys under which each store persists its collection.
const (
	KeyUsers   = "sw_users"
	KeySession = "sw_session"
	KeyOrders  = "sw_orders"
	KeyCart    = "sw_cart"
)

// KeyValueStore is a persistent map of JSON documents. It offers no expiry and no locking;
// callers serialise their own writes.
type KeyValueStore interface {
	// Get returns the value stored under key, or ErrKeyNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// ScopedKey builds the backend key for a collection inside a storage scope.
func ScopedKey(scope, name string) string {
	return scope + ":" + name
}
