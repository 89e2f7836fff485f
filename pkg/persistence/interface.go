package persistence

import "context"

// IKeyValueStore is the persistence capability the wallets and client use for
// the connected identity record and the EVM account cache.
// All implementations must be thread-safe.
type IKeyValueStore interface {
	// Get returns nil, nil when key does not exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set overwrites any existing value.
	Set(ctx context.Context, key string, value []byte) error

	// Remove is idempotent.
	Remove(ctx context.Context, key string) error

	// Close is idempotent. After Close all other operations return errors.
	Close() error

	// HealthCheck returns nil when the store is operational.
	HealthCheck() error
}
