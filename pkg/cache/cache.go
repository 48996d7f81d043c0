// Package cache stores layout results and rendered artifacts.
//
// # Backends
//
//   - [FileCache]: one JSON file per entry under a directory (CLI default)
//   - [RedisCache]: a shared Redis instance (server deployments)
//   - [NullCache]: stores nothing, used with --no-cache
//
// # Keys
//
// Keys are built by a [Keyer] from a content hash of the input and the
// options that influence the output, so equal inputs with equal options hit
// the same entry no matter which process computed it:
//
//	key := keyer.LayoutKey(cache.Hash(scenario), cache.LayoutKeyOpts{RotateOnTie: false})
//	data, hit, err := c.Get(ctx, key)
//
// A [ScopedKeyer] prefixes every key, which separates tenants sharing one
// Redis instance.
package cache

import (
	"context"
	"time"
)

// Default entry lifetimes.
const (
	// TTLLayout is how long a layout result stays valid. Layouts are a pure
	// function of their input, so the limit only bounds disk use.
	TTLLayout = 30 * 24 * time.Hour

	// TTLArtifact is how long a rendered artifact stays valid.
	TTLArtifact = 7 * 24 * time.Hour
)

// Cache is a byte store with per-entry expiry. Implementations must be safe
// for concurrent use.
type Cache interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the cache.
	Close() error
}

// Clearer is implemented by caches that can drop all their entries.
type Clearer interface {
	// Clear removes every entry and returns how many were removed.
	Clear(ctx context.Context) (int, error)
}
