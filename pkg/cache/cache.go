// Package cache stores rendered artifacts and reports keyed by content hash.
//
// Three backends implement [Cache]: [NullCache] (caching disabled),
// [FileCache] (CLI use, one JSON file per entry) and [RedisCache] (shared
// by `jarscope serve` replicas). Keys come from a [Keyer] so that callers
// never build key strings by hand.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry expiry.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}
