// Package cache provides the key-value storage behind layout and artifact
// caching.
//
// Three backends implement [Cache]: [FileCache] for the CLI, [RedisCache]
// for the preview server, and [NullCache] to disable caching. Keys are
// built by a [Keyer] so every backend shares the same namespace layout.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key-value store with optional expiry.
type Cache interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Default time-to-live values for cached entries.
const (
	LayoutTTL   = 7 * 24 * time.Hour
	ArtifactTTL = 24 * time.Hour
	IconTTL     = 30 * 24 * time.Hour
)
