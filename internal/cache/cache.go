package cache

import (
	"context"
	"time"
)

// Cache is the draft cache abstraction. Drafts are also persisted in
// SQLite; the cache is a fast read path for clients polling the latest
// autosave, so every write here is fire-and-forget and a total cache
// outage only costs latency, never data.
type Cache interface {
	// Get retrieves a value. The bool reports whether the key was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with an optional TTL (0 means no expiry).
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources.
	Close() error
}
