// Package cache stores computed family layouts and rendered artifacts.
//
// # Overview
//
// Laying out a large family and rendering it to PNG are the expensive steps
// of a request. Both are pure functions of their inputs, so results are
// cached under content-addressed keys built by a [Keyer]:
//
//   - family:  people loaded from a source for a protocol key
//   - layout:  a [layout.Result] for a set of people and layout options
//   - artifact: a rendered SVG, PNG, DOT or JSON document
//
// # Backends
//
//   - [NullCache]: caching disabled
//   - [FileCache]: one file per entry, used by the CLI
//   - [RedisCache]: shared cache for the HTTP service
//
// All backends store opaque bytes with a TTL and treat corrupt or expired
// entries as misses.
//
// [layout.Result]: https://pkg.go.dev/github.com/matzehuels/kintree/pkg/layout#Result
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with per-entry expiry.
type Cache interface {
	// Get returns the entry for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of 0 never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the backend.
	Close() error
}

// Default TTLs per entry kind.
const (
	// TTLFamily bounds how stale people loaded from a source may get.
	TTLFamily = 10 * time.Minute

	// TTLLayout applies to layout results. Layouts are pure functions of
	// their key, so they only expire to bound storage.
	TTLLayout = 7 * 24 * time.Hour

	// TTLArtifact applies to rendered documents.
	TTLArtifact = 7 * 24 * time.Hour
)
