// Package cache stores fetched asset bytes and template payloads between runs.
//
// Three backends implement [Cache]:
//
//   - [FileCache] for the CLI, one JSON file per key under a cache directory
//   - [RedisCache] for the HTTP server, shared between replicas
//   - [NullCache] when caching is disabled
//
// Keys are produced by a [Keyer] so that every caller hashes its inputs the
// same way.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry expiry.
type Cache interface {
	// Get returns the cached value and true on a hit. A miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Default time-to-live values.
const (
	AssetTTL    = 7 * 24 * time.Hour
	TemplateTTL = time.Hour
)

// Keyer derives cache keys.
type Keyer interface {
	// AssetKey returns the key for the bytes behind an asset reference
	// (URL, data URI or file path).
	AssetKey(ref string) string

	// TemplateKey returns the key for a template payload from source.
	TemplateKey(source, id string) string
}

// DefaultKeyer hashes its inputs into fixed-length keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// AssetKey implements Keyer.
func (DefaultKeyer) AssetKey(ref string) string {
	return hashKey("asset", ref)
}

// TemplateKey implements Keyer.
func (DefaultKeyer) TemplateKey(source, id string) string {
	return hashKey("template", source, id)
}
