package templates

import (
	"context"
	"encoding/json"

	"github.com/matzehuels/mockup/pkg/cache"
	"github.com/matzehuels/mockup/pkg/observability"
)

// CachedStore serves repeated lookups from a cache.
type CachedStore struct {
	Store
	source string
	cache  cache.Cache
	keyer  cache.Keyer
}

// Cached wraps s. source distinguishes catalogs sharing one cache, for
// example the API base URL.
func Cached(s Store, source string, c cache.Cache, keyer cache.Keyer) *CachedStore {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	return &CachedStore{Store: s, source: source, cache: c, keyer: keyer}
}

// List implements Store.
func (s *CachedStore) List(ctx context.Context) ([]Summary, error) {
	key := s.keyer.TemplateKey(s.source, "")
	var out []Summary
	if s.load(ctx, key, &out) {
		return out, nil
	}
	out, err := s.Store.List(ctx)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, out)
	return out, nil
}

// Get implements Store.
func (s *CachedStore) Get(ctx context.Context, id string) (*Template, error) {
	key := s.keyer.TemplateKey(s.source, id)
	var t Template
	if s.load(ctx, key, &t) {
		return &t, nil
	}
	got, err := s.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, got)
	return got, nil
}

func (s *CachedStore) load(ctx context.Context, key string, v any) bool {
	data, ok, err := s.cache.Get(ctx, key)
	if err != nil || !ok || json.Unmarshal(data, v) != nil {
		observability.Cache().OnCacheMiss(ctx, "template")
		return false
	}
	observability.Cache().OnCacheHit(ctx, "template")
	return true
}

func (s *CachedStore) store(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if s.cache.Set(ctx, key, data, cache.TemplateTTL) == nil {
		observability.Cache().OnCacheSet(ctx, "template", len(data))
	}
}
