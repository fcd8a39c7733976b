package media

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/reelroom/backend/internal/metrics"
	"github.com/reelroom/backend/internal/models"
)

const maxCacheEntries = 10000

type cacheEntry[V any] struct {
	value   V
	expires time.Time
}

// ttlStore is a bounded map whose entries expire after a fixed TTL.
type ttlStore[V any] struct {
	mu    sync.RWMutex
	items map[string]cacheEntry[V]
}

func newTTLStore[V any]() *ttlStore[V] {
	return &ttlStore[V]{items: make(map[string]cacheEntry[V])}
}

func (s *ttlStore[V]) get(key string, now time.Time) (V, bool) {
	s.mu.RLock()
	entry, ok := s.items[key]
	s.mu.RUnlock()
	if !ok || !now.Before(entry.expires) {
		var zero V
		return zero, false
	}
	return entry.value, true
}

func (s *ttlStore[V]) put(key string, value V, expires, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.items) >= maxCacheEntries {
		s.evictLocked(now)
	}
	s.items[key] = cacheEntry[V]{value: value, expires: expires}
}

func (s *ttlStore[V]) size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *ttlStore[V]) evictLocked(now time.Time) {
	for key, entry := range s.items {
		if !now.Before(entry.expires) {
			delete(s.items, key)
		}
	}
	if len(s.items) < maxCacheEntries {
		return
	}
	// Still full of live entries: drop an arbitrary one.
	for key := range s.items {
		delete(s.items, key)
		return
	}
}

// CachingProvider wraps another Provider with a TTL-based in-memory cache.
// When the wrapped provider is also a Catalog, catalog responses are cached
// the same way. Only successful results are cached.
type CachingProvider struct {
	base Provider
	ttl  time.Duration
	now  func() time.Time

	details *ttlStore[Details]
	catalog *ttlStore[any]
}

// NewCachingProvider returns a Provider that caches lookups for the provided TTL.
func NewCachingProvider(base Provider, ttl time.Duration) *CachingProvider {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachingProvider{
		base:    base,
		ttl:     ttl,
		now:     time.Now,
		details: newTTLStore[Details](),
		catalog: newTTLStore[any](),
	}
}

// Lookup returns cached details when available, otherwise it delegates to the
// underlying provider and stores the result.
func (c *CachingProvider) Lookup(ctx context.Context, kind models.MediaType, id string) (Details, error) {
	if c == nil || c.base == nil {
		return Details{}, ErrProviderUnavailable
	}

	key := cacheKey(kind, id)
	now := c.now()
	if details, ok := c.details.get(key, now); ok {
		metrics.MediaCacheHits.Inc()
		return details, nil
	}
	metrics.MediaCacheMisses.Inc()

	details, err := c.base.Lookup(ctx, kind, id)
	if err != nil {
		return Details{}, err
	}
	c.details.put(key, details, now.Add(c.ttl), now)
	return details, nil
}

func (c *CachingProvider) Browse(ctx context.Context, kind models.MediaType, listing Listing, page int) (CatalogPage, error) {
	key := fmt.Sprintf("browse|%s|%s|%d", kind, listing, page)
	return cachedCall(c, key, func(catalog Catalog) (CatalogPage, error) {
		return catalog.Browse(ctx, kind, listing, page)
	})
}

func (c *CachingProvider) Search(ctx context.Context, kind models.MediaType, query string, page int) (CatalogPage, error) {
	key := fmt.Sprintf("search|%s|%s|%d", kind, strings.ToLower(strings.TrimSpace(query)), page)
	return cachedCall(c, key, func(catalog Catalog) (CatalogPage, error) {
		return catalog.Search(ctx, kind, query, page)
	})
}

func (c *CachingProvider) Similar(ctx context.Context, kind models.MediaType, id string, page int) (CatalogPage, error) {
	key := fmt.Sprintf("similar|%s|%d", cacheKey(kind, id), page)
	return cachedCall(c, key, func(catalog Catalog) (CatalogPage, error) {
		return catalog.Similar(ctx, kind, id, page)
	})
}

func (c *CachingProvider) Credits(ctx context.Context, kind models.MediaType, id string) (Credits, error) {
	return cachedCall(c, "credits|"+cacheKey(kind, id), func(catalog Catalog) (Credits, error) {
		return catalog.Credits(ctx, kind, id)
	})
}

func (c *CachingProvider) Season(ctx context.Context, seriesID string, number int) (Season, error) {
	key := fmt.Sprintf("season|%s|%d", seriesID, number)
	return cachedCall(c, key, func(catalog Catalog) (Season, error) {
		return catalog.Season(ctx, seriesID, number)
	})
}

// Len reports the number of cached entries, expired ones included.
func (c *CachingProvider) Len() int {
	return c.details.size() + c.catalog.size()
}

func cachedCall[T any](c *CachingProvider, key string, fetch func(Catalog) (T, error)) (T, error) {
	var zero T
	if c == nil {
		return zero, ErrProviderUnavailable
	}
	catalog, ok := c.base.(Catalog)
	if !ok {
		return zero, ErrProviderUnavailable
	}

	now := c.now()
	if cached, ok := c.catalog.get(key, now); ok {
		if value, ok := cached.(T); ok {
			metrics.MediaCacheHits.Inc()
			return value, nil
		}
	}
	metrics.MediaCacheMisses.Inc()

	value, err := fetch(catalog)
	if err != nil {
		return zero, err
	}
	c.catalog.put(key, value, now.Add(c.ttl), now)
	return value, nil
}

var (
	_ Provider = (*CachingProvider)(nil)
	_ Catalog  = (*CachingProvider)(nil)
)
