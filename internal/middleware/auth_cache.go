package middleware

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

const (
	accountCacheTTL    = 5 * time.Minute
	negativeCacheTTL   = 30 * time.Second
	maxCacheEntries    = 10000
	cacheCleanupPeriod = 60 * time.Second
)

// errCachedNotFound is returned for negative cache hits.
var errCachedNotFound = errors.New("account not found (cached)")

type cachedAccount struct {
	webID     uuid.UUID
	negative  bool
	fetchedAt time.Time
}

// ttl returns the appropriate TTL for this entry.
func (ca cachedAccount) ttl() time.Duration {
	if ca.negative {
		return negativeCacheTTL
	}
	return accountCacheTTL
}

// CachedActorLookup wraps an ActorLookup with a bounded in-memory cache.
// Concurrent misses for the same account are collapsed into a single
// database lookup via singleflight.
type CachedActorLookup struct {
	inner  ActorLookup
	flight singleflight.Group
	mu     sync.RWMutex
	cache  map[uuid.UUID]cachedAccount
}

// NewCachedActorLookup creates a caching wrapper around the given ActorLookup.
// The provided context controls the lifetime of the background eviction goroutine.
func NewCachedActorLookup(ctx context.Context, inner ActorLookup) *CachedActorLookup {
	c := &CachedActorLookup{
		inner: inner,
		cache: make(map[uuid.UUID]cachedAccount),
	}
	go c.evictLoop(ctx)
	return c
}

// evictLoop periodically removes expired entries from the cache.
func (c *CachedActorLookup) evictLoop(ctx context.Context) {
	ticker := time.NewTicker(cacheCleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			now := time.Now()
			for k, v := range c.cache {
				if now.Sub(v.fetchedAt) >= v.ttl() {
					delete(c.cache, k)
				}
			}
			c.mu.Unlock()
		}
	}
}

// GetAccountWeb returns a cached web ID or delegates to the inner lookup.
// Failed lookups are negatively cached for 30s so unknown actor IDs
// cannot hammer the accounts table.
func (c *CachedActorLookup) GetAccountWeb(ctx context.Context, accountID uuid.UUID) (uuid.UUID, error) {
	// Read path — RLock for concurrent cache hits.
	c.mu.RLock()
	entry, ok := c.cache[accountID]
	if ok && time.Since(entry.fetchedAt) < entry.ttl() {
		c.mu.RUnlock()
		if entry.negative {
			return uuid.Nil, errCachedNotFound
		}
		return entry.webID, nil
	}
	c.mu.RUnlock()

	// Cache miss or expired — fetch once per account across goroutines.
	v, err, _ := c.flight.Do(accountID.String(), func() (any, error) {
		webID, err := c.inner.GetAccountWeb(ctx, accountID)
		if err != nil {
			c.store(accountID, cachedAccount{negative: true, fetchedAt: time.Now()})
			return uuid.Nil, err
		}

		c.store(accountID, cachedAccount{webID: webID, fetchedAt: time.Now()})
		return webID, nil
	})
	if err != nil {
		return uuid.Nil, err
	}

	return v.(uuid.UUID), nil
}

// store inserts a cache entry, trimming the cache if it is over its limit.
func (c *CachedActorLookup) store(accountID uuid.UUID, entry cachedAccount) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.cache) >= maxCacheEntries {
		// Evict expired entries, then trim arbitrarily if still over limit.
		now := time.Now()
		for k, v := range c.cache {
			if now.Sub(v.fetchedAt) >= v.ttl() {
				delete(c.cache, k)
			}
		}
		for k := range c.cache {
			if len(c.cache) < maxCacheEntries {
				break
			}
			delete(c.cache, k)
		}
	}
	c.cache[accountID] = entry
}
