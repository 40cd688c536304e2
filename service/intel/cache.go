package intel

import (
	"context"
	"log/slog"
	"sync"
)

// Cache is an explicit cache object with a defined lifecycle: constructed
// once at process start and injected into callers, never ambient global
// state, so tests can substitute a fresh instance per case.
//
// The table is populated lazily on first use and treated as read-mostly for
// the remainder of the process lifetime; callers tolerate a stale cache until
// restart.
type Cache struct {
	store  Store
	logger *slog.Logger

	mu      sync.RWMutex
	loaded  bool
	entries map[string][]string
}

// NewCache creates a cache over the given store. A nil store yields a cache
// that always misses, for deployments without the scraper database.
func NewCache(store Store, logger *slog.Logger) *Cache {
	return &Cache{
		store:  store,
		logger: logger,
	}
}

// Domains returns the phishing domains associated with a drainer address, or
// nil when none are known. The first call loads the full table; a load
// failure is logged and retried on the next call rather than cached.
func (c *Cache) Domains(ctx context.Context, address string) ([]string, error) {
	c.mu.RLock()
	if c.loaded {
		domains := c.entries[address]
		c.mu.RUnlock()
		return domains, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded {
		return c.entries[address], nil
	}

	if c.store == nil {
		c.entries = map[string][]string{}
		c.loaded = true
		return nil, nil
	}

	entries, err := c.store.All(ctx)
	if err != nil {
		c.logger.WarnContext(ctx, "failed to load domain associations", "error", err)
		return nil, err
	}

	c.entries = entries
	c.loaded = true
	c.logger.InfoContext(ctx, "domain associations loaded", "drainers", len(entries))
	return c.entries[address], nil
}
