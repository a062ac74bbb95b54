package cache

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/rxtech-lab/argo-screener/internal/types"
)

const (
	entryOverheadBytes = 512
	tradeSizeBytes     = 128
)

type memoryEntry struct {
	key       string
	result    types.BacktestResult
	expiresAt time.Time
	size      int64
}

// MemoryCache is an in-process ResultCache with per-entry TTL and least recently
// used eviction once the estimated memory use exceeds the budget.
type MemoryCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	budget  int64
	now     func() time.Time
	lru     *list.List
	entries map[string]*list.Element
	used    int64

	hits      uint64
	misses    uint64
	evictions uint64
}

var _ ResultCache = (*MemoryCache)(nil)

// MemoryOption configures a MemoryCache.
type MemoryOption func(*MemoryCache)

// WithClock replaces the clock used for expiry.
func WithClock(now func() time.Time) MemoryOption {
	return func(c *MemoryCache) {
		c.now = now
	}
}

// NewMemoryCache creates a MemoryCache. A non-positive ttl disables expiry and
// a non-positive budget disables eviction.
func NewMemoryCache(ttl time.Duration, budgetBytes int64, opts ...MemoryOption) *MemoryCache {
	c := &MemoryCache{
		ttl:     ttl,
		budget:  budgetBytes,
		now:     time.Now,
		lru:     list.New(),
		entries: make(map[string]*list.Element),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Get implements ResultCache.
func (c *MemoryCache) Get(_ context.Context, key string) (types.BacktestResult, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		c.misses++

		return types.BacktestResult{}, false, nil
	}

	entry := elem.Value.(*memoryEntry)
	if c.expired(entry) {
		c.remove(elem)
		c.misses++

		return types.BacktestResult{}, false, nil
	}

	c.lru.MoveToFront(elem)
	c.hits++

	return cloneResult(entry.result), true, nil
}

// Set implements ResultCache. A result larger than the whole budget is not stored.
func (c *MemoryCache) Set(_ context.Context, key string, result types.BacktestResult) error {
	size := estimateSize(key, result)

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		c.remove(elem)
	}

	if c.budget > 0 && size > c.budget {
		return nil
	}

	entry := &memoryEntry{
		key:    key,
		result: cloneResult(result),
		size:   size,
	}
	if c.ttl > 0 {
		entry.expiresAt = c.now().Add(c.ttl)
	}

	c.entries[key] = c.lru.PushFront(entry)
	c.used += size

	for c.budget > 0 && c.used > c.budget {
		oldest := c.lru.Back()
		if oldest == nil {
			break
		}

		c.remove(oldest)
		c.evictions++
	}

	return nil
}

// Invalidate implements ResultCache.
func (c *MemoryCache) Invalidate(_ context.Context, pattern string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0

	for key, elem := range c.entries {
		if Match(pattern, key) {
			c.remove(elem)
			removed++
		}
	}

	return removed, nil
}

// Stats implements ResultCache. Expired entries still count until they are
// looked up or evicted.
func (c *MemoryCache) Stats(_ context.Context) (Stats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		EntryCount:     len(c.entries),
		MemoryEstimate: c.used,
		HitRate:        hitRate(c.hits, c.misses),
		Hits:           c.hits,
		Misses:         c.misses,
		Evictions:      c.evictions,
	}, nil
}

func (c *MemoryCache) expired(entry *memoryEntry) bool {
	return !entry.expiresAt.IsZero() && !c.now().Before(entry.expiresAt)
}

func (c *MemoryCache) remove(elem *list.Element) {
	entry := elem.Value.(*memoryEntry)

	c.lru.Remove(elem)
	delete(c.entries, entry.key)
	c.used -= entry.size
}

func estimateSize(key string, result types.BacktestResult) int64 {
	return int64(entryOverheadBytes + len(key) + len(result.AssetID) + len(result.Strategy) + len(result.Trades)*tradeSizeBytes)
}
