package cache

import (
	"context"

	"github.com/rxtech-lab/argo-screener/internal/types"
)

// TieredCache reads through a local cache in front of a shared one. Shared-tier
// hits are copied into the local tier. Errors of the shared tier are returned
// to the caller, which decides whether to keep using the cache.
type TieredCache struct {
	local  ResultCache
	shared ResultCache
}

var _ ResultCache = (*TieredCache)(nil)

// NewTieredCache creates a TieredCache.
func NewTieredCache(local, shared ResultCache) *TieredCache {
	return &TieredCache{local: local, shared: shared}
}

// Get implements ResultCache.
func (t *TieredCache) Get(ctx context.Context, key string) (types.BacktestResult, bool, error) {
	result, ok, err := t.local.Get(ctx, key)
	if err != nil || ok {
		return result, ok, err
	}

	result, ok, err = t.shared.Get(ctx, key)
	if err != nil || !ok {
		return types.BacktestResult{}, false, err
	}

	if err := t.local.Set(ctx, key, result); err != nil {
		return types.BacktestResult{}, false, err
	}

	return result, true, nil
}

// Set implements ResultCache. The local tier is written even when the shared tier fails.
func (t *TieredCache) Set(ctx context.Context, key string, result types.BacktestResult) error {
	if err := t.local.Set(ctx, key, result); err != nil {
		return err
	}

	return t.shared.Set(ctx, key, result)
}

// Invalidate implements ResultCache. The count is that of the shared tier,
// which holds a superset of the local one.
func (t *TieredCache) Invalidate(ctx context.Context, pattern string) (int, error) {
	if _, err := t.local.Invalidate(ctx, pattern); err != nil {
		return 0, err
	}

	return t.shared.Invalidate(ctx, pattern)
}

// Stats implements ResultCache. Lookups served locally count as hits; the
// shared tier only sees local misses.
func (t *TieredCache) Stats(ctx context.Context) (Stats, error) {
	local, err := t.local.Stats(ctx)
	if err != nil {
		return Stats{}, err
	}

	shared, err := t.shared.Stats(ctx)
	if err != nil {
		return Stats{}, err
	}

	hits := local.Hits + shared.Hits
	misses := shared.Misses

	return Stats{
		EntryCount:     shared.EntryCount,
		MemoryEstimate: local.MemoryEstimate + shared.MemoryEstimate,
		HitRate:        hitRate(hits, misses),
		Hits:           hits,
		Misses:         misses,
		Evictions:      local.Evictions + shared.Evictions,
	}, nil
}
