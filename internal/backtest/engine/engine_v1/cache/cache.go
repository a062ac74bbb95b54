// Package cache stores backtest results keyed by everything that determines them.
package cache

import (
	"context"

	"github.com/rxtech-lab/argo-screener/internal/types"
)

// ResultCache maps result keys to backtest results.
// Implementations must be safe for concurrent use.
type ResultCache interface {
	// Get returns the cached result for key. The bool is false on a miss or an expired entry.
	Get(ctx context.Context, key string) (types.BacktestResult, bool, error)
	// Set stores result under key. The cache keeps its own copy.
	Set(ctx context.Context, key string, result types.BacktestResult) error
	// Invalidate removes every entry whose key matches the glob pattern and
	// returns how many were removed.
	Invalidate(ctx context.Context, pattern string) (int, error)
	// Stats reports the cache occupancy and lookup counters.
	Stats(ctx context.Context) (Stats, error)
}

// Stats is a point-in-time view of a ResultCache.
type Stats struct {
	EntryCount int `yaml:"entry_count" json:"entry_count"`
	// MemoryEstimate is the approximate number of bytes held. Zero when the
	// backend does not track it.
	MemoryEstimate int64   `yaml:"memory_estimate" json:"memory_estimate"`
	HitRate        float64 `yaml:"hit_rate" json:"hit_rate"`
	Hits           uint64  `yaml:"hits" json:"hits"`
	Misses         uint64  `yaml:"misses" json:"misses"`
	Evictions      uint64  `yaml:"evictions" json:"evictions"`
}

func hitRate(hits, misses uint64) float64 {
	if hits+misses == 0 {
		return 0
	}

	return float64(hits) / float64(hits+misses)
}

func cloneResult(result types.BacktestResult) types.BacktestResult {
	if result.Trades != nil {
		trades := make([]types.Trade, len(result.Trades))
		copy(trades, result.Trades)
		result.Trades = trades
	}

	return result
}
