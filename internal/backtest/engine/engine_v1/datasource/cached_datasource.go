package datasource

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-screener/internal/types"
)

// CachedSource wraps a PriceSource and remembers every series and asset list it
// served, including failures. Use it when several strategies replay the same
// universe in one process. Prices are treated as immutable for its lifetime.
type CachedSource struct {
	underlying  PriceSource
	seriesCache map[string]types.PriceSeries
	seriesErr   map[string]error
	assetsCache map[string][]string
	mu          sync.RWMutex
}

var _ PriceSource = (*CachedSource)(nil)

// NewCachedSource creates a new CachedSource wrapping underlying.
func NewCachedSource(underlying PriceSource) *CachedSource {
	return &CachedSource{
		underlying:  underlying,
		seriesCache: make(map[string]types.PriceSeries),
		seriesErr:   make(map[string]error),
		assetsCache: make(map[string][]string),
	}
}

// ClearCache drops everything remembered so far.
func (c *CachedSource) ClearCache() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seriesCache = make(map[string]types.PriceSeries)
	c.seriesErr = make(map[string]error)
	c.assetsCache = make(map[string][]string)
}

// GetPriceSeries implements PriceSource with caching. Context errors are not cached.
func (c *CachedSource) GetPriceSeries(ctx context.Context, assetID string, start, end optional.Option[time.Time], mode types.SamplingMode) (types.PriceSeries, error) {
	key := buildSeriesKey(assetID, start, end, mode)

	c.mu.RLock()
	if series, ok := c.seriesCache[key]; ok {
		err := c.seriesErr[key]
		c.mu.RUnlock()

		return series, err
	}
	c.mu.RUnlock()

	series, err := c.underlying.GetPriceSeries(ctx, assetID, start, end, mode)
	if err != nil && ctx.Err() != nil {
		return series, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.seriesCache[key] = series
	c.seriesErr[key] = err

	return series, err
}

// ListAssetsWithSufficientData implements PriceSource with caching. Errors are not cached.
func (c *CachedSource) ListAssetsWithSufficientData(ctx context.Context, minBars int, mode types.SamplingMode) ([]string, error) {
	key := fmt.Sprintf("%d|%s", minBars, mode)

	c.mu.RLock()
	if assets, ok := c.assetsCache[key]; ok {
		c.mu.RUnlock()

		return slices.Clone(assets), nil
	}
	c.mu.RUnlock()

	assets, err := c.underlying.ListAssetsWithSufficientData(ctx, minBars, mode)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.assetsCache[key] = slices.Clone(assets)

	return assets, nil
}

func buildSeriesKey(assetID string, start, end optional.Option[time.Time], mode types.SamplingMode) string {
	startKey, endKey := "-", "-"
	if start.IsSome() {
		startKey = start.Unwrap().UTC().Format(time.RFC3339Nano)
	}

	if end.IsSome() {
		endKey = end.Unwrap().UTC().Format(time.RFC3339Nano)
	}

	return fmt.Sprintf("%s|%s|%s|%s", assetID, startKey, endKey, mode)
}
