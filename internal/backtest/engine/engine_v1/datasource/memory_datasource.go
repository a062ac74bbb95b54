package datasource

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-screener/internal/types"
	"github.com/rxtech-lab/argo-screener/pkg/errors"
)

// MemorySource serves bars held in memory. It is safe for concurrent use.
type MemorySource struct {
	mu   sync.RWMutex
	bars map[string][]types.PriceBar
}

var _ PriceSource = (*MemorySource)(nil)

// NewMemorySource creates an empty MemorySource.
func NewMemorySource() *MemorySource {
	return &MemorySource{bars: make(map[string][]types.PriceBar)}
}

// Add stores bars for assetID, replacing anything stored before. Bars are sorted by time.
func (m *MemorySource) Add(assetID string, bars []types.PriceBar) {
	sorted := slices.Clone(bars)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time.Before(sorted[j].Time)
	})

	m.mu.Lock()
	defer m.mu.Unlock()

	m.bars[assetID] = sorted
}

// GetPriceSeries implements PriceSource.
func (m *MemorySource) GetPriceSeries(ctx context.Context, assetID string, start, end optional.Option[time.Time], mode types.SamplingMode) (types.PriceSeries, error) {
	if err := ctx.Err(); err != nil {
		return types.PriceSeries{}, err
	}

	m.mu.RLock()
	bars, ok := m.bars[assetID]
	m.mu.RUnlock()

	if !ok {
		return types.PriceSeries{}, errors.NewNoDataErrorf(assetID, "no price data for %s", assetID)
	}

	return buildSeries(assetID, bars, start, end, mode)
}

// ListAssetsWithSufficientData implements PriceSource.
func (m *MemorySource) ListAssetsWithSufficientData(ctx context.Context, minBars int, mode types.SamplingMode) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	assets := []string{}

	for assetID, bars := range m.bars {
		resampled, err := Resample(bars, mode)
		if err != nil {
			return nil, err
		}

		if len(resampled) >= minBars {
			assets = append(assets, assetID)
		}
	}

	sort.Strings(assets)

	return assets, nil
}
