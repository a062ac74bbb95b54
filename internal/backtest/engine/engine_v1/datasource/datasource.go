package datasource

import (
	"context"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-screener/internal/types"
)

// PriceSource supplies historical prices to the engine.
type PriceSource interface {
	// GetPriceSeries returns the bars of assetID between start and end (both
	// inclusive, open when None) aggregated to mode. Bars are strictly increasing
	// in time. An asset without bars in range fails with a NoDataError.
	GetPriceSeries(ctx context.Context, assetID string, start, end optional.Option[time.Time], mode types.SamplingMode) (types.PriceSeries, error)
	// ListAssetsWithSufficientData returns, sorted, every asset with at least
	// minBars bars once aggregated to mode.
	ListAssetsWithSufficientData(ctx context.Context, minBars int, mode types.SamplingMode) ([]string, error)
}
