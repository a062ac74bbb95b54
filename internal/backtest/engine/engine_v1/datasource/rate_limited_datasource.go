package datasource

import (
	"context"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-screener/internal/types"
	"golang.org/x/time/rate"
)

// RateLimitedSource caps the request rate against a shared price store.
type RateLimitedSource struct {
	underlying PriceSource
	limiter    *rate.Limiter
}

var _ PriceSource = (*RateLimitedSource)(nil)

// NewRateLimitedSource allows rps calls per second to underlying with a burst of
// burst calls. A non-positive rps disables the limit.
func NewRateLimitedSource(underlying PriceSource, rps float64, burst int) *RateLimitedSource {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}

	if burst < 1 {
		burst = 1
	}

	return &RateLimitedSource{
		underlying: underlying,
		limiter:    rate.NewLimiter(limit, burst),
	}
}

// GetPriceSeries implements PriceSource.
func (r *RateLimitedSource) GetPriceSeries(ctx context.Context, assetID string, start, end optional.Option[time.Time], mode types.SamplingMode) (types.PriceSeries, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return types.PriceSeries{}, err
	}

	return r.underlying.GetPriceSeries(ctx, assetID, start, end, mode)
}

// ListAssetsWithSufficientData implements PriceSource.
func (r *RateLimitedSource) ListAssetsWithSufficientData(ctx context.Context, minBars int, mode types.SamplingMode) ([]string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	return r.underlying.ListAssetsWithSufficientData(ctx, minBars, mode)
}
