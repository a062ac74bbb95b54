package datasource

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-screener/internal/types"
	"github.com/rxtech-lab/argo-screener/pkg/errors"
)

func getIntervalMinutes(mode types.SamplingMode) (int, error) {
	var intervalMinutes int

	switch mode {
	case types.SamplingMode1m:
		intervalMinutes = 1
	case types.SamplingMode5m:
		intervalMinutes = 5
	case types.SamplingMode15m:
		intervalMinutes = 15
	case types.SamplingMode30m:
		intervalMinutes = 30
	case types.SamplingMode1h:
		intervalMinutes = 60
	case types.SamplingMode4h:
		intervalMinutes = 240
	case types.SamplingMode1d:
		intervalMinutes = 1440
	case types.SamplingMode1w:
		intervalMinutes = 10080
	default:
		return 0, errors.Newf(errors.ErrCodeInvalidSamplingMode, "unsupported sampling mode: %s", mode)
	}

	return intervalMinutes, nil
}

// inRange reports whether t lies within the optional inclusive bounds.
func inRange(t time.Time, start, end optional.Option[time.Time]) bool {
	if start.IsSome() && t.Before(start.Unwrap()) {
		return false
	}

	if end.IsSome() && t.After(end.Unwrap()) {
		return false
	}

	return true
}

// Resample aggregates time-ordered bars into buckets of mode. A bucket keeps the
// first open, the highest high, the lowest low, the last close and the summed
// volume, and is stamped with its start time in UTC. Weekly buckets start on Monday.
func Resample(bars []types.PriceBar, mode types.SamplingMode) ([]types.PriceBar, error) {
	interval := mode.Duration()
	if interval <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidSamplingMode, "unsupported sampling mode: %s", mode)
	}

	out := make([]types.PriceBar, 0, len(bars))

	for _, bar := range bars {
		// time.Truncate counts from the zero time, which is a Monday
		bucket := bar.Time.UTC().Truncate(interval)

		if n := len(out); n > 0 && out[n-1].Time.Equal(bucket) {
			last := &out[n-1]
			last.High = max(last.High, bar.High)
			last.Low = min(last.Low, bar.Low)
			last.Close = bar.Close
			last.Volume += bar.Volume

			continue
		}

		out = append(out, types.PriceBar{
			Time:   bucket,
			Open:   bar.Open,
			High:   bar.High,
			Low:    bar.Low,
			Close:  bar.Close,
			Volume: bar.Volume,
		})
	}

	return out, nil
}

// buildSeries filters bars to the range, resamples them and checks the result.
func buildSeries(assetID string, bars []types.PriceBar, start, end optional.Option[time.Time], mode types.SamplingMode) (types.PriceSeries, error) {
	filtered := make([]types.PriceBar, 0, len(bars))

	for _, bar := range bars {
		if inRange(bar.Time, start, end) {
			filtered = append(filtered, bar)
		}
	}

	if len(filtered) == 0 {
		return types.PriceSeries{}, errors.NewNoDataErrorf(assetID, "no price data for %s in range", assetID)
	}

	resampled, err := Resample(filtered, mode)
	if err != nil {
		return types.PriceSeries{}, err
	}

	series := types.PriceSeries{AssetID: assetID, Mode: mode, Bars: resampled}
	if err := series.Validate(); err != nil {
		return types.PriceSeries{}, err
	}

	return series, nil
}
