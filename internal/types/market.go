package types

import (
	"fmt"
	"math"
	"time"

	"github.com/rxtech-lab/argo-screener/pkg/errors"
)

// SamplingMode is the bar interval a price series is aggregated to for a run.
type SamplingMode string

const (
	SamplingMode1m  SamplingMode = "1m"
	SamplingMode5m  SamplingMode = "5m"
	SamplingMode15m SamplingMode = "15m"
	SamplingMode30m SamplingMode = "30m"
	SamplingMode1h  SamplingMode = "1h"
	SamplingMode4h  SamplingMode = "4h"
	SamplingMode1d  SamplingMode = "1d"
	SamplingMode1w  SamplingMode = "1w"
)

// AllSamplingModes lists every supported sampling mode. Used for schema enums.
var AllSamplingModes = []any{
	SamplingMode1m,
	SamplingMode5m,
	SamplingMode15m,
	SamplingMode30m,
	SamplingMode1h,
	SamplingMode4h,
	SamplingMode1d,
	SamplingMode1w,
}

var samplingDurations = map[SamplingMode]time.Duration{
	SamplingMode1m:  time.Minute,
	SamplingMode5m:  5 * time.Minute,
	SamplingMode15m: 15 * time.Minute,
	SamplingMode30m: 30 * time.Minute,
	SamplingMode1h:  time.Hour,
	SamplingMode4h:  4 * time.Hour,
	SamplingMode1d:  24 * time.Hour,
	SamplingMode1w:  7 * 24 * time.Hour,
}

// Duration returns the length of one bar. Unknown modes return 0.
func (m SamplingMode) Duration() time.Duration {
	return samplingDurations[m]
}

// Validate checks that the sampling mode is supported.
func (m SamplingMode) Validate() error {
	if _, ok := samplingDurations[m]; !ok {
		return errors.Newf(errors.ErrCodeInvalidSamplingMode, "unsupported sampling mode %q", string(m))
	}

	return nil
}

// PriceBar is one OHLCV record for a fixed time interval.
type PriceBar struct {
	Time   time.Time `yaml:"time" json:"time"`
	Open   float64   `yaml:"open" json:"open"`
	High   float64   `yaml:"high" json:"high"`
	Low    float64   `yaml:"low" json:"low"`
	Close  float64   `yaml:"close" json:"close"`
	Volume float64   `yaml:"volume" json:"volume"`
}

func (b PriceBar) finite() bool {
	for _, v := range [...]float64{b.Open, b.High, b.Low, b.Close} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}

	return true
}

// PriceSeries is the ordered bar history of one asset over one date range.
type PriceSeries struct {
	AssetID string
	Mode    SamplingMode
	Bars    []PriceBar
}

// Len returns the number of bars.
func (s PriceSeries) Len() int {
	return len(s.Bars)
}

// Closes returns the close prices in bar order.
func (s PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s.Bars))
	for i, bar := range s.Bars {
		closes[i] = bar.Close
	}

	return closes
}

// First returns the first bar. The series must not be empty.
func (s PriceSeries) First() PriceBar {
	return s.Bars[0]
}

// Last returns the last bar. The series must not be empty.
func (s PriceSeries) Last() PriceBar {
	return s.Bars[len(s.Bars)-1]
}

// Head returns a series holding only the first n bars.
func (s PriceSeries) Head(n int) PriceSeries {
	if n > len(s.Bars) {
		n = len(s.Bars)
	}

	return PriceSeries{AssetID: s.AssetID, Mode: s.Mode, Bars: s.Bars[:n]}
}

// Validate checks the series invariants: at least one bar, strictly increasing
// timestamps, finite prices and positive closes.
func (s PriceSeries) Validate() error {
	if len(s.Bars) == 0 {
		return errors.NewNoDataErrorf(s.AssetID, "price series for %s is empty", s.AssetID)
	}

	for i, bar := range s.Bars {
		if !bar.finite() {
			return errors.Newf(errors.ErrCodeInvalidSeries,
				"price series for %s has a non-finite price at %s", s.AssetID, bar.Time.Format(time.RFC3339))
		}

		if bar.Close <= 0 {
			return errors.Newf(errors.ErrCodeInvalidSeries,
				"price series for %s has non-positive close %g at %s", s.AssetID, bar.Close, bar.Time.Format(time.RFC3339))
		}

		if i > 0 && !bar.Time.After(s.Bars[i-1].Time) {
			return errors.Newf(errors.ErrCodeInvalidSeries,
				"price series for %s is not strictly increasing at index %d", s.AssetID, i)
		}
	}

	return nil
}

// String implements fmt.Stringer.
func (s PriceSeries) String() string {
	if len(s.Bars) == 0 {
		return fmt.Sprintf("%s[%s] (empty)", s.AssetID, s.Mode)
	}

	return fmt.Sprintf("%s[%s] %d bars %s..%s", s.AssetID, s.Mode, len(s.Bars),
		s.First().Time.Format(time.RFC3339), s.Last().Time.Format(time.RFC3339))
}
