package types

import (
	"math"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-screener/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type MarketTestSuite struct {
	suite.Suite
}

func TestMarketSuite(t *testing.T) {
	suite.Run(t, new(MarketTestSuite))
}

func dailySeries(closes ...float64) PriceSeries {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]PriceBar, len(closes))

	for i, c := range closes {
		bars[i] = PriceBar{Time: start.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c, Volume: 100}
	}

	return PriceSeries{AssetID: "AAPL", Mode: SamplingMode1d, Bars: bars}
}

func (suite *MarketTestSuite) TestSamplingModeDuration() {
	tests := []struct {
		mode     SamplingMode
		expected time.Duration
	}{
		{SamplingMode1m, time.Minute},
		{SamplingMode15m, 15 * time.Minute},
		{SamplingMode4h, 4 * time.Hour},
		{SamplingMode1d, 24 * time.Hour},
		{SamplingMode1w, 7 * 24 * time.Hour},
		{SamplingMode("3d"), 0},
	}

	for _, tc := range tests {
		suite.Run(string(tc.mode), func() {
			suite.Equal(tc.expected, tc.mode.Duration())
		})
	}
}

func (suite *MarketTestSuite) TestSamplingModeValidate() {
	suite.NoError(SamplingMode1h.Validate())

	err := SamplingMode("2d").Validate()
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidSamplingMode))
}

func (suite *MarketTestSuite) TestValidate() {
	suite.NoError(dailySeries(10, 11, 12).Validate())

	empty := PriceSeries{AssetID: "MSFT"}
	suite.True(errors.IsNoDataError(empty.Validate()))

	nonPositive := dailySeries(10, 0, 12)
	suite.True(errors.HasCode(nonPositive.Validate(), errors.ErrCodeInvalidSeries))

	duplicate := dailySeries(10, 11, 12)
	duplicate.Bars[2].Time = duplicate.Bars[1].Time
	err := duplicate.Validate()
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidSeries))
	suite.Contains(err.Error(), "index 2")
}

func (suite *MarketTestSuite) TestValidateNonFinitePrices() {
	tests := []struct {
		name   string
		mutate func(bar *PriceBar)
	}{
		{"nan close", func(bar *PriceBar) { bar.Close = math.NaN() }},
		{"infinite close", func(bar *PriceBar) { bar.Close = math.Inf(1) }},
		{"nan open", func(bar *PriceBar) { bar.Open = math.NaN() }},
		{"infinite high", func(bar *PriceBar) { bar.High = math.Inf(1) }},
		{"negative infinite low", func(bar *PriceBar) { bar.Low = math.Inf(-1) }},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			series := dailySeries(10, 11, 12)
			tc.mutate(&series.Bars[2])

			err := series.Validate()
			suite.True(errors.HasCode(err, errors.ErrCodeInvalidSeries))
			suite.Contains(err.Error(), "non-finite")
		})
	}
}

func (suite *MarketTestSuite) TestClosesAndEnds() {
	series := dailySeries(3, 4, 5)

	suite.Equal([]float64{3, 4, 5}, series.Closes())
	suite.Equal(3.0, series.First().Close)
	suite.Equal(5.0, series.Last().Close)
	suite.Equal(3, series.Len())
}

func (suite *MarketTestSuite) TestHead() {
	series := dailySeries(3, 4, 5, 6)

	head := series.Head(2)
	suite.Equal(2, head.Len())
	suite.Equal("AAPL", head.AssetID)
	suite.Equal(4.0, head.Last().Close)

	suite.Equal(4, series.Head(10).Len())
}

func (suite *MarketTestSuite) TestString() {
	suite.Equal("AAPL[1d] 2 bars 2024-01-01T00:00:00Z..2024-01-02T00:00:00Z", dailySeries(1, 2).String())
	suite.Equal("X[1h] (empty)", PriceSeries{AssetID: "X", Mode: SamplingMode1h}.String())
}
