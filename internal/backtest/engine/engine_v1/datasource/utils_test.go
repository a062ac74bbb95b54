package datasource

import (
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-screener/internal/types"
	"github.com/rxtech-lab/argo-screener/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type DatasourceUtilsTestSuite struct {
	suite.Suite
}

func TestDatasourceUtilsSuite(t *testing.T) {
	suite.Run(t, new(DatasourceUtilsTestSuite))
}

func minuteBars(start time.Time, closes ...float64) []types.PriceBar {
	bars := make([]types.PriceBar, len(closes))
	for i, c := range closes {
		bars[i] = types.PriceBar{
			Time:   start.Add(time.Duration(i) * time.Minute),
			Open:   c - 0.5,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: 100,
		}
	}

	return bars
}

func (suite *DatasourceUtilsTestSuite) TestGetIntervalMinutes() {
	tests := []struct {
		mode            types.SamplingMode
		expectedMinutes int
		expectError     bool
	}{
		{types.SamplingMode1m, 1, false},
		{types.SamplingMode5m, 5, false},
		{types.SamplingMode15m, 15, false},
		{types.SamplingMode30m, 30, false},
		{types.SamplingMode1h, 60, false},
		{types.SamplingMode4h, 240, false},
		{types.SamplingMode1d, 1440, false},
		{types.SamplingMode1w, 10080, false},
		{types.SamplingMode("3d"), 0, true},
	}

	for _, tc := range tests {
		suite.Run(string(tc.mode), func() {
			minutes, err := getIntervalMinutes(tc.mode)

			if tc.expectError {
				suite.True(errors.HasCode(err, errors.ErrCodeInvalidSamplingMode))

				return
			}

			suite.NoError(err)
			suite.Equal(tc.expectedMinutes, minutes)
		})
	}
}

func (suite *DatasourceUtilsTestSuite) TestResample() {
	start := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)
	bars := minuteBars(start, 10, 12, 11, 13, 15, 14, 16)

	resampled, err := Resample(bars, types.SamplingMode5m)
	suite.Require().NoError(err)
	suite.Require().Len(resampled, 2)

	first := resampled[0]
	suite.Equal(start, first.Time)
	suite.Equal(9.5, first.Open)
	suite.Equal(16.0, first.High)
	suite.Equal(9.0, first.Low)
	suite.Equal(15.0, first.Close)
	suite.Equal(500.0, first.Volume)

	second := resampled[1]
	suite.Equal(start.Add(5*time.Minute), second.Time)
	suite.Equal(13.5, second.Open)
	suite.Equal(16.0, second.Close)
	suite.Equal(200.0, second.Volume)
}

func (suite *DatasourceUtilsTestSuite) TestResampleWeeklyStartsOnMonday() {
	// 2024-01-03 is a Wednesday
	bars := []types.PriceBar{
		{Time: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), Open: 1, High: 1, Low: 1, Close: 1},
		{Time: time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC), Open: 2, High: 2, Low: 2, Close: 2},
		{Time: time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), Open: 3, High: 3, Low: 3, Close: 3},
	}

	resampled, err := Resample(bars, types.SamplingMode1w)
	suite.Require().NoError(err)
	suite.Require().Len(resampled, 2)
	suite.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), resampled[0].Time)
	suite.Equal(2.0, resampled[0].Close)
	suite.Equal(time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), resampled[1].Time)
}

func (suite *DatasourceUtilsTestSuite) TestResampleInvalidMode() {
	_, err := Resample(nil, types.SamplingMode("2d"))
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidSamplingMode))
}

func (suite *DatasourceUtilsTestSuite) TestInRange() {
	t := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	before := optional.Some(t.Add(-time.Hour))
	after := optional.Some(t.Add(time.Hour))
	none := optional.None[time.Time]()

	suite.True(inRange(t, none, none))
	suite.True(inRange(t, before, after))
	suite.True(inRange(t, optional.Some(t), optional.Some(t)))
	suite.False(inRange(t, after, none))
	suite.False(inRange(t, none, before))
}

func (suite *DatasourceUtilsTestSuite) TestBuildSeries() {
	start := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)
	bars := minuteBars(start, 10, 11, 12, 13)

	series, err := buildSeries("AAPL", bars, optional.Some(start.Add(time.Minute)), optional.None[time.Time](), types.SamplingMode1m)
	suite.Require().NoError(err)
	suite.Equal("AAPL", series.AssetID)
	suite.Equal(types.SamplingMode1m, series.Mode)
	suite.Equal([]float64{11, 12, 13}, series.Closes())

	_, err = buildSeries("AAPL", bars, optional.Some(start.Add(time.Hour)), optional.None[time.Time](), types.SamplingMode1m)
	suite.True(errors.IsNoDataError(err))
}
