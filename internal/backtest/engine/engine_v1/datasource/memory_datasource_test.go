package datasource

import (
	"context"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-screener/internal/types"
	"github.com/rxtech-lab/argo-screener/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type MemorySourceTestSuite struct {
	suite.Suite
	source *MemorySource
	start  time.Time
}

func TestMemorySourceSuite(t *testing.T) {
	suite.Run(t, new(MemorySourceTestSuite))
}

func (suite *MemorySourceTestSuite) SetupTest() {
	suite.start = time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)
	suite.source = NewMemorySource()
	suite.source.Add("AAPL", minuteBars(suite.start, 10, 11, 12, 13, 14, 15))
	suite.source.Add("MSFT", minuteBars(suite.start, 20, 21))
}

func (suite *MemorySourceTestSuite) TestGetPriceSeries() {
	series, err := suite.source.GetPriceSeries(context.Background(), "AAPL", optional.None[time.Time](), optional.None[time.Time](), types.SamplingMode1m)
	suite.Require().NoError(err)
	suite.Equal(6, series.Len())
	suite.Equal(15.0, series.Last().Close)
}

func (suite *MemorySourceTestSuite) TestGetPriceSeriesResampled() {
	series, err := suite.source.GetPriceSeries(context.Background(), "AAPL", optional.None[time.Time](), optional.None[time.Time](), types.SamplingMode5m)
	suite.Require().NoError(err)
	suite.Equal([]float64{14, 15}, series.Closes())
}

func (suite *MemorySourceTestSuite) TestSortsOnAdd() {
	bars := minuteBars(suite.start, 1, 2, 3)
	bars[0], bars[2] = bars[2], bars[0]
	suite.source.Add("REV", bars)

	series, err := suite.source.GetPriceSeries(context.Background(), "REV", optional.None[time.Time](), optional.None[time.Time](), types.SamplingMode1m)
	suite.Require().NoError(err)
	suite.Equal([]float64{1, 2, 3}, series.Closes())
}

func (suite *MemorySourceTestSuite) TestUnknownAsset() {
	_, err := suite.source.GetPriceSeries(context.Background(), "NOPE", optional.None[time.Time](), optional.None[time.Time](), types.SamplingMode1m)
	suite.True(errors.IsNoDataError(err))
}

func (suite *MemorySourceTestSuite) TestCancelledContext() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := suite.source.GetPriceSeries(ctx, "AAPL", optional.None[time.Time](), optional.None[time.Time](), types.SamplingMode1m)
	suite.ErrorIs(err, context.Canceled)
}

func (suite *MemorySourceTestSuite) TestListAssetsWithSufficientData() {
	assets, err := suite.source.ListAssetsWithSufficientData(context.Background(), 2, types.SamplingMode1m)
	suite.Require().NoError(err)
	suite.Equal([]string{"AAPL", "MSFT"}, assets)

	assets, err = suite.source.ListAssetsWithSufficientData(context.Background(), 3, types.SamplingMode1m)
	suite.Require().NoError(err)
	suite.Equal([]string{"AAPL"}, assets)

	assets, err = suite.source.ListAssetsWithSufficientData(context.Background(), 3, types.SamplingMode5m)
	suite.Require().NoError(err)
	suite.Empty(assets)
}
