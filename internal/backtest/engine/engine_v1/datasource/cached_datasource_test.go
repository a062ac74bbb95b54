package datasource

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-screener/internal/types"
	"github.com/rxtech-lab/argo-screener/pkg/errors"
	"github.com/stretchr/testify/suite"
)

// countingSource counts calls reaching the wrapped source.
type countingSource struct {
	PriceSource
	seriesCalls atomic.Int32
	listCalls   atomic.Int32
}

func (c *countingSource) GetPriceSeries(ctx context.Context, assetID string, start, end optional.Option[time.Time], mode types.SamplingMode) (types.PriceSeries, error) {
	c.seriesCalls.Add(1)

	return c.PriceSource.GetPriceSeries(ctx, assetID, start, end, mode)
}

func (c *countingSource) ListAssetsWithSufficientData(ctx context.Context, minBars int, mode types.SamplingMode) ([]string, error) {
	c.listCalls.Add(1)

	return c.PriceSource.ListAssetsWithSufficientData(ctx, minBars, mode)
}

type CachedSourceTestSuite struct {
	suite.Suite
	counting *countingSource
	cached   *CachedSource
	start    time.Time
}

func TestCachedSourceSuite(t *testing.T) {
	suite.Run(t, new(CachedSourceTestSuite))
}

func (suite *CachedSourceTestSuite) SetupTest() {
	suite.start = time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)

	memory := NewMemorySource()
	memory.Add("AAPL", minuteBars(suite.start, 1, 2, 3, 4))

	suite.counting = &countingSource{PriceSource: memory}
	suite.cached = NewCachedSource(suite.counting)
}

func (suite *CachedSourceTestSuite) get(assetID string, start optional.Option[time.Time]) (types.PriceSeries, error) {
	return suite.cached.GetPriceSeries(context.Background(), assetID, start, optional.None[time.Time](), types.SamplingMode1m)
}

func (suite *CachedSourceTestSuite) TestSeriesIsCached() {
	first, err := suite.get("AAPL", optional.None[time.Time]())
	suite.Require().NoError(err)

	second, err := suite.get("AAPL", optional.None[time.Time]())
	suite.Require().NoError(err)

	suite.Equal(first, second)
	suite.Equal(int32(1), suite.counting.seriesCalls.Load())
}

func (suite *CachedSourceTestSuite) TestDistinctRangesAreDistinctEntries() {
	_, err := suite.get("AAPL", optional.None[time.Time]())
	suite.Require().NoError(err)

	series, err := suite.get("AAPL", optional.Some(suite.start.Add(2*time.Minute)))
	suite.Require().NoError(err)
	suite.Equal([]float64{3, 4}, series.Closes())
	suite.Equal(int32(2), suite.counting.seriesCalls.Load())
}

func (suite *CachedSourceTestSuite) TestErrorsAreCached() {
	_, err := suite.get("NOPE", optional.None[time.Time]())
	suite.True(errors.IsNoDataError(err))

	_, err = suite.get("NOPE", optional.None[time.Time]())
	suite.True(errors.IsNoDataError(err))
	suite.Equal(int32(1), suite.counting.seriesCalls.Load())
}

func (suite *CachedSourceTestSuite) TestCancellationIsNotCached() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := suite.cached.GetPriceSeries(ctx, "AAPL", optional.None[time.Time](), optional.None[time.Time](), types.SamplingMode1m)
	suite.Error(err)

	_, err = suite.get("AAPL", optional.None[time.Time]())
	suite.NoError(err)
}

func (suite *CachedSourceTestSuite) TestAssetListIsCached() {
	for i := 0; i < 3; i++ {
		assets, err := suite.cached.ListAssetsWithSufficientData(context.Background(), 2, types.SamplingMode1m)
		suite.Require().NoError(err)
		suite.Equal([]string{"AAPL"}, assets)
	}

	suite.Equal(int32(1), suite.counting.listCalls.Load())
}

func (suite *CachedSourceTestSuite) TestClearCache() {
	_, err := suite.get("AAPL", optional.None[time.Time]())
	suite.Require().NoError(err)

	suite.cached.ClearCache()

	_, err = suite.get("AAPL", optional.None[time.Time]())
	suite.Require().NoError(err)
	suite.Equal(int32(2), suite.counting.seriesCalls.Load())
}
