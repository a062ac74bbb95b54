package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-screener/internal/logger"
	"github.com/rxtech-lab/argo-screener/internal/types"
	"github.com/stretchr/testify/suite"
)

type BatchStateTestSuite struct {
	suite.Suite
	state *BatchState
}

func TestBatchStateSuite(t *testing.T) {
	suite.Run(t, new(BatchStateTestSuite))
}

func (suite *BatchStateTestSuite) SetupTest() {
	state, err := NewBatchState(logger.NewNopLogger())
	suite.Require().NoError(err)
	suite.state = state
}

func (suite *BatchStateTestSuite) TearDownTest() {
	suite.Require().NoError(suite.state.Close())
}

func (suite *BatchStateTestSuite) batch(id string, returns map[string]float64) types.BatchResult {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	batch := types.BatchResult{ID: id, Status: types.BatchStatusCompleted}

	for assetID, ret := range returns {
		batch.Results = append(batch.Results, types.BacktestResult{
			AssetID:        assetID,
			Strategy:       fmt.Sprintf("rsi-%s", id),
			SamplingMode:   types.SamplingMode1d,
			BarCount:       30,
			FirstBarTime:   start,
			LastBarTime:    start.AddDate(0, 0, 29),
			FinalValue:     1000 * (1 + ret/100),
			TotalReturnPct: ret,
			TradeCount:     2,
			Trades: []types.Trade{
				{Time: start.AddDate(0, 0, 3), Side: types.SideBuy, Price: 10, Quantity: 100, CashAfter: 0, PositionAfter: 100},
				{Time: start.AddDate(0, 0, 9), Side: types.SideSell, Price: 10 * (1 + ret/100), Quantity: 100, CashAfter: 1000 * (1 + ret/100)},
			},
		})
	}

	return batch
}

func (suite *BatchStateTestSuite) count(query string) int {
	var n int
	suite.Require().NoError(suite.state.db.QueryRow(query).Scan(&n))

	return n
}

func (suite *BatchStateTestSuite) TestRecord() {
	suite.Require().NoError(suite.state.Record(suite.batch("b1", map[string]float64{"AAPL": 12, "MSFT": -4})))

	suite.Equal(2, suite.count("SELECT count(*) FROM results"))
	suite.Equal(4, suite.count("SELECT count(*) FROM trades"))
	suite.Equal(2, suite.count("SELECT count(*) FROM trades WHERE asset_id = 'AAPL' AND batch_id = 'b1'"))
}

func (suite *BatchStateTestSuite) TestRecordWithoutTrades() {
	batch := types.BatchResult{
		ID:      "empty",
		Results: []types.BacktestResult{{AssetID: "FLAT", Strategy: "ma"}},
	}

	suite.Require().NoError(suite.state.Record(batch))
	suite.Equal(1, suite.count("SELECT count(*) FROM results"))
	suite.Equal(0, suite.count("SELECT count(*) FROM trades"))
}

func (suite *BatchStateTestSuite) TestTopAssets() {
	suite.Require().NoError(suite.state.Record(suite.batch("b1", map[string]float64{"AAPL": 12, "MSFT": -4, "NVDA": 30})))
	suite.Require().NoError(suite.state.Record(suite.batch("b2", map[string]float64{"AAPL": 40, "MSFT": -8})))

	ranked, err := suite.state.TopAssets(2)
	suite.Require().NoError(err)
	suite.Require().Len(ranked, 2)

	suite.Equal(RankedAsset{AssetID: "AAPL", Strategy: "rsi-b2", TotalReturnPct: 40, Runs: 2}, ranked[0])
	suite.Equal(RankedAsset{AssetID: "NVDA", Strategy: "rsi-b1", TotalReturnPct: 30, Runs: 1}, ranked[1])

	all, err := suite.state.TopAssets(0)
	suite.Require().NoError(err)
	suite.Len(all, 3)
	suite.Equal("MSFT", all[2].AssetID)
	suite.Equal(-4.0, all[2].TotalReturnPct)
}

func (suite *BatchStateTestSuite) TestTopAssetsEmpty() {
	ranked, err := suite.state.TopAssets(10)
	suite.Require().NoError(err)
	suite.Empty(ranked)
}

func (suite *BatchStateTestSuite) TestWrite() {
	suite.Require().NoError(suite.state.Record(suite.batch("b1", map[string]float64{"AAPL": 12, "MSFT": -4})))

	dir := filepath.Join(suite.T().TempDir(), "export")
	suite.Require().NoError(suite.state.Write(dir))

	for _, name := range []string{"results.parquet", "trades.parquet"} {
		info, err := os.Stat(filepath.Join(dir, name))
		suite.Require().NoError(err)
		suite.Positive(info.Size())
	}

	suite.Equal(2, suite.count(fmt.Sprintf("SELECT count(*) FROM read_parquet('%s')", filepath.Join(dir, "results.parquet"))))
	suite.Equal(4, suite.count(fmt.Sprintf("SELECT count(*) FROM read_parquet('%s')", filepath.Join(dir, "trades.parquet"))))
}

func (suite *BatchStateTestSuite) TestCleanup() {
	suite.Require().NoError(suite.state.Record(suite.batch("b1", map[string]float64{"AAPL": 12})))
	suite.Require().NoError(suite.state.Cleanup())

	suite.Equal(0, suite.count("SELECT count(*) FROM results"))
	suite.Equal(0, suite.count("SELECT count(*) FROM trades"))

	suite.Require().NoError(suite.state.Record(suite.batch("b2", map[string]float64{"MSFT": 1})))
	suite.Equal(1, suite.count("SELECT count(*) FROM results"))
}
