package types

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"gopkg.in/yaml.v3"
)

type StatisticsTestSuite struct {
	suite.Suite
	tempDir string
}

func TestStatisticsSuite(t *testing.T) {
	suite.Run(t, new(StatisticsTestSuite))
}

func (suite *StatisticsTestSuite) SetupTest() {
	tempDir, err := os.MkdirTemp("", "statistics_test")
	suite.NoError(err)
	suite.tempDir = tempDir
}

func (suite *StatisticsTestSuite) TearDownTest() {
	os.RemoveAll(suite.tempDir)
}

func (suite *StatisticsTestSuite) batch() BatchResult {
	return BatchResult{
		ID:     "batch-1",
		Status: BatchStatusCompleted,
		Results: []BacktestResult{
			{AssetID: "MSFT", Strategy: "rsi", FinalValue: 1200, TotalReturnPct: 20, TradeCount: 2},
			{AssetID: "AAPL", Strategy: "rsi", FinalValue: 900, TotalReturnPct: -10},
		},
		Failures: []AssetFailure{
			{AssetID: "TSLA", Reason: "no_data", Message: "no bars", Err: errors.New("no bars")},
		},
		Succeeded: 2,
		Failed:    1,
		StartedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndedAt:   time.Date(2024, 1, 1, 0, 1, 0, 0, time.UTC),
	}
}

func (suite *StatisticsTestSuite) TestWriteBatchReport() {
	path := filepath.Join(suite.tempDir, "report.yaml")
	suite.NoError(WriteBatchReport(path, suite.batch()))

	data, err := os.ReadFile(path)
	suite.NoError(err)

	var readBack BatchResult
	suite.NoError(yaml.Unmarshal(data, &readBack))
	suite.Equal("batch-1", readBack.ID)
	suite.Equal(BatchStatusCompleted, readBack.Status)
	suite.Len(readBack.Results, 2)
	suite.Equal("MSFT", readBack.Results[0].AssetID)
	suite.Equal(20.0, readBack.Results[0].TotalReturnPct)
	suite.Equal("no_data", readBack.Failures[0].Reason)
	suite.Nil(readBack.Failures[0].Err)
	suite.NotContains(string(data), "skipped")
}

func (suite *StatisticsTestSuite) TestWriteBatchReportInvalidPath() {
	err := WriteBatchReport(filepath.Join(suite.tempDir, "missing", "report.yaml"), suite.batch())
	suite.Error(err)
	suite.Contains(err.Error(), "failed to write batch result")
}

func (suite *StatisticsTestSuite) TestFailure() {
	batch := suite.batch()

	failure, ok := batch.Failure("TSLA")
	suite.True(ok)
	suite.Equal("no_data", failure.Reason)

	_, ok = batch.Failure("MSFT")
	suite.False(ok)
}
