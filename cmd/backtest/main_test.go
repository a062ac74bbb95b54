package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	enginev1 "github.com/rxtech-lab/argo-screener/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-screener/internal/backtest/engine/engine_v1/cache"
	"github.com/rxtech-lab/argo-screener/internal/logger"
	"github.com/rxtech-lab/argo-screener/internal/types"
	"github.com/stretchr/testify/suite"
)

type BacktestCmdTestSuite struct {
	suite.Suite
}

func TestBacktestCmdSuite(t *testing.T) {
	suite.Run(t, new(BacktestCmdTestSuite))
}

func (suite *BacktestCmdTestSuite) TestInvalidationPattern() {
	testCases := []struct {
		name     string
		pattern  string
		asset    string
		kind     string
		all      bool
		expected string
		wantErr  bool
	}{
		{name: "raw pattern", pattern: "argo:v1:*", expected: "argo:v1:*"},
		{name: "asset", asset: "AAPL", expected: cache.AssetPattern("argo", "AAPL")},
		{name: "kind", kind: "rsi", expected: cache.KindPattern("argo", "rsi")},
		{name: "all", all: true, expected: cache.AllPattern("argo")},
		{name: "nothing selected", wantErr: true},
		{name: "two selected", asset: "AAPL", kind: "rsi", wantErr: true},
	}

	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			pattern, err := invalidationPattern("argo", tc.pattern, tc.asset, tc.kind, tc.all)
			if tc.wantErr {
				suite.Error(err)

				return
			}

			suite.NoError(err)
			suite.Equal(tc.expected, pattern)
		})
	}
}

func (suite *BacktestCmdTestSuite) TestResultRows() {
	results := []types.BacktestResult{
		{AssetID: "NVDA", TotalReturnPct: 41.256, TradeCount: 4, FromCache: true},
		{AssetID: "AAPL", TotalReturnPct: 3.5, TradeCount: 2},
		{AssetID: "MSFT", TotalReturnPct: -7.125},
	}

	rows := resultRows(results, 2)
	suite.Require().Len(rows, 2)
	suite.Equal([]string{"1", "NVDA", "41.26", "0.00", "0.00", "4", "0.00", "0.00", "0.00", "yes"}, rows[0])
	suite.Equal("AAPL", rows[1][1])
	suite.Equal("", rows[1][9])

	suite.Len(resultRows(results, 0), 3)
}

func (suite *BacktestCmdTestSuite) TestRenderBatch() {
	batch := types.BatchResult{
		ID:        "batch-1",
		Status:    types.BatchStatusCancelled,
		Results:   []types.BacktestResult{{AssetID: "AAPL", TotalReturnPct: 12}},
		Failures:  []types.AssetFailure{{AssetID: "ZZZ", Reason: "no_data", Message: "no data for ZZZ"}},
		Skipped:   []string{"QQQ"},
		Succeeded: 1,
		Failed:    1,
	}

	output := renderBatch(batch, 10)

	for _, want := range []string{"batch-1", "cancelled", "AAPL", "12.00", "ZZZ", "no_data", "Skipped: QQQ"} {
		suite.Contains(output, want)
	}
}

func (suite *BacktestCmdTestSuite) TestRenderStatsAndAssets() {
	stats := renderStats(cache.Stats{EntryCount: 3, HitRate: 0.5, Hits: 1, Misses: 1})
	suite.Contains(stats, "Entries")
	suite.Contains(stats, "50.00")

	assets := renderAssets([]string{"AAPL", "MSFT"})
	suite.Contains(assets, "Assets (2)")
	suite.Contains(assets, "MSFT")
}

func (suite *BacktestCmdTestSuite) TestOpenSource() {
	log := logger.NewNopLogger()

	_, _, err := openSource("", "", log)
	suite.Error(err)

	_, _, err = openSource("data", "data/*.parquet", log)
	suite.Error(err)

	source, closeSource, err := openSource(suite.T().TempDir(), "", log)
	suite.Require().NoError(err)
	suite.NotNil(source)
	suite.NoError(closeSource())
}

func (suite *BacktestCmdTestSuite) TestLoadEngineConfig() {
	config, err := loadEngineConfig("")
	suite.Require().NoError(err)
	suite.Equal(enginev1.EmptyConfig(), config)

	path := filepath.Join(suite.T().TempDir(), "engine.yaml")
	suite.Require().NoError(os.WriteFile(path, []byte("max_workers: 3\ncache:\n  ttl: 1h\n"), 0644))

	config, err = loadEngineConfig(path)
	suite.Require().NoError(err)
	suite.Equal(3, config.MaxWorkers)
	suite.Equal(time.Hour, config.Cache.TTL)

	_, err = loadEngineConfig(filepath.Join(suite.T().TempDir(), "missing.yaml"))
	suite.Error(err)
}

func (suite *BacktestCmdTestSuite) TestMetricsServer() {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_runs_total", Help: "runs"})
	reg.MustRegister(counter)
	counter.Inc()

	server := newMetricsServer(":0", reg)

	recorder := httptest.NewRecorder()
	server.server.Handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	suite.Equal(http.StatusOK, recorder.Code)
	suite.True(strings.Contains(recorder.Body.String(), "test_runs_total 1"))

	recorder = httptest.NewRecorder()
	server.server.Handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/health", nil))
	suite.Equal(http.StatusOK, recorder.Code)
}
