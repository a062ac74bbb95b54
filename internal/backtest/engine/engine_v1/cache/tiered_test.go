package cache

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redismock/v8"
	"github.com/rxtech-lab/argo-screener/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type TieredCacheTestSuite struct {
	suite.Suite
	local  *MemoryCache
	shared *MemoryCache
	tiered *TieredCache
	ctx    context.Context
}

func TestTieredCacheSuite(t *testing.T) {
	suite.Run(t, new(TieredCacheTestSuite))
}

func (suite *TieredCacheTestSuite) SetupTest() {
	suite.local = NewMemoryCache(0, 0)
	suite.shared = NewMemoryCache(0, 0)
	suite.tiered = NewTieredCache(suite.local, suite.shared)
	suite.ctx = context.Background()
}

func (suite *TieredCacheTestSuite) TestSetWritesBothTiers() {
	suite.Require().NoError(suite.tiered.Set(suite.ctx, "k", testResult("AAPL", 1)))

	_, ok, _ := suite.local.Get(suite.ctx, "k")
	suite.True(ok)
	_, ok, _ = suite.shared.Get(suite.ctx, "k")
	suite.True(ok)
}

func (suite *TieredCacheTestSuite) TestSharedHitIsPromoted() {
	suite.Require().NoError(suite.shared.Set(suite.ctx, "k", testResult("AAPL", 7)))

	result, ok, err := suite.tiered.Get(suite.ctx, "k")
	suite.NoError(err)
	suite.True(ok)
	suite.Equal(7.0, result.FinalValue)

	_, ok, _ = suite.local.Get(suite.ctx, "k")
	suite.True(ok)
}

func (suite *TieredCacheTestSuite) TestMissInBothTiers() {
	_, ok, err := suite.tiered.Get(suite.ctx, "k")
	suite.NoError(err)
	suite.False(ok)

	stats, err := suite.tiered.Stats(suite.ctx)
	suite.NoError(err)
	suite.Equal(uint64(1), stats.Misses)
	suite.Equal(0.0, stats.HitRate)
}

func (suite *TieredCacheTestSuite) TestInvalidateBothTiers() {
	suite.Require().NoError(suite.tiered.Set(suite.ctx, "argo:v0.4:rsi:AAPL:0000000000000001", testResult("AAPL", 1)))

	removed, err := suite.tiered.Invalidate(suite.ctx, AssetPattern("argo", "AAPL"))
	suite.NoError(err)
	suite.Equal(1, removed)

	_, ok, _ := suite.tiered.Get(suite.ctx, "argo:v0.4:rsi:AAPL:0000000000000001")
	suite.False(ok)
}

func (suite *TieredCacheTestSuite) TestSharedTierFailureSurfaces() {
	client, mock := redismock.NewClientMock()
	shared := NewRedisCache(client, time.Hour, "argo", "v0.4.0", 5)
	tiered := NewTieredCache(suite.local, shared)

	mock.ExpectGet("k").SetErr(redis.TxFailedErr)

	_, ok, err := tiered.Get(suite.ctx, "k")
	suite.False(ok)
	suite.True(errors.IsCacheUnavailableError(err))

	// local hits never reach the shared tier
	suite.Require().NoError(suite.local.Set(suite.ctx, "k", testResult("AAPL", 3)))

	_, ok, err = tiered.Get(suite.ctx, "k")
	suite.NoError(err)
	suite.True(ok)
	suite.NoError(mock.ExpectationsWereMet())
}
