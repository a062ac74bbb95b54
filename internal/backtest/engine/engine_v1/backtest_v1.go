package engine

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rxtech-lab/argo-screener/internal/backtest/engine"
	"github.com/rxtech-lab/argo-screener/internal/backtest/engine/engine_v1/cache"
	"github.com/rxtech-lab/argo-screener/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-screener/internal/backtest/engine/engine_v1/stats"
	"github.com/rxtech-lab/argo-screener/internal/logger"
	"github.com/rxtech-lab/argo-screener/internal/metrics"
	"github.com/rxtech-lab/argo-screener/internal/portfolio"
	"github.com/rxtech-lab/argo-screener/internal/strategy"
	"github.com/rxtech-lab/argo-screener/internal/types"
	"github.com/rxtech-lab/argo-screener/internal/version"
	"github.com/rxtech-lab/argo-screener/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"
)

type BacktestEngineV1 struct {
	config        BacktestEngineV1Config
	log           *logger.Logger
	source        datasource.PriceSource
	cache         cache.ResultCache
	cacheSet      bool
	metrics       *stats.Metrics
	engineVersion string
	namespace     string
	flights       singleflight.Group
	closers       []func() error
}

var _ engine.Engine = (*BacktestEngineV1)(nil)

// Option configures a BacktestEngineV1.
type Option func(*BacktestEngineV1)

// WithLogger replaces the logger built from the config's log level.
func WithLogger(log *logger.Logger) Option {
	return func(b *BacktestEngineV1) {
		b.log = log
	}
}

// WithResultCache replaces the cache built from the config. A nil cache
// disables caching.
func WithResultCache(c cache.ResultCache) Option {
	return func(b *BacktestEngineV1) {
		b.cache = c
		b.cacheSet = true
	}
}

// WithMetrics records engine metrics into m.
func WithMetrics(m *stats.Metrics) Option {
	return func(b *BacktestEngineV1) {
		b.metrics = m
	}
}

// WithEngineVersion overrides the version used to namespace cache keys.
func WithEngineVersion(v string) Option {
	return func(b *BacktestEngineV1) {
		b.engineVersion = v
	}
}

// NewBacktestEngineV1 creates an engine reading prices from source.
func NewBacktestEngineV1(config BacktestEngineV1Config, source datasource.PriceSource, opts ...Option) (*BacktestEngineV1, error) {
	if source == nil {
		return nil, errors.New(errors.ErrCodeBacktestNoDatasource, "no price source set")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	if config.Cache.KeyPrefix == "" {
		config.Cache.KeyPrefix = cache.DefaultKeyPrefix
	}

	b := &BacktestEngineV1{
		config:        config,
		source:        source,
		engineVersion: version.Version,
	}

	for _, opt := range opts {
		opt(b)
	}

	if b.log == nil {
		log, err := logger.NewLoggerWithLevel(config.LogLevel)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeBacktestConfigError, "failed to create logger", err)
		}

		b.log = log
	}

	if config.PriceFetchRPS > 0 {
		b.source = datasource.NewRateLimitedSource(source, config.PriceFetchRPS, config.PriceFetchBurst)
	}

	b.namespace = version.Namespace(b.engineVersion)

	if !b.cacheSet && !config.Cache.Disabled {
		b.cache = b.newResultCache()
	}

	b.log.Debug("Backtest engine initialized",
		zap.String("version", b.engineVersion),
		zap.String("namespace", b.namespace),
		zap.Bool("cache", b.cache != nil),
	)

	return b, nil
}

// newResultCache builds the in-process cache, fronting Redis when an address is configured.
func (b *BacktestEngineV1) newResultCache() cache.ResultCache {
	cfg := b.config.Cache
	local := cache.NewMemoryCache(cfg.TTL, cfg.MemoryBudgetBytes)

	if cfg.Redis.Addr == "" {
		return local
	}

	shared := cache.NewRedisCache(cache.NewRedisClient(cfg.Redis), cfg.TTL, cfg.KeyPrefix, b.engineVersion, cfg.Redis.BreakerFailures)
	b.closers = append(b.closers, shared.Close)

	return cache.NewTieredCache(local, shared)
}

// Close releases connections held by the engine.
func (b *BacktestEngineV1) Close() error {
	var firstErr error

	for _, closeFn := range b.closers {
		if err := closeFn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	b.closers = nil

	return firstErr
}

// job is a validated strategy request.
type job struct {
	config strategy.Config
	params strategy.Params
	mode   types.SamplingMode
}

func (j job) minBars() int {
	return j.params.MinBars(j.mode)
}

func (b *BacktestEngineV1) prepare(config strategy.Config) (job, error) {
	params, err := config.Parse()
	if err != nil {
		return job{}, err
	}

	mode := config.Mode(b.config.SamplingMode)
	if err := mode.Validate(); err != nil {
		return job{}, err
	}

	return job{config: config, params: params, mode: mode}, nil
}

func (b *BacktestEngineV1) cacheKey(j job, assetID string) string {
	return cache.NewKey(b.config.Cache.KeyPrefix, b.namespace, cache.KeyInput{
		Kind:        string(j.params.Kind()),
		AssetID:     assetID,
		Params:      j.params.Values(),
		InitialCash: j.config.InitialCash,
		FeeRate:     j.config.FeeRate,
		Start:       j.config.StartDate,
		End:         j.config.EndDate,
		Mode:        j.mode,
	})
}

// cacheState tracks whether the cache is still used within one batch.
type cacheState struct {
	degraded atomic.Bool
}

// RunSingle implements engine.Engine.
func (b *BacktestEngineV1) RunSingle(ctx context.Context, config strategy.Config, assetID string) (types.BacktestResult, error) {
	j, err := b.prepare(config)
	if err != nil {
		return types.BacktestResult{}, err
	}

	return b.runAsset(ctx, j, assetID, &cacheState{})
}

// RunBatch implements engine.Engine.
func (b *BacktestEngineV1) RunBatch(ctx context.Context, config strategy.Config, assetIDs []string, maxWorkers int, callbacks engine.LifecycleCallbacks) (types.BatchResult, error) {
	j, err := b.prepare(config)
	if err != nil {
		b.log.Error("Invalid strategy config",
			zap.String("strategy", string(config.Kind)),
			zap.Error(err),
		)

		return types.BatchResult{}, err
	}

	return b.runBatch(ctx, j, assetIDs, maxWorkers, callbacks)
}

// RunUniverse implements engine.Engine.
func (b *BacktestEngineV1) RunUniverse(ctx context.Context, config strategy.Config, maxWorkers int, callbacks engine.LifecycleCallbacks) (types.BatchResult, error) {
	j, err := b.prepare(config)
	if err != nil {
		return types.BatchResult{}, err
	}

	assets, err := b.source.ListAssetsWithSufficientData(ctx, j.minBars(), j.mode)
	if err != nil {
		return types.BatchResult{}, err
	}

	if len(assets) == 0 {
		return types.BatchResult{}, errors.Newf(errors.ErrCodeBacktestNoAssets,
			"no asset has %d %s bars", j.minBars(), j.mode)
	}

	return b.runBatch(ctx, j, assets, maxWorkers, callbacks)
}

// outcome is the slot of one asset in a batch.
type outcome struct {
	dispatched bool
	result     types.BacktestResult
	err        error
}

func (b *BacktestEngineV1) runBatch(ctx context.Context, j job, assetIDs []string, maxWorkers int, callbacks engine.LifecycleCallbacks) (types.BatchResult, error) {
	assets := dedupeAssets(assetIDs)
	workers := poolSize(maxWorkers, b.config.MaxWorkers, b.config.WorkerHardCap, len(assets))

	batch := types.BatchResult{
		ID:        uuid.NewString(),
		Status:    types.BatchStatusPending,
		Results:   []types.BacktestResult{},
		Failures:  []types.AssetFailure{},
		StartedAt: time.Now(),
	}

	if callbacks.OnBatchStart != nil {
		if err := (*callbacks.OnBatchStart)(batch.ID, len(assets), workers); err != nil {
			return batch, err
		}
	}

	batch.Status = types.BatchStatusRunning
	b.log.Info("Batch started",
		zap.String("batch_id", batch.ID),
		zap.String("strategy", string(j.params.Kind())),
		zap.String("sampling_mode", string(j.mode)),
		zap.Int("assets", len(assets)),
		zap.Int("workers", workers),
	)

	var (
		mu        sync.Mutex
		completed int
		state     cacheState
		outcomes  = make([]outcome, len(assets))
		sem       = semaphore.NewWeighted(int64(workers))
		g         errgroup.Group
	)

	// running assets finish even when ctx is cancelled
	detached := context.WithoutCancel(ctx)

	for i, assetID := range assets {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}

		if ctx.Err() != nil {
			sem.Release(1)

			break
		}

		outcomes[i].dispatched = true

		g.Go(func() error {
			defer sem.Release(1)
			defer b.metrics.WorkerStarted()()

			start := time.Now()
			result, err := b.runAsset(detached, j, assetID, &state)
			b.metrics.ObserveAsset(errors.Reason(err), time.Since(start))

			if err != nil {
				b.log.Warn("Asset backtest failed",
					zap.String("batch_id", batch.ID),
					zap.String("asset", assetID),
					zap.String("reason", errors.Reason(err)),
					zap.Error(err),
				)
			}

			mu.Lock()
			defer mu.Unlock()

			outcomes[i].result = result
			outcomes[i].err = err
			completed++

			if callbacks.OnAssetEnd != nil {
				(*callbacks.OnAssetEnd)(assetID, completed, len(assets), err)
			}

			return nil
		})
	}

	_ = g.Wait()

	for i, assetID := range assets {
		o := outcomes[i]

		switch {
		case !o.dispatched:
			batch.Skipped = append(batch.Skipped, assetID)
		case o.err != nil:
			batch.Failures = append(batch.Failures, types.AssetFailure{
				AssetID: assetID,
				Reason:  errors.Reason(o.err),
				Message: o.err.Error(),
				Err:     o.err,
			})
		default:
			batch.Results = append(batch.Results, o.result)
		}
	}

	sortResults(batch.Results)
	sortFailures(batch.Failures)

	batch.Succeeded = len(batch.Results)
	batch.Failed = len(batch.Failures)
	batch.EndedAt = time.Now()

	var runErr error

	if len(batch.Skipped) > 0 {
		batch.Status = types.BatchStatusCancelled
		runErr = errors.Wrap(errors.ErrCodeBatchCancelled, "batch cancelled before every asset was dispatched", context.Cause(ctx))
	} else {
		batch.Status = types.BatchStatusCompleted
	}

	b.metrics.ObserveBatch(string(batch.Status), batch.EndedAt.Sub(batch.StartedAt))
	b.log.Info("Batch finished",
		zap.String("batch_id", batch.ID),
		zap.String("status", string(batch.Status)),
		zap.Int("succeeded", batch.Succeeded),
		zap.Int("failed", batch.Failed),
		zap.Int("skipped", len(batch.Skipped)),
		zap.Duration("elapsed", batch.EndedAt.Sub(batch.StartedAt)),
	)

	if callbacks.OnBatchEnd != nil {
		(*callbacks.OnBatchEnd)(batch)
	}

	return batch, runErr
}

// runAsset serves one asset from the cache or computes it. Concurrent misses
// on the same key share one computation.
func (b *BacktestEngineV1) runAsset(ctx context.Context, j job, assetID string, state *cacheState) (types.BacktestResult, error) {
	key := b.cacheKey(j, assetID)

	if cached, ok := b.lookup(ctx, key, state); ok {
		return cached, nil
	}

	v, err, _ := b.flights.Do(key, func() (interface{}, error) {
		result, err := b.computeSafely(ctx, j, assetID)
		if err != nil {
			return nil, err
		}

		b.store(ctx, key, result, state)

		return result, nil
	})
	if err != nil {
		return types.BacktestResult{}, err
	}

	result := v.(types.BacktestResult)
	result.Trades = slices.Clone(result.Trades)

	return result, nil
}

// computeSafely reports a panic during one asset's run as that asset's failure.
func (b *BacktestEngineV1) computeSafely(ctx context.Context, j job, assetID string) (result types.BacktestResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf(errors.ErrCodeBacktestSimulationErr, "backtest of %s panicked: %v", assetID, r)
		}
	}()

	return b.compute(ctx, j, assetID)
}

func (b *BacktestEngineV1) lookup(ctx context.Context, key string, state *cacheState) (types.BacktestResult, bool) {
	if b.cache == nil || state.degraded.Load() {
		b.metrics.ObserveCacheLookup(stats.CacheBypass)

		return types.BacktestResult{}, false
	}

	result, ok, err := b.cache.Get(ctx, key)
	if err != nil {
		b.metrics.ObserveCacheLookup(stats.CacheError)
		b.cacheFailed(key, err, state)

		return types.BacktestResult{}, false
	}

	if !ok {
		b.metrics.ObserveCacheLookup(stats.CacheMiss)

		return types.BacktestResult{}, false
	}

	b.metrics.ObserveCacheLookup(stats.CacheHit)

	result.FromCache = true

	return result, true
}

func (b *BacktestEngineV1) store(ctx context.Context, key string, result types.BacktestResult, state *cacheState) {
	if b.cache == nil || state.degraded.Load() {
		return
	}

	if err := b.cache.Set(ctx, key, result); err != nil {
		b.cacheFailed(key, err, state)
	}
}

// cacheFailed stops cache use for the rest of the batch when the backend is
// unavailable. Other cache errors only affect the current lookup.
func (b *BacktestEngineV1) cacheFailed(key string, err error, state *cacheState) {
	if !errors.IsCacheUnavailableError(err) {
		b.log.Warn("Result cache error",
			zap.String("key", key),
			zap.Error(err),
		)

		return
	}

	if state.degraded.CompareAndSwap(false, true) {
		b.log.Warn("Result cache unavailable, computing every remaining result",
			zap.Error(err),
		)
	}
}

// compute runs indicators, signals, simulation and metrics for one asset.
func (b *BacktestEngineV1) compute(ctx context.Context, j job, assetID string) (types.BacktestResult, error) {
	series, err := b.source.GetPriceSeries(ctx, assetID, j.config.StartDate, j.config.EndDate, j.mode)
	if err != nil {
		return types.BacktestResult{}, err
	}

	if err := series.Validate(); err != nil {
		return types.BacktestResult{}, err
	}

	if required := j.minBars(); series.Len() < required {
		return types.BacktestResult{}, errors.NewInsufficientDataErrorf(required, series.Len(), assetID,
			"%s needs %d %s bars, %s has %d", j.params.Kind(), required, j.mode, assetID, series.Len())
	}

	signals, err := strategy.Evaluate(series, j.params)
	if err != nil {
		return types.BacktestResult{}, err
	}

	sim, err := portfolio.Simulate(series, signals, j.config.InitialCash, j.config.FeeRate)
	if err != nil {
		return types.BacktestResult{}, err
	}

	summary, err := metrics.Calculate(metrics.Input{
		InitialCash: j.config.InitialCash,
		Trades:      sim.Trades,
		Snapshots:   sim.Snapshots,
		FirstClose:  series.First().Close,
		LastClose:   series.Last().Close,
	})
	if err != nil {
		return types.BacktestResult{}, errors.Wrapf(errors.ErrCodeBacktestSimulationErr, err, "failed to summarize %s", assetID)
	}

	return types.BacktestResult{
		AssetID:             assetID,
		Strategy:            string(j.params.Kind()),
		SamplingMode:        j.mode,
		BarCount:            series.Len(),
		FirstBarTime:        series.First().Time,
		LastBarTime:         series.Last().Time,
		FinalValue:          summary.FinalValue,
		TotalReturnPct:      summary.TotalReturnPct,
		TradeCount:          summary.TradeCount,
		WinningTradeCount:   summary.WinningTradeCount,
		LosingTradeCount:    summary.LosingTradeCount,
		WinRatePct:          summary.WinRatePct,
		MaxDrawdownPct:      summary.MaxDrawdownPct,
		BuyAndHoldReturnPct: summary.BuyAndHoldReturnPct,
		StrategyVsHoldPct:   summary.StrategyVsHoldPct,
		TotalFees:           summary.TotalFees,
		Trades:              sim.Trades,
	}, nil
}

// InvalidateCache implements engine.Engine.
func (b *BacktestEngineV1) InvalidateCache(ctx context.Context, pattern string) (int, error) {
	if b.cache == nil {
		return 0, nil
	}

	removed, err := b.cache.Invalidate(ctx, pattern)
	if err != nil {
		return 0, err
	}

	b.log.Info("Result cache invalidated",
		zap.String("pattern", pattern),
		zap.Int("removed", removed),
	)

	return removed, nil
}

// CacheStats implements engine.Engine.
func (b *BacktestEngineV1) CacheStats(ctx context.Context) (cache.Stats, error) {
	if b.cache == nil {
		return cache.Stats{}, nil
	}

	return b.cache.Stats(ctx)
}

// KeyPrefix returns the prefix of every cache key the engine writes.
func (b *BacktestEngineV1) KeyPrefix() string {
	return b.config.Cache.KeyPrefix
}

// GetConfigSchema implements engine.Engine.
func (b *BacktestEngineV1) GetConfigSchema() (string, error) {
	config := b.config

	schema, err := config.GenerateSchemaJSON()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeBacktestConfigError, "failed to generate schema", err)
	}

	return schema, nil
}
