package engine

import (
	"context"

	"github.com/rxtech-lab/argo-screener/internal/backtest/engine/engine_v1/cache"
	"github.com/rxtech-lab/argo-screener/internal/strategy"
	"github.com/rxtech-lab/argo-screener/internal/types"
)

// Lifecycle callback types for batch phases.

// OnBatchStartCallback is called once the batch is validated, before any asset is
// dispatched. Returning an error aborts the batch.
type OnBatchStartCallback func(batchID string, totalAssets int, workers int) error

// OnAssetEndCallback is called each time an asset finishes, in completion order.
// err is nil when the asset produced a result. completed counts finished assets
// including this one.
type OnAssetEndCallback func(assetID string, completed int, total int, err error)

// OnBatchEndCallback is called with the final batch result, also after cancellation.
type OnBatchEndCallback func(result types.BatchResult)

// LifecycleCallbacks holds all lifecycle callback functions for the backtest engine.
// All fields are pointers - nil means no callback will be invoked.
// Callbacks may be called from worker goroutines but never concurrently.
type LifecycleCallbacks struct {
	OnBatchStart *OnBatchStartCallback
	OnAssetEnd   *OnAssetEndCallback
	OnBatchEnd   *OnBatchEndCallback
}

type Engine interface {
	// RunSingle backtests one asset. Per-asset failures such as missing or
	// insufficient data are returned as errors.
	RunSingle(ctx context.Context, config strategy.Config, assetID string) (types.BacktestResult, error)
	// RunBatch backtests every asset with up to maxWorkers workers (0 uses the
	// engine default). Per-asset failures are collected in the result and never
	// abort the batch; an invalid config aborts before dispatch. When ctx is
	// cancelled no new asset is started, running assets finish, and the partial
	// result is returned together with the context error.
	RunBatch(ctx context.Context, config strategy.Config, assetIDs []string, maxWorkers int, callbacks LifecycleCallbacks) (types.BatchResult, error)
	// RunUniverse runs a batch over every asset the price source holds enough
	// bars of for the strategy.
	RunUniverse(ctx context.Context, config strategy.Config, maxWorkers int, callbacks LifecycleCallbacks) (types.BatchResult, error)
	// InvalidateCache removes cached results whose key matches the glob pattern.
	InvalidateCache(ctx context.Context, pattern string) (int, error)
	// CacheStats reports the result cache occupancy and hit rate.
	CacheStats(ctx context.Context) (cache.Stats, error)
	// GetConfigSchema returns the schema of the engine configuration
	GetConfigSchema() (string, error)
}
