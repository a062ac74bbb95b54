package main

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rxtech-lab/argo-screener/internal/backtest/engine"
	enginev1 "github.com/rxtech-lab/argo-screener/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-screener/internal/backtest/engine/engine_v1/cache"
	"github.com/rxtech-lab/argo-screener/internal/strategy"
	"github.com/rxtech-lab/argo-screener/internal/types"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func runAction(ctx context.Context, cmd *cli.Command) error {
	config, err := strategy.LoadConfig(cmd.String("strategy"))
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()

	app, err := newApp(cmd, reg)
	if err != nil {
		return err
	}
	defer app.Close()

	if addr := cmd.String("metrics-addr"); addr != "" {
		server := newMetricsServer(addr, reg)
		server.Start(app.logger)
		defer server.Shutdown(context.Background())
	}

	var bar *progressbar.ProgressBar

	onBatchStart := engine.OnBatchStartCallback(func(batchID string, totalAssets int, workers int) error {
		app.logger.Info("Batch started",
			zap.String("batch_id", batchID),
			zap.Int("assets", totalAssets),
			zap.Int("workers", workers),
		)

		bar = progressbar.NewOptions(totalAssets,
			progressbar.OptionSetDescription(fmt.Sprintf("Backtesting %s", config.Kind)),
			progressbar.OptionShowCount(),
		)

		return nil
	})
	onAssetEnd := engine.OnAssetEndCallback(func(assetID string, completed int, total int, err error) {
		if bar != nil {
			_ = bar.Add(1)
		}
	})
	onBatchEnd := engine.OnBatchEndCallback(func(result types.BatchResult) {
		if bar != nil {
			_ = bar.Finish()
		}
	})

	callbacks := engine.LifecycleCallbacks{
		OnBatchStart: &onBatchStart,
		OnAssetEnd:   &onAssetEnd,
		OnBatchEnd:   &onBatchEnd,
	}

	var result types.BatchResult

	assets := cmd.StringSlice("asset")
	if len(assets) == 0 {
		result, err = app.engine.RunUniverse(ctx, config, int(cmd.Int("workers")), callbacks)
	} else {
		result, err = app.engine.RunBatch(ctx, config, assets, int(cmd.Int("workers")), callbacks)
	}

	// a cancelled batch still carries partial results worth reporting
	if err != nil && result.ID == "" {
		return err
	}

	fmt.Println()
	fmt.Println(renderBatch(result, int(cmd.Int("top"))))

	if path := cmd.String("report"); path != "" {
		if reportErr := types.WriteBatchReport(path, result); reportErr != nil {
			return reportErr
		}
	}

	if dir := cmd.String("export"); dir != "" {
		if exportErr := exportBatch(app, result, dir); exportErr != nil {
			return exportErr
		}
	}

	return err
}

// exportBatch writes the batch as parquet through a BatchState.
func exportBatch(a *app, result types.BatchResult, dir string) error {
	state, err := enginev1.NewBatchState(a.logger)
	if err != nil {
		return err
	}
	defer state.Close()

	if err := state.Record(result); err != nil {
		return err
	}

	return state.Write(dir)
}

func assetsAction(ctx context.Context, cmd *cli.Command) error {
	app, err := newApp(cmd, nil)
	if err != nil {
		return err
	}
	defer app.Close()

	mode := types.SamplingMode(cmd.String("mode"))
	if mode == "" {
		mode = app.config.SamplingMode
	}

	if err := mode.Validate(); err != nil {
		return err
	}

	assets, err := app.source.ListAssetsWithSufficientData(ctx, int(cmd.Int("min-bars")), mode)
	if err != nil {
		return err
	}

	fmt.Println(renderAssets(assets))

	return nil
}

func cacheStatsAction(ctx context.Context, cmd *cli.Command) error {
	app, err := newApp(cmd, nil)
	if err != nil {
		return err
	}
	defer app.Close()

	stats, err := app.engine.CacheStats(ctx)
	if err != nil {
		return err
	}

	fmt.Println(renderStats(stats))

	return nil
}

func cacheInvalidateAction(ctx context.Context, cmd *cli.Command) error {
	app, err := newApp(cmd, nil)
	if err != nil {
		return err
	}
	defer app.Close()

	pattern, err := invalidationPattern(app.engine.KeyPrefix(), cmd.String("pattern"), cmd.String("asset"), cmd.String("kind"), cmd.Bool("all"))
	if err != nil {
		return err
	}

	start := time.Now()

	removed, err := app.engine.InvalidateCache(ctx, pattern)
	if err != nil {
		return err
	}

	app.logger.Info("Invalidated cached results",
		zap.String("pattern", pattern),
		zap.Int("removed", removed),
		zap.Duration("elapsed", time.Since(start)),
	)
	fmt.Printf("Removed %d cached results matching %s\n", removed, pattern)

	return nil
}

// invalidationPattern turns exactly one of the invalidate selectors into a key glob.
func invalidationPattern(prefix, pattern, asset, kind string, all bool) (string, error) {
	selected := 0

	for _, set := range []bool{pattern != "", asset != "", kind != "", all} {
		if set {
			selected++
		}
	}

	if selected != 1 {
		return "", fmt.Errorf("exactly one of --pattern, --asset, --kind or --all is required")
	}

	switch {
	case pattern != "":
		return pattern, nil
	case asset != "":
		return cache.AssetPattern(prefix, asset), nil
	case kind != "":
		return cache.KindPattern(prefix, kind), nil
	default:
		return cache.AllPattern(prefix), nil
	}
}
