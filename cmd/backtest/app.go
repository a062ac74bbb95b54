package main

import (
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	enginev1 "github.com/rxtech-lab/argo-screener/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-screener/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-screener/internal/backtest/engine/engine_v1/stats"
	"github.com/rxtech-lab/argo-screener/internal/logger"
	"github.com/urfave/cli/v3"
)

// app is the engine and everything it was built from.
type app struct {
	config      enginev1.BacktestEngineV1Config
	engine      *enginev1.BacktestEngineV1
	source      datasource.PriceSource
	logger      *logger.Logger
	closeSource func() error
}

// loadEngineConfig reads the engine configuration, or the defaults when path is empty.
func loadEngineConfig(path string) (enginev1.BacktestEngineV1Config, error) {
	if path == "" {
		return enginev1.EmptyConfig(), nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return enginev1.BacktestEngineV1Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	return enginev1.LoadConfig(content)
}

// newApp builds the engine from the global flags. A non-nil reg gets the
// engine metrics registered.
func newApp(cmd *cli.Command, reg prometheus.Registerer) (*app, error) {
	config, err := loadEngineConfig(cmd.String("config"))
	if err != nil {
		return nil, err
	}

	log, err := logger.NewLoggerWithLevel(config.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	source, closeSource, err := openSource(cmd.String("data-dir"), cmd.String("duckdb-glob"), log)
	if err != nil {
		return nil, err
	}

	opts := []enginev1.Option{enginev1.WithLogger(log)}
	if reg != nil {
		opts = append(opts, enginev1.WithMetrics(stats.NewMetrics(reg)))
	}

	engine, err := enginev1.NewBacktestEngineV1(config, source, opts...)
	if err != nil {
		closeSource()

		return nil, err
	}

	return &app{
		config:      config,
		engine:      engine,
		source:      source,
		logger:      log,
		closeSource: closeSource,
	}, nil
}

// Close releases the engine cache and the price source.
func (a *app) Close() error {
	engineErr := a.engine.Close()
	sourceErr := a.closeSource()
	_ = a.logger.Sync()

	if engineErr != nil {
		return engineErr
	}

	return sourceErr
}
