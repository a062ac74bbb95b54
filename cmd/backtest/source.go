package main

import (
	"fmt"

	"github.com/rxtech-lab/argo-screener/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-screener/internal/logger"
)

// openSource builds the price source selected on the command line. The
// returned close function is never nil.
func openSource(dataDir, duckDBGlob string, log *logger.Logger) (datasource.PriceSource, func() error, error) {
	noop := func() error { return nil }

	switch {
	case dataDir != "" && duckDBGlob != "":
		return nil, noop, fmt.Errorf("--data-dir and --duckdb-glob are mutually exclusive")
	case dataDir != "":
		return datasource.NewCachedSource(datasource.NewParquetSource(dataDir)), noop, nil
	case duckDBGlob != "":
		source, err := datasource.NewDuckDBSource(":memory:", log)
		if err != nil {
			return nil, noop, err
		}

		if err := source.Initialize(duckDBGlob); err != nil {
			source.Close()

			return nil, noop, err
		}

		return datasource.NewCachedSource(source), source.Close, nil
	default:
		return nil, noop, fmt.Errorf("one of --data-dir or --duckdb-glob is required")
	}
}
