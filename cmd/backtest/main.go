package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	enginev1 "github.com/rxtech-lab/argo-screener/internal/backtest/engine/engine_v1"
	"github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:  "backtest",
		Usage: "Screen a universe of assets with a trading strategy",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the engine configuration `FILE` (YAML)",
			},
			&cli.StringFlag{
				Name:    "data-dir",
				Aliases: []string{"d"},
				Usage:   "Directory of per-asset parquet files (`DIR`/<ASSET>.parquet)",
			},
			&cli.StringFlag{
				Name:  "duckdb-glob",
				Usage: "Parquet file or glob with time, symbol, open, high, low, close and volume columns",
			},
		},
		Commands: []*cli.Command{
			runCommand(),
			assetsCommand(),
			cacheCommand(),
			schemaCommand(),
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Backtest a strategy over assets",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "strategy",
				Aliases:  []string{"s"},
				Usage:    "Path to the strategy configuration `FILE` (YAML)",
				Required: true,
			},
			&cli.StringSliceFlag{
				Name:    "asset",
				Aliases: []string{"a"},
				Usage:   "Asset to backtest; repeat for several. Without assets the whole universe runs",
			},
			&cli.IntFlag{
				Name:    "workers",
				Aliases: []string{"w"},
				Usage:   "Worker count; 0 uses the configured default",
			},
			&cli.IntFlag{
				Name:  "top",
				Usage: "Rows shown in the result table; 0 shows all",
				Value: 20,
			},
			&cli.StringFlag{
				Name:  "report",
				Usage: "Write the batch result as YAML to `FILE`",
			},
			&cli.StringFlag{
				Name:  "export",
				Usage: "Export results and trades as parquet into `DIR`",
			},
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "Serve Prometheus metrics on `ADDR` (for example :9090) while running",
			},
		},
		Action: runAction,
	}
}

func assetsCommand() *cli.Command {
	return &cli.Command{
		Name:  "assets",
		Usage: "List assets with enough bars",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "min-bars",
				Usage: "Minimum number of bars",
				Value: 1,
			},
			&cli.StringFlag{
				Name:  "mode",
				Usage: "Sampling mode; defaults to the configured mode",
			},
		},
		Action: assetsAction,
	}
}

func cacheCommand() *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect or clear the result cache",
		Commands: []*cli.Command{
			{
				Name:   "stats",
				Usage:  "Show result cache statistics",
				Action: cacheStatsAction,
			},
			{
				Name:  "invalidate",
				Usage: "Remove cached results",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "pattern",
						Usage: "Glob over cache keys",
					},
					&cli.StringFlag{
						Name:  "asset",
						Usage: "Remove every result of an asset",
					},
					&cli.StringFlag{
						Name:  "kind",
						Usage: "Remove every result of a strategy kind",
					},
					&cli.BoolFlag{
						Name:  "all",
						Usage: "Remove every result",
					},
				},
				Action: cacheInvalidateAction,
			},
		},
	}
}

func schemaCommand() *cli.Command {
	return &cli.Command{
		Name:  "schema",
		Usage: "Print the JSON schema of the engine configuration",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			config := enginev1.EmptyConfig()

			schema, err := config.GenerateSchemaJSON()
			if err != nil {
				return fmt.Errorf("failed to generate schema: %w", err)
			}

			fmt.Println(schema)

			return nil
		},
	}
}
