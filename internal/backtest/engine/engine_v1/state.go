package engine

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-screener/internal/logger"
	"github.com/rxtech-lab/argo-screener/internal/types"
	"github.com/rxtech-lab/argo-screener/pkg/errors"
	"go.uber.org/zap"
)

// BatchState collects finished batches in an in-memory DuckDB so they can be
// queried across batches and exported as parquet.
type BatchState struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewBatchState opens an empty in-memory store.
func NewBatchState(logger *logger.Logger) (*BatchState, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open database", err)
	}

	state := &BatchState{
		logger: logger,
		db:     db,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}

	if err := state.Initialize(); err != nil {
		db.Close()

		return nil, err
	}

	return state, nil
}

// Initialize creates the results and trades tables.
func (b *BatchState) Initialize() error {
	_, err := b.db.Exec(`
		CREATE TABLE IF NOT EXISTS results (
			batch_id TEXT,
			asset_id TEXT,
			strategy TEXT,
			sampling_mode TEXT,
			bar_count INTEGER,
			first_bar_time TIMESTAMP,
			last_bar_time TIMESTAMP,
			final_value DOUBLE,
			total_return_pct DOUBLE,
			trade_count INTEGER,
			winning_trade_count INTEGER,
			losing_trade_count INTEGER,
			win_rate_pct DOUBLE,
			max_drawdown_pct DOUBLE,
			buy_and_hold_return_pct DOUBLE,
			strategy_vs_hold_pct DOUBLE,
			total_fees DOUBLE,
			from_cache BOOLEAN
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to create results table", err)
	}

	_, err = b.db.Exec(`
		CREATE TABLE IF NOT EXISTS trades (
			batch_id TEXT,
			asset_id TEXT,
			timestamp TIMESTAMP,
			side TEXT,
			price DOUBLE,
			quantity DOUBLE,
			fee DOUBLE,
			cash_after DOUBLE,
			position_after DOUBLE
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to create trades table", err)
	}

	return nil
}

// Record stores every result and trade of batch in one transaction.
func (b *BatchState) Record(batch types.BatchResult) error {
	tx, err := b.db.Begin()
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to begin transaction", err)
	}

	for _, result := range batch.Results {
		_, err := b.sq.
			Insert("results").
			Columns(
				"batch_id", "asset_id", "strategy", "sampling_mode", "bar_count",
				"first_bar_time", "last_bar_time", "final_value", "total_return_pct",
				"trade_count", "winning_trade_count", "losing_trade_count", "win_rate_pct",
				"max_drawdown_pct", "buy_and_hold_return_pct", "strategy_vs_hold_pct",
				"total_fees", "from_cache",
			).
			Values(
				batch.ID, result.AssetID, result.Strategy, string(result.SamplingMode), result.BarCount,
				result.FirstBarTime, result.LastBarTime, result.FinalValue, result.TotalReturnPct,
				result.TradeCount, result.WinningTradeCount, result.LosingTradeCount, result.WinRatePct,
				result.MaxDrawdownPct, result.BuyAndHoldReturnPct, result.StrategyVsHoldPct,
				result.TotalFees, result.FromCache,
			).
			RunWith(tx).
			Exec()
		if err != nil {
			tx.Rollback()

			return errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to insert result of %s", result.AssetID)
		}

		if len(result.Trades) == 0 {
			continue
		}

		insertTrades := b.sq.
			Insert("trades").
			Columns("batch_id", "asset_id", "timestamp", "side", "price", "quantity", "fee", "cash_after", "position_after")

		for _, trade := range result.Trades {
			insertTrades = insertTrades.Values(
				batch.ID, result.AssetID, trade.Time, string(trade.Side), trade.Price,
				trade.Quantity, trade.Fee, trade.CashAfter, trade.PositionAfter,
			)
		}

		if _, err := insertTrades.RunWith(tx).Exec(); err != nil {
			tx.Rollback()

			return errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to insert trades of %s", result.AssetID)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to commit batch", err)
	}

	return nil
}

// RankedAsset is one row of TopAssets.
type RankedAsset struct {
	AssetID        string
	Strategy       string
	TotalReturnPct float64
	Runs           int
}

// TopAssets ranks assets by their best total return over every recorded batch.
func (b *BatchState) TopAssets(limit int) ([]RankedAsset, error) {
	query := b.sq.
		Select("asset_id", "arg_max(strategy, total_return_pct)", "max(total_return_pct) AS best_return", "count(*)").
		From("results").
		GroupBy("asset_id").
		OrderBy("best_return DESC", "asset_id ASC")

	if limit > 0 {
		query = query.Limit(uint64(limit))
	}

	rows, err := query.RunWith(b.db).Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query results", err)
	}
	defer rows.Close()

	ranked := []RankedAsset{}

	for rows.Next() {
		var row RankedAsset
		if err := rows.Scan(&row.AssetID, &row.Strategy, &row.TotalReturnPct, &row.Runs); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan result", err)
		}

		ranked = append(ranked, row)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating results", err)
	}

	return ranked, nil
}

// Cleanup drops everything recorded so far.
func (b *BatchState) Cleanup() error {
	// Squirrel has no DROP
	_, err := b.db.Exec(`
		DROP TABLE IF EXISTS trades;
		DROP TABLE IF EXISTS results;
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to cleanup tables", err)
	}

	return b.Initialize()
}

// Write exports results.parquet and trades.parquet into dir.
func (b *BatchState) Write(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	for _, table := range []string{"results", "trades"} {
		path := filepath.Join(dir, table+".parquet")

		// Squirrel has no COPY
		_, err := b.db.Exec(fmt.Sprintf(`COPY %s TO '%s' (FORMAT PARQUET)`, table, strings.ReplaceAll(path, "'", "''")))
		if err != nil {
			return errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to export %s to parquet", table)
		}
	}

	b.logger.Info("Exported batch results to parquet",
		zap.String("dir", dir),
	)

	return nil
}

// Close closes the database.
func (b *BatchState) Close() error {
	return b.db.Close()
}
