package datasource

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-screener/internal/logger"
	"github.com/rxtech-lab/argo-screener/internal/types"
	"github.com/rxtech-lab/argo-screener/pkg/errors"
	"go.uber.org/zap"
)

// DuckDBSource serves prices from parquet files queried through DuckDB. The
// files must hold the columns time, symbol, open, high, low, close and volume.
type DuckDBSource struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

var _ PriceSource = (*DuckDBSource)(nil)

// NewDuckDBSource opens a DuckDB database at path (":memory:" for an in-memory
// database). Call Initialize to attach market data.
func NewDuckDBSource(path string, logger *logger.Logger) (*DuckDBSource, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open duckdb", err)
	}

	return &DuckDBSource{
		db:     db,
		logger: logger,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}, nil
}

// Initialize exposes the parquet file or glob at dataPath as the market_data view.
func (d *DuckDBSource) Initialize(dataPath string) error {
	d.logger.Debug("Initializing DuckDB price source", zap.String("path", dataPath))

	if _, err := d.db.Exec(`DROP VIEW IF EXISTS market_data;`); err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to drop existing view", err)
	}

	// CREATE VIEW does not take bind parameters
	query := fmt.Sprintf(`
		CREATE VIEW market_data AS
		SELECT time, symbol, open, high, low, close, volume FROM read_parquet('%s');
	`, strings.ReplaceAll(dataPath, "'", "''"))

	if _, err := d.db.Exec(query); err != nil {
		return errors.Wrapf(errors.ErrCodeDataSourceUnavailable, err, "failed to load market data from %s", dataPath)
	}

	return nil
}

// GetPriceSeries implements PriceSource. Bars are aggregated with time_bucket.
func (d *DuckDBSource) GetPriceSeries(ctx context.Context, assetID string, start, end optional.Option[time.Time], mode types.SamplingMode) (types.PriceSeries, error) {
	query, args, err := d.buildSeriesQuery(assetID, start, end, mode)
	if err != nil {
		return types.PriceSeries{}, err
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return types.PriceSeries{}, errors.Wrapf(errors.ErrCodeHistoricalDataFailed, err, "failed to query prices for %s", assetID)
	}
	defer rows.Close()

	bars := make([]types.PriceBar, 0, 256)

	for rows.Next() {
		var bar types.PriceBar
		if err := rows.Scan(&bar.Time, &bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume); err != nil {
			return types.PriceSeries{}, errors.Wrap(errors.ErrCodeHistoricalDataFailed, "failed to scan row", err)
		}

		bar.Time = bar.Time.UTC()
		bars = append(bars, bar)
	}

	if err := rows.Err(); err != nil {
		return types.PriceSeries{}, errors.Wrap(errors.ErrCodeHistoricalDataFailed, "error iterating rows", err)
	}

	if len(bars) == 0 {
		return types.PriceSeries{}, errors.NewNoDataErrorf(assetID, "no price data for %s in range", assetID)
	}

	series := types.PriceSeries{AssetID: assetID, Mode: mode, Bars: bars}
	if err := series.Validate(); err != nil {
		return types.PriceSeries{}, err
	}

	return series, nil
}

// ListAssetsWithSufficientData implements PriceSource.
func (d *DuckDBSource) ListAssetsWithSufficientData(ctx context.Context, minBars int, mode types.SamplingMode) ([]string, error) {
	minutes, err := getIntervalMinutes(mode)
	if err != nil {
		return nil, err
	}

	query, args, err := d.sq.
		Select("symbol").
		From("market_data").
		GroupBy("symbol").
		Having(fmt.Sprintf("COUNT(DISTINCT %s) >= ?", bucketExpr(minutes)), minBars).
		OrderBy("symbol ASC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to list assets", err)
	}
	defer rows.Close()

	assets := []string{}

	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan row", err)
		}

		assets = append(assets, symbol)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating rows", err)
	}

	return assets, nil
}

// Close releases the database.
func (d *DuckDBSource) Close() error {
	if d.db != nil {
		return d.db.Close()
	}

	return nil
}

// buildSeriesQuery constructs the aggregation query for GetPriceSeries.
func (d *DuckDBSource) buildSeriesQuery(assetID string, start, end optional.Option[time.Time], mode types.SamplingMode) (string, []interface{}, error) {
	minutes, err := getIntervalMinutes(mode)
	if err != nil {
		return "", nil, err
	}

	bucket := bucketExpr(minutes)

	builder := d.sq.
		Select(
			bucket+" AS bucket_time",
			"arg_min(open, time) AS open",
			"max(high) AS high",
			"min(low) AS low",
			"arg_max(close, time) AS close",
			"sum(volume) AS volume",
		).
		From("market_data").
		Where(squirrel.Eq{"symbol": assetID})

	if start.IsSome() {
		builder = builder.Where(squirrel.GtOrEq{"time": start.Unwrap()})
	}

	if end.IsSome() {
		builder = builder.Where(squirrel.LtOrEq{"time": end.Unwrap()})
	}

	query, args, err := builder.
		GroupBy("bucket_time").
		OrderBy("bucket_time ASC").
		ToSql()
	if err != nil {
		return "", nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err)
	}

	return query, args, nil
}

func bucketExpr(minutes int) string {
	return fmt.Sprintf("time_bucket(INTERVAL '%d minutes', time)", minutes)
}
