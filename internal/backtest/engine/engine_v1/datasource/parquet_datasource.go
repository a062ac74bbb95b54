package datasource

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/moznion/go-optional"
	"github.com/parquet-go/parquet-go"
	"github.com/rxtech-lab/argo-screener/internal/types"
	"github.com/rxtech-lab/argo-screener/pkg/errors"
)

// BarRecord is the on-disk parquet schema of ParquetSource.
type BarRecord struct {
	Symbol    string  `parquet:"symbol"`
	Timestamp int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	Open      float64 `parquet:"open"`
	High      float64 `parquet:"high"`
	Low       float64 `parquet:"low"`
	Close     float64 `parquet:"close"`
	Volume    float64 `parquet:"volume"`
}

// ParquetSource serves prices from one parquet file per asset:
//
//	<DataDir>/<ASSET>.parquet
//
// It needs no database and reads files on every call.
type ParquetSource struct {
	DataDir string
}

var _ PriceSource = (*ParquetSource)(nil)

// NewParquetSource creates a ParquetSource rooted at dataDir.
func NewParquetSource(dataDir string) *ParquetSource {
	return &ParquetSource{DataDir: dataDir}
}

// WriteBars writes bars of assetID, replacing the asset's file.
func (p *ParquetSource) WriteBars(assetID string, bars []types.PriceBar) error {
	records := make([]BarRecord, len(bars))
	for i, bar := range bars {
		records[i] = BarRecord{
			Symbol:    assetID,
			Timestamp: bar.Time.UnixMilli(),
			Open:      bar.Open,
			High:      bar.High,
			Low:       bar.Low,
			Close:     bar.Close,
			Volume:    bar.Volume,
		}
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Timestamp < records[j].Timestamp
	})

	if err := os.MkdirAll(p.DataDir, 0o755); err != nil {
		return errors.Wrapf(errors.ErrCodeDataSourceUnavailable, err, "failed to create %s", p.DataDir)
	}

	if err := parquet.WriteFile(p.path(assetID), records); err != nil {
		return errors.Wrapf(errors.ErrCodeDataSourceUnavailable, err, "failed to write bars for %s", assetID)
	}

	return nil
}

// GetPriceSeries implements PriceSource.
func (p *ParquetSource) GetPriceSeries(ctx context.Context, assetID string, start, end optional.Option[time.Time], mode types.SamplingMode) (types.PriceSeries, error) {
	if err := ctx.Err(); err != nil {
		return types.PriceSeries{}, err
	}

	bars, err := p.readBars(assetID)
	if err != nil {
		return types.PriceSeries{}, err
	}

	return buildSeries(assetID, bars, start, end, mode)
}

// ListAssetsWithSufficientData implements PriceSource.
func (p *ParquetSource) ListAssetsWithSufficientData(ctx context.Context, minBars int, mode types.SamplingMode) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(p.DataDir, "*.parquet"))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to list parquet files", err)
	}

	assets := []string{}

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		assetID := strings.TrimSuffix(filepath.Base(file), ".parquet")

		bars, err := p.readBars(assetID)
		if err != nil {
			return nil, err
		}

		resampled, err := Resample(bars, mode)
		if err != nil {
			return nil, err
		}

		if len(resampled) >= minBars {
			assets = append(assets, assetID)
		}
	}

	sort.Strings(assets)

	return assets, nil
}

func (p *ParquetSource) path(assetID string) string {
	return filepath.Join(p.DataDir, assetID+".parquet")
}

func (p *ParquetSource) readBars(assetID string) ([]types.PriceBar, error) {
	path := p.path(assetID)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, errors.NewNoDataErrorf(assetID, "no price data for %s", assetID)
	}

	records, err := parquet.ReadFile[BarRecord](path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeHistoricalDataFailed, err, "failed to read bars for %s", assetID)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Timestamp < records[j].Timestamp
	})

	bars := make([]types.PriceBar, len(records))
	for i, r := range records {
		bars[i] = types.PriceBar{
			Time:   time.UnixMilli(r.Timestamp).UTC(),
			Open:   r.Open,
			High:   r.High,
			Low:    r.Low,
			Close:  r.Close,
			Volume: r.Volume,
		}
	}

	return bars, nil
}
