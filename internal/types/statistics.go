package types

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// BacktestResult is the outcome of one strategy run over one asset. It is the
// unit stored in the result cache and returned to callers.
type BacktestResult struct {
	AssetID      string       `yaml:"asset_id" json:"asset_id"`
	Strategy     string       `yaml:"strategy" json:"strategy"`
	SamplingMode SamplingMode `yaml:"sampling_mode" json:"sampling_mode"`
	BarCount     int          `yaml:"bar_count" json:"bar_count"`
	FirstBarTime time.Time    `yaml:"first_bar_time" json:"first_bar_time"`
	LastBarTime  time.Time    `yaml:"last_bar_time" json:"last_bar_time"`
	// FinalValue is cash plus the open position valued at the last close.
	FinalValue     float64 `yaml:"final_value" json:"final_value"`
	TotalReturnPct float64 `yaml:"total_return_pct" json:"total_return_pct"`
	// TradeCount counts every executed trade, buys and sells.
	TradeCount          int     `yaml:"trade_count" json:"trade_count"`
	WinningTradeCount   int     `yaml:"winning_trade_count" json:"winning_trade_count"`
	LosingTradeCount    int     `yaml:"losing_trade_count" json:"losing_trade_count"`
	WinRatePct          float64 `yaml:"win_rate_pct" json:"win_rate_pct"`
	MaxDrawdownPct      float64 `yaml:"max_drawdown_pct" json:"max_drawdown_pct"`
	BuyAndHoldReturnPct float64 `yaml:"buy_and_hold_return_pct" json:"buy_and_hold_return_pct"`
	StrategyVsHoldPct   float64 `yaml:"strategy_vs_hold_pct" json:"strategy_vs_hold_pct"`
	TotalFees           float64 `yaml:"total_fees" json:"total_fees"`
	Trades              []Trade `yaml:"trades" json:"trades"`
	// FromCache is set when the result was served by the result cache.
	FromCache bool `yaml:"from_cache" json:"from_cache"`
}

// BatchStatus is the lifecycle state of a batch request.
type BatchStatus string

const (
	BatchStatusPending   BatchStatus = "pending"
	BatchStatusRunning   BatchStatus = "running"
	BatchStatusCompleted BatchStatus = "completed"
	BatchStatusCancelled BatchStatus = "cancelled"
)

// AssetFailure records why one asset of a batch did not produce a result.
type AssetFailure struct {
	AssetID string `yaml:"asset_id" json:"asset_id"`
	// Reason is a short classification such as no_data or insufficient_data.
	Reason  string `yaml:"reason" json:"reason"`
	Message string `yaml:"message" json:"message"`
	Err     error  `yaml:"-" json:"-"`
}

// BatchResult aggregates the per-asset outcomes of one batch.
type BatchResult struct {
	ID     string      `yaml:"id" json:"id"`
	Status BatchStatus `yaml:"status" json:"status"`
	// Results are sorted by total return descending, ties by asset id ascending.
	Results   []BacktestResult `yaml:"results" json:"results"`
	Failures  []AssetFailure   `yaml:"failures" json:"failures"`
	Skipped   []string         `yaml:"skipped,omitempty" json:"skipped,omitempty"`
	Succeeded int              `yaml:"succeeded" json:"succeeded"`
	Failed    int              `yaml:"failed" json:"failed"`
	StartedAt time.Time        `yaml:"started_at" json:"started_at"`
	EndedAt   time.Time        `yaml:"ended_at" json:"ended_at"`
}

// Failure returns the failure recorded for an asset, if any.
func (b BatchResult) Failure(assetID string) (AssetFailure, bool) {
	for _, f := range b.Failures {
		if f.AssetID == assetID {
			return f, true
		}
	}

	return AssetFailure{}, false
}

// WriteBatchReport writes the batch result as YAML to path.
func WriteBatchReport(path string, result BatchResult) error {
	data, err := yaml.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal batch result to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write batch result to file: %w", err)
	}

	return nil
}
