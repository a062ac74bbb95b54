// Package metrics reduces a simulated trade log and value series to summary
// statistics. Percentages and fee totals are computed with decimal arithmetic
// so identical inputs always give identical results.
package metrics

import (
	"math"
	"time"

	"github.com/rxtech-lab/argo-screener/internal/types"
	"github.com/rxtech-lab/argo-screener/pkg/errors"
	"github.com/shopspring/decimal"
)

// Input is everything the calculator needs from one simulation.
type Input struct {
	InitialCash float64
	Trades      []types.Trade
	Snapshots   []types.PortfolioSnapshot
	FirstClose  float64
	LastClose   float64
}

// Summary holds the computed statistics of one run.
type Summary struct {
	FinalValue          float64
	TotalReturnPct      float64
	BuyAndHoldReturnPct float64
	StrategyVsHoldPct   float64
	MaxDrawdownPct      float64
	TradeCount          int
	WinningTradeCount   int
	LosingTradeCount    int
	// WinRatePct is 0 when no buy/sell pair has closed.
	WinRatePct float64
	TotalFees  float64
}

var hundred = decimal.NewFromInt(100)

// Calculate computes the summary. Without snapshots the final value is the initial cash.
// Any NaN or infinite input is an ErrCodeBacktestSimulationErr error.
func Calculate(in Input) (Summary, error) {
	if err := in.validate(); err != nil {
		return Summary{}, err
	}

	finalValue := in.InitialCash
	if len(in.Snapshots) > 0 {
		finalValue = in.Snapshots[len(in.Snapshots)-1].TotalValue
	}

	totalReturn := ChangePct(in.InitialCash, finalValue)
	buyAndHold := ChangePct(in.FirstClose, in.LastClose)

	wins, losses := WinLoss(in.InitialCash, in.Trades)

	summary := Summary{
		FinalValue:          finalValue,
		TotalReturnPct:      toFloat(totalReturn),
		BuyAndHoldReturnPct: toFloat(buyAndHold),
		StrategyVsHoldPct:   toFloat(totalReturn.Sub(buyAndHold)),
		MaxDrawdownPct:      MaxDrawdownPct(in.Snapshots),
		TradeCount:          len(in.Trades),
		WinningTradeCount:   wins,
		LosingTradeCount:    losses,
		TotalFees:           TotalFees(in.Trades),
	}

	if closed := closedPairs(in.Trades); closed > 0 {
		summary.WinRatePct = toFloat(decimal.NewFromInt(int64(wins)).Div(decimal.NewFromInt(int64(closed))).Mul(hundred))
	}

	return summary, nil
}

func (in Input) validate() error {
	inputs := []struct {
		name  string
		value float64
	}{
		{"initial cash", in.InitialCash},
		{"first close", in.FirstClose},
		{"last close", in.LastClose},
	}

	for _, input := range inputs {
		if !isFinite(input.value) {
			return errors.Newf(errors.ErrCodeBacktestSimulationErr, "%s is not finite: %g", input.name, input.value)
		}
	}

	for _, snap := range in.Snapshots {
		if !isFinite(snap.TotalValue) {
			return errors.Newf(errors.ErrCodeBacktestSimulationErr,
				"portfolio value is not finite at %s: %g", snap.Time.Format(time.RFC3339), snap.TotalValue)
		}
	}

	for i, trade := range in.Trades {
		if !isFinite(trade.Fee) || !isFinite(trade.CashAfter) {
			return errors.Newf(errors.ErrCodeBacktestSimulationErr, "trade %d has a non-finite fee or cash balance", i)
		}
	}

	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// fromFloat converts v to a decimal. NaN and infinities become zero, since
// decimal.NewFromFloat panics on them.
func fromFloat(v float64) decimal.Decimal {
	if !isFinite(v) {
		return decimal.Zero
	}

	return decimal.NewFromFloat(v)
}

// ChangePct returns (to - from) / from * 100, or zero when from is zero or
// either value is not finite.
func ChangePct(from, to float64) decimal.Decimal {
	if from == 0 || !isFinite(from) || !isFinite(to) {
		return decimal.Zero
	}

	fromDec := decimal.NewFromFloat(from)

	return decimal.NewFromFloat(to).Sub(fromDec).Div(fromDec).Mul(hundred)
}

// MaxDrawdownPct returns the largest decline from a running peak of total value,
// in percent. Snapshots before the first positive value are ignored.
func MaxDrawdownPct(snapshots []types.PortfolioSnapshot) float64 {
	var peak, maxDrawdown float64

	for _, snap := range snapshots {
		value := snap.TotalValue
		if value > peak {
			peak = value
		}

		if peak <= 0 {
			continue
		}

		if drawdown := (peak - value) / peak; drawdown > maxDrawdown {
			maxDrawdown = drawdown
		}
	}

	return toFloat(fromFloat(maxDrawdown).Mul(hundred))
}

// WinLoss pairs buys with the next sell in execution order. A pair wins when the
// sell's cash after exceeds the cash committed at the buy and loses when it is
// below. An unmatched trailing buy counts as neither.
func WinLoss(initialCash float64, trades []types.Trade) (wins, losses int) {
	cash := initialCash
	committed := 0.0
	open := false

	for _, trade := range trades {
		switch trade.Side {
		case types.SideBuy:
			committed = cash
			open = true
		case types.SideSell:
			if !open {
				continue
			}

			switch {
			case trade.CashAfter > committed:
				wins++
			case trade.CashAfter < committed:
				losses++
			}

			cash = trade.CashAfter
			open = false
		}
	}

	return wins, losses
}

// TotalFees sums the fee of every trade.
func TotalFees(trades []types.Trade) float64 {
	total := decimal.Zero
	for _, trade := range trades {
		total = total.Add(fromFloat(trade.Fee))
	}

	return toFloat(total)
}

func closedPairs(trades []types.Trade) int {
	pairs := 0
	open := false

	for _, trade := range trades {
		switch {
		case trade.Side == types.SideBuy:
			open = true
		case trade.Side == types.SideSell && open:
			pairs++
			open = false
		}
	}

	return pairs
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()

	return f
}
