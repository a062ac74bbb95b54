// Package portfolio replays a signal sequence against a price series for a single
// asset. The portfolio is either fully in cash or fully invested; there are no
// partial positions and no shorting.
package portfolio

import (
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-screener/internal/types"
	"github.com/rxtech-lab/argo-screener/pkg/errors"
)

// State is the position state of the portfolio.
type State int

const (
	// StateFlat holds cash only.
	StateFlat State = iota
	// StateInvested holds the position only.
	StateInvested
)

func (s State) String() string {
	switch s {
	case StateFlat:
		return "flat"
	case StateInvested:
		return "invested"
	default:
		return "unknown"
	}
}

// Position is the complete portfolio state between two bars.
type Position struct {
	State    State
	Cash     float64
	Quantity float64
}

// NewPosition returns a flat position holding cash.
func NewPosition(cash float64) Position {
	return Position{State: StateFlat, Cash: cash}
}

// Value returns cash plus the position marked at price.
func (p Position) Value(price float64) float64 {
	return p.Cash + p.Quantity*price
}

// Step applies one signal at the close of bar. A buy while flat and a sell while
// invested are the only transitions; every other combination returns pos
// unchanged and no trade.
func Step(pos Position, signal types.Signal, bar types.PriceBar, feeRate float64) (Position, optional.Option[types.Trade]) {
	switch {
	case pos.State == StateFlat && signal == types.SignalBuy:
		fee := pos.Cash * feeRate
		quantity := (pos.Cash - fee) / bar.Close
		next := Position{State: StateInvested, Cash: 0, Quantity: quantity}

		return next, optional.Some(types.Trade{
			Time:          bar.Time,
			Side:          types.SideBuy,
			Price:         bar.Close,
			Quantity:      quantity,
			Fee:           fee,
			CashAfter:     next.Cash,
			PositionAfter: next.Quantity,
		})
	case pos.State == StateInvested && signal == types.SignalSell:
		value := pos.Quantity * bar.Close
		fee := value * feeRate
		next := Position{State: StateFlat, Cash: value - fee, Quantity: 0}

		return next, optional.Some(types.Trade{
			Time:          bar.Time,
			Side:          types.SideSell,
			Price:         bar.Close,
			Quantity:      pos.Quantity,
			Fee:           fee,
			CashAfter:     next.Cash,
			PositionAfter: next.Quantity,
		})
	default:
		return pos, optional.None[types.Trade]()
	}
}

// Snapshot values pos at the close of bar.
func Snapshot(pos Position, bar types.PriceBar) types.PortfolioSnapshot {
	positionValue := pos.Quantity * bar.Close

	return types.PortfolioSnapshot{
		Time:             bar.Time,
		Cash:             pos.Cash,
		PositionQuantity: pos.Quantity,
		PositionValue:    positionValue,
		TotalValue:       pos.Cash + positionValue,
	}
}

// Result is the outcome of one simulation.
type Result struct {
	Trades    []types.Trade
	Snapshots []types.PortfolioSnapshot
	// Final is the position after the last bar. It may still be invested: open
	// positions are valued at the last close and never closed out.
	Final Position
}

// Simulate runs the state machine over every bar of series, starting flat with
// initialCash. signals must hold one signal per bar.
func Simulate(series types.PriceSeries, signals []types.Signal, initialCash, feeRate float64) (Result, error) {
	if len(signals) != len(series.Bars) {
		return Result{}, errors.Newf(errors.ErrCodeBacktestSimulationErr,
			"got %d signals for %d bars of %s", len(signals), len(series.Bars), series.AssetID)
	}

	result := Result{
		Trades:    []types.Trade{},
		Snapshots: make([]types.PortfolioSnapshot, 0, len(series.Bars)),
	}

	pos := NewPosition(initialCash)

	for i, bar := range series.Bars {
		var trade optional.Option[types.Trade]

		pos, trade = Step(pos, signals[i], bar, feeRate)
		if trade.IsSome() {
			result.Trades = append(result.Trades, trade.Unwrap())
		}

		result.Snapshots = append(result.Snapshots, Snapshot(pos, bar))
	}

	result.Final = pos

	return result, nil
}
