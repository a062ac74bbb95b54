// Package strategy turns a price series and a strategy configuration into one
// signal per bar. Signals at index i only read bars 0..i.
package strategy

import (
	"github.com/rxtech-lab/argo-screener/internal/indicator"
	"github.com/rxtech-lab/argo-screener/internal/types"
	"github.com/rxtech-lab/argo-screener/pkg/errors"
)

// Evaluate returns one signal per bar of series. Bars where the strategy's
// indicators are still warming up get SignalHold.
func Evaluate(series types.PriceSeries, params Params) ([]types.Signal, error) {
	closes := series.Closes()

	switch p := params.(type) {
	case RSIParams:
		return evaluateRSI(closes, p)
	case MACrossoverParams:
		return evaluateMACrossover(closes, p)
	case MomentumParams:
		return evaluateMomentum(closes, p.WindowBars(series.Mode), p), nil
	case BollingerParams:
		return evaluateBollinger(closes, p)
	case MeanReversionParams:
		return evaluateMeanReversion(closes, p)
	default:
		return nil, errors.Newf(errors.ErrCodeUnsupportedStrategy, "unsupported strategy parameters %T", params)
	}
}

func holdSignals(n int) []types.Signal {
	signals := make([]types.Signal, n)
	for i := range signals {
		signals[i] = types.SignalHold
	}

	return signals
}

func evaluateRSI(closes []float64, p RSIParams) ([]types.Signal, error) {
	rsi, err := indicator.RSI(closes, p.Period)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIndicatorCalculation, "failed to calculate RSI", err)
	}

	signals := holdSignals(len(closes))

	for i := rsi.Warmup; i < len(closes); i++ {
		switch v := rsi.Values[i]; {
		case v < p.Oversold:
			signals[i] = types.SignalBuy
		case v > p.Overbought:
			signals[i] = types.SignalSell
		}
	}

	return signals, nil
}

func evaluateMACrossover(closes []float64, p MACrossoverParams) ([]types.Signal, error) {
	fast, err := indicator.MovingAverage(closes, p.FastPeriod)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIndicatorCalculation, "failed to calculate fast moving average", err)
	}

	slow, err := indicator.MovingAverage(closes, p.SlowPeriod)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIndicatorCalculation, "failed to calculate slow moving average", err)
	}

	signals := holdSignals(len(closes))

	// a cross needs both averages valid on the previous bar too
	for i := max(fast.Warmup, slow.Warmup) + 1; i < len(closes); i++ {
		prevDiff := fast.Values[i-1] - slow.Values[i-1]
		diff := fast.Values[i] - slow.Values[i]

		switch {
		case prevDiff <= 0 && diff > 0:
			signals[i] = types.SignalBuy
		case prevDiff >= 0 && diff < 0:
			signals[i] = types.SignalSell
		}
	}

	return signals, nil
}

// evaluateMomentum follows its own would-be position so exits can be measured
// from the entry close. Entries and exits happen on the bar's close, the same
// price the simulator fills at.
func evaluateMomentum(closes []float64, windowBars int, p MomentumParams) []types.Signal {
	signals := holdSignals(len(closes))

	invested := false
	entry := 0.0

	for i := windowBars; i < len(closes); i++ {
		price := closes[i]

		if invested {
			change := (price - entry) / entry * 100

			if change >= p.ProfitTarget || change <= -p.StopLoss {
				signals[i] = types.SignalSell
				invested = false
			}

			continue
		}

		base := closes[i-windowBars]
		move := (price - base) / base * 100

		var enter bool

		switch p.Entry() {
		case MomentumEntryBreakout:
			enter = move > p.BuyThreshold
		case MomentumEntryDip:
			enter = move < p.BuyThreshold
		}

		if enter {
			signals[i] = types.SignalBuy
			invested = true
			entry = price
		}
	}

	return signals
}

func evaluateBollinger(closes []float64, p BollingerParams) ([]types.Signal, error) {
	bands, err := indicator.BollingerBands(closes, p.Period, p.StdMult)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIndicatorCalculation, "failed to calculate Bollinger Bands", err)
	}

	signals := holdSignals(len(closes))

	for i := bands.Middle.Warmup; i < len(closes); i++ {
		switch {
		case closes[i] < bands.Lower.Values[i]:
			signals[i] = types.SignalBuy
		case closes[i] > bands.Upper.Values[i]:
			signals[i] = types.SignalSell
		}
	}

	return signals, nil
}

func evaluateMeanReversion(closes []float64, p MeanReversionParams) ([]types.Signal, error) {
	ma, err := indicator.MovingAverage(closes, p.Period)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIndicatorCalculation, "failed to calculate moving average", err)
	}

	signals := holdSignals(len(closes))

	for i := ma.Warmup; i < len(closes); i++ {
		deviation := (closes[i] - ma.Values[i]) / ma.Values[i] * 100

		switch {
		case deviation < -p.EntryDeviationPct:
			signals[i] = types.SignalBuy
		case deviation >= p.ExitDeviationPct:
			signals[i] = types.SignalSell
		}
	}

	return signals, nil
}
