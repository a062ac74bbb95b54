package strategy

import (
	"math"
	"slices"
	"time"

	"github.com/rxtech-lab/argo-screener/internal/types"
	"github.com/rxtech-lab/argo-screener/pkg/errors"
)

// ParamSpec declares one numeric parameter of a strategy kind.
type ParamSpec struct {
	Name    string  `json:"name" yaml:"name"`
	Min     float64 `json:"min" yaml:"min"`
	Max     float64 `json:"max" yaml:"max"`
	Default float64 `json:"default" yaml:"default"`
	Integer bool    `json:"integer" yaml:"integer"`
}

var paramSpecs = map[Kind][]ParamSpec{
	KindRSI: {
		{Name: "period", Min: 2, Max: 500, Default: 14, Integer: true},
		{Name: "oversold", Min: 0, Max: 100, Default: 30},
		{Name: "overbought", Min: 0, Max: 100, Default: 70},
	},
	KindMACrossover: {
		{Name: "fast_period", Min: 1, Max: 500, Default: 10, Integer: true},
		{Name: "slow_period", Min: 2, Max: 1000, Default: 30, Integer: true},
	},
	KindMomentum: {
		{Name: "window_hours", Min: 1, Max: 8760, Default: 24},
		{Name: "buy_threshold", Min: -100, Max: 1000, Default: 2},
		{Name: "profit_target", Min: 0.01, Max: 1000, Default: 5},
		{Name: "stop_loss", Min: 0.01, Max: 100, Default: 3},
	},
	KindBollinger: {
		{Name: "period", Min: 2, Max: 500, Default: 20, Integer: true},
		{Name: "std_mult", Min: 0.1, Max: 10, Default: 2},
	},
	KindMeanReversion: {
		{Name: "period", Min: 2, Max: 500, Default: 20, Integer: true},
		{Name: "entry_deviation_pct", Min: 0.01, Max: 100, Default: 5},
		{Name: "exit_deviation_pct", Min: -100, Max: 100, Default: 0},
	},
}

// Specs returns the declared parameters of kind in a stable order.
func Specs(kind Kind) []ParamSpec {
	return slices.Clone(paramSpecs[kind])
}

// Params is the typed parameter set of one strategy kind. The set of
// implementations is closed: RSIParams, MACrossoverParams, MomentumParams,
// BollingerParams and MeanReversionParams.
type Params interface {
	Kind() Kind
	// MinBars is the minimum series length the strategy accepts for mode.
	MinBars(mode types.SamplingMode) int
	// Values returns every parameter by name, defaults included.
	Values() map[string]float64
	isParams()
}

// RSIParams buys when RSI drops below Oversold and sells when it rises above Overbought.
type RSIParams struct {
	Period     int
	Oversold   float64
	Overbought float64
}

func (RSIParams) Kind() Kind { return KindRSI }

func (p RSIParams) MinBars(types.SamplingMode) int { return p.Period + 1 }

func (p RSIParams) Values() map[string]float64 {
	return map[string]float64{
		"period":     float64(p.Period),
		"oversold":   p.Oversold,
		"overbought": p.Overbought,
	}
}

func (RSIParams) isParams() {}

// MACrossoverParams buys when the fast average crosses above the slow one and
// sells on the opposite cross.
type MACrossoverParams struct {
	FastPeriod int
	SlowPeriod int
}

func (MACrossoverParams) Kind() Kind { return KindMACrossover }

func (p MACrossoverParams) MinBars(types.SamplingMode) int { return p.SlowPeriod + 1 }

func (p MACrossoverParams) Values() map[string]float64 {
	return map[string]float64{
		"fast_period": float64(p.FastPeriod),
		"slow_period": float64(p.SlowPeriod),
	}
}

func (MACrossoverParams) isParams() {}

// MomentumEntry selects how the momentum strategy enters a position.
type MomentumEntry int

const (
	// MomentumEntryBreakout buys after the price rose more than the threshold over the window.
	MomentumEntryBreakout MomentumEntry = iota
	// MomentumEntryDip buys after the price fell more than the threshold over the window.
	MomentumEntryDip
)

// MomentumParams enters on a percentage move over a trailing window and exits on
// a profit target or a stop loss measured from the entry close. A negative
// BuyThreshold selects dip entry.
type MomentumParams struct {
	WindowHours  float64
	BuyThreshold float64
	ProfitTarget float64
	StopLoss     float64
}

func (MomentumParams) Kind() Kind { return KindMomentum }

// Entry returns the entry mode implied by the sign of BuyThreshold.
func (p MomentumParams) Entry() MomentumEntry {
	if p.BuyThreshold < 0 {
		return MomentumEntryDip
	}

	return MomentumEntryBreakout
}

// WindowBars converts the window to a bar count in mode, rounding up. At least one bar.
func (p MomentumParams) WindowBars(mode types.SamplingMode) int {
	interval := mode.Duration()
	if interval <= 0 {
		return 1
	}

	window := time.Duration(p.WindowHours * float64(time.Hour))

	bars := int(math.Ceil(float64(window) / float64(interval)))
	if bars < 1 {
		return 1
	}

	return bars
}

func (p MomentumParams) MinBars(mode types.SamplingMode) int { return p.WindowBars(mode) + 1 }

func (p MomentumParams) Values() map[string]float64 {
	return map[string]float64{
		"window_hours":  p.WindowHours,
		"buy_threshold": p.BuyThreshold,
		"profit_target": p.ProfitTarget,
		"stop_loss":     p.StopLoss,
	}
}

func (MomentumParams) isParams() {}

// BollingerParams buys when the close falls below the lower band and sells when
// it rises above the upper band.
type BollingerParams struct {
	Period  int
	StdMult float64
}

func (BollingerParams) Kind() Kind { return KindBollinger }

func (p BollingerParams) MinBars(types.SamplingMode) int { return p.Period }

func (p BollingerParams) Values() map[string]float64 {
	return map[string]float64{
		"period":   float64(p.Period),
		"std_mult": p.StdMult,
	}
}

func (BollingerParams) isParams() {}

// MeanReversionParams buys when the close is more than EntryDeviationPct below
// its moving average and sells once the deviation reaches ExitDeviationPct.
type MeanReversionParams struct {
	Period            int
	EntryDeviationPct float64
	ExitDeviationPct  float64
}

func (MeanReversionParams) Kind() Kind { return KindMeanReversion }

func (p MeanReversionParams) MinBars(types.SamplingMode) int { return p.Period }

func (p MeanReversionParams) Values() map[string]float64 {
	return map[string]float64{
		"period":              float64(p.Period),
		"entry_deviation_pct": p.EntryDeviationPct,
		"exit_deviation_pct":  p.ExitDeviationPct,
	}
}

func (MeanReversionParams) isParams() {}

// ParseParams checks raw against the declared parameters of kind, fills in
// defaults and returns the typed parameter set. Unknown names, values outside
// the declared range and fractional values for integer parameters are rejected
// with an InvalidParameterError.
func ParseParams(kind Kind, raw map[string]float64) (Params, error) {
	specs, ok := paramSpecs[kind]
	if !ok {
		return nil, errors.NewInvalidParameterErrorf(string(kind), "kind", "unsupported strategy kind %q", string(kind))
	}

	for name := range raw {
		if !slices.ContainsFunc(specs, func(s ParamSpec) bool { return s.Name == name }) {
			return nil, errors.NewInvalidParameterErrorf(string(kind), name,
				"unknown parameter %s for strategy %s", name, kind)
		}
	}

	v := make(map[string]float64, len(specs))

	for _, spec := range specs {
		value, ok := raw[spec.Name]
		if !ok {
			value = spec.Default
		}

		if math.IsNaN(value) || value < spec.Min || value > spec.Max {
			return nil, errors.NewOutOfRangeError(string(kind), spec.Name, value, spec.Min, spec.Max)
		}

		if spec.Integer && value != math.Trunc(value) {
			return nil, errors.NewInvalidParameterErrorf(string(kind), spec.Name,
				"parameter %s of strategy %s must be a whole number, got %g", spec.Name, kind, value)
		}

		v[spec.Name] = value
	}

	switch kind {
	case KindRSI:
		p := RSIParams{Period: int(v["period"]), Oversold: v["oversold"], Overbought: v["overbought"]}
		if p.Oversold >= p.Overbought {
			return nil, errors.NewInvalidParameterErrorf(string(kind), "oversold",
				"oversold (%g) must be below overbought (%g)", p.Oversold, p.Overbought)
		}

		return p, nil
	case KindMACrossover:
		p := MACrossoverParams{FastPeriod: int(v["fast_period"]), SlowPeriod: int(v["slow_period"])}
		if p.FastPeriod >= p.SlowPeriod {
			return nil, errors.NewInvalidParameterErrorf(string(kind), "fast_period",
				"fast_period (%d) must be below slow_period (%d)", p.FastPeriod, p.SlowPeriod)
		}

		return p, nil
	case KindMomentum:
		return MomentumParams{
			WindowHours:  v["window_hours"],
			BuyThreshold: v["buy_threshold"],
			ProfitTarget: v["profit_target"],
			StopLoss:     v["stop_loss"],
		}, nil
	case KindBollinger:
		return BollingerParams{Period: int(v["period"]), StdMult: v["std_mult"]}, nil
	case KindMeanReversion:
		return MeanReversionParams{
			Period:            int(v["period"]),
			EntryDeviationPct: v["entry_deviation_pct"],
			ExitDeviationPct:  v["exit_deviation_pct"],
		}, nil
	}

	return nil, errors.NewInvalidParameterErrorf(string(kind), "kind", "unsupported strategy kind %q", string(kind))
}
