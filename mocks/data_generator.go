package mocks

import (
	"math"
	"math/rand"
	"time"

	"github.com/rxtech-lab/argo-screener/internal/types"
)

// BarGenerator produces reproducible synthetic price bars for tests.
type BarGenerator struct {
	rng *rand.Rand
}

// NewBarGenerator creates a generator. The same seed always yields the same bars.
func NewBarGenerator(seed int64) *BarGenerator {
	return &BarGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// GeneratorConfig configures one generated series.
type GeneratorConfig struct {
	StartTime time.Time
	Interval  time.Duration
	Count     int
	// InitialPrice is the first open.
	InitialPrice float64
	// Volatility is the standard deviation of the per-bar return.
	Volatility float64
	// Trend is the total drift spread over the series.
	Trend      float64
	VolumeBase float64
}

// DefaultConfig returns a year of daily bars around 100.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		StartTime:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Interval:     24 * time.Hour,
		Count:        365,
		InitialPrice: 100.0,
		Volatility:   0.02,
		Trend:        0.0,
		VolumeBase:   10000,
	}
}

// Generate returns config.Count bars following a geometric random walk.
// Every price is strictly positive.
func (g *BarGenerator) Generate(config GeneratorConfig) []types.PriceBar {
	bars := make([]types.PriceBar, config.Count)
	price := config.InitialPrice
	barTime := config.StartTime

	for i := 0; i < config.Count; i++ {
		open := price

		// Box-Muller
		u1 := 1 - g.rng.Float64()
		u2 := g.rng.Float64()
		z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)

		drift := config.Trend / float64(config.Count)

		closePrice := open * (1 + config.Volatility*z + drift)
		if closePrice <= 0 {
			closePrice = open * 0.99
		}

		high := math.Max(open, closePrice) * (1 + g.rng.Float64()*config.Volatility*0.5)
		low := math.Min(open, closePrice) * (1 - g.rng.Float64()*config.Volatility*0.5)

		bars[i] = types.PriceBar{
			Time:   barTime,
			Open:   roundToDecimals(open, 4),
			High:   roundToDecimals(high, 4),
			Low:    roundToDecimals(math.Max(low, 0.0001), 4),
			Close:  roundToDecimals(math.Max(closePrice, 0.0001), 4),
			Volume: roundToDecimals(config.VolumeBase*(0.7+g.rng.Float64()*0.6), 2),
		}

		price = closePrice
		barTime = barTime.Add(config.Interval)
	}

	return bars
}

// GenerateUniverse generates one series per asset id, varying the starting
// price and volatility per asset.
func (g *BarGenerator) GenerateUniverse(assetIDs []string, base GeneratorConfig) map[string][]types.PriceBar {
	universe := make(map[string][]types.PriceBar, len(assetIDs))

	for _, assetID := range assetIDs {
		config := base
		config.InitialPrice = base.InitialPrice * (0.5 + g.rng.Float64())
		config.Volatility = base.Volatility * (0.8 + g.rng.Float64()*0.4)

		universe[assetID] = g.Generate(config)
	}

	return universe
}

func roundToDecimals(val float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))

	return math.Round(val*pow) / pow
}
