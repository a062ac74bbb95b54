// Package indicator computes technical indicators over a whole price array in a
// single forward pass. Every output has the same length as its input; positions
// before the first complete window hold a neutral sentinel and are reported as
// not valid, so strategies never read a warm-up value as a real one.
package indicator

import (
	"github.com/rxtech-lab/argo-screener/pkg/errors"
)

const (
	// MovingAverageSentinel fills moving average and band positions before the first full window.
	MovingAverageSentinel = 0.0
	// RSISentinel fills RSI positions before the first full window. 50 is neither overbought nor oversold.
	RSISentinel = 50.0
)

// Series is an indicator output aligned index-for-index with its input.
type Series struct {
	Values []float64
	// Warmup is the first index holding a computed value.
	Warmup int
}

// Len returns the number of positions, valid or not.
func (s Series) Len() int {
	return len(s.Values)
}

// Valid reports whether index i holds a computed value.
func (s Series) Valid(i int) bool {
	return i >= s.Warmup && i < len(s.Values)
}

// At returns the value at index i and whether it is a computed value.
func (s Series) At(i int) (float64, bool) {
	if i < 0 || i >= len(s.Values) {
		return 0, false
	}

	return s.Values[i], s.Valid(i)
}

func newSeries(n int, warmup int, sentinel float64) Series {
	values := make([]float64, n)

	if sentinel != 0 {
		for i := 0; i < n && i < warmup; i++ {
			values[i] = sentinel
		}
	}

	return Series{Values: values, Warmup: warmup}
}

func validatePeriod(name string, period int) error {
	if period <= 0 {
		return errors.Newf(errors.ErrCodeInvalidPeriod, "%s period must be a positive integer, got %d", name, period)
	}

	return nil
}
