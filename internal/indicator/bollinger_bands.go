package indicator

import (
	"math"

	"github.com/rxtech-lab/argo-screener/pkg/errors"
)

// Bands holds the three Bollinger Band series.
type Bands struct {
	Middle Series
	Upper  Series
	Lower  Series
}

// BollingerBands returns the moving average of the trailing period values and the
// bands stdDev population standard deviations above and below it.
func BollingerBands(values []float64, period int, stdDev float64) (Bands, error) {
	if err := validatePeriod("Bollinger Bands", period); err != nil {
		return Bands{}, err
	}

	if stdDev <= 0 {
		return Bands{}, errors.Newf(errors.ErrCodeInvalidStdDevPeriod, "stdDev must be a positive number, got %f", stdDev)
	}

	n := len(values)
	bands := Bands{
		Middle: newSeries(n, period-1, MovingAverageSentinel),
		Upper:  newSeries(n, period-1, MovingAverageSentinel),
		Lower:  newSeries(n, period-1, MovingAverageSentinel),
	}

	if n == 0 {
		return bands, nil
	}

	// Sums are taken around the first value to limit cancellation in the variance.
	shift := values[0]

	var sum, sumSq float64

	for i, v := range values {
		d := v - shift
		sum += d
		sumSq += d * d

		if i >= period {
			old := values[i-period] - shift
			sum -= old
			sumSq -= old * old
		}

		if i < period-1 {
			continue
		}

		meanShifted := sum / float64(period)

		variance := sumSq/float64(period) - meanShifted*meanShifted
		if variance < 0 {
			variance = 0
		}

		middle := meanShifted + shift
		width := stdDev * math.Sqrt(variance)

		bands.Middle.Values[i] = middle
		bands.Upper.Values[i] = middle + width
		bands.Lower.Values[i] = middle - width
	}

	return bands, nil
}
