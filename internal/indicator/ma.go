package indicator

// MovingAverage returns the simple moving average of the trailing period values.
// Index i is valid from period-1 onwards.
func MovingAverage(values []float64, period int) (Series, error) {
	if err := validatePeriod("moving average", period); err != nil {
		return Series{}, err
	}

	out := newSeries(len(values), period-1, MovingAverageSentinel)

	var sum float64

	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}

		if i >= period-1 {
			out.Values[i] = sum / float64(period)
		}
	}

	return out, nil
}
