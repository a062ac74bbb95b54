package indicator

// RSI returns the Relative Strength Index over the trailing period price deltas.
// Index i is valid from period onwards since period deltas need period+1 values.
// A window without losses yields 100.
func RSI(values []float64, period int) (Series, error) {
	if err := validatePeriod("RSI", period); err != nil {
		return Series{}, err
	}

	out := newSeries(len(values), period, RSISentinel)

	// gains and losses are kept as window sums. RS is the ratio of their averages
	// and the common 1/period factor cancels.
	var gains, losses float64

	for i := 1; i < len(values); i++ {
		gain, loss := split(values[i] - values[i-1])
		gains += gain
		losses += loss

		if i > period {
			oldGain, oldLoss := split(values[i-period] - values[i-period-1])
			gains -= oldGain
			losses -= oldLoss
		}

		if i < period {
			continue
		}

		// rolling subtraction can leave tiny negative residue
		if losses < 0 {
			losses = 0
		}

		if gains < 0 {
			gains = 0
		}

		if losses == 0 {
			out.Values[i] = 100

			continue
		}

		// 100 - 100/(1+RS) with RS = gains/losses
		out.Values[i] = 100 * gains / (gains + losses)
	}

	return out, nil
}

func split(change float64) (gain, loss float64) {
	if change > 0 {
		return change, 0
	}

	return 0, -change
}
