package types

// Signal is the action a strategy emits for one timestep.
type Signal string

const (
	// SignalHold tells the portfolio to keep its current state
	SignalHold Signal = "hold"
	// SignalBuy tells the portfolio to invest all cash
	SignalBuy Signal = "buy"
	// SignalSell tells the portfolio to liquidate the open position
	SignalSell Signal = "sell"
)

// SignalCounts tallies a signal sequence.
func SignalCounts(signals []Signal) (buys, sells, holds int) {
	for _, s := range signals {
		switch s {
		case SignalBuy:
			buys++
		case SignalSell:
			sells++
		case SignalHold:
			holds++
		}
	}

	return buys, sells, holds
}
