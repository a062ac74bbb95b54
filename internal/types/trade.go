package types

import (
	"time"
)

// Side is the direction of a trade.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Trade is an executed state transition of the portfolio.
type Trade struct {
	Time  time.Time `yaml:"time" json:"time"`
	Side  Side      `yaml:"side" json:"side"`
	Price float64   `yaml:"price" json:"price"`
	// Quantity is the number of units bought or sold.
	Quantity float64 `yaml:"quantity" json:"quantity"`
	// Fee is charged on the trade notional: cash for buys, sell value for sells.
	Fee float64 `yaml:"fee" json:"fee"`
	// CashAfter is the cash balance once the trade settled.
	CashAfter float64 `yaml:"cash_after" json:"cash_after"`
	// PositionAfter is the position quantity once the trade settled.
	PositionAfter float64 `yaml:"position_after" json:"position_after"`
}

// PortfolioSnapshot is the portfolio valuation at the close of one bar.
type PortfolioSnapshot struct {
	Time             time.Time `yaml:"time" json:"time"`
	Cash             float64   `yaml:"cash" json:"cash"`
	PositionQuantity float64   `yaml:"position_quantity" json:"position_quantity"`
	PositionValue    float64   `yaml:"position_value" json:"position_value"`
	TotalValue       float64   `yaml:"total_value" json:"total_value"`
}
