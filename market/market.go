// Package market holds the domain types shared by every other package:
// daily bars, positions, signals, orders and the per-date system state
// rows the decision engine reads and writes.
package market

import "time"

// Strategy identifiers as stored in signals_daily.
const (
	StrategyRSIMeanReversion = "RSI_MR"
	StrategySMACrossover     = "SMA_X"
)

// Signal directions.
const (
	DirectionBuy  = "buy"
	DirectionSell = "sell"
	DirectionHold = "hold"
)

// Order sides. An exit is a sell with quantity 0 (close full position).
const (
	SideBuy  = "buy"
	SideSell = "sell"
)

// SymbolEvent kinds.
const EventStopHit = "STOP_HIT"

// DateLayout is the canonical trading-date format used in the store and CLI.
const DateLayout = "2006-01-02"

// Date truncates t to a trading date: midnight UTC.
func Date(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD trading date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// FormatDate renders a trading date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}
