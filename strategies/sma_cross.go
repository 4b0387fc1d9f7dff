package strategies

import (
	"math"

	"github.com/rustyeddy/eodtrader/indicators"
	"github.com/rustyeddy/eodtrader/market"
)

// SMACrossoverParams tunes the trend-crossover module.
type SMACrossoverParams struct {
	Fast        int // 20
	Slow        int // 100
	ConfirmDays int // 2
}

// DefaultSMACrossover returns the production parameters.
func DefaultSMACrossover() SMACrossoverParams {
	return SMACrossoverParams{Fast: 20, Slow: 100, ConfirmDays: 2}
}

// SMACrossover signals on the relation between a fast and a slow moving
// average. Both directions are confirmed with window == minCount ==
// ConfirmDays, i.e. the trend must hold for the entire window, stricter
// than the mean-reversion buy filter. Downtrend overrides uptrend overrides
// hold.
func SMACrossover(bars []market.Bar, p SMACrossoverParams) Result {
	closes := market.Closes(bars)
	fast := indicators.SMA(closes, p.Fast)
	slow := indicators.SMA(closes, p.Slow)

	upRaw := make([]bool, len(closes))
	downRaw := make([]bool, len(closes))
	for i := range closes {
		if math.IsNaN(fast[i]) || math.IsNaN(slow[i]) {
			continue
		}
		upRaw[i] = fast[i] > slow[i]
		downRaw[i] = fast[i] < slow[i]
	}

	up := Confirm(upRaw, p.ConfirmDays, p.ConfirmDays)
	down := Confirm(downRaw, p.ConfirmDays, p.ConfirmDays)

	signals := make([]string, len(closes))
	for i := range signals {
		switch {
		case down[i]:
			signals[i] = market.DirectionSell
		case up[i]:
			signals[i] = market.DirectionBuy
		default:
			signals[i] = market.DirectionHold
		}
	}

	return Result{
		Strategy: market.StrategySMACrossover,
		Signals:  signals,
		Latest:   latest(signals),
	}
}
