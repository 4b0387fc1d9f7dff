package strategies

import (
	"github.com/rustyeddy/eodtrader/market"
)

// Result is the per-day output of one strategy over a bar history. Series
// are index-aligned with the input bars; Latest is the final day's call.
type Result struct {
	Strategy string
	Signals  []string
	Latest   string
}

// latest returns the final signal, or hold for an empty series.
func latest(signals []string) string {
	if len(signals) == 0 {
		return market.DirectionHold
	}
	return signals[len(signals)-1]
}

// ResolveFinal combines per-strategy latest signals into a single decision
// with the priority sell > buy > hold, and reports which strategy carried
// the winning direction.
func ResolveFinal(results ...Result) (direction, strategy string) {
	direction = market.DirectionHold
	for _, r := range results {
		if r.Latest == market.DirectionSell {
			return market.DirectionSell, r.Strategy
		}
	}
	for _, r := range results {
		if r.Latest == market.DirectionBuy {
			return market.DirectionBuy, r.Strategy
		}
	}
	return direction, ""
}
