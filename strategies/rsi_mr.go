package strategies

import (
	"math"

	"github.com/rustyeddy/eodtrader/indicators"
	"github.com/rustyeddy/eodtrader/market"
)

// RSIMeanReversionParams tunes the mean-reversion module.
type RSIMeanReversionParams struct {
	RSIWindow int     // 14
	BuyRSI    float64 // 30
	SellRSI   float64 // 55
	Window    int     // confirmation window, 3
	MinCount  int     // confirmations required, 2
}

// DefaultRSIMeanReversion returns the production parameters.
func DefaultRSIMeanReversion() RSIMeanReversionParams {
	return RSIMeanReversionParams{
		RSIWindow: 14,
		BuyRSI:    30,
		SellRSI:   55,
		Window:    3,
		MinCount:  2,
	}
}

// RSIMeanReversion generates buy signals when RSI dips below the oversold
// threshold and sell signals at/above the exit threshold. Confirmation is
// applied to buys only; exits fire immediately because risk reduction takes
// priority over whipsaw avoidance. Per day, sell overrides buy overrides
// hold.
func RSIMeanReversion(bars []market.Bar, p RSIMeanReversionParams) Result {
	closes := market.Closes(bars)
	rsi := indicators.RSI(closes, p.RSIWindow)

	buyRaw := make([]bool, len(rsi))
	sellRaw := make([]bool, len(rsi))
	for i, v := range rsi {
		if math.IsNaN(v) {
			continue
		}
		buyRaw[i] = v < p.BuyRSI
		sellRaw[i] = v >= p.SellRSI
	}

	buy := Confirm(buyRaw, p.Window, p.MinCount)

	signals := make([]string, len(rsi))
	for i := range signals {
		switch {
		case sellRaw[i]:
			signals[i] = market.DirectionSell
		case buy[i]:
			signals[i] = market.DirectionBuy
		default:
			signals[i] = market.DirectionHold
		}
	}

	return Result{
		Strategy: market.StrategyRSIMeanReversion,
		Signals:  signals,
		Latest:   latest(signals),
	}
}
