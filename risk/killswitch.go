package risk

import (
	"fmt"
	"math"
)

// KillSwitchParams tunes the realized-performance circuit breaker.
type KillSwitchParams struct {
	DrawdownThreshold float64 // kill at or below, e.g. -0.12
	SharpeThreshold   float64 // kill below, e.g. -1.0
	SharpeWindow      int     // rolling window, 20
	Annualization     float64 // 252 trading days
	StreakThreshold   int     // consecutive losing trades, 10
}

// DefaultKillSwitchParams returns the production thresholds.
func DefaultKillSwitchParams() KillSwitchParams {
	return KillSwitchParams{
		DrawdownThreshold: -0.12,
		SharpeThreshold:   -1.0,
		SharpeWindow:      20,
		Annualization:     252,
		StreakThreshold:   10,
	}
}

// KillDecision is the evaluator's verdict for one date.
type KillDecision struct {
	Active bool
	Reason string
}

// EquityCurve compounds daily returns into an equity series starting at 1.0.
func EquityCurve(returns []float64) []float64 {
	out := make([]float64, len(returns))
	equity := 1.0
	for i, r := range returns {
		equity *= 1 + r
		out[i] = equity
	}
	return out
}

// CurrentDrawdown returns the latest drop from the running equity peak,
// as a non-positive fraction.
func CurrentDrawdown(equity []float64) float64 {
	if len(equity) == 0 {
		return 0
	}
	peak := equity[0]
	for _, v := range equity {
		if v > peak {
			peak = v
		}
	}
	if peak <= 0 {
		return 0
	}
	return (equity[len(equity)-1] - peak) / peak
}

// RollingSharpe returns the Sharpe-style ratio of the trailing window:
// mean over sample standard deviation, annualized by sqrt(annualization).
// It returns NaN when fewer than window returns exist or the variance is
// effectively zero; an undefined ratio never triggers the breaker on its
// own. The variance check needs a tolerance rather than == 0 because a
// constant return series still accumulates rounding noise in the mean.
func RollingSharpe(returns []float64, window int, annualization float64) float64 {
	if window <= 1 || len(returns) < window {
		return math.NaN()
	}
	tail := returns[len(returns)-window:]

	mean := 0.0
	for _, r := range tail {
		mean += r
	}
	mean /= float64(window)

	variance := 0.0
	for _, r := range tail {
		d := r - mean
		variance += d * d
	}
	variance /= float64(window - 1)
	if variance < 1e-18 {
		return math.NaN()
	}
	return mean / math.Sqrt(variance) * math.Sqrt(annualization)
}

// LosingStreak counts consecutive losing round trips from the most recent
// backward, stopping at the first winner.
func LosingStreak(trips []RoundTrip) int {
	streak := 0
	for i := len(trips) - 1; i >= 0; i-- {
		if trips[i].RealizedPL < 0 {
			streak++
			continue
		}
		break
	}
	return streak
}

// EvaluateKillSwitch runs the circuit-breaker checks in fixed priority
// order (drawdown, then rolling Sharpe, then losing streak) and reports the
// first breach. With no trade history the switch stays off.
func EvaluateKillSwitch(trips []RoundTrip, p KillSwitchParams) KillDecision {
	returns := DailyReturns(trips)

	if dd := CurrentDrawdown(EquityCurve(returns)); len(returns) > 0 && dd <= p.DrawdownThreshold {
		return KillDecision{
			Active: true,
			Reason: fmt.Sprintf("drawdown %.1f%% breaches threshold %.1f%%", 100*dd, 100*p.DrawdownThreshold),
		}
	}

	if sharpe := RollingSharpe(returns, p.SharpeWindow, p.Annualization); !math.IsNaN(sharpe) && sharpe < p.SharpeThreshold {
		return KillDecision{
			Active: true,
			Reason: fmt.Sprintf("rolling %d-day sharpe %.2f below threshold %.2f", p.SharpeWindow, sharpe, p.SharpeThreshold),
		}
	}

	if streak := LosingStreak(trips); p.StreakThreshold > 0 && streak >= p.StreakThreshold {
		return KillDecision{
			Active: true,
			Reason: fmt.Sprintf("losing streak of %d trades at threshold %d", streak, p.StreakThreshold),
		}
	}

	return KillDecision{}
}
