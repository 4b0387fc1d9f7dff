package indicators

import "math"

// RSI returns the Wilder-smoothed relative strength index.
//
// Per-step deltas are split into gains and losses, each smoothed with an
// exponential moving average of alpha 1/window (no bias correction, seeded
// from the first delta). Two degenerate cases are pinned down explicitly:
//
//   - avg gain and avg loss both zero (flat price run): RSI is 50
//   - avg loss zero with gains present: RSI is NaN, not 100 or +Inf; the
//     ratio is undefined until at least one loss has been smoothed in
//
// The first value has no delta and is NaN. Defined values are in [0, 100].
func RSI(close []float64, window int) []float64 {
	out := make([]float64, len(close))
	for i := range out {
		out[i] = math.NaN()
	}
	if window <= 0 || len(close) < 2 {
		return out
	}

	alpha := 1.0 / float64(window)
	var avgGain, avgLoss float64

	for i := 1; i < len(close); i++ {
		delta := close[i] - close[i-1]
		gain := math.Max(delta, 0)
		loss := math.Max(-delta, 0)

		if i == 1 {
			avgGain = gain
			avgLoss = loss
		} else {
			avgGain = (1-alpha)*avgGain + alpha*gain
			avgLoss = (1-alpha)*avgLoss + alpha*loss
		}

		switch {
		case avgLoss == 0 && avgGain == 0:
			out[i] = 50
		case avgLoss == 0:
			// NaN already in place
		default:
			rs := avgGain / avgLoss
			out[i] = 100 - 100/(1+rs)
		}
	}
	return out
}
