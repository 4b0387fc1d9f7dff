package indicators

import "math"

// TrueRange returns max(high-low, |high-prevClose|, |low-prevClose|).
func TrueRange(high, low, prevClose float64) float64 {
	tr := high - low
	if hc := math.Abs(high - prevClose); hc > tr {
		tr = hc
	}
	if lc := math.Abs(low - prevClose); lc > tr {
		tr = lc
	}
	return tr
}

// ATR returns the average true range smoothed with the same exponential
// scheme as RSI (alpha 1/n, seeded from the first true range). Values are
// NaN until n true ranges exist, i.e. the first n slots. Defined values are
// never negative; a zero-volatility series decays toward 0.
func ATR(high, low, close []float64, n int) []float64 {
	out := make([]float64, len(close))
	for i := range out {
		out[i] = math.NaN()
	}
	if n <= 0 || len(close) < 2 || len(high) != len(close) || len(low) != len(close) {
		return out
	}

	alpha := 1.0 / float64(n)
	var atr float64

	for i := 1; i < len(close); i++ {
		tr := TrueRange(high[i], low[i], close[i-1])
		if i == 1 {
			atr = tr
		} else {
			atr = (1-alpha)*atr + alpha*tr
		}
		// i true ranges seen after processing index i
		if i >= n {
			out[i] = atr
		}
	}
	return out
}

// Last returns the final value of a series, or NaN for an empty series.
func Last(series []float64) float64 {
	if len(series) == 0 {
		return math.NaN()
	}
	return series[len(series)-1]
}
