// Package indicators provides the technical transforms used by the daily
// strategies: simple moving average, Wilder-smoothed RSI and ATR.
//
// All functions operate on full ascending series and return a series of the
// same length. Values that cannot be computed yet (warmup) are NaN; callers
// test with math.IsNaN rather than relying on zero values.
package indicators

import "math"

// SMA returns the trailing n-period simple moving average. The first n-1
// values are NaN; a window larger than the series yields all NaN.
func SMA(series []float64, n int) []float64 {
	out := make([]float64, len(series))
	for i := range out {
		out[i] = math.NaN()
	}
	if n <= 0 || len(series) < n {
		return out
	}

	sum := 0.0
	for i, v := range series {
		sum += v
		if i >= n {
			sum -= series[i-n]
		}
		if i >= n-1 {
			out[i] = sum / float64(n)
		}
	}
	return out
}
