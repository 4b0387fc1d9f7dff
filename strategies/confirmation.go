// Package strategies generates the per-day directional signals: an RSI
// mean-reversion module and an SMA trend-crossover module, both debounced
// with a rolling confirmation window.
package strategies

// Confirm debounces a raw boolean signal stream: the output is true wherever
// at least minCount of the trailing window values are true. Unlike the
// indicator warmup rules a single available value is enough, so early
// entries are judged on what exists.
func Confirm(raw []bool, window, minCount int) []bool {
	out := make([]bool, len(raw))
	if window <= 0 || minCount <= 0 {
		return out
	}

	count := 0
	for i, v := range raw {
		if v {
			count++
		}
		if i >= window && raw[i-window] {
			count--
		}
		out[i] = count >= minCount
	}
	return out
}
