package indicators

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSMABasic(t *testing.T) {
	t.Parallel()

	series := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	got := SMA(series, 3)

	assert.True(t, math.IsNaN(got[0]))
	assert.True(t, math.IsNaN(got[1]))
	assert.InDelta(t, 2.0, got[2], 1e-9)
	assert.InDelta(t, 3.0, got[3], 1e-9)
	assert.InDelta(t, 9.0, got[9], 1e-9)
}

func TestSMAWindowLargerThanSeries(t *testing.T) {
	t.Parallel()

	got := SMA([]float64{1, 2, 3}, 10)
	for _, v := range got {
		assert.True(t, math.IsNaN(v))
	}
}

func TestSMASingleElementWindow(t *testing.T) {
	t.Parallel()

	series := []float64{100, 101.5, 99}
	got := SMA(series, 1)
	for i, v := range series {
		assert.InDelta(t, v, got[i], 1e-9)
	}
}

func TestSMABadPeriod(t *testing.T) {
	t.Parallel()

	got := SMA([]float64{1, 2, 3}, 0)
	for _, v := range got {
		assert.True(t, math.IsNaN(v))
	}
}

func TestRSIStaysInRange(t *testing.T) {
	t.Parallel()

	// Arbitrary choppy series.
	series := []float64{50, 52, 48, 53, 47, 55, 44, 60, 41, 63, 40, 65, 39, 66, 50, 50.5, 49.5, 58, 42}
	for _, v := range RSI(series, 14) {
		if math.IsNaN(v) {
			continue
		}
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 100.0)
	}
}

func TestRSIRisingSeriesApproaches100(t *testing.T) {
	t.Parallel()

	// Strong rises with small periodic dips keep the loss average nonzero
	// so the ratio is defined, and drive RSI toward 100.
	series := make([]float64, 60)
	px := 100.0
	for i := range series {
		series[i] = px
		if (i+1)%5 == 0 {
			px -= 0.1
		} else {
			px += 1
		}
	}
	got := RSI(series, 14)
	last := Last(got)
	assert.False(t, math.IsNaN(last))
	assert.Greater(t, last, 90.0)
	assert.LessOrEqual(t, last, 100.0)
}

func TestRSIUndefinedWithoutLosses(t *testing.T) {
	t.Parallel()

	// A strictly rising series never smooths in a loss: the ratio stays
	// undefined rather than pinning to 100.
	series := make([]float64, 60)
	for i := range series {
		series[i] = 100 + float64(i)
	}
	for _, v := range RSI(series, 14) {
		assert.True(t, math.IsNaN(v))
	}
}

func TestRSIFallingSeries(t *testing.T) {
	t.Parallel()

	series := make([]float64, 60)
	for i := range series {
		series[i] = 200 - float64(i)
	}
	got := RSI(series, 14)
	assert.InDelta(t, 0.0, Last(got), 1e-9)
}

func TestRSIFlatSeriesIsNeutral(t *testing.T) {
	t.Parallel()

	series := make([]float64, 30)
	for i := range series {
		series[i] = 100
	}
	got := RSI(series, 14)
	assert.True(t, math.IsNaN(got[0]))
	for _, v := range got[1:] {
		assert.InDelta(t, 50.0, v, 1e-9)
	}
}

func TestTrueRangeGapUp(t *testing.T) {
	t.Parallel()

	// Gap above the previous close dominates high-low.
	assert.InDelta(t, 6.0, TrueRange(110, 106, 104), 1e-9)
	// Gap below.
	assert.InDelta(t, 7.0, TrueRange(99, 97, 104), 1e-9)
	// Ordinary day.
	assert.InDelta(t, 4.0, TrueRange(105, 101, 103), 1e-9)
}

func TestATRWarmupAndPositivity(t *testing.T) {
	t.Parallel()

	n := 3
	high := []float64{102, 103, 104, 105, 106, 108}
	low := []float64{98, 99, 100, 101, 102, 103}
	close := []float64{100, 101, 102, 103, 104, 106}

	got := ATR(high, low, close, n)
	for i := 0; i < n; i++ {
		assert.True(t, math.IsNaN(got[i]), "index %d should be warmup", i)
	}
	for i := n; i < len(got); i++ {
		assert.False(t, math.IsNaN(got[i]))
		assert.Greater(t, got[i], 0.0)
	}
}

func TestATRZeroVolatilityDecaysToZero(t *testing.T) {
	t.Parallel()

	size := 40
	high := make([]float64, size)
	low := make([]float64, size)
	close := make([]float64, size)
	for i := range high {
		high[i], low[i], close[i] = 100, 100, 100
	}
	got := ATR(high, low, close, 14)
	assert.InDelta(t, 0.0, Last(got), 1e-9)
}

func TestLastEmpty(t *testing.T) {
	t.Parallel()

	assert.True(t, math.IsNaN(Last(nil)))
}
