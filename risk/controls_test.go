package risk

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rustyeddy/eodtrader/market"
)

func TestSectorExposureOK(t *testing.T) {
	t.Parallel()

	// (25k + 10k) / 100k = 35% > 30%.
	assert.False(t, SectorExposureOK(25000, 100000, 10000, 0.30))
	// (20k + 5k) / 100k = 25%.
	assert.True(t, SectorExposureOK(20000, 100000, 5000, 0.30))
}

func TestSectorExposureBoundaryInclusive(t *testing.T) {
	t.Parallel()

	// Exactly at the cap is allowed.
	assert.True(t, SectorExposureOK(25000, 100000, 5000, 0.30))
	// One cent over is vetoed.
	assert.False(t, SectorExposureOK(25000, 100000, 5000.01, 0.30))
}

func TestSectorExposureZeroPortfolioGuarded(t *testing.T) {
	t.Parallel()

	// Epsilon floor: any exposure against an empty portfolio is over cap.
	assert.False(t, SectorExposureOK(0, 0, 1000, 0.30))
}

func TestPortfolioHeat(t *testing.T) {
	t.Parallel()

	positions := []PositionRisk{
		{Position: market.Position{Symbol: "AAPL", Quantity: 100}, ATR: 3.0},
		{Position: market.Position{Symbol: "XOM", Quantity: -50}, ATR: 2.0},
	}
	// (100*3 + 50*2) / 100000 = 0.004
	assert.InDelta(t, 0.004, PortfolioHeat(positions, 100000), 1e-9)
}

func TestPortfolioHeatSkipsUndefinedATR(t *testing.T) {
	t.Parallel()

	positions := []PositionRisk{
		{Position: market.Position{Symbol: "AAPL", Quantity: 100}, ATR: math.NaN()},
		{Position: market.Position{Symbol: "MSFT", Quantity: 200}, ATR: 1.5},
	}
	assert.InDelta(t, 0.003, PortfolioHeat(positions, 100000), 1e-9)
}

func TestReturns(t *testing.T) {
	t.Parallel()

	got := Returns([]float64{100, 110, 99})
	assert.Len(t, got, 2)
	assert.InDelta(t, 0.10, got[0], 1e-9)
	assert.InDelta(t, -0.10, got[1], 1e-9)

	assert.Nil(t, Returns([]float64{100}))
}

func TestCorrelation(t *testing.T) {
	t.Parallel()

	a := []float64{0.01, -0.02, 0.03, -0.01, 0.02}
	b := []float64{0.02, -0.04, 0.06, -0.02, 0.04} // perfectly correlated
	c := []float64{-0.01, 0.02, -0.03, 0.01, -0.02}

	assert.InDelta(t, 1.0, Correlation(a, b), 1e-9)
	assert.InDelta(t, -1.0, Correlation(a, c), 1e-9)
	assert.InDelta(t, 0.0, Correlation(a, []float64{0, 0, 0, 0, 0}), 1e-9) // zero variance
	assert.InDelta(t, 0.0, Correlation(a, []float64{0.01}), 1e-9)          // too short
}

func TestCorrelationUsesTrailingOverlap(t *testing.T) {
	t.Parallel()

	long := []float64{9, 9, 9, 0.01, -0.02, 0.03}
	short := []float64{0.01, -0.02, 0.03}
	assert.InDelta(t, 1.0, Correlation(long, short), 1e-9)
}

func TestTopPositionsByValue(t *testing.T) {
	t.Parallel()

	positions := []market.Position{
		{Symbol: "A", Quantity: 10, AvgPrice: 100},  // 1000
		{Symbol: "B", Quantity: 100, AvgPrice: 50},  // 5000
		{Symbol: "C", Quantity: -40, AvgPrice: 100}, // 4000
	}
	top := TopPositionsByValue(positions, 2)
	assert.Len(t, top, 2)
	assert.Equal(t, "B", top[0].Symbol)
	assert.Equal(t, "C", top[1].Symbol)
}

func TestCorrelationConflict(t *testing.T) {
	t.Parallel()

	candidate := []float64{0.01, -0.02, 0.03, -0.01, 0.02}
	held := map[string][]float64{
		"SPY": {0.011, -0.019, 0.031, -0.012, 0.018}, // near-identical
		"TLT": {-0.01, 0.02, -0.03, 0.01, -0.02},     // inverse
	}
	positions := []market.Position{
		{Symbol: "TLT", Quantity: 10, AvgPrice: 100},
		{Symbol: "SPY", Quantity: 10, AvgPrice: 100},
	}

	sym, blocked := CorrelationConflict(candidate, held, positions, 0.80)
	assert.True(t, blocked)
	assert.Equal(t, "SPY", sym)

	_, blocked = CorrelationConflict(candidate, held, positions[:1], 0.80)
	assert.False(t, blocked)

	// Held symbol without return history is skipped.
	_, blocked = CorrelationConflict(candidate, map[string][]float64{}, positions, 0.80)
	assert.False(t, blocked)
}
