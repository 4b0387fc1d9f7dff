// Package risk implements position sizing, the portfolio-level admission
// gates, and the realized-performance kill switch.
package risk

import "math"

// epsilon floors divisors so near-zero prices and ATRs degrade to huge
// sizes (clamped elsewhere) instead of raising.
const epsilon = 1e-9

// SizingParams groups the sizing knobs used by ComputePositionSize.
type SizingParams struct {
	PctPerTrade  float64 // capital allocation per trade, e.g. 0.05
	DailyRiskCap float64 // volatility risk budget per day, e.g. 0.005
	KATR         float64 // stop distance in ATR multiples, e.g. 3.0
}

// FixedFractionalShares allocates a fixed fraction of the portfolio:
// floor(portfolioValue * pctPerTrade / entryPrice), never negative.
func FixedFractionalShares(portfolioValue, pctPerTrade, entryPrice float64) int {
	portfolioValue = math.Max(0, portfolioValue)
	pctPerTrade = math.Max(0, pctPerTrade)
	entryPrice = math.Max(epsilon, entryPrice)

	shares := math.Floor(portfolioValue * pctPerTrade / entryPrice)
	if shares < 0 {
		return 0
	}
	return int(shares)
}

// ATRTargetShares sizes against a daily risk budget with a stop kATR ATRs
// away: floor((portfolioValue * dailyRiskCap) / (kATR * atrPoints)).
func ATRTargetShares(portfolioValue, dailyRiskCap, atrPoints, kATR float64) int {
	portfolioValue = math.Max(0, portfolioValue)
	dailyRiskCap = math.Max(0, dailyRiskCap)
	atrPoints = math.Max(epsilon, atrPoints)
	kATR = math.Max(0, kATR)

	unitRisk := math.Max(epsilon, kATR*atrPoints)
	shares := math.Floor(portfolioValue * dailyRiskCap / unitRisk)
	if shares < 0 {
		return 0
	}
	return int(shares)
}

// VIXParams holds the step thresholds for volatility scale-down.
type VIXParams struct {
	ElevatedThreshold float64 // 20
	HighThreshold     float64 // 30
	ElevatedScale     float64 // 0.5
	HighScale         float64 // 0.25
}

// DefaultVIXParams returns the production thresholds.
func DefaultVIXParams() VIXParams {
	return VIXParams{
		ElevatedThreshold: 20,
		HighThreshold:     30,
		ElevatedScale:     0.5,
		HighScale:         0.25,
	}
}

// VIXScale maps the volatility index to a position multiplier. It is a step
// function: 1.0 below the elevated threshold, ElevatedScale between the
// thresholds, HighScale at or above the high threshold.
func VIXScale(vix float64, p VIXParams) float64 {
	switch {
	case vix >= p.HighThreshold:
		return p.HighScale
	case vix >= p.ElevatedThreshold:
		return p.ElevatedScale
	default:
		return 1.0
	}
}

// ApplyVIXScale scales a share count down by the multiplier. A multiplier
// at or below 0 forces 0 shares; at or above 1 the base size is unchanged.
// Fear only ever shrinks a position.
func ApplyVIXScale(shares int, multiplier float64) int {
	if multiplier <= 0 {
		return 0
	}
	if multiplier >= 1 {
		return shares
	}
	return int(math.Floor(float64(shares) * multiplier))
}

// ComputePositionSize takes the smaller of the capital-allocation cap and
// the volatility-risk cap, then applies the VIX scale-down.
func ComputePositionSize(portfolioValue, entryPrice, atrPoints float64, p SizingParams, vixMultiplier float64) int {
	ff := FixedFractionalShares(portfolioValue, p.PctPerTrade, entryPrice)
	at := ATRTargetShares(portfolioValue, p.DailyRiskCap, atrPoints, p.KATR)

	base := ff
	if at < base {
		base = at
	}
	return ApplyVIXScale(base, vixMultiplier)
}
