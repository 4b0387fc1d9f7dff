package risk

import (
	"math"
	"sort"

	"github.com/rustyeddy/eodtrader/market"
)

// SectorExposureOK reports whether adding candidateValue to a sector keeps
// its share of the portfolio within maxPct. The cap is inclusive: exactly at
// the cap is allowed, one cent over is not.
func SectorExposureOK(currentSectorValue, portfolioValue, candidateValue, maxPct float64) bool {
	portfolioValue = math.Max(epsilon, portfolioValue)
	return (currentSectorValue+candidateValue)/portfolioValue <= maxPct
}

// PositionRisk pairs a position with its current ATR for heat accounting.
type PositionRisk struct {
	Position market.Position
	ATR      float64
}

// PortfolioHeat returns aggregate dollar risk across open positions as a
// fraction of portfolio value: sum(|qty| * ATR) / value. Positions whose ATR
// could not be computed contribute nothing rather than poisoning the sum.
func PortfolioHeat(positions []PositionRisk, portfolioValue float64) float64 {
	portfolioValue = math.Max(epsilon, portfolioValue)

	total := 0.0
	for _, pr := range positions {
		if math.IsNaN(pr.ATR) || pr.ATR <= 0 {
			continue
		}
		total += math.Abs(pr.Position.Quantity) * pr.ATR
	}
	return total / portfolioValue
}

// Returns converts an ascending close series into simple daily returns.
func Returns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	out := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		prev := closes[i-1]
		if prev == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, closes[i]/prev-1)
	}
	return out
}

// Correlation returns the Pearson correlation of two equal-length return
// series. Degenerate inputs (short series, zero variance) return 0 so a
// flat series never blocks an entry.
func Correlation(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n < 2 {
		return 0
	}
	a, b = a[len(a)-n:], b[len(b)-n:]

	var meanA, meanB float64
	for i := 0; i < n; i++ {
		meanA += a[i]
		meanB += b[i]
	}
	meanA /= float64(n)
	meanB /= float64(n)

	var cov, varA, varB float64
	for i := 0; i < n; i++ {
		da, db := a[i]-meanA, b[i]-meanB
		cov += da * db
		varA += da * da
		varB += db * db
	}
	if varA == 0 || varB == 0 {
		return 0
	}
	return cov / math.Sqrt(varA*varB)
}

// TopPositionsByValue returns up to n positions ordered by descending
// dollar value. Used to bound the correlation gate's pairwise work.
func TopPositionsByValue(positions []market.Position, n int) []market.Position {
	sorted := make([]market.Position, len(positions))
	copy(sorted, positions)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Value() > sorted[j].Value()
	})
	if n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}

// CorrelationConflict checks a candidate's trailing returns against each
// existing position's returns and reports the first symbol whose
// correlation exceeds the threshold. Positions with no return history are
// skipped.
func CorrelationConflict(candidate []float64, held map[string][]float64, positions []market.Position, threshold float64) (string, bool) {
	for _, pos := range positions {
		rets, ok := held[pos.Symbol]
		if !ok || len(rets) == 0 {
			continue
		}
		if Correlation(candidate, rets) > threshold {
			return pos.Symbol, true
		}
	}
	return "", false
}
