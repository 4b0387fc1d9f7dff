package risk

import (
	"sort"
	"time"

	"github.com/rustyeddy/eodtrader/market"
)

// RoundTrip is one realized trade reconstructed from fills: a buy lot (or
// part of one) closed by a later sell.
type RoundTrip struct {
	Symbol     string
	Quantity   float64
	EntryPx    float64
	ExitPx     float64
	ExitDate   time.Time
	RealizedPL float64
}

// Return is the per-unit-capital return of the round trip.
func (r RoundTrip) Return() float64 {
	if r.EntryPx == 0 {
		return 0
	}
	return (r.ExitPx - r.EntryPx) / r.EntryPx
}

// MatchFills reconstructs realized trades by FIFO-matching buy and sell
// fills per symbol in fill order. Sells with no open lot to match (short
// entries, data gaps) are dropped: the kill switch only judges completed
// long round trips.
func MatchFills(fills []market.Fill) []RoundTrip {
	bySymbol := make(map[string][]market.Fill)
	var symbols []string
	for _, f := range fills {
		if _, ok := bySymbol[f.Symbol]; !ok {
			symbols = append(symbols, f.Symbol)
		}
		bySymbol[f.Symbol] = append(bySymbol[f.Symbol], f)
	}
	sort.Strings(symbols)

	type lot struct {
		qty float64
		px  float64
	}

	var trips []RoundTrip
	for _, sym := range symbols {
		fs := bySymbol[sym]
		sort.SliceStable(fs, func(i, j int) bool { return fs[i].Date.Before(fs[j].Date) })

		var open []lot
		for _, f := range fs {
			switch f.Side {
			case market.SideBuy:
				open = append(open, lot{qty: f.Quantity, px: f.Price})
			case market.SideSell:
				remaining := f.Quantity
				for remaining > 0 && len(open) > 0 {
					matched := open[0].qty
					if matched > remaining {
						matched = remaining
					}
					trips = append(trips, RoundTrip{
						Symbol:     sym,
						Quantity:   matched,
						EntryPx:    open[0].px,
						ExitPx:     f.Price,
						ExitDate:   f.Date,
						RealizedPL: matched * (f.Price - open[0].px),
					})
					open[0].qty -= matched
					remaining -= matched
					if open[0].qty == 0 {
						open = open[1:]
					}
				}
			}
		}
	}

	sort.SliceStable(trips, func(i, j int) bool { return trips[i].ExitDate.Before(trips[j].ExitDate) })
	return trips
}

// DailyReturns aggregates round-trip returns by exit date, ascending. The
// equity-curve and Sharpe checks both consume this series.
func DailyReturns(trips []RoundTrip) []float64 {
	if len(trips) == 0 {
		return nil
	}

	byDate := make(map[time.Time]float64)
	var dates []time.Time
	for _, tr := range trips {
		d := market.Date(tr.ExitDate)
		if _, ok := byDate[d]; !ok {
			dates = append(dates, d)
		}
		byDate[d] += tr.Return()
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	out := make([]float64, len(dates))
	for i, d := range dates {
		out[i] = byDate[d]
	}
	return out
}
