package market

import "time"

// Symbol is one entry in the tradable universe.
type Symbol struct {
	Symbol   string
	Sector   string
	IsActive bool
}

// Position is a row from the external position ledger. The decision engine
// reads positions but never mutates them; orders are proposals, not fills.
type Position struct {
	Symbol   string
	Quantity float64
	AvgPrice float64
	Sector   string
}

// Value returns the absolute dollar value of the position.
func (p Position) Value() float64 {
	qty := p.Quantity
	if qty < 0 {
		qty = -qty
	}
	return qty * p.AvgPrice
}

// Signal is one strategy's opinion for a symbol on a date. Keyed by
// (date, symbol, strategy) and upserted, so re-running a date overwrites.
type Signal struct {
	Date      time.Time
	Symbol    string
	Strategy  string
	Direction string
	Strength  float64
}

// Order is a proposed end-of-day order. Quantity 0 is a sentinel: on a buy
// it means "blocked" (the reason tag says why), on a sell it means "exit the
// full position".
type Order struct {
	ID       string
	Date     time.Time
	Symbol   string
	Side     string
	Quantity int
	Reason   string
}

// Fill is a realized execution from the external ledger, consumed by the
// kill-switch evaluator to reconstruct trade P&L.
type Fill struct {
	Symbol   string
	Date     time.Time
	Side     string
	Quantity float64
	Price    float64
}

// MarketState caches the market regime for one date. BullGate is derived
// (reference close at or above its long SMA, the boundary counts as
// bullish) and cached because every symbol's decision depends on it.
type MarketState struct {
	Date            time.Time
	RefClose        float64
	RefSMA          float64
	BullGate        bool
	TotalCandidates int
	FilteredCount   int
	FilteredPct     float64
}

// KillSwitchState is the circuit-breaker decision for one date.
type KillSwitchState struct {
	Date   time.Time
	Active bool
	Reason string
}

// SymbolEvent is an append-only per-symbol event. Only STOP_HIT events are
// produced today; they drive the re-entry cooldown window.
type SymbolEvent struct {
	Symbol  string
	Date    time.Time
	Event   string
	Details string
}
