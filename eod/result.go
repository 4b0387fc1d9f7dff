package eod

import (
	"time"

	"github.com/rustyeddy/eodtrader/market"
)

// Outcome classifies what the run decided for one symbol.
type Outcome string

const (
	// OutcomeOrdered means a sized entry order was recorded.
	OutcomeOrdered Outcome = "ordered"
	// OutcomeExit means an exit order was recorded.
	OutcomeExit Outcome = "exit"
	// OutcomeHold means neither strategy called for action.
	OutcomeHold Outcome = "hold"
	// OutcomeFiltered means the symbol never reached the gate chain
	// (cooldown, thin history, zero size).
	OutcomeFiltered Outcome = "filtered"
	// OutcomeVetoed means a risk gate blocked the entry and a
	// zero-quantity order records which one.
	OutcomeVetoed Outcome = "vetoed"
	// OutcomeError means the symbol failed; the run continued without it.
	OutcomeError Outcome = "error"
)

// SymbolResult is the per-symbol outcome of a run. One bad symbol never
// aborts the day; it surfaces here instead.
type SymbolResult struct {
	Symbol   string
	Outcome  Outcome
	Reason   string
	Quantity int
	Err      error
}

func (r SymbolResult) filtered(reason string) SymbolResult {
	r.Outcome = OutcomeFiltered
	r.Reason = reason
	return r
}

func (r SymbolResult) hold(reason string) SymbolResult {
	r.Outcome = OutcomeHold
	r.Reason = reason
	return r
}

func (r SymbolResult) fail(err error) SymbolResult {
	r.Outcome = OutcomeError
	r.Err = err
	return r
}

// RunSummary aggregates one decision run.
type RunSummary struct {
	Date        time.Time
	KillSwitch  market.KillSwitchState
	BullGate    bool
	MarketKnown bool
	SignalsOnly bool
	Total       int
	Filtered    int
	Orders      int
	Results     []SymbolResult
}
