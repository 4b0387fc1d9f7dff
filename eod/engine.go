// Package eod runs the once-per-trading-date decision pass: strategy signals
// with confirmation, position sizing, the portfolio risk gates, and the
// realized-performance kill switch, persisting every opinion and order to the
// journal.
package eod

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/rustyeddy/eodtrader/config"
	"github.com/rustyeddy/eodtrader/indicators"
	"github.com/rustyeddy/eodtrader/journal"
	"github.com/rustyeddy/eodtrader/market"
	"github.com/rustyeddy/eodtrader/risk"
	"github.com/rustyeddy/eodtrader/strategies"
)

// Engine evaluates one trading date against the journal. It holds no mutable
// state between runs; everything it needs is injected.
type Engine struct {
	store *journal.SQLite
	cfg   *config.Config
	log   *slog.Logger
}

// New returns an engine over the given store and configuration.
func New(store *journal.SQLite, cfg *config.Config, log *slog.Logger) *Engine {
	return &Engine{store: store, cfg: cfg, log: log}
}

// RunOptions modify a single Run.
type RunOptions struct {
	// SignalsOnly records strategy signals but emits no orders.
	SignalsOnly bool
	// Force steals a stale run lock left behind by a crashed run.
	Force bool
}

// Run executes the full decision pass for a trading date. Exactly one run
// per date may be in flight; a second concurrent caller gets
// journal.ErrRunInProgress.
func (e *Engine) Run(ctx context.Context, date time.Time, opts RunOptions) (*RunSummary, error) {
	date = market.Date(date)

	if opts.Force {
		if err := e.store.ForceReleaseRunLock(date); err != nil {
			return nil, fmt.Errorf("force release run lock: %w", err)
		}
	}
	token, err := e.store.AcquireRunLock(date)
	if err != nil {
		return nil, err
	}
	defer func() {
		if relErr := e.store.ReleaseRunLock(date, token); relErr != nil {
			e.log.Error("release run lock", "date", market.FormatDate(date), "err", relErr)
		}
	}()

	// A re-run replaces the date's orders rather than duplicating them.
	if err := e.store.DeleteOrders(date); err != nil {
		return nil, fmt.Errorf("clear orders: %w", err)
	}

	ks := e.evaluateKillSwitch(date)
	if err := e.store.UpsertKillSwitch(ks); err != nil {
		return nil, fmt.Errorf("record kill switch: %w", err)
	}
	if ks.Active {
		e.log.Warn("kill switch active", "date", market.FormatDate(date), "reason", ks.Reason)
	}

	bullGate, marketKnown := e.marketGate(date)

	snap, err := e.snapshot(date)
	if err != nil {
		return nil, err
	}

	universe, err := e.store.ActiveSymbols()
	if err != nil {
		return nil, fmt.Errorf("load universe: %w", err)
	}

	sum := &RunSummary{
		Date:        date,
		KillSwitch:  ks,
		BullGate:    bullGate,
		MarketKnown: marketKnown,
		SignalsOnly: opts.SignalsOnly,
		Total:       len(universe),
	}

	for _, sym := range universe {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res := e.processSymbol(date, sym, ks, bullGate, marketKnown, snap, opts.SignalsOnly)
		sum.Results = append(sum.Results, res)
		switch res.Outcome {
		case OutcomeOrdered, OutcomeExit:
			sum.Orders++
		case OutcomeFiltered, OutcomeVetoed, OutcomeError:
			sum.Filtered++
		}
		if res.Outcome == OutcomeError {
			e.log.Error("symbol failed", "symbol", sym.Symbol, "err", res.Err)
		}
	}

	if err := e.store.UpdateFilterMetrics(date, sum.Total, sum.Filtered); err != nil {
		return nil, fmt.Errorf("record filter metrics: %w", err)
	}

	e.log.Info("run complete",
		"date", market.FormatDate(date),
		"symbols", sum.Total,
		"filtered", sum.Filtered,
		"orders", sum.Orders,
		"bull_gate", bullGate,
		"kill_active", ks.Active)
	return sum, nil
}

// evaluateKillSwitch matches stored fills into realized round trips and runs
// the circuit-breaker checks. Any failure fails closed: an unknown state is
// treated as active.
func (e *Engine) evaluateKillSwitch(date time.Time) market.KillSwitchState {
	from := date.AddDate(0, 0, -e.cfg.Risk.PLLookbackDays)
	fills, err := e.store.Fills(from)
	if err != nil {
		e.log.Error("kill switch evaluation failed", "err", err)
		return market.KillSwitchState{Date: date, Active: true, Reason: "evaluation_failed"}
	}
	trips := risk.MatchFills(fills)
	dec := risk.EvaluateKillSwitch(trips, risk.KillSwitchParams{
		DrawdownThreshold: e.cfg.Risk.DrawdownThreshold,
		SharpeThreshold:   e.cfg.Risk.SharpeThreshold,
		SharpeWindow:      e.cfg.Risk.SharpeWindow,
		Annualization:     252,
		StreakThreshold:   e.cfg.Risk.StreakThreshold,
	})
	return market.KillSwitchState{Date: date, Active: dec.Active, Reason: dec.Reason}
}

// UpdateKillSwitch evaluates and persists the circuit breaker for a date
// without running the full decision pass.
func (e *Engine) UpdateKillSwitch(date time.Time) (market.KillSwitchState, error) {
	ks := e.evaluateKillSwitch(market.Date(date))
	if err := e.store.UpsertKillSwitch(ks); err != nil {
		return market.KillSwitchState{}, fmt.Errorf("record kill switch: %w", err)
	}
	return ks, nil
}

// marketGate reads the regime row for the date. A missing or unreadable row
// with the filter enabled blocks new entries; sells stay allowed.
func (e *Engine) marketGate(date time.Time) (bullGate, known bool) {
	ms, err := e.store.MarketStateOn(date)
	if err != nil {
		if e.cfg.Risk.MarketFilterEnable {
			e.log.Warn("no market state for date, entries blocked", "date", market.FormatDate(date))
		}
		return false, false
	}
	return ms.BullGate, true
}

// portfolioSnapshot is the aggregate state frozen for the whole run.
type portfolioSnapshot struct {
	value       float64
	positions   []market.Position
	heat        float64
	vixScale    float64
	heldReturns map[string][]float64 // top-N positions only
}

func (e *Engine) snapshot(date time.Time) (*portfolioSnapshot, error) {
	positions, err := e.store.Positions()
	if err != nil {
		return nil, fmt.Errorf("load positions: %w", err)
	}

	snap := &portfolioSnapshot{
		value:       e.cfg.Account.StartCapital,
		positions:   positions,
		vixScale:    1.0,
		heldReturns: map[string][]float64{},
	}

	var risks []risk.PositionRisk
	for _, p := range positions {
		bars, err := e.store.BarsThrough(p.Symbol, date, e.cfg.Data.Lookback)
		if err != nil {
			return nil, fmt.Errorf("load bars %s: %w", p.Symbol, err)
		}
		atr := indicators.Last(indicators.ATR(
			market.Highs(bars), market.Lows(bars), market.Closes(bars),
			e.cfg.Sizing.ATRWindow))
		risks = append(risks, risk.PositionRisk{Position: p, ATR: atr})
	}
	snap.heat = risk.PortfolioHeat(risks, snap.value)

	if vix, ok, err := e.store.CurrentVIX(e.cfg.Data.VIXSymbol); err != nil {
		return nil, fmt.Errorf("load vix: %w", err)
	} else if ok {
		snap.vixScale = risk.VIXScale(vix, risk.VIXParams{
			ElevatedThreshold: e.cfg.Sizing.VIXCaution,
			HighThreshold:     e.cfg.Sizing.VIXPanic,
			ElevatedScale:     e.cfg.Sizing.CautionScale,
			HighScale:         e.cfg.Sizing.PanicScale,
		})
	}

	for _, p := range risk.TopPositionsByValue(positions, e.cfg.Risk.CorrelationTopN) {
		bars, err := e.store.BarsThrough(p.Symbol, date, e.cfg.Risk.CorrelationLookback+1)
		if err != nil {
			return nil, fmt.Errorf("load bars %s: %w", p.Symbol, err)
		}
		snap.heldReturns[p.Symbol] = risk.Returns(market.Closes(bars))
	}
	return snap, nil
}

func (e *Engine) processSymbol(date time.Time, sym market.Symbol, ks market.KillSwitchState,
	bullGate, marketKnown bool, snap *portfolioSnapshot, signalsOnly bool) SymbolResult {

	res := SymbolResult{Symbol: sym.Symbol}

	cooldownFrom := date.AddDate(0, 0, -e.cfg.Risk.CooldownDays)
	stopped, err := e.store.StopEventSince(sym.Symbol, cooldownFrom, date)
	if err != nil {
		return res.fail(fmt.Errorf("cooldown lookup: %w", err))
	}
	if stopped {
		return res.filtered("cooldown")
	}

	bars, err := e.store.BarsThrough(sym.Symbol, date, e.cfg.Data.Lookback)
	if err != nil {
		return res.fail(fmt.Errorf("load bars: %w", err))
	}
	if len(bars) < e.cfg.Data.MinHistory {
		return res.filtered("insufficient_history")
	}

	mr := strategies.RSIMeanReversion(bars, strategies.RSIMeanReversionParams{
		RSIWindow: e.cfg.Strategies.RSIMeanReversion.RSIWindow,
		BuyRSI:    e.cfg.Strategies.RSIMeanReversion.BuyRSI,
		SellRSI:   e.cfg.Strategies.RSIMeanReversion.SellRSI,
		Window:    e.cfg.Strategies.RSIMeanReversion.Window,
		MinCount:  e.cfg.Strategies.RSIMeanReversion.MinCount,
	})
	sx := strategies.SMACrossover(bars, strategies.SMACrossoverParams{
		Fast:        e.cfg.Strategies.SMACrossover.Fast,
		Slow:        e.cfg.Strategies.SMACrossover.Slow,
		ConfirmDays: e.cfg.Strategies.SMACrossover.ConfirmDays,
	})

	// Both opinions are always recorded, whatever the gates decide below.
	for _, r := range []strategies.Result{mr, sx} {
		if err := e.store.UpsertSignal(market.Signal{
			Date: date, Symbol: sym.Symbol,
			Strategy: r.Strategy, Direction: r.Latest, Strength: 1,
		}); err != nil {
			return res.fail(fmt.Errorf("record signal: %w", err))
		}
	}

	if signalsOnly {
		return res.hold("signals_only")
	}

	direction, strat := strategies.ResolveFinal(mr, sx)
	switch direction {
	case market.DirectionSell:
		return e.emitExit(date, sym, strat, res)
	case market.DirectionBuy:
		return e.emitEntry(date, sym, strat, bars, ks, bullGate, marketKnown, snap, res)
	default:
		return res.hold("")
	}
}

// emitExit records an exit intent. Quantity 0 means close the whole
// position; the execution layer owns the actual size.
func (e *Engine) emitExit(date time.Time, sym market.Symbol, strat string, res SymbolResult) SymbolResult {
	if e.cfg.Risk.ExitRequiresPosition {
		_, open, err := e.store.Position(sym.Symbol)
		if err != nil {
			return res.fail(fmt.Errorf("position lookup: %w", err))
		}
		if !open {
			return res.hold("no_position")
		}
	}
	order := market.Order{
		Date: date, Symbol: sym.Symbol, Side: market.SideSell,
		Quantity: 0, Reason: "exit-" + reasonTag(strat),
	}
	if err := e.store.InsertOrder(order); err != nil {
		return res.fail(fmt.Errorf("record exit order: %w", err))
	}
	res.Outcome = OutcomeExit
	res.Reason = order.Reason
	return res
}

// emitEntry walks the buy-side gate chain in its fixed order. Every veto
// leaves a zero-quantity order carrying the gate's reason tag.
func (e *Engine) emitEntry(date time.Time, sym market.Symbol, strat string, bars []market.Bar,
	ks market.KillSwitchState, bullGate, marketKnown bool, snap *portfolioSnapshot, res SymbolResult) SymbolResult {

	if e.cfg.Risk.MarketFilterEnable && (!marketKnown || !bullGate) {
		return e.veto(date, sym.Symbol, "market_gate_block", res)
	}
	if ks.Active {
		return e.veto(date, sym.Symbol, "kill_switch_block", res)
	}
	if snap.heat > e.cfg.Risk.MaxPortfolioHeat {
		return e.veto(date, sym.Symbol, "portfolio_heat_block", res)
	}

	closes := market.Closes(bars)
	if n := e.cfg.Risk.CorrelationLookback + 1; len(closes) > n {
		closes = closes[len(closes)-n:]
	}
	if with, conflict := risk.CorrelationConflict(
		risk.Returns(closes), snap.heldReturns, snap.positions,
		e.cfg.Risk.CorrelationThreshold); conflict {
		return e.veto(date, sym.Symbol, "correlation_block:"+with, res)
	}

	entryPrice := bars[len(bars)-1].Close
	atr := indicators.Last(indicators.ATR(
		market.Highs(bars), market.Lows(bars), market.Closes(bars),
		e.cfg.Sizing.ATRWindow))
	qty := risk.ComputePositionSize(snap.value, entryPrice, atr, risk.SizingParams{
		PctPerTrade:  e.cfg.Sizing.PctPerTrade,
		DailyRiskCap: e.cfg.Sizing.DailyRiskCap,
		KATR:         e.cfg.Sizing.KATR,
	}, snap.vixScale)
	if qty <= 0 {
		return res.filtered("zero_size")
	}

	sectorValue, err := e.store.SectorValue(sym.Sector)
	if err != nil {
		return res.fail(fmt.Errorf("sector exposure lookup: %w", err))
	}
	if !risk.SectorExposureOK(sectorValue, snap.value, float64(qty)*entryPrice, e.cfg.Risk.MaxSectorPct) {
		return e.veto(date, sym.Symbol, "sector_exposure_block", res)
	}

	order := market.Order{
		Date: date, Symbol: sym.Symbol, Side: market.SideBuy,
		Quantity: qty, Reason: "entry-" + reasonTag(strat),
	}
	if err := e.store.InsertOrder(order); err != nil {
		return res.fail(fmt.Errorf("record entry order: %w", err))
	}
	e.log.Info("entry", "symbol", sym.Symbol, "qty", qty, "reason", order.Reason)
	res.Outcome = OutcomeOrdered
	res.Reason = order.Reason
	res.Quantity = qty
	return res
}

func (e *Engine) veto(date time.Time, symbol, reason string, res SymbolResult) SymbolResult {
	err := e.store.InsertOrder(market.Order{
		Date: date, Symbol: symbol, Side: market.SideBuy, Quantity: 0, Reason: reason,
	})
	if err != nil {
		return res.fail(fmt.Errorf("record veto order: %w", err))
	}
	e.log.Info("entry vetoed", "symbol", symbol, "reason", reason)
	res.Outcome = OutcomeVetoed
	res.Reason = reason
	return res
}

func reasonTag(strategy string) string {
	return strings.ToLower(strategy)
}

// RefreshMarketState rebuilds the bull-gate cache for every stored session
// of the reference symbol, returning the number of dates written.
func (e *Engine) RefreshMarketState() (int, error) {
	lookback := e.cfg.Data.Lookback + e.cfg.Data.ReferenceSMA
	bars, err := e.store.Bars(e.cfg.Data.ReferenceSymbol, lookback)
	if err != nil {
		return 0, fmt.Errorf("load reference bars: %w", err)
	}

	closes := market.Closes(bars)
	sma := indicators.SMA(closes, e.cfg.Data.ReferenceSMA)

	written := 0
	for i, b := range bars {
		if math.IsNaN(sma[i]) {
			continue
		}
		err := e.store.UpsertMarketState(market.MarketState{
			Date:     b.Date,
			RefClose: b.Close,
			RefSMA:   sma[i],
			BullGate: b.Close >= sma[i],
		})
		if err != nil {
			return written, fmt.Errorf("write market state %s: %w", market.FormatDate(b.Date), err)
		}
		written++
	}
	return written, nil
}
