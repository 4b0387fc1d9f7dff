package journal

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rustyeddy/eodtrader/market"
)

// maxDate sorts after every real trading date.
const maxDate = "9999-12-31"

// Bars returns up to lookback daily bars for symbol, ascending by date.
func (s *SQLite) Bars(symbol string, lookback int) ([]market.Bar, error) {
	return s.barsThrough(symbol, maxDate, lookback)
}

// BarsThrough is Bars restricted to dates at or before cutoff, so decision
// runs for past dates never peek at later data.
func (s *SQLite) BarsThrough(symbol string, cutoff time.Time, lookback int) ([]market.Bar, error) {
	return s.barsThrough(symbol, dateArg(cutoff), lookback)
}
func (s *SQLite) barsThrough(symbol, cutoff string, lookback int) ([]market.Bar, error) {
	rows, err := s.db.Query(`
		SELECT symbol, d, open, high, low, close, volume
		FROM (
			SELECT symbol, d, open, high, low, close, volume
			FROM bars_daily WHERE symbol = ? AND d <= ?
			ORDER BY d DESC LIMIT ?
		) ORDER BY d ASC`, symbol, cutoff, lookback)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []market.Bar
	for rows.Next() {
		var b market.Bar
		var d string
		if err := rows.Scan(&b.Symbol, &d, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, err
		}
		if b.Date, err = market.ParseDate(d); err != nil {
			return nil, fmt.Errorf("bars_daily %s: %w", b.Symbol, err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// LastSession returns the most recent date present in bars_daily.
func (s *SQLite) LastSession() (time.Time, error) {
	var d sql.NullString
	if err := s.db.QueryRow(`SELECT MAX(d) FROM bars_daily`).Scan(&d); err != nil {
		return time.Time{}, err
	}
	if !d.Valid {
		return time.Time{}, fmt.Errorf("journal: no bars loaded")
	}
	return market.ParseDate(d.String)
}

// ActiveSymbols returns the tradable universe ordered by symbol.
func (s *SQLite) ActiveSymbols() ([]market.Symbol, error) {
	rows, err := s.db.Query(`
		SELECT symbol, sector, is_active FROM symbols
		WHERE is_active = 1 ORDER BY symbol`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []market.Symbol
	for rows.Next() {
		var sym market.Symbol
		var active int
		if err := rows.Scan(&sym.Symbol, &sym.Sector, &active); err != nil {
			return nil, err
		}
		sym.IsActive = active != 0
		out = append(out, sym)
	}
	return out, rows.Err()
}

// Positions returns all current ledger positions.
func (s *SQLite) Positions() ([]market.Position, error) {
	rows, err := s.db.Query(`SELECT symbol, qty, avg_px, sector FROM positions ORDER BY symbol`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []market.Position
	for rows.Next() {
		var p market.Position
		if err := rows.Scan(&p.Symbol, &p.Quantity, &p.AvgPrice, &p.Sector); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Position returns the ledger position for one symbol, if any.
func (s *SQLite) Position(symbol string) (market.Position, bool, error) {
	var p market.Position
	row := s.db.QueryRow(`SELECT symbol, qty, avg_px, sector FROM positions WHERE symbol = ?`, symbol)
	err := row.Scan(&p.Symbol, &p.Quantity, &p.AvgPrice, &p.Sector)
	if err == sql.ErrNoRows {
		return market.Position{}, false, nil
	}
	if err != nil {
		return market.Position{}, false, err
	}
	return p, true, nil
}

// SectorValue returns the current dollar value held in a sector.
func (s *SQLite) SectorValue(sector string) (float64, error) {
	var v sql.NullFloat64
	err := s.db.QueryRow(`
		SELECT COALESCE(SUM(ABS(qty) * avg_px), 0) FROM positions WHERE sector = ?`,
		sector).Scan(&v)
	if err != nil {
		return 0, err
	}
	return v.Float64, nil
}

// Fills returns realized executions dated at or after from, in fill order.
func (s *SQLite) Fills(from time.Time) ([]market.Fill, error) {
	rows, err := s.db.Query(`
		SELECT symbol, d, side, qty, px FROM fills
		WHERE d >= ? ORDER BY d ASC, rowid ASC`, dateArg(from))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []market.Fill
	for rows.Next() {
		var f market.Fill
		var d string
		if err := rows.Scan(&f.Symbol, &d, &f.Side, &f.Quantity, &f.Price); err != nil {
			return nil, err
		}
		if f.Date, err = market.ParseDate(d); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// MarketStateOn returns the cached regime row for a date, or
// ErrNoMarketState when absent.
func (s *SQLite) MarketStateOn(d time.Time) (market.MarketState, error) {
	return s.scanMarketState(s.db.QueryRow(`
		SELECT d, ref_close, ref_sma, bull_gate, total_candidates, filtered_candidates, pct_entries_filtered
		FROM market_state WHERE d = ?`, dateArg(d)))
}

// LatestMarketState returns the most recent regime row.
func (s *SQLite) LatestMarketState() (market.MarketState, error) {
	return s.scanMarketState(s.db.QueryRow(`
		SELECT d, ref_close, ref_sma, bull_gate, total_candidates, filtered_candidates, pct_entries_filtered
		FROM market_state ORDER BY d DESC LIMIT 1`))
}

func (s *SQLite) scanMarketState(row *sql.Row) (market.MarketState, error) {
	var ms market.MarketState
	var d string
	var refClose, refSMA sql.NullFloat64
	var gate int
	err := row.Scan(&d, &refClose, &refSMA, &gate, &ms.TotalCandidates, &ms.FilteredCount, &ms.FilteredPct)
	if err == sql.ErrNoRows {
		return market.MarketState{}, ErrNoMarketState
	}
	if err != nil {
		return market.MarketState{}, err
	}
	if ms.Date, err = market.ParseDate(d); err != nil {
		return market.MarketState{}, err
	}
	ms.RefClose = refClose.Float64
	ms.RefSMA = refSMA.Float64
	ms.BullGate = gate != 0
	return ms, nil
}

// KillSwitchOn returns the circuit-breaker state for a date. A missing row
// reads as inactive with found=false; the engine decides what that means.
func (s *SQLite) KillSwitchOn(d time.Time) (market.KillSwitchState, bool, error) {
	var ks market.KillSwitchState
	var active int
	var reason sql.NullString
	row := s.db.QueryRow(`SELECT kill_active, reason FROM system_state WHERE d = ?`, dateArg(d))
	err := row.Scan(&active, &reason)
	if err == sql.ErrNoRows {
		return market.KillSwitchState{Date: market.Date(d)}, false, nil
	}
	if err != nil {
		return market.KillSwitchState{}, false, err
	}
	ks.Date = market.Date(d)
	ks.Active = active != 0
	ks.Reason = reason.String
	return ks, true, nil
}

// KillSwitchHistory returns the most recent days of circuit-breaker state,
// newest first.
func (s *SQLite) KillSwitchHistory(days int) ([]market.KillSwitchState, error) {
	rows, err := s.db.Query(`
		SELECT d, kill_active, reason FROM system_state
		ORDER BY d DESC LIMIT ?`, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []market.KillSwitchState
	for rows.Next() {
		var ks market.KillSwitchState
		var d string
		var active int
		var reason sql.NullString
		if err := rows.Scan(&d, &active, &reason); err != nil {
			return nil, err
		}
		if ks.Date, err = market.ParseDate(d); err != nil {
			return nil, err
		}
		ks.Active = active != 0
		ks.Reason = reason.String
		out = append(out, ks)
	}
	return out, rows.Err()
}

// StopEventSince reports whether symbol has a STOP_HIT event in [from, until).
func (s *SQLite) StopEventSince(symbol string, from, until time.Time) (bool, error) {
	var one int
	err := s.db.QueryRow(`
		SELECT 1 FROM symbol_events
		WHERE symbol = ? AND event = ? AND d >= ? AND d < ?
		LIMIT 1`,
		symbol, market.EventStopHit, dateArg(from), dateArg(until)).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// CurrentVIX returns the latest close of the volatility index symbol, or
// ok=false when no such bars exist.
func (s *SQLite) CurrentVIX(vixSymbol string) (float64, bool, error) {
	var v float64
	err := s.db.QueryRow(`
		SELECT close FROM bars_daily WHERE symbol = ? ORDER BY d DESC LIMIT 1`,
		vixSymbol).Scan(&v)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}

// Orders returns the date's proposed orders in insertion order.
func (s *SQLite) Orders(d time.Time) ([]market.Order, error) {
	rows, err := s.db.Query(`
		SELECT order_id, d, symbol, side, qty, reason FROM orders_eod
		WHERE d = ? ORDER BY order_id ASC`, dateArg(d))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []market.Order
	for rows.Next() {
		var o market.Order
		var ds string
		if err := rows.Scan(&o.ID, &ds, &o.Symbol, &o.Side, &o.Quantity, &o.Reason); err != nil {
			return nil, err
		}
		if o.Date, err = market.ParseDate(ds); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// Signals returns the date's recorded signals ordered by symbol, strategy.
func (s *SQLite) Signals(d time.Time) ([]market.Signal, error) {
	rows, err := s.db.Query(`
		SELECT d, symbol, strategy, direction, strength FROM signals_daily
		WHERE d = ? ORDER BY symbol, strategy`, dateArg(d))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []market.Signal
	for rows.Next() {
		var sig market.Signal
		var ds string
		if err := rows.Scan(&ds, &sig.Symbol, &sig.Strategy, &sig.Direction, &sig.Strength); err != nil {
			return nil, err
		}
		if sig.Date, err = market.ParseDate(ds); err != nil {
			return nil, err
		}
		out = append(out, sig)
	}
	return out, rows.Err()
}
