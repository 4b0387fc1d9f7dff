// Package journal is the SQLite store for the EOD decision system: daily
// bars, the active universe, positions and fills from the external ledger,
// and the rows this system owns: signals, orders, market state, kill-switch
// state, symbol events and run locks.
package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rustyeddy/eodtrader/market"
	"github.com/rustyeddy/eodtrader/pkg/id"
)

// ErrRunInProgress is returned when a run lock for the date is already held.
var ErrRunInProgress = errors.New("journal: run already in progress for date")

// ErrNoMarketState is returned when no market_state row exists for a date.
var ErrNoMarketState = errors.New("journal: no market state for date")

// SQLite is the store handle. Methods are safe for the single-writer use
// the engine makes of them; the one-run-per-date guarantee comes from the
// run_locks table, not from this struct.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (creating if needed) the store at path.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Close releases the database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func dateArg(t time.Time) string {
	return market.FormatDate(t)
}

// ---- writes owned by ingest / external collaborators -----------------------

// UpsertBar validates and writes one daily bar.
func (s *SQLite) UpsertBar(b market.Bar) error {
	if err := b.Validate(); err != nil {
		return err
	}
	_, err := s.db.Exec(`
		INSERT INTO bars_daily (symbol, d, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (symbol, d) DO UPDATE SET
			open = excluded.open, high = excluded.high,
			low = excluded.low, close = excluded.close,
			volume = excluded.volume`,
		b.Symbol, dateArg(b.Date), b.Open, b.High, b.Low, b.Close, b.Volume)
	return err
}

// UpsertSymbol writes one universe entry.
func (s *SQLite) UpsertSymbol(sym market.Symbol) error {
	_, err := s.db.Exec(`
		INSERT INTO symbols (symbol, sector, is_active)
		VALUES (?, ?, ?)
		ON CONFLICT (symbol) DO UPDATE SET
			sector = excluded.sector, is_active = excluded.is_active`,
		sym.Symbol, sym.Sector, boolArg(sym.IsActive))
	return err
}

// UpsertPosition writes one ledger position (tests and ingest only; the
// engine treats positions as read-only).
func (s *SQLite) UpsertPosition(p market.Position) error {
	_, err := s.db.Exec(`
		INSERT INTO positions (symbol, qty, avg_px, sector)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (symbol) DO UPDATE SET
			qty = excluded.qty, avg_px = excluded.avg_px, sector = excluded.sector`,
		p.Symbol, p.Quantity, p.AvgPrice, p.Sector)
	return err
}

// InsertFill appends a realized execution.
func (s *SQLite) InsertFill(f market.Fill) error {
	_, err := s.db.Exec(`
		INSERT INTO fills (symbol, d, side, qty, px) VALUES (?, ?, ?, ?, ?)`,
		f.Symbol, dateArg(f.Date), f.Side, f.Quantity, f.Price)
	return err
}

// ---- writes owned by the decision engine -----------------------------------

// UpsertSignal records one strategy opinion, overwriting any earlier run of
// the same (date, symbol, strategy).
func (s *SQLite) UpsertSignal(sig market.Signal) error {
	_, err := s.db.Exec(`
		INSERT INTO signals_daily (d, symbol, strategy, direction, strength)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (d, symbol, strategy) DO UPDATE SET
			direction = excluded.direction, strength = excluded.strength`,
		dateArg(sig.Date), sig.Symbol, sig.Strategy, sig.Direction, sig.Strength)
	return err
}

// InsertOrder appends one proposed order, assigning an ID when absent.
func (s *SQLite) InsertOrder(o market.Order) error {
	if o.ID == "" {
		o.ID = id.New()
	}
	_, err := s.db.Exec(`
		INSERT INTO orders_eod (order_id, d, symbol, side, qty, reason)
		VALUES (?, ?, ?, ?, ?, ?)`,
		o.ID, dateArg(o.Date), o.Symbol, o.Side, o.Quantity, o.Reason)
	return err
}

// DeleteOrders removes the date's orders so a re-run never duplicates them.
func (s *SQLite) DeleteOrders(d time.Time) error {
	_, err := s.db.Exec(`DELETE FROM orders_eod WHERE d = ?`, dateArg(d))
	return err
}

// UpsertMarketState writes the regime columns for a date, preserving any
// filtering metrics already recorded.
func (s *SQLite) UpsertMarketState(ms market.MarketState) error {
	_, err := s.db.Exec(`
		INSERT INTO market_state (d, ref_close, ref_sma, bull_gate)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (d) DO UPDATE SET
			ref_close = excluded.ref_close,
			ref_sma = excluded.ref_sma,
			bull_gate = excluded.bull_gate`,
		dateArg(ms.Date), ms.RefClose, ms.RefSMA, boolArg(ms.BullGate))
	return err
}

// UpdateFilterMetrics records how much of the universe a run filtered out.
func (s *SQLite) UpdateFilterMetrics(d time.Time, total, filtered int) error {
	pct := 0.0
	if total > 0 {
		pct = 100 * float64(filtered) / float64(total)
	}
	res, err := s.db.Exec(`
		UPDATE market_state SET
			total_candidates = ?, filtered_candidates = ?, pct_entries_filtered = ?
		WHERE d = ?`,
		total, filtered, pct, dateArg(d))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// No regime row yet for the date; create one so metrics are not lost.
		_, err = s.db.Exec(`
			INSERT INTO market_state (d, bull_gate, total_candidates, filtered_candidates, pct_entries_filtered)
			VALUES (?, 0, ?, ?, ?)`,
			dateArg(d), total, filtered, pct)
	}
	return err
}

// UpsertKillSwitch writes the circuit-breaker decision for a date.
func (s *SQLite) UpsertKillSwitch(ks market.KillSwitchState) error {
	_, err := s.db.Exec(`
		INSERT INTO system_state (d, kill_active, reason)
		VALUES (?, ?, ?)
		ON CONFLICT (d) DO UPDATE SET
			kill_active = excluded.kill_active, reason = excluded.reason`,
		dateArg(ks.Date), boolArg(ks.Active), nullString(ks.Reason))
	return err
}

// RecordStopEvent appends a STOP_HIT event; duplicates for the same
// (symbol, date, event) are ignored, the table is append-only.
func (s *SQLite) RecordStopEvent(ev market.SymbolEvent) error {
	if ev.Event == "" {
		ev.Event = market.EventStopHit
	}
	_, err := s.db.Exec(`
		INSERT INTO symbol_events (symbol, d, event, details)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (symbol, d, event) DO NOTHING`,
		ev.Symbol, dateArg(ev.Date), ev.Event, ev.Details)
	return err
}

// ---- run locks --------------------------------------------------------------

// AcquireRunLock claims the single decision run for a trading date and
// returns the holder token. A second caller gets ErrRunInProgress until the
// first releases (or the lock is stolen with ForceReleaseRunLock).
func (s *SQLite) AcquireRunLock(d time.Time) (string, error) {
	token := id.New()
	_, err := s.db.Exec(`
		INSERT INTO run_locks (d, token, acquired_at) VALUES (?, ?, ?)`,
		dateArg(d), token, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		// The PK conflict is the expected contention signal.
		var held string
		row := s.db.QueryRow(`SELECT token FROM run_locks WHERE d = ?`, dateArg(d))
		if scanErr := row.Scan(&held); scanErr == nil {
			return "", fmt.Errorf("%w (held by %s)", ErrRunInProgress, held)
		}
		return "", err
	}
	return token, nil
}

// ReleaseRunLock releases the date's lock if token is the holder.
func (s *SQLite) ReleaseRunLock(d time.Time, token string) error {
	res, err := s.db.Exec(`DELETE FROM run_locks WHERE d = ? AND token = ?`, dateArg(d), token)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("journal: run lock for %s not held by this token", market.FormatDate(d))
	}
	return nil
}

// ForceReleaseRunLock clears a date's lock regardless of holder. For
// operator recovery after a crashed run.
func (s *SQLite) ForceReleaseRunLock(d time.Time) error {
	_, err := s.db.Exec(`DELETE FROM run_locks WHERE d = ?`, dateArg(d))
	return err
}

func boolArg(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
