package journal

// Schema creates the EOD store tables. Dates are stored as YYYY-MM-DD text
// so lexical and chronological order coincide.
const Schema = `
CREATE TABLE IF NOT EXISTS bars_daily (
	symbol TEXT NOT NULL,
	d TEXT NOT NULL,
	open REAL NOT NULL,
	high REAL NOT NULL,
	low REAL NOT NULL,
	close REAL NOT NULL,
	volume INTEGER NOT NULL,
	PRIMARY KEY (symbol, d)
);

CREATE TABLE IF NOT EXISTS symbols (
	symbol TEXT PRIMARY KEY,
	sector TEXT NOT NULL DEFAULT '',
	is_active INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS positions (
	symbol TEXT PRIMARY KEY,
	qty REAL NOT NULL,
	avg_px REAL NOT NULL,
	sector TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS signals_daily (
	d TEXT NOT NULL,
	symbol TEXT NOT NULL,
	strategy TEXT NOT NULL,
	direction TEXT NOT NULL,
	strength REAL NOT NULL DEFAULT 1.0,
	PRIMARY KEY (d, symbol, strategy)
);

CREATE TABLE IF NOT EXISTS orders_eod (
	order_id TEXT PRIMARY KEY,
	d TEXT NOT NULL,
	symbol TEXT NOT NULL,
	side TEXT NOT NULL,
	qty INTEGER NOT NULL,
	reason TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_orders_eod_d ON orders_eod(d);

CREATE TABLE IF NOT EXISTS fills (
	symbol TEXT NOT NULL,
	d TEXT NOT NULL,
	side TEXT NOT NULL,
	qty REAL NOT NULL,
	px REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_fills_d ON fills(d);

CREATE TABLE IF NOT EXISTS market_state (
	d TEXT PRIMARY KEY,
	ref_close REAL,
	ref_sma REAL,
	bull_gate INTEGER NOT NULL DEFAULT 0,
	total_candidates INTEGER NOT NULL DEFAULT 0,
	filtered_candidates INTEGER NOT NULL DEFAULT 0,
	pct_entries_filtered REAL NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS system_state (
	d TEXT PRIMARY KEY,
	kill_active INTEGER NOT NULL,
	reason TEXT
);

CREATE TABLE IF NOT EXISTS symbol_events (
	symbol TEXT NOT NULL,
	d TEXT NOT NULL,
	event TEXT NOT NULL,
	details TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (symbol, d, event)
);

CREATE TABLE IF NOT EXISTS run_locks (
	d TEXT PRIMARY KEY,
	token TEXT NOT NULL,
	acquired_at TEXT NOT NULL
);
`
