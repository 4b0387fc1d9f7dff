package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/eodtrader/market"
)

func newTestStore(t *testing.T) *SQLite {
	t.Helper()

	path := filepath.Join(t.TempDir(), "eod.db")
	s, err := NewSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func d(s string) time.Time {
	t, err := market.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func bar(symbol, date string, close float64) market.Bar {
	return market.Bar{
		Symbol: symbol, Date: d(date),
		Open: close, High: close + 1, Low: close - 1, Close: close,
		Volume: 1000,
	}
}

func TestBarsRoundTripAscending(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	require.NoError(t, s.UpsertBar(bar("AAPL", "2024-01-04", 102)))
	require.NoError(t, s.UpsertBar(bar("AAPL", "2024-01-02", 100)))
	require.NoError(t, s.UpsertBar(bar("AAPL", "2024-01-03", 101)))

	bars, err := s.Bars("AAPL", 10)
	require.NoError(t, err)
	require.Len(t, bars, 3)
	assert.Equal(t, "2024-01-02", market.FormatDate(bars[0].Date))
	assert.Equal(t, "2024-01-04", market.FormatDate(bars[2].Date))

	// Lookback trims the oldest, not the newest.
	bars, err = s.Bars("AAPL", 2)
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, "2024-01-03", market.FormatDate(bars[0].Date))
}

func TestBarsThroughExcludesFuture(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	for _, date := range []string{"2024-01-02", "2024-01-03", "2024-01-04"} {
		require.NoError(t, s.UpsertBar(bar("AAPL", date, 100)))
	}
	bars, err := s.BarsThrough("AAPL", d("2024-01-03"), 10)
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, "2024-01-03", market.FormatDate(bars[1].Date))
}

func TestUpsertBarRejectsInvalid(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	b := bar("AAPL", "2024-01-02", 100)
	b.High = b.Low - 1
	assert.Error(t, s.UpsertBar(b))
}

func TestUpsertBarIdempotent(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	require.NoError(t, s.UpsertBar(bar("AAPL", "2024-01-02", 100)))
	require.NoError(t, s.UpsertBar(bar("AAPL", "2024-01-02", 105)))

	bars, err := s.Bars("AAPL", 10)
	require.NoError(t, err)
	require.Len(t, bars, 1)
	assert.InDelta(t, 105.0, bars[0].Close, 1e-9)
}

func TestLastSession(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	_, err := s.LastSession()
	assert.Error(t, err)

	require.NoError(t, s.UpsertBar(bar("AAPL", "2024-01-02", 100)))
	require.NoError(t, s.UpsertBar(bar("MSFT", "2024-01-05", 300)))

	last, err := s.LastSession()
	require.NoError(t, err)
	assert.Equal(t, "2024-01-05", market.FormatDate(last))
}

func TestSignalUpsertOverwrites(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	sig := market.Signal{
		Date: d("2024-01-02"), Symbol: "AAPL",
		Strategy: market.StrategyRSIMeanReversion, Direction: market.DirectionBuy, Strength: 1,
	}
	require.NoError(t, s.UpsertSignal(sig))

	sig.Direction = market.DirectionHold
	require.NoError(t, s.UpsertSignal(sig))

	sigs, err := s.Signals(d("2024-01-02"))
	require.NoError(t, err)
	require.Len(t, sigs, 1)
	assert.Equal(t, market.DirectionHold, sigs[0].Direction)
}

func TestOrdersClearedPerRun(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	day := d("2024-01-02")
	require.NoError(t, s.InsertOrder(market.Order{Date: day, Symbol: "AAPL", Side: market.SideBuy, Quantity: 100, Reason: "entry-rsi_mr"}))
	require.NoError(t, s.InsertOrder(market.Order{Date: day, Symbol: "XOM", Side: market.SideSell, Quantity: 0, Reason: "exit-sma_x"}))

	orders, err := s.Orders(day)
	require.NoError(t, err)
	assert.Len(t, orders, 2)
	for _, o := range orders {
		assert.NotEmpty(t, o.ID)
	}

	require.NoError(t, s.DeleteOrders(day))
	orders, err = s.Orders(day)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestMarketStateUpsertKeepsMetrics(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	day := d("2024-01-02")
	require.NoError(t, s.UpsertMarketState(market.MarketState{Date: day, RefClose: 470, RefSMA: 450, BullGate: true}))
	require.NoError(t, s.UpdateFilterMetrics(day, 100, 25))

	// Regime refresh must not wipe the recorded metrics.
	require.NoError(t, s.UpsertMarketState(market.MarketState{Date: day, RefClose: 471, RefSMA: 450, BullGate: true}))

	ms, err := s.MarketStateOn(day)
	require.NoError(t, err)
	assert.True(t, ms.BullGate)
	assert.InDelta(t, 471.0, ms.RefClose, 1e-9)
	assert.Equal(t, 100, ms.TotalCandidates)
	assert.Equal(t, 25, ms.FilteredCount)
	assert.InDelta(t, 25.0, ms.FilteredPct, 1e-9)
}

func TestUpdateFilterMetricsCreatesRowWhenMissing(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	day := d("2024-01-03")
	require.NoError(t, s.UpdateFilterMetrics(day, 10, 10))

	ms, err := s.MarketStateOn(day)
	require.NoError(t, err)
	assert.False(t, ms.BullGate)
	assert.Equal(t, 10, ms.TotalCandidates)
	assert.InDelta(t, 100.0, ms.FilteredPct, 1e-9)
}

func TestMarketStateMissing(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	_, err := s.MarketStateOn(d("2024-01-02"))
	assert.ErrorIs(t, err, ErrNoMarketState)

	_, err = s.LatestMarketState()
	assert.ErrorIs(t, err, ErrNoMarketState)
}

func TestKillSwitchRoundTrip(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	day := d("2024-01-02")
	_, found, err := s.KillSwitchOn(day)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.UpsertKillSwitch(market.KillSwitchState{Date: day, Active: true, Reason: "losing streak of 10 trades at threshold 10"}))
	ks, found, err := s.KillSwitchOn(day)
	require.NoError(t, err)
	assert.True(t, found)
	assert.True(t, ks.Active)
	assert.Contains(t, ks.Reason, "losing streak")

	// Idempotent re-evaluation flips it back off.
	require.NoError(t, s.UpsertKillSwitch(market.KillSwitchState{Date: day, Active: false}))
	ks, _, err = s.KillSwitchOn(day)
	require.NoError(t, err)
	assert.False(t, ks.Active)
	assert.Empty(t, ks.Reason)

	hist, err := s.KillSwitchHistory(7)
	require.NoError(t, err)
	assert.Len(t, hist, 1)
}

func TestStopEventCooldownWindow(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	require.NoError(t, s.RecordStopEvent(market.SymbolEvent{Symbol: "AAPL", Date: d("2024-01-10")}))
	// Duplicate is a no-op, not an error.
	require.NoError(t, s.RecordStopEvent(market.SymbolEvent{Symbol: "AAPL", Date: d("2024-01-10")}))

	// Window is [from, until): the event day itself is inside, the
	// current day is not.
	hit, err := s.StopEventSince("AAPL", d("2024-01-10"), d("2024-01-11"))
	require.NoError(t, err)
	assert.True(t, hit)

	hit, err = s.StopEventSince("AAPL", d("2024-01-11"), d("2024-01-12"))
	require.NoError(t, err)
	assert.False(t, hit)

	hit, err = s.StopEventSince("MSFT", d("2024-01-01"), d("2024-02-01"))
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestRunLockExcludesSecondRun(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	day := d("2024-01-02")
	token, err := s.AcquireRunLock(day)
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	_, err = s.AcquireRunLock(day)
	assert.ErrorIs(t, err, ErrRunInProgress)

	// A different date is independent.
	other, err := s.AcquireRunLock(d("2024-01-03"))
	require.NoError(t, err)
	assert.NotEqual(t, token, other)

	// Wrong token cannot release.
	assert.Error(t, s.ReleaseRunLock(day, other))

	require.NoError(t, s.ReleaseRunLock(day, token))
	_, err = s.AcquireRunLock(day)
	assert.NoError(t, err)
}

func TestForceReleaseRunLock(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	day := d("2024-01-02")
	_, err := s.AcquireRunLock(day)
	require.NoError(t, err)

	require.NoError(t, s.ForceReleaseRunLock(day))
	_, err = s.AcquireRunLock(day)
	assert.NoError(t, err)
}

func TestSectorValueAndPositions(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	require.NoError(t, s.UpsertPosition(market.Position{Symbol: "AAPL", Quantity: 100, AvgPrice: 150, Sector: "Technology"}))
	require.NoError(t, s.UpsertPosition(market.Position{Symbol: "MSFT", Quantity: -10, AvgPrice: 300, Sector: "Technology"}))
	require.NoError(t, s.UpsertPosition(market.Position{Symbol: "XOM", Quantity: 50, AvgPrice: 100, Sector: "Energy"}))

	v, err := s.SectorValue("Technology")
	require.NoError(t, err)
	assert.InDelta(t, 18000.0, v, 1e-9) // 15000 + |−10|*300

	v, err = s.SectorValue("Utilities")
	require.NoError(t, err)
	assert.InDelta(t, 0.0, v, 1e-9)

	ps, err := s.Positions()
	require.NoError(t, err)
	assert.Len(t, ps, 3)

	p, ok, err := s.Position("XOM")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.InDelta(t, 50.0, p.Quantity, 1e-9)

	_, ok, err = s.Position("TSLA")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFillsOrderedForMatching(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	require.NoError(t, s.InsertFill(market.Fill{Symbol: "AAPL", Date: d("2024-01-03"), Side: market.SideSell, Quantity: 100, Price: 110}))
	require.NoError(t, s.InsertFill(market.Fill{Symbol: "AAPL", Date: d("2024-01-02"), Side: market.SideBuy, Quantity: 100, Price: 100}))

	fills, err := s.Fills(d("2023-12-01"))
	require.NoError(t, err)
	require.Len(t, fills, 2)
	assert.Equal(t, market.SideBuy, fills[0].Side)

	fills, err = s.Fills(d("2024-01-03"))
	require.NoError(t, err)
	assert.Len(t, fills, 1)
}

func TestCurrentVIX(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	_, ok, err := s.CurrentVIX("^VIX")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.UpsertBar(bar("^VIX", "2024-01-02", 18)))
	require.NoError(t, s.UpsertBar(bar("^VIX", "2024-01-03", 22)))

	v, ok, err := s.CurrentVIX("^VIX")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.InDelta(t, 22.0, v, 1e-9)
}

func TestActiveSymbolsFiltersInactive(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	require.NoError(t, s.UpsertSymbol(market.Symbol{Symbol: "AAPL", Sector: "Technology", IsActive: true}))
	require.NoError(t, s.UpsertSymbol(market.Symbol{Symbol: "DELISTED", Sector: "Energy", IsActive: false}))

	syms, err := s.ActiveSymbols()
	require.NoError(t, err)
	require.Len(t, syms, 1)
	assert.Equal(t, "AAPL", syms[0].Symbol)
}
