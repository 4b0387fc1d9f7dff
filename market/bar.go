package market

import (
	"fmt"
	"time"
)

// Bar is one daily OHLCV bar for a symbol. Bars are immutable once written
// and stored ascending by date per symbol.
type Bar struct {
	Symbol string
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// Validate checks the OHLC relationships before a bar is persisted:
// high bounds every other price from above, low from below.
func (b Bar) Validate() error {
	if b.Symbol == "" {
		return fmt.Errorf("bar: symbol is required")
	}
	if b.Date.IsZero() {
		return fmt.Errorf("bar %s: date is required", b.Symbol)
	}
	if b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0 {
		return fmt.Errorf("bar %s %s: prices must be positive", b.Symbol, FormatDate(b.Date))
	}
	if b.High < b.Low {
		return fmt.Errorf("bar %s %s: high %.4f below low %.4f", b.Symbol, FormatDate(b.Date), b.High, b.Low)
	}
	if b.Open > b.High || b.Close > b.High {
		return fmt.Errorf("bar %s %s: open/close above high", b.Symbol, FormatDate(b.Date))
	}
	if b.Open < b.Low || b.Close < b.Low {
		return fmt.Errorf("bar %s %s: open/close below low", b.Symbol, FormatDate(b.Date))
	}
	if b.Volume < 0 {
		return fmt.Errorf("bar %s %s: negative volume", b.Symbol, FormatDate(b.Date))
	}
	return nil
}

// Closes extracts the close series from ascending bars.
func Closes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// Highs extracts the high series from ascending bars.
func Highs(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.High
	}
	return out
}

// Lows extracts the low series from ascending bars.
func Lows(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Low
	}
	return out
}
