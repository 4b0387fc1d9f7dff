package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validBar() Bar {
	return Bar{
		Symbol: "AAPL",
		Date:   time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
		Open:   100, High: 105, Low: 98, Close: 103,
		Volume: 1_000_000,
	}
}

func TestBarValidate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, validBar().Validate())

	tests := []struct {
		name   string
		mutate func(*Bar)
	}{
		{"missing symbol", func(b *Bar) { b.Symbol = "" }},
		{"zero date", func(b *Bar) { b.Date = time.Time{} }},
		{"negative close", func(b *Bar) { b.Close = -1 }},
		{"high below low", func(b *Bar) { b.High = 90 }},
		{"close above high", func(b *Bar) { b.Close = 110 }},
		{"open below low", func(b *Bar) { b.Open = 90 }},
		{"negative volume", func(b *Bar) { b.Volume = -5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := validBar()
			tt.mutate(&b)
			assert.Error(t, b.Validate())
		})
	}
}

func TestDateHelpers(t *testing.T) {
	t.Parallel()

	ts := time.Date(2024, 3, 4, 15, 30, 45, 0, time.FixedZone("EST", -5*3600))
	d := Date(ts)
	assert.Equal(t, "2024-03-04", FormatDate(d))
	assert.Equal(t, 0, d.Hour()) // midnight UTC
	assert.Equal(t, time.UTC, d.Location())

	parsed, err := ParseDate("2024-03-04")
	assert.NoError(t, err)
	assert.Equal(t, d, parsed)

	_, err = ParseDate("03/04/2024")
	assert.Error(t, err)
}

func TestPositionValue(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 5000.0, Position{Quantity: 100, AvgPrice: 50}.Value(), 1e-9)
	assert.InDelta(t, 5000.0, Position{Quantity: -100, AvgPrice: 50}.Value(), 1e-9)
}
