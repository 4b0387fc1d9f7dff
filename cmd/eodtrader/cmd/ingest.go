package cmd

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/eodtrader/market"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load daily bars or the symbol universe from CSV",
}

var ingestBarsFile string

var ingestBarsCmd = &cobra.Command{
	Use:   "bars",
	Short: "Load daily bars from a CSV file",
	Long: `Load daily OHLCV bars. Expected header:

  symbol,date,open,high,low,close,volume

Dates are YYYY-MM-DD. Existing (symbol, date) rows are overwritten.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, store, _, err := setup()
		if err != nil {
			return err
		}
		defer store.Close()

		n, err := ingestCSV(ingestBarsFile, 7, func(rec []string) error {
			bar, err := parseBarRecord(rec)
			if err != nil {
				return err
			}
			return store.UpsertBar(bar)
		})
		if err != nil {
			return err
		}
		fmt.Printf("Loaded %d bars from %s\n", n, ingestBarsFile)
		return nil
	},
}

var ingestSymbolsFile string

var ingestSymbolsCmd = &cobra.Command{
	Use:   "symbols",
	Short: "Load the symbol universe from a CSV file",
	Long: `Load the tradable universe. Expected header:

  symbol,sector,is_active

is_active is true/false or 1/0.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, store, _, err := setup()
		if err != nil {
			return err
		}
		defer store.Close()

		n, err := ingestCSV(ingestSymbolsFile, 3, func(rec []string) error {
			active, err := parseBool(rec[2])
			if err != nil {
				return fmt.Errorf("is_active: %w", err)
			}
			return store.UpsertSymbol(market.Symbol{
				Symbol:   strings.TrimSpace(rec[0]),
				Sector:   strings.TrimSpace(rec[1]),
				IsActive: active,
			})
		})
		if err != nil {
			return err
		}
		fmt.Printf("Loaded %d symbols from %s\n", n, ingestSymbolsFile)
		return nil
	},
}

// ingestCSV streams a headered CSV, applying fn to each record.
func ingestCSV(path string, fields int, fn func([]string) error) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = fields

	if _, err := r.Read(); err != nil {
		return 0, fmt.Errorf("read header: %w", err)
	}

	n := 0
	for line := 2; ; line++ {
		rec, err := r.Read()
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return n, fmt.Errorf("read csv: %w", err)
		}
		if err := fn(rec); err != nil {
			return n, fmt.Errorf("line %d: %w", line, err)
		}
		n++
	}
}

func parseBarRecord(rec []string) (market.Bar, error) {
	var b market.Bar
	var err error

	b.Symbol = strings.TrimSpace(rec[0])
	if b.Date, err = market.ParseDate(strings.TrimSpace(rec[1])); err != nil {
		return b, fmt.Errorf("date: %w", err)
	}
	fields := []struct {
		name string
		dst  *float64
	}{
		{"open", &b.Open}, {"high", &b.High}, {"low", &b.Low}, {"close", &b.Close},
	}
	for i, f := range fields {
		if *f.dst, err = strconv.ParseFloat(strings.TrimSpace(rec[2+i]), 64); err != nil {
			return b, fmt.Errorf("%s: %w", f.name, err)
		}
	}
	if b.Volume, err = strconv.ParseInt(strings.TrimSpace(rec[6]), 10, 64); err != nil {
		return b, fmt.Errorf("volume: %w", err)
	}
	return b, nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes":
		return true, nil
	case "0", "false", "no":
		return false, nil
	}
	return false, fmt.Errorf("unrecognized boolean %q", s)
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.AddCommand(ingestBarsCmd)
	ingestCmd.AddCommand(ingestSymbolsCmd)

	ingestBarsCmd.Flags().StringVar(&ingestBarsFile, "csv", "", "path to bars CSV (required)")
	ingestBarsCmd.MarkFlagRequired("csv")
	ingestSymbolsCmd.Flags().StringVar(&ingestSymbolsFile, "csv", "", "path to symbols CSV (required)")
	ingestSymbolsCmd.MarkFlagRequired("csv")
}
