package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/eodtrader/market"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print a day's signals and orders",
	Long: `Render the recorded strategy signals and proposed orders for a trading
date. Zero-quantity buy orders are risk-gate vetoes; their reason column
names the gate that fired.

Example:
  eodtrader report --db eodtrader.db --date 2026-08-24`,
	RunE: runReport,
}

var reportDate string

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringVar(&reportDate, "date", "", "trading date YYYY-MM-DD (default: last session in journal)")
}

func runReport(cmd *cobra.Command, args []string) error {
	_, store, _, err := setup()
	if err != nil {
		return err
	}
	defer store.Close()

	var date time.Time
	if reportDate != "" {
		if date, err = market.ParseDate(reportDate); err != nil {
			return fmt.Errorf("parse --date: %w", err)
		}
	} else {
		if date, err = store.LastSession(); err != nil {
			return fmt.Errorf("determine session: %w", err)
		}
	}

	sigs, err := store.Signals(date)
	if err != nil {
		return err
	}
	orders, err := store.Orders(date)
	if err != nil {
		return err
	}

	st := table.NewWriter()
	st.SetOutputMirror(os.Stdout)
	st.SetTitle("SIGNALS %s", market.FormatDate(date))
	st.SetStyle(table.StyleRounded)
	st.AppendHeader(table.Row{"Symbol", "Strategy", "Direction"})
	for _, s := range sigs {
		st.AppendRow(table.Row{s.Symbol, s.Strategy, s.Direction})
	}
	st.Render()
	fmt.Println()

	ot := table.NewWriter()
	ot.SetOutputMirror(os.Stdout)
	ot.SetTitle("ORDERS %s", market.FormatDate(date))
	ot.SetStyle(table.StyleRounded)
	ot.AppendHeader(table.Row{"Symbol", "Side", "Qty", "Reason"})
	for _, o := range orders {
		ot.AppendRow(table.Row{o.Symbol, o.Side, o.Quantity, o.Reason})
	}
	ot.Render()

	if ks, found, err := store.KillSwitchOn(date); err == nil && found && ks.Active {
		fmt.Printf("\nKill switch ACTIVE: %s\n", ks.Reason)
	}
	return nil
}
