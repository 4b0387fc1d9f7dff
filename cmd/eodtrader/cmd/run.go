package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/eodtrader/eod"
	"github.com/rustyeddy/eodtrader/market"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the end-of-day decision pass",
	Long: `Run the full decision pass for one trading date: strategy signals with
confirmation, position sizing, the risk gate chain, and the kill switch.

Without --date the most recent session in the journal is used.

Example:
  eodtrader run --db eodtrader.db --date 2026-08-24`,
	RunE: runRun,
}

var (
	runDate        string
	runSignalsOnly bool
	runForce       bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runDate, "date", "", "trading date YYYY-MM-DD (default: last session in journal)")
	runCmd.Flags().BoolVar(&runSignalsOnly, "signals-only", false, "record signals but emit no orders")
	runCmd.Flags().BoolVar(&runForce, "force", false, "steal a stale run lock left by a crashed run")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, store, log, err := setup()
	if err != nil {
		return err
	}
	defer store.Close()

	var date time.Time
	if runDate != "" {
		if date, err = market.ParseDate(runDate); err != nil {
			return fmt.Errorf("parse --date: %w", err)
		}
	} else {
		if date, err = store.LastSession(); err != nil {
			return fmt.Errorf("determine session: %w", err)
		}
	}

	engine := eod.New(store, cfg, log)
	sum, err := engine.Run(context.Background(), date, eod.RunOptions{
		SignalsOnly: runSignalsOnly,
		Force:       runForce,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Run complete for %s\n", market.FormatDate(sum.Date))
	fmt.Printf("  Symbols: %d (filtered: %d)\n", sum.Total, sum.Filtered)
	fmt.Printf("  Orders: %d\n", sum.Orders)
	fmt.Printf("  Bull gate: %v (known: %v)\n", sum.BullGate, sum.MarketKnown)
	if sum.KillSwitch.Active {
		fmt.Printf("  Kill switch: ACTIVE (%s)\n", sum.KillSwitch.Reason)
	} else {
		fmt.Println("  Kill switch: off")
	}
	return nil
}
