package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/eodtrader/eod"
	"github.com/rustyeddy/eodtrader/market"
)

var marketstateCmd = &cobra.Command{
	Use:   "marketstate",
	Short: "Inspect or rebuild the market regime cache",
}

var marketstateRefreshSymbol string

var marketstateRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Rebuild the bull-gate cache from stored reference bars",
	Long: `Recompute the reference symbol's long moving average for every stored
session and upsert the bull/bear gate rows the decision run reads.

Example:
  eodtrader marketstate refresh --symbol SPY`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, store, log, err := setup()
		if err != nil {
			return err
		}
		defer store.Close()

		if marketstateRefreshSymbol != "" {
			cfg.Data.ReferenceSymbol = marketstateRefreshSymbol
		}

		n, err := eod.New(store, cfg, log).RefreshMarketState()
		if err != nil {
			return err
		}
		fmt.Printf("Refreshed %d market state rows from %s (SMA %d)\n",
			n, cfg.Data.ReferenceSymbol, cfg.Data.ReferenceSMA)
		return nil
	},
}

var marketstateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the most recent market regime row",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, store, _, err := setup()
		if err != nil {
			return err
		}
		defer store.Close()

		ms, err := store.LatestMarketState()
		if err != nil {
			return err
		}
		gate := "bear"
		if ms.BullGate {
			gate = "bull"
		}
		fmt.Printf("%s  %s  close %.2f vs SMA %.2f\n",
			market.FormatDate(ms.Date), gate, ms.RefClose, ms.RefSMA)
		if ms.TotalCandidates > 0 {
			fmt.Printf("  last run: %d candidates, %d filtered (%.1f%%)\n",
				ms.TotalCandidates, ms.FilteredCount, ms.FilteredPct)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(marketstateCmd)
	marketstateCmd.AddCommand(marketstateRefreshCmd)
	marketstateCmd.AddCommand(marketstateStatusCmd)

	marketstateRefreshCmd.Flags().StringVar(&marketstateRefreshSymbol, "symbol", "", "reference symbol (default: config reference_symbol)")
}
