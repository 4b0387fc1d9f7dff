package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/eodtrader/eod"
	"github.com/rustyeddy/eodtrader/market"
)

var killswitchCmd = &cobra.Command{
	Use:   "killswitch",
	Short: "Inspect or re-evaluate the kill switch",
}

var killswitchStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the most recent kill switch state",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, store, _, err := setup()
		if err != nil {
			return err
		}
		defer store.Close()

		hist, err := store.KillSwitchHistory(1)
		if err != nil {
			return err
		}
		if len(hist) == 0 {
			fmt.Println("No kill switch state recorded yet")
			return nil
		}
		printKillSwitch(hist[0])
		return nil
	},
}

var killswitchUpdateDate string

var killswitchUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Re-evaluate the kill switch from realized fills",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, store, log, err := setup()
		if err != nil {
			return err
		}
		defer store.Close()

		date := time.Now().UTC()
		if killswitchUpdateDate != "" {
			if date, err = market.ParseDate(killswitchUpdateDate); err != nil {
				return fmt.Errorf("parse --date: %w", err)
			}
		}

		ks, err := eod.New(store, cfg, log).UpdateKillSwitch(date)
		if err != nil {
			return err
		}
		printKillSwitch(ks)
		return nil
	},
}

var killswitchHistoryDays int

var killswitchHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent kill switch states, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, store, _, err := setup()
		if err != nil {
			return err
		}
		defer store.Close()

		hist, err := store.KillSwitchHistory(killswitchHistoryDays)
		if err != nil {
			return err
		}
		for _, ks := range hist {
			printKillSwitch(ks)
		}
		return nil
	},
}

func printKillSwitch(ks market.KillSwitchState) {
	state := "off"
	if ks.Active {
		state = "ACTIVE"
	}
	fmt.Printf("%s  %s", market.FormatDate(ks.Date), state)
	if ks.Reason != "" {
		fmt.Printf("  (%s)", ks.Reason)
	}
	fmt.Println()
}

func init() {
	rootCmd.AddCommand(killswitchCmd)
	killswitchCmd.AddCommand(killswitchStatusCmd)
	killswitchCmd.AddCommand(killswitchUpdateCmd)
	killswitchCmd.AddCommand(killswitchHistoryCmd)

	killswitchUpdateCmd.Flags().StringVar(&killswitchUpdateDate, "date", "", "evaluation date YYYY-MM-DD (default: today)")
	killswitchHistoryCmd.Flags().IntVar(&killswitchHistoryDays, "days", 30, "number of days to list")
}
