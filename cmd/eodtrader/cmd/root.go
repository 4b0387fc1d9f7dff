package cmd

import (
	"fmt"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/eodtrader/config"
	"github.com/rustyeddy/eodtrader/internal/logging"
	"github.com/rustyeddy/eodtrader/journal"
)

var rootCmd = &cobra.Command{
	Use:   "eodtrader",
	Short: "End-of-day risk-gated trading decision pipeline",
	Long: `eodtrader decides, once per trading day and per symbol, whether to
enter, exit, or hold a position, and at what size, under a stack of
independent risk constraints.

It provides tools for:
  - Running the daily decision pass (signals, sizing, risk gates)
  - Evaluating and inspecting the realized-performance kill switch
  - Rebuilding the market regime (bull gate) cache
  - Reporting a day's signals and orders
  - Ingesting daily bars and the symbol universe from CSV`,
}

var (
	flagConfig    string
	flagDB        string
	flagLogLevel  string
	flagLogFormat string
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file (YAML or JSON)")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "path to the journal database (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "INFO", "log level (DEBUG, INFO, WARN, ERROR)")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "log format (text or json)")
}

// setup builds the config, store and logger every subcommand shares.
func setup() (*config.Config, *journal.SQLite, *slog.Logger, error) {
	// .env is optional; real env vars still apply without one.
	_ = godotenv.Load()

	var cfg *config.Config
	var err error
	if flagConfig != "" {
		cfg, err = config.LoadFromFile(flagConfig)
		if err != nil {
			return nil, nil, nil, err
		}
	} else {
		cfg = config.Default()
		cfg.ApplyEnv()
	}
	if flagDB != "" {
		cfg.Journal.DBPath = flagDB
	}

	store, err := journal.NewSQLite(cfg.Journal.DBPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open journal: %w", err)
	}

	log := logging.New(logging.Options{Level: flagLogLevel, Format: flagLogFormat})
	return cfg, store, log, nil
}
