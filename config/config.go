// Package config loads and validates the decision-run configuration from
// YAML or JSON files, with environment-variable overrides for the knobs
// operators tune most often.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the complete configuration for a decision run.
type Config struct {
	Journal    JournalConfig    `json:"journal" yaml:"journal"`
	Account    AccountConfig    `json:"account" yaml:"account"`
	Data       DataConfig       `json:"data" yaml:"data"`
	Strategies StrategiesConfig `json:"strategies" yaml:"strategies"`
	Sizing     SizingConfig     `json:"sizing" yaml:"sizing"`
	Risk       RiskConfig       `json:"risk" yaml:"risk"`
}

// JournalConfig locates the SQLite store.
type JournalConfig struct {
	DBPath string `json:"db_path" yaml:"db_path"`
}

// AccountConfig contains the portfolio value baseline used when the ledger
// carries no positions yet.
type AccountConfig struct {
	StartCapital float64 `json:"start_capital" yaml:"start_capital"`
}

// DataConfig controls history loading and market-regime inputs.
type DataConfig struct {
	Lookback        int    `json:"lookback" yaml:"lookback"`
	MinHistory      int    `json:"min_history" yaml:"min_history"`
	ReferenceSymbol string `json:"reference_symbol" yaml:"reference_symbol"`
	ReferenceSMA    int    `json:"reference_sma" yaml:"reference_sma"`
	VIXSymbol       string `json:"vix_symbol" yaml:"vix_symbol"`
}

// StrategiesConfig contains the per-strategy parameters.
type StrategiesConfig struct {
	RSIMeanReversion RSIMeanReversionConfig `json:"rsi_mr" yaml:"rsi_mr"`
	SMACrossover     SMACrossoverConfig     `json:"sma_x" yaml:"sma_x"`
}

// RSIMeanReversionConfig parameterizes the mean-reversion strategy.
type RSIMeanReversionConfig struct {
	RSIWindow int     `json:"rsi_window" yaml:"rsi_window"`
	BuyRSI    float64 `json:"buy_rsi" yaml:"buy_rsi"`
	SellRSI   float64 `json:"sell_rsi" yaml:"sell_rsi"`
	Window    int     `json:"confirm_window" yaml:"confirm_window"`
	MinCount  int     `json:"confirm_min_count" yaml:"confirm_min_count"`
}

// SMACrossoverConfig parameterizes the trend-following strategy.
type SMACrossoverConfig struct {
	Fast        int `json:"fast" yaml:"fast"`
	Slow        int `json:"slow" yaml:"slow"`
	ConfirmDays int `json:"confirm_days" yaml:"confirm_days"`
}

// SizingConfig parameterizes position sizing.
type SizingConfig struct {
	PctPerTrade  float64 `json:"pct_per_trade" yaml:"pct_per_trade"`
	DailyRiskCap float64 `json:"daily_risk_cap" yaml:"daily_risk_cap"`
	KATR         float64 `json:"k_atr" yaml:"k_atr"`
	ATRWindow    int     `json:"atr_window" yaml:"atr_window"`
	VIXCaution   float64 `json:"vix_caution" yaml:"vix_caution"`
	VIXPanic     float64 `json:"vix_panic" yaml:"vix_panic"`
	CautionScale float64 `json:"caution_scale" yaml:"caution_scale"`
	PanicScale   float64 `json:"panic_scale" yaml:"panic_scale"`
}

// RiskConfig parameterizes the portfolio gates and the kill switch.
type RiskConfig struct {
	MarketFilterEnable   bool    `json:"market_filter_enable" yaml:"market_filter_enable"`
	CooldownDays         int     `json:"cooldown_days" yaml:"cooldown_days"`
	MaxSectorPct         float64 `json:"max_sector_pct" yaml:"max_sector_pct"`
	MaxPortfolioHeat     float64 `json:"max_portfolio_heat" yaml:"max_portfolio_heat"`
	CorrelationThreshold float64 `json:"correlation_threshold" yaml:"correlation_threshold"`
	CorrelationTopN      int     `json:"correlation_top_n" yaml:"correlation_top_n"`
	CorrelationLookback  int     `json:"correlation_lookback" yaml:"correlation_lookback"`
	ExitRequiresPosition bool    `json:"exit_requires_position" yaml:"exit_requires_position"`

	DrawdownThreshold float64 `json:"drawdown_threshold" yaml:"drawdown_threshold"`
	SharpeThreshold   float64 `json:"sharpe_threshold" yaml:"sharpe_threshold"`
	SharpeWindow      int     `json:"sharpe_window" yaml:"sharpe_window"`
	StreakThreshold   int     `json:"streak_threshold" yaml:"streak_threshold"`
	PLLookbackDays    int     `json:"pl_lookback_days" yaml:"pl_lookback_days"`
}

// Default returns a configuration with the standard parameters.
func Default() *Config {
	return &Config{
		Journal: JournalConfig{DBPath: "./eodtrader.db"},
		Account: AccountConfig{StartCapital: 100000},
		Data: DataConfig{
			Lookback:        250,
			MinHistory:      200,
			ReferenceSymbol: "SPY",
			ReferenceSMA:    200,
			VIXSymbol:       "^VIX",
		},
		Strategies: StrategiesConfig{
			RSIMeanReversion: RSIMeanReversionConfig{
				RSIWindow: 14, BuyRSI: 30, SellRSI: 55, Window: 3, MinCount: 2,
			},
			SMACrossover: SMACrossoverConfig{Fast: 20, Slow: 100, ConfirmDays: 2},
		},
		Sizing: SizingConfig{
			PctPerTrade:  0.05,
			DailyRiskCap: 0.005,
			KATR:         3.0,
			ATRWindow:    14,
			VIXCaution:   20,
			VIXPanic:     30,
			CautionScale: 0.5,
			PanicScale:   0.25,
		},
		Risk: RiskConfig{
			MarketFilterEnable:   true,
			CooldownDays:         1,
			MaxSectorPct:         0.30,
			MaxPortfolioHeat:     0.06,
			CorrelationThreshold: 0.80,
			CorrelationTopN:      5,
			CorrelationLookback:  60,
			ExitRequiresPosition: true,
			DrawdownThreshold:    -0.12,
			SharpeThreshold:      -1.0,
			SharpeWindow:         20,
			StreakThreshold:      10,
			PLLookbackDays:       90,
		},
	}
}

// LoadFromFile loads configuration from a YAML or JSON file, starting from
// defaults so partial files work, then applies env overrides and validates.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides the operator-facing knobs from the environment. The
// names match the original deployment's .env files, so those keep working.
func (c *Config) ApplyEnv() {
	envString("RT_DB_PATH", &c.Journal.DBPath)
	envFloat("RT_START_CAPITAL", &c.Account.StartCapital)
	envFloat("PCT_PER_TRADE", &c.Sizing.PctPerTrade)
	envFloat("DAILY_RISK_CAP", &c.Sizing.DailyRiskCap)
	envFloat("K_ATR", &c.Sizing.KATR)
	envInt("COOLDOWN_DAYS", &c.Risk.CooldownDays)
	envFloat("MAX_SECTOR", &c.Risk.MaxSectorPct)
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envFloat(key string, dst *float64) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Journal.DBPath == "" {
		return fmt.Errorf("journal.db_path is required")
	}
	if c.Account.StartCapital <= 0 {
		return fmt.Errorf("account.start_capital must be positive")
	}
	if c.Data.Lookback <= 0 {
		return fmt.Errorf("data.lookback must be positive")
	}
	if c.Data.MinHistory <= 0 || c.Data.MinHistory > c.Data.Lookback {
		return fmt.Errorf("data.min_history must be in (0, lookback]")
	}
	if c.Data.ReferenceSymbol == "" {
		return fmt.Errorf("data.reference_symbol is required")
	}
	if c.Data.ReferenceSMA <= 0 {
		return fmt.Errorf("data.reference_sma must be positive")
	}
	s := c.Strategies
	if s.RSIMeanReversion.RSIWindow <= 0 {
		return fmt.Errorf("strategies.rsi_mr.rsi_window must be positive")
	}
	if s.RSIMeanReversion.BuyRSI >= s.RSIMeanReversion.SellRSI {
		return fmt.Errorf("strategies.rsi_mr.buy_rsi must be below sell_rsi")
	}
	if s.RSIMeanReversion.Window <= 0 || s.RSIMeanReversion.MinCount <= 0 ||
		s.RSIMeanReversion.MinCount > s.RSIMeanReversion.Window {
		return fmt.Errorf("strategies.rsi_mr confirmation window/min_count invalid")
	}
	if s.SMACrossover.Fast <= 0 || s.SMACrossover.Slow <= s.SMACrossover.Fast {
		return fmt.Errorf("strategies.sma_x slow must exceed fast")
	}
	if s.SMACrossover.ConfirmDays <= 0 {
		return fmt.Errorf("strategies.sma_x.confirm_days must be positive")
	}
	if c.Sizing.PctPerTrade <= 0 || c.Sizing.PctPerTrade > 1 {
		return fmt.Errorf("sizing.pct_per_trade must be in (0, 1]")
	}
	if c.Sizing.DailyRiskCap <= 0 || c.Sizing.DailyRiskCap > 1 {
		return fmt.Errorf("sizing.daily_risk_cap must be in (0, 1]")
	}
	if c.Sizing.KATR <= 0 {
		return fmt.Errorf("sizing.k_atr must be positive")
	}
	if c.Sizing.ATRWindow <= 0 {
		return fmt.Errorf("sizing.atr_window must be positive")
	}
	if c.Sizing.VIXPanic <= c.Sizing.VIXCaution {
		return fmt.Errorf("sizing.vix_panic must exceed vix_caution")
	}
	if c.Risk.CooldownDays < 0 {
		return fmt.Errorf("risk.cooldown_days must not be negative")
	}
	if c.Risk.MaxSectorPct <= 0 || c.Risk.MaxSectorPct > 1 {
		return fmt.Errorf("risk.max_sector_pct must be in (0, 1]")
	}
	if c.Risk.MaxPortfolioHeat <= 0 {
		return fmt.Errorf("risk.max_portfolio_heat must be positive")
	}
	if c.Risk.CorrelationThreshold <= 0 || c.Risk.CorrelationThreshold > 1 {
		return fmt.Errorf("risk.correlation_threshold must be in (0, 1]")
	}
	if c.Risk.CorrelationTopN <= 0 || c.Risk.CorrelationLookback <= 1 {
		return fmt.Errorf("risk correlation top_n/lookback invalid")
	}
	if c.Risk.DrawdownThreshold >= 0 {
		return fmt.Errorf("risk.drawdown_threshold must be negative")
	}
	if c.Risk.SharpeWindow <= 1 {
		return fmt.Errorf("risk.sharpe_window must exceed 1")
	}
	if c.Risk.StreakThreshold <= 0 {
		return fmt.Errorf("risk.streak_threshold must be positive")
	}
	if c.Risk.PLLookbackDays <= 0 {
		return fmt.Errorf("risk.pl_lookback_days must be positive")
	}
	return nil
}
