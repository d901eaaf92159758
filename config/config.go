package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/fxbot/market"
	"github.com/rustyeddy/fxbot/risk"
)

// Config is the complete bot configuration: broker credentials, webhook
// surface, trading limits, journal and logging. Loaded once at startup;
// Reload-style callers get a brand-new value, never a mutation.
type Config struct {
	Oanda   OandaConfig   `yaml:"oanda"`
	Webhook WebhookConfig `yaml:"webhook"`
	Trading TradingConfig `yaml:"trading"`
	Risk    RiskConfig    `yaml:"risk_management"`
	Journal JournalConfig `yaml:"journal"`
	Logging LoggingConfig `yaml:"logging"`
}

// OandaConfig carries broker credentials. AccountID and APIKey usually come
// from the environment, not the file.
type OandaConfig struct {
	Environment string `yaml:"environment"` // "practice" or "live"
	AccountID   string `yaml:"account_id"`
	APIKey      string `yaml:"api_key"`
}

type WebhookConfig struct {
	Enabled    bool     `yaml:"enabled"`
	Addr       string   `yaml:"addr"`
	Secret     string   `yaml:"secret"`
	AllowedIPs []string `yaml:"allowed_ips"`
}

// TradingConfig holds per-trade sizing parameters and the instrument
// enablement list.
type TradingConfig struct {
	RiskPerTrade      float64            `yaml:"risk_per_trade"`
	PerInstrumentRisk map[string]float64 `yaml:"per_instrument_risk"`
	MaxPositions      int                `yaml:"max_positions"`
	MaxTotalRisk      float64            `yaml:"max_total_risk"`
	DefaultStopPips   float64            `yaml:"default_stop_pips"`
	DefaultTargetPips float64            `yaml:"default_target_pips"`

	// Instruments lists the symbols enabled for trading. Overrides replaces
	// catalog metadata for symbols needing custom limits.
	Instruments []string                      `yaml:"instruments"`
	Overrides   map[string]InstrumentOverride `yaml:"instrument_overrides"`
}

// InstrumentOverride adjusts catalog metadata for one symbol.
type InstrumentOverride struct {
	PipLocation      *int     `yaml:"pip_location"`
	MinimumTradeSize *float64 `yaml:"min_trade_size"`
	MaximumTradeSize *float64 `yaml:"max_trade_size"`
	MaxSpreadPips    *float64 `yaml:"max_spread_pips"`
}

// RiskConfig holds the circuit-breaker limits and reset anchoring.
type RiskConfig struct {
	DailyLossLimit  float64 `yaml:"daily_loss_limit"`
	WeeklyLossLimit float64 `yaml:"weekly_loss_limit"`
	WeekStart       string  `yaml:"week_start"` // e.g. "Monday"
	Timezone        string  `yaml:"timezone"`   // e.g. "America/New_York"
}

type JournalConfig struct {
	DBPath string `yaml:"db_path"`
}

type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// Load reads the YAML config, merges environment overrides (a .env file is
// honored when present), and validates. Configuration errors are fatal at
// startup: a bot with half-understood limits must not trade.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.mergeEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// mergeEnv lets the environment override the secrets that should never live
// in the config file.
func (c *Config) mergeEnv() {
	_ = godotenv.Load()

	if v := os.Getenv("OANDA_ACCOUNT_ID"); v != "" {
		c.Oanda.AccountID = v
	}
	if v := os.Getenv("OANDA_API_KEY"); v != "" {
		c.Oanda.APIKey = v
	}
	if v := os.Getenv("OANDA_ENVIRONMENT"); v != "" {
		c.Oanda.Environment = v
	}
	if v := os.Getenv("WEBHOOK_SECRET"); v != "" {
		c.Webhook.Secret = v
	}
}

// Validate checks everything that would make the bot unsafe to start.
func (c *Config) Validate() error {
	if c.Oanda.Environment != "practice" && c.Oanda.Environment != "live" {
		return fmt.Errorf("oanda.environment must be 'practice' or 'live', got %q", c.Oanda.Environment)
	}
	if len(c.Trading.Instruments) == 0 {
		return fmt.Errorf("trading.instruments must list at least one enabled instrument")
	}
	for _, instr := range c.Trading.Instruments {
		if _, ok := market.Instruments[market.Normalize(instr)]; !ok {
			if _, ok := c.Trading.Overrides[market.Normalize(instr)]; !ok {
				return fmt.Errorf("unknown instrument: %s", instr)
			}
		}
	}
	if c.Journal.DBPath == "" {
		return fmt.Errorf("journal.db_path is required")
	}
	if _, err := c.Limits(); err != nil {
		return err
	}
	return nil
}

// Limits builds the immutable risk.Limits value from this config.
func (c *Config) Limits() (risk.Limits, error) {
	weekStart, err := parseWeekday(c.Risk.WeekStart)
	if err != nil {
		return risk.Limits{}, err
	}
	loc := time.UTC
	if c.Risk.Timezone != "" {
		loc, err = time.LoadLocation(c.Risk.Timezone)
		if err != nil {
			return risk.Limits{}, fmt.Errorf("risk_management.timezone: %w", err)
		}
	}

	per := make(map[string]float64, len(c.Trading.PerInstrumentRisk))
	for instr, r := range c.Trading.PerInstrumentRisk {
		per[market.Normalize(instr)] = r
	}

	l := risk.Limits{
		RiskPerTrade:    c.Trading.RiskPerTrade,
		PerInstrument:   per,
		MaxPositions:    c.Trading.MaxPositions,
		MaxTotalRisk:    c.Trading.MaxTotalRisk,
		DailyLossLimit:  c.Risk.DailyLossLimit,
		WeeklyLossLimit: c.Risk.WeeklyLossLimit,
		WeekStart:       weekStart,
		Location:        loc,
	}
	if err := l.Validate(); err != nil {
		return risk.Limits{}, err
	}
	return l, nil
}

// Catalog builds the instrument catalog with this config's enablement and
// overrides applied.
func (c *Config) Catalog() *market.Catalog {
	overrides := make(map[string]market.InstrumentMeta, len(c.Trading.Overrides))
	for symbol, o := range c.Trading.Overrides {
		symbol = market.Normalize(symbol)
		meta, ok := market.Instruments[symbol]
		if !ok {
			meta = market.InstrumentMeta{Name: symbol, Class: market.Forex, PipLocation: -4, MinimumTradeSize: 1}
		}
		if o.PipLocation != nil {
			meta.PipLocation = *o.PipLocation
		}
		if o.MinimumTradeSize != nil {
			meta.MinimumTradeSize = *o.MinimumTradeSize
		}
		if o.MaximumTradeSize != nil {
			meta.MaximumTradeSize = *o.MaximumTradeSize
		}
		if o.MaxSpreadPips != nil {
			meta.MaxSpreadPips = *o.MaxSpreadPips
		}
		overrides[symbol] = meta
	}
	return market.NewCatalog(c.Trading.Instruments, overrides)
}

func parseWeekday(s string) (time.Weekday, error) {
	if s == "" {
		return time.Monday, nil
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(s, d.String()) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("risk_management.week_start: unknown weekday %q", s)
}

// Default returns the baseline configuration the file overlays.
func Default() *Config {
	return &Config{
		Oanda: OandaConfig{
			Environment: "practice",
		},
		Webhook: WebhookConfig{
			Enabled: true,
			Addr:    ":5000",
		},
		Trading: TradingConfig{
			RiskPerTrade:      0.02,
			MaxPositions:      5,
			MaxTotalRisk:      0.06,
			DefaultStopPips:   20,
			DefaultTargetPips: 40,
		},
		Risk: RiskConfig{
			DailyLossLimit:  0.05,
			WeeklyLossLimit: 0.10,
			WeekStart:       "Monday",
			Timezone:        "UTC",
		},
		Journal: JournalConfig{
			DBPath: "./fxbot.db",
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  50,
			MaxBackups: 5,
			MaxAgeDays: 14,
		},
	}
}
