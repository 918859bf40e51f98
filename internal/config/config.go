// Package config resolves bot settings from an optional YAML file,
// command line flags, and environment credentials. Precedence:
// explicit flag > YAML file > per-mode default.
package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"bracketbot/internal/strategy"
)

type Config struct {
	Mode                 strategy.Mode
	Symbol               string
	Quantity             int
	StopLossPct          float64
	TakeProfitPct        float64
	MaxOpenPositions     int
	Cooldown             time.Duration
	CandleInterval       time.Duration
	FastPeriod           int
	SlowPeriod           int
	BreakoutBuffer       float64
	TickInterval         time.Duration
	MarketClosedInterval time.Duration
	MetricsAddr          string
	LogLevel             string
	DecisionsPath        string
	BaseURL              string
	APIKey               string
	APISecret            string
}

// fileConfig mirrors the YAML surface. Durations are plain integers
// in the units their names state.
type fileConfig struct {
	Mode                  string  `yaml:"mode"`
	Symbol                string  `yaml:"symbol"`
	Quantity              int     `yaml:"quantity"`
	StopLossPct           float64 `yaml:"stop_loss_pct"`
	TakeProfitPct         float64 `yaml:"take_profit_pct"`
	MaxOpenPositions      int     `yaml:"max_open_positions"`
	CooldownSeconds       int     `yaml:"cooldown_seconds"`
	CandleIntervalMinutes int     `yaml:"candle_interval_minutes"`
	FastPeriod            int     `yaml:"fast_period"`
	SlowPeriod            int     `yaml:"slow_period"`
	BreakoutBufferPct     float64 `yaml:"breakout_buffer_pct"`
	TickIntervalSeconds   int     `yaml:"tick_interval_seconds"`
	MarketClosedSeconds   int     `yaml:"market_closed_interval_seconds"`
	MetricsAddr           string  `yaml:"metrics_addr"`
	LogLevel              string  `yaml:"log_level"`
	DecisionsPath         string  `yaml:"decisions_path"`
	BaseURL               string  `yaml:"base_url"`
}

func Load() (Config, error) {
	// Missing .env is fine; real env vars always win.
	_ = godotenv.Load()

	var cfg Config
	var mode, configPath string

	flag.StringVar(&mode, "mode", string(strategy.ModeIntraday), "strategy mode: daily or intraday")
	flag.StringVar(&configPath, "config", "", "path to YAML config file")
	flag.StringVar(&cfg.Symbol, "symbol", "", "trading symbol")
	flag.IntVar(&cfg.Quantity, "qty", 0, "shares per order (0 = mode default)")
	flag.Float64Var(&cfg.StopLossPct, "stop-loss-pct", 0, "stop loss fraction (0 = mode default)")
	flag.Float64Var(&cfg.TakeProfitPct, "take-profit-pct", 0, "take profit fraction (0 = mode default)")
	flag.IntVar(&cfg.MaxOpenPositions, "max-open-positions", 3, "max open positions for the symbol")
	flag.DurationVar(&cfg.Cooldown, "cooldown", 300*time.Second, "minimum time between trades")
	flag.DurationVar(&cfg.CandleInterval, "candle-interval", 15*time.Minute, "candle alignment interval")
	flag.IntVar(&cfg.FastPeriod, "fast-period", 50, "fast SMA period")
	flag.IntVar(&cfg.SlowPeriod, "slow-period", 200, "slow SMA period")
	flag.Float64Var(&cfg.BreakoutBuffer, "breakout-buffer", 0.001, "breakout buffer fraction")
	flag.DurationVar(&cfg.TickInterval, "tick-interval", 0, "polling interval (0 = mode default)")
	flag.DurationVar(&cfg.MarketClosedInterval, "market-closed-interval", time.Minute, "sleep while the market is closed")
	flag.StringVar(&cfg.MetricsAddr, "metrics-addr", ":9100", "prometheus listen address")
	flag.StringVar(&cfg.LogLevel, "log-level", "info", "zerolog level")
	flag.StringVar(&cfg.DecisionsPath, "decisions-path", "decisions.ndjson", "path to decision audit log")
	flag.StringVar(&cfg.BaseURL, "base-url", "https://paper-api.alpaca.markets", "alpaca trading API base URL")
	flag.Parse()

	explicit := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	cfg.Mode = strategy.Mode(mode)
	if configPath != "" {
		file, err := readFile(configPath)
		if err != nil {
			return cfg, err
		}
		applyFile(&cfg, file, explicit)
	}

	applyModeDefaults(&cfg)

	cfg.APIKey = os.Getenv("APCA_API_KEY_ID")
	cfg.APISecret = os.Getenv("APCA_API_SECRET_KEY")

	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func readFile(path string) (fileConfig, error) {
	var file fileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return file, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return file, fmt.Errorf("decode yaml: %w", err)
	}
	return file, nil
}

// applyFile copies YAML values into cfg for every setting that was
// not given explicitly on the command line.
func applyFile(cfg *Config, file fileConfig, explicit map[string]bool) {
	if file.Mode != "" && !explicit["mode"] {
		cfg.Mode = strategy.Mode(file.Mode)
	}
	if file.Symbol != "" && !explicit["symbol"] {
		cfg.Symbol = file.Symbol
	}
	if file.Quantity != 0 && !explicit["qty"] {
		cfg.Quantity = file.Quantity
	}
	if file.StopLossPct != 0 && !explicit["stop-loss-pct"] {
		cfg.StopLossPct = file.StopLossPct
	}
	if file.TakeProfitPct != 0 && !explicit["take-profit-pct"] {
		cfg.TakeProfitPct = file.TakeProfitPct
	}
	if file.MaxOpenPositions != 0 && !explicit["max-open-positions"] {
		cfg.MaxOpenPositions = file.MaxOpenPositions
	}
	if file.CooldownSeconds != 0 && !explicit["cooldown"] {
		cfg.Cooldown = time.Duration(file.CooldownSeconds) * time.Second
	}
	if file.CandleIntervalMinutes != 0 && !explicit["candle-interval"] {
		cfg.CandleInterval = time.Duration(file.CandleIntervalMinutes) * time.Minute
	}
	if file.FastPeriod != 0 && !explicit["fast-period"] {
		cfg.FastPeriod = file.FastPeriod
	}
	if file.SlowPeriod != 0 && !explicit["slow-period"] {
		cfg.SlowPeriod = file.SlowPeriod
	}
	if file.BreakoutBufferPct != 0 && !explicit["breakout-buffer"] {
		cfg.BreakoutBuffer = file.BreakoutBufferPct
	}
	if file.TickIntervalSeconds != 0 && !explicit["tick-interval"] {
		cfg.TickInterval = time.Duration(file.TickIntervalSeconds) * time.Second
	}
	if file.MarketClosedSeconds != 0 && !explicit["market-closed-interval"] {
		cfg.MarketClosedInterval = time.Duration(file.MarketClosedSeconds) * time.Second
	}
	if file.MetricsAddr != "" && !explicit["metrics-addr"] {
		cfg.MetricsAddr = file.MetricsAddr
	}
	if file.LogLevel != "" && !explicit["log-level"] {
		cfg.LogLevel = file.LogLevel
	}
	if file.DecisionsPath != "" && !explicit["decisions-path"] {
		cfg.DecisionsPath = file.DecisionsPath
	}
	if file.BaseURL != "" && !explicit["base-url"] {
		cfg.BaseURL = file.BaseURL
	}
}

// applyModeDefaults fills quantity, bracket offsets, tick cadence, and
// symbol for whichever mode is selected, leaving explicit values alone.
func applyModeDefaults(cfg *Config) {
	switch cfg.Mode {
	case strategy.ModeDaily:
		if cfg.Symbol == "" {
			cfg.Symbol = "SPY"
		}
		if cfg.Quantity == 0 {
			cfg.Quantity = 10
		}
		if cfg.StopLossPct == 0 {
			cfg.StopLossPct = 0.02
		}
		if cfg.TakeProfitPct == 0 {
			cfg.TakeProfitPct = 0.04
		}
		if cfg.TickInterval == 0 {
			cfg.TickInterval = 24 * time.Hour
		}
	case strategy.ModeIntraday:
		if cfg.Symbol == "" {
			cfg.Symbol = "TSLA"
		}
		if cfg.Quantity == 0 {
			cfg.Quantity = 2
		}
		if cfg.StopLossPct == 0 {
			cfg.StopLossPct = 0.01
		}
		if cfg.TakeProfitPct == 0 {
			cfg.TakeProfitPct = 0.02
		}
		if cfg.TickInterval == 0 {
			cfg.TickInterval = 30 * time.Second
		}
	}
}

// Validate rejects configurations that must never reach the trading
// loop. Failures here are fatal at startup.
func Validate(cfg Config) error {
	if cfg.Mode != strategy.ModeDaily && cfg.Mode != strategy.ModeIntraday {
		return fmt.Errorf("invalid mode: %s", cfg.Mode)
	}
	if cfg.Symbol == "" {
		return fmt.Errorf("symbol is required")
	}
	if cfg.Quantity <= 0 {
		return fmt.Errorf("qty must be > 0")
	}
	if cfg.StopLossPct <= 0 || cfg.StopLossPct >= 1 {
		return fmt.Errorf("stop-loss-pct must be in (0, 1)")
	}
	if cfg.TakeProfitPct <= 0 || cfg.TakeProfitPct >= 1 {
		return fmt.Errorf("take-profit-pct must be in (0, 1)")
	}
	if cfg.MaxOpenPositions <= 0 {
		return fmt.Errorf("max-open-positions must be > 0")
	}
	if cfg.Cooldown < 0 {
		return fmt.Errorf("cooldown must be >= 0")
	}
	if cfg.CandleInterval <= 0 {
		return fmt.Errorf("candle-interval must be > 0")
	}
	if cfg.FastPeriod <= 1 {
		return fmt.Errorf("fast-period must be > 1")
	}
	if cfg.SlowPeriod <= cfg.FastPeriod {
		return fmt.Errorf("slow-period must be > fast-period")
	}
	if cfg.BreakoutBuffer < 0 {
		return fmt.Errorf("breakout-buffer must be >= 0")
	}
	if cfg.TickInterval <= 0 {
		return fmt.Errorf("tick-interval must be > 0")
	}
	if cfg.MarketClosedInterval <= 0 {
		return fmt.Errorf("market-closed-interval must be > 0")
	}
	if cfg.APIKey == "" || cfg.APISecret == "" {
		return fmt.Errorf("APCA_API_KEY_ID and APCA_API_SECRET_KEY are required")
	}
	return nil
}
