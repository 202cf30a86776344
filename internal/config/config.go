// Package config loads YAML configuration for the betting engine, with
// environment overrides for credentials and DSNs.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"sportsbet-lab/internal/domain"
)

// Config is the full engine configuration.
type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Storage struct {
		// Backend selects where state lives: "memory" or "postgres".
		Backend       string `yaml:"backend"`
		PostgresDSN   string `yaml:"postgres_dsn"`
		ClickhouseDSN string `yaml:"clickhouse_dsn"`
	} `yaml:"storage"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	MarketData struct {
		BaseURL    string   `yaml:"base_url"`
		APIKey     string   `yaml:"api_key"`
		WSEndpoint string   `yaml:"ws_endpoint"`
		Sports     []string `yaml:"sports"`
	} `yaml:"marketdata"`

	Strategy StrategyConfig `yaml:"strategy"`
	Risk     RiskConfig     `yaml:"risk"`

	Backtest struct {
		InitialBankroll float64 `yaml:"initial_bankroll"`
		SizingOverride  string  `yaml:"sizing_override"`
		EventsFile      string  `yaml:"events_file"`
	} `yaml:"backtest"`

	Sweep struct {
		Workers        int       `yaml:"workers"`
		KellyFractions []float64 `yaml:"kelly_fractions"`
	} `yaml:"sweep"`
}

// StrategyConfig is the YAML shape of a betting strategy.
type StrategyConfig struct {
	StrategyID   string `yaml:"strategy_id"`
	Name         string `yaml:"name"`
	SizingPolicy string `yaml:"sizing_policy"`

	FixedAmount     float64 `yaml:"fixed_amount"`
	StakePercentage float64 `yaml:"stake_percentage"`
	KellyFraction   float64 `yaml:"kelly_fraction"`

	MaxBetPercentage float64 `yaml:"max_bet_percentage"`
	MinConfidence    float64 `yaml:"min_confidence"`
	MinExpectedValue float64 `yaml:"min_expected_value"`
	MinOdds          float64 `yaml:"min_odds"`
	MaxOdds          float64 `yaml:"max_odds"`

	MaxBetsPerDay  int `yaml:"max_bets_per_day"`
	MaxBetsPerWeek int `yaml:"max_bets_per_week"`

	Sports      []string `yaml:"sports"`
	MarketTypes []string `yaml:"market_types"`
}

// RiskConfig is the YAML shape of bot-level risk limits.
type RiskConfig struct {
	StopLossPercentage      float64 `yaml:"stop_loss_percentage"`
	TakeProfitPercentage    float64 `yaml:"take_profit_percentage"`
	DrawdownLimitPercentage float64 `yaml:"drawdown_limit_percentage"`
	MaxBetPercentage        float64 `yaml:"max_bet_percentage"`
	MaxBetsPerDay           int     `yaml:"max_bets_per_day"`
	MaxBetsPerWeek          int     `yaml:"max_bets_per_week"`
}

// Load reads the YAML file at path, applies environment overrides, and
// validates. A .env file in the working directory is loaded first if
// present.
func Load(path string) (*Config, error) {
	// Missing .env is fine; explicit env vars still apply.
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = "memory"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Backtest.InitialBankroll == 0 {
		c.Backtest.InitialBankroll = 1000
	}
	if c.Sweep.Workers == 0 {
		c.Sweep.Workers = 4
	}
}

func (c *Config) applyEnv() {
	if dsn := os.Getenv("POSTGRES_DSN"); dsn != "" {
		c.Storage.PostgresDSN = dsn
	}
	if dsn := os.Getenv("CLICKHOUSE_DSN"); dsn != "" {
		c.Storage.ClickhouseDSN = dsn
	}
	if key := os.Getenv("ODDS_API_KEY"); key != "" {
		c.MarketData.APIKey = key
	}
	if addr := os.Getenv("SERVER_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if bankroll := os.Getenv("INITIAL_BANKROLL"); bankroll != "" {
		if v, err := strconv.ParseFloat(bankroll, 64); err == nil && v > 0 {
			c.Backtest.InitialBankroll = v
		}
	}
}

// Validate fails fast on a malformed configuration so nothing downstream
// sees a half-valid config.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "memory":
	case "postgres":
		if c.Storage.PostgresDSN == "" {
			return fmt.Errorf("%w: postgres backend requires postgres_dsn or POSTGRES_DSN", domain.ErrValidation)
		}
	default:
		return fmt.Errorf("%w: unknown storage backend %q", domain.ErrValidation, c.Storage.Backend)
	}

	if c.Backtest.InitialBankroll <= 0 {
		return fmt.Errorf("%w: initial_bankroll must be > 0", domain.ErrValidation)
	}
	if c.Sweep.Workers < 1 {
		return fmt.Errorf("%w: sweep workers must be >= 1", domain.ErrValidation)
	}
	for _, f := range c.Sweep.KellyFractions {
		if f <= 0 || f > 1 {
			return fmt.Errorf("%w: kelly fraction %v out of (0, 1]", domain.ErrValidation, f)
		}
	}

	if c.Strategy.StrategyID != "" {
		strategy := c.Strategy.Domain()
		if err := strategy.Validate(); err != nil {
			return err
		}
	}
	risk := c.Risk.Domain()
	return risk.Validate()
}

// Domain converts the YAML strategy into the engine's strategy type.
func (s *StrategyConfig) Domain() domain.StrategyConfig {
	return domain.StrategyConfig{
		StrategyID:       s.StrategyID,
		Name:             s.Name,
		SizingPolicy:     s.SizingPolicy,
		FixedAmount:      s.FixedAmount,
		StakePercentage:  s.StakePercentage,
		KellyFraction:    s.KellyFraction,
		MaxBetPercentage: s.MaxBetPercentage,
		MinConfidence:    s.MinConfidence,
		MinExpectedValue: s.MinExpectedValue,
		MinOdds:          s.MinOdds,
		MaxOdds:          s.MaxOdds,
		MaxBetsPerDay:    s.MaxBetsPerDay,
		MaxBetsPerWeek:   s.MaxBetsPerWeek,
		Sports:           append([]string(nil), s.Sports...),
		MarketTypes:      append([]string(nil), s.MarketTypes...),
	}
}

// Domain converts the YAML risk limits into the engine's risk type.
func (r *RiskConfig) Domain() domain.RiskManagement {
	return domain.RiskManagement{
		StopLossPercentage:      r.StopLossPercentage,
		TakeProfitPercentage:    r.TakeProfitPercentage,
		DrawdownLimitPercentage: r.DrawdownLimitPercentage,
		MaxBetPercentage:        r.MaxBetPercentage,
		MaxBetsPerDay:           r.MaxBetsPerDay,
		MaxBetsPerWeek:          r.MaxBetsPerWeek,
	}
}
