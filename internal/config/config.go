package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"channelscout/internal/analyzer"
	"channelscout/internal/cache"
	"channelscout/internal/strategy"
)

// Config represents the application configuration
type Config struct {
	Scanner   ScannerConfig   `yaml:"scanner"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Scoring   ScoringConfig   `yaml:"scoring"`
	Cache     CacheConfig     `yaml:"cache"`
	Providers ProvidersConfig `yaml:"providers"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ScannerConfig holds scanner settings
type ScannerConfig struct {
	Workers  int           `yaml:"workers"`
	Timeout  time.Duration `yaml:"timeout"`
	MinScore float64       `yaml:"min_score"`
	Universe string        `yaml:"universe"`
	Strategy string        `yaml:"strategy"`
}

// AnalysisConfig holds detector and plan thresholds
type AnalysisConfig struct {
	Channel analyzer.ChannelConfig `yaml:"channel"`
	Pattern analyzer.PatternConfig `yaml:"pattern"`
	Volume  analyzer.VolumeConfig  `yaml:"volume"`
	Plan    strategy.PlanConfig    `yaml:"plan"`
}

// ScoringConfig holds confidence bands
type ScoringConfig struct {
	DailyBands    strategy.ConfidenceBands `yaml:"daily_bands"`
	IntradayBands strategy.ConfidenceBands `yaml:"intraday_bands"`
}

// CacheConfig selects the candle cache backend
type CacheConfig struct {
	Backend string            `yaml:"backend"` // "memory", "redis" or "none"
	TTL     time.Duration     `yaml:"ttl"`
	Redis   cache.RedisConfig `yaml:"redis"`
}

// ProvidersConfig holds market data provider settings
type ProvidersConfig struct {
	Yahoo   ProviderConfig `yaml:"yahoo"`
	Binance ProviderConfig `yaml:"binance"`
}

// ProviderConfig holds individual provider settings
type ProviderConfig struct {
	Enabled bool   `yaml:"enabled"`
	BaseURL string `yaml:"base_url"`
}

// LoggingConfig controls log output
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "console" or "json"
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Scanner: ScannerConfig{
			Workers:  8,
			Timeout:  5 * time.Minute,
			MinScore: 0,
			Universe: "test",
			Strategy: "swing",
		},
		Analysis: AnalysisConfig{
			Channel: analyzer.DefaultChannelConfig(),
			Pattern: analyzer.DefaultPatternConfig(),
			Volume:  analyzer.DefaultVolumeConfig(),
			Plan:    strategy.DefaultPlanConfig(),
		},
		Scoring: ScoringConfig{
			DailyBands:    strategy.DailyBands,
			IntradayBands: strategy.IntradayBands,
		},
		Cache: CacheConfig{
			Backend: "memory",
			TTL:     5 * time.Minute,
			Redis: cache.RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "channelscout:",
			},
		},
		Providers: ProvidersConfig{
			Yahoo:   ProviderConfig{Enabled: true},
			Binance: ProviderConfig{Enabled: true},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults; environment variables override both.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config file: %w", err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides settings from CHANNELSCOUT_* variables
func (c *Config) applyEnv() error {
	if v := os.Getenv("CHANNELSCOUT_REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
	}
	if v := os.Getenv("CHANNELSCOUT_REDIS_PASSWORD"); v != "" {
		c.Cache.Redis.Password = v
	}
	if v := os.Getenv("CHANNELSCOUT_CACHE_BACKEND"); v != "" {
		c.Cache.Backend = v
	}
	if v := os.Getenv("CHANNELSCOUT_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("CHANNELSCOUT_BINANCE_URL"); v != "" {
		c.Providers.Binance.BaseURL = v
	}
	if v := os.Getenv("CHANNELSCOUT_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CHANNELSCOUT_WORKERS: %w", err)
		}
		c.Scanner.Workers = n
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Scanner.Workers < 1 {
		return fmt.Errorf("workers must be at least 1")
	}
	if c.Scanner.MinScore < 0 || c.Scanner.MinScore > 100 {
		return fmt.Errorf("min_score must be within 0..100, got %.1f", c.Scanner.MinScore)
	}

	ch := c.Analysis.Channel
	if ch.Lookback != 0 && ch.Lookback < analyzer.MinBars {
		return fmt.Errorf("analysis.channel.lookback must be at least %d", analyzer.MinBars)
	}
	if ch.MinWidthPct < 0 || ch.MaxWidthPct <= ch.MinWidthPct {
		return fmt.Errorf("analysis.channel: max_width_pct must exceed min_width_pct")
	}
	if ch.MinTouchRatio < 0 || ch.MinTouchRatio > 1 {
		return fmt.Errorf("analysis.channel: min_touch_ratio must be within 0..1, got %.2f", ch.MinTouchRatio)
	}
	if ch.MinHeightATR < 0 {
		return fmt.Errorf("analysis.channel: min_height_atr must not be negative")
	}

	if c.Analysis.Volume.LowRatio >= c.Analysis.Volume.HighRatio {
		return fmt.Errorf("analysis.volume: low_ratio must be below high_ratio")
	}

	for name, b := range map[string]strategy.ConfidenceBands{
		"daily_bands":    c.Scoring.DailyBands,
		"intraday_bands": c.Scoring.IntradayBands,
	} {
		if b.Medium < 0 || b.High > 100 || b.Medium > b.High {
			return fmt.Errorf("scoring.%s: need 0 <= medium <= high <= 100", name)
		}
	}

	switch c.Cache.Backend {
	case "memory", "redis", "none", "":
	default:
		return fmt.Errorf("unknown cache backend: %s", c.Cache.Backend)
	}

	switch c.Logging.Format {
	case "console", "json", "":
	default:
		return fmt.Errorf("unknown log format: %s", c.Logging.Format)
	}

	if !c.Providers.Yahoo.Enabled && !c.Providers.Binance.Enabled {
		return fmt.Errorf("at least one provider must be enabled")
	}
	return nil
}

// Strategy converts the analysis and scoring sections into pipeline config
func (c *Config) Strategy() strategy.Config {
	return strategy.Config{
		Channel:       c.Analysis.Channel,
		Pattern:       c.Analysis.Pattern,
		Volume:        c.Analysis.Volume,
		Plan:          c.Analysis.Plan,
		DailyBands:    c.Scoring.DailyBands,
		IntradayBands: c.Scoring.IntradayBands,
	}
}
