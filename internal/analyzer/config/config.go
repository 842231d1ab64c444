package config

import (
	"fmt"
	"time"

	"etf-trend-analyzer/pkg/config"
)

// Analyzer holds analyzer-specific configuration.
type Analyzer struct {
	Symbol             string  `mapstructure:"symbol"`
	Period             string  `mapstructure:"period"`
	ShortWindow        int     `mapstructure:"short_window"`
	LongWindow         int     `mapstructure:"long_window"`
	MAEpsilon          float64 `mapstructure:"ma_epsilon"`
	ChangePctPrecision int     `mapstructure:"change_pct_precision"`
	TimeZone           string  `mapstructure:"time_zone"`
	CronSpec           string  `mapstructure:"cron_spec"`
}

// Cache holds TTL policy for the cache layer. Price staleness is more
// visible to end users than news staleness, so PriceTTL must not exceed
// NewsTTL.
type Cache struct {
	PriceTTL time.Duration `mapstructure:"price_ttl"`
	NewsTTL  time.Duration `mapstructure:"news_ttl"`
}

// News holds news provider configuration. Queries are keyed by the previous
// run's verdict.
type News struct {
	Provider     string `mapstructure:"provider"`
	LookbackDays int    `mapstructure:"lookback_days"`
	Limit        int    `mapstructure:"limit"`
	BullishQuery string `mapstructure:"bullish_query"`
	BearishQuery string `mapstructure:"bearish_query"`
}

// NewsAPI holds the configuration for the NewsAPI provider.
type NewsAPI struct {
	BaseURL             string `mapstructure:"base_url"`
	APIKey              string `mapstructure:"api_key"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
}

// GoogleRSS holds the configuration for the Google News RSS provider.
type GoogleRSS struct {
	BaseURL  string `mapstructure:"base_url"`
	Language string `mapstructure:"language"`
	Country  string `mapstructure:"country"`
}

// YahooFinance holds the configuration for the Yahoo Finance price provider.
type YahooFinance struct {
	BaseURL             string `mapstructure:"base_url"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
}

// Config holds the full configuration for the analyzer service.
type Config struct {
	App          config.App      `mapstructure:"app"`
	Logger       config.Logger   `mapstructure:"logger"`
	Database     config.Database `mapstructure:"database"`
	Redis        config.Redis    `mapstructure:"redis"`
	Telegram     config.Telegram `mapstructure:"telegram"`
	API          config.API      `mapstructure:"api"`
	Analyzer     Analyzer        `mapstructure:"analyzer"`
	Cache        Cache           `mapstructure:"cache"`
	News         News            `mapstructure:"news"`
	NewsAPI      NewsAPI         `mapstructure:"newsapi"`
	GoogleRSS    GoogleRSS       `mapstructure:"google_rss"`
	YahooFinance YahooFinance    `mapstructure:"yahoo_finance"`
}

// Load loads and validates the analyzer configuration from the given path.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate enforces the invariants the rest of the system assumes.
func (c *Config) Validate() error {
	if c.Analyzer.Symbol == "" {
		return fmt.Errorf("analyzer.symbol must be set")
	}
	if c.Analyzer.ShortWindow < 1 {
		return fmt.Errorf("analyzer.short_window must be >= 1, got %d", c.Analyzer.ShortWindow)
	}
	if c.Analyzer.ShortWindow >= c.Analyzer.LongWindow {
		return fmt.Errorf("analyzer.short_window (%d) must be less than analyzer.long_window (%d)",
			c.Analyzer.ShortWindow, c.Analyzer.LongWindow)
	}
	if c.Analyzer.MAEpsilon < 0 {
		return fmt.Errorf("analyzer.ma_epsilon must not be negative")
	}
	if c.Cache.PriceTTL <= 0 || c.Cache.NewsTTL <= 0 {
		return fmt.Errorf("cache.price_ttl and cache.news_ttl must be positive")
	}
	if c.Cache.PriceTTL > c.Cache.NewsTTL {
		return fmt.Errorf("cache.price_ttl (%s) must not exceed cache.news_ttl (%s)",
			c.Cache.PriceTTL, c.Cache.NewsTTL)
	}
	return nil
}

// Location resolves the configured analyzer timezone, defaulting to UTC.
func (c *Config) Location() *time.Location {
	if c.Analyzer.TimeZone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Analyzer.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}
