// Package config provides configuration management for gexview.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"gexview/internal/errors"
	"gexview/internal/feed"
	"gexview/internal/models"
)

// EnvPrefix is the prefix for environment overrides, e.g. GEXVIEW_FEED_TICKER.
const EnvPrefix = "GEXVIEW"

// Config holds all application configuration.
type Config struct {
	Feed    FeedConfig    `mapstructure:"feed"`
	Refresh RefreshConfig `mapstructure:"refresh"`
	Chart   ChartConfig   `mapstructure:"chart"`
	Server  ServerConfig  `mapstructure:"server"`
	Proxy   ProxyConfig   `mapstructure:"proxy"`
	Store   StoreConfig   `mapstructure:"store"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// FeedConfig holds the snapshot source settings.
type FeedConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	Ticker   string        `mapstructure:"ticker"`
	DateCode string        `mapstructure:"date"` // YYMMDD, empty for the current trading day
	Timeout  time.Duration `mapstructure:"timeout"`
}

// RefreshConfig holds the refresh loop settings.
type RefreshConfig struct {
	Interval     time.Duration `mapstructure:"interval"`
	AutoFetch    bool          `mapstructure:"auto_fetch"`
	DiscardStale bool          `mapstructure:"discard_stale"`
}

// ChartConfig holds display settings.
type ChartConfig struct {
	Mode     string `mapstructure:"mode"` // net, split
	Tab      string `mapstructure:"tab"`  // oi, vol
	Width    int    `mapstructure:"width"`
	Height   int    `mapstructure:"height"`
	Positive string `mapstructure:"positive_color"`
	Negative string `mapstructure:"negative_color"`
	Price    string `mapstructure:"price_color"`
}

// ServerConfig holds the HTTP API settings.
type ServerConfig struct {
	Addr        string   `mapstructure:"addr"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// ProxyConfig holds the relay settings.
type ProxyConfig struct {
	Addr        string        `mapstructure:"addr"`
	Upstream    string        `mapstructure:"upstream"`
	Rate        float64       `mapstructure:"rate"`
	Burst       int           `mapstructure:"burst"`
	CacheMaxAge time.Duration `mapstructure:"cache_max_age"`
}

// StoreConfig holds the snapshot cache settings.
type StoreConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level    string `mapstructure:"level"`
	Console  bool   `mapstructure:"console"`
	File     bool   `mapstructure:"file"`
	FilePath string `mapstructure:"file_path"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/gexview"
	}
	return filepath.Join(home, ".config", "gexview")
}

// ConfigPath returns the path of config.toml in configDir.
func ConfigPath(configDir string) string {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}
	return filepath.Join(configDir, "config.toml")
}

func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault("feed.base_url", feed.DefaultUpstream)
	v.SetDefault("feed.ticker", feed.DefaultTicker)
	v.SetDefault("feed.date", "")
	v.SetDefault("feed.timeout", 15*time.Second)

	v.SetDefault("refresh.interval", 60*time.Second)
	v.SetDefault("refresh.auto_fetch", true)
	v.SetDefault("refresh.discard_stale", true)

	v.SetDefault("chart.mode", string(models.ModeNet))
	v.SetDefault("chart.tab", string(models.TabOpenInterest))
	v.SetDefault("chart.width", 100)
	v.SetDefault("chart.height", 24)
	v.SetDefault("chart.positive_color", "#26a69a")
	v.SetDefault("chart.negative_color", "#ef5350")
	v.SetDefault("chart.price_color", "#f5c542")

	v.SetDefault("server.addr", "127.0.0.1:8080")
	v.SetDefault("server.cors_origins", []string{"*"})

	v.SetDefault("proxy.addr", "127.0.0.1:8787")
	v.SetDefault("proxy.upstream", feed.DefaultUpstream)
	v.SetDefault("proxy.rate", 2.0)
	v.SetDefault("proxy.burst", 10)
	v.SetDefault("proxy.cache_max_age", 30*time.Second)

	v.SetDefault("store.enabled", true)
	v.SetDefault("store.path", filepath.Join(configDir, "snapshots.db"))

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.console", true)
	v.SetDefault("logging.file", true)
	v.SetDefault("logging.file_path", filepath.Join(configDir, "logs", "gexview.log"))
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory. A missing
// config.toml is created from the template. A .env file in the working
// directory or configDir is loaded before GEXVIEW_* overrides are applied.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	loadDotEnv(configDir)

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v, configDir)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("loading config.toml: %w", err)
		}
		if err := createTemplateConfig(configDir); err != nil {
			return nil, fmt.Errorf("creating config.toml: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.Feed.Ticker = strings.ToUpper(cfg.Feed.Ticker)
	if cfg.Store.Path == "" {
		cfg.Store.Path = filepath.Join(configDir, "snapshots.db")
	}
	if cfg.Logging.FilePath == "" {
		cfg.Logging.FilePath = filepath.Join(configDir, "logs", "gexview.log")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// loadDotEnv loads .env files without overriding variables already set.
func loadDotEnv(configDir string) {
	for _, path := range []string{".env", filepath.Join(configDir, ".env")} {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
		}
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := feed.ValidateTicker(c.Feed.Ticker); err != nil {
		return errors.Wrap(err, "feed.ticker")
	}
	if c.Feed.BaseURL == "" {
		return invalid("feed.base_url", c.Feed.BaseURL, "must not be empty")
	}
	if c.Feed.DateCode != "" {
		if _, err := time.Parse("060102", c.Feed.DateCode); err != nil {
			return invalid("feed.date", c.Feed.DateCode, "must be YYMMDD")
		}
	}
	if c.Feed.Timeout <= 0 {
		return invalid("feed.timeout", c.Feed.Timeout, "must be positive")
	}
	if c.Refresh.AutoFetch && c.Refresh.Interval < time.Second {
		return invalid("refresh.interval", c.Refresh.Interval, "must be at least 1s")
	}
	if _, ok := models.ParseMode(c.Chart.Mode); !ok {
		return invalid("chart.mode", c.Chart.Mode, "must be 'net' or 'split'")
	}
	if _, ok := models.ParseTab(c.Chart.Tab); !ok {
		return invalid("chart.tab", c.Chart.Tab, "must be 'oi' or 'vol'")
	}
	if c.Chart.Width < 20 || c.Chart.Height < 6 {
		return invalid("chart.size", fmt.Sprintf("%dx%d", c.Chart.Width, c.Chart.Height), "must be at least 20x6")
	}
	if c.Proxy.Rate < 0 || c.Proxy.Burst < 0 {
		return invalid("proxy.rate", c.Proxy.Rate, "rate and burst must be non-negative")
	}
	if c.Store.Enabled && c.Store.Path == "" {
		return invalid("store.path", c.Store.Path, "required when the store is enabled")
	}
	return nil
}

func invalid(field string, value interface{}, msg string) error {
	return fmt.Errorf("%w: %w", errors.ErrConfigInvalid, errors.NewValidationError(field, value, msg))
}

// ChartMode returns the parsed display mode.
func (c *Config) ChartMode() models.Mode {
	m, _ := models.ParseMode(c.Chart.Mode)
	return m
}

// ChartTab returns the parsed initial tab.
func (c *Config) ChartTab() models.Tab {
	t, _ := models.ParseTab(c.Chart.Tab)
	return t
}
