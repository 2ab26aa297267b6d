package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"gexview/internal/errors"
	"gexview/internal/models"
)

func TestLoad_CreatesTemplate(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "config.toml")); err != nil {
		t.Fatalf("template not written: %v", err)
	}

	if cfg.Feed.Ticker != "_SPX" {
		t.Errorf("ticker = %q", cfg.Feed.Ticker)
	}
	if cfg.Refresh.Interval != 60*time.Second || !cfg.Refresh.AutoFetch || !cfg.Refresh.DiscardStale {
		t.Errorf("refresh = %+v", cfg.Refresh)
	}
	if cfg.ChartMode() != models.ModeNet || cfg.ChartTab() != models.TabOpenInterest {
		t.Errorf("chart = %+v", cfg.Chart)
	}
	if cfg.Store.Path != filepath.Join(dir, "snapshots.db") {
		t.Errorf("store path = %q", cfg.Store.Path)
	}

	// A second load reads the template back.
	again, err := Load(dir)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if again.Proxy.CacheMaxAge != 30*time.Second || again.Proxy.Burst != 10 {
		t.Errorf("proxy = %+v", again.Proxy)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	body := `
[feed]
ticker = "_ndx"
date = "241018"

[chart]
mode = "split"
tab = "vol"
`
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GEXVIEW_REFRESH_INTERVAL", "5s")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Feed.Ticker != "_NDX" || cfg.Feed.DateCode != "241018" {
		t.Errorf("feed = %+v", cfg.Feed)
	}
	if cfg.ChartMode() != models.ModeSplit || cfg.ChartTab() != models.TabVolume {
		t.Errorf("chart = %+v", cfg.Chart)
	}
	if cfg.Refresh.Interval != 5*time.Second {
		t.Errorf("interval = %v, want env override 5s", cfg.Refresh.Interval)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("GEXVIEW_FEED_TICKER=SPY\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GEXVIEW_FEED_TICKER", "")
	os.Unsetenv("GEXVIEW_FEED_TICKER")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Feed.Ticker != "SPY" {
		t.Errorf("ticker = %q, want SPY from .env", cfg.Feed.Ticker)
	}
	os.Unsetenv("GEXVIEW_FEED_TICKER")
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[chart]\nmode = \"stacked\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir); !errors.Is(err, errors.ErrConfigInvalid) {
		t.Errorf("Load = %v, want ErrConfigInvalid", err)
	}
}

func validConfig() Config {
	return Config{
		Feed:    FeedConfig{BaseURL: "http://localhost", Ticker: "_SPX", Timeout: time.Second},
		Refresh: RefreshConfig{Interval: time.Minute, AutoFetch: true},
		Chart:   ChartConfig{Mode: "net", Tab: "oi", Width: 80, Height: 20},
		Store:   StoreConfig{Enabled: true, Path: "x.db"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		target error
	}{
		{"valid", func(*Config) {}, nil},
		{"bad ticker", func(c *Config) { c.Feed.Ticker = "SP X" }, errors.ErrInputValidation},
		{"empty ticker", func(c *Config) { c.Feed.Ticker = "" }, errors.ErrInputValidation},
		{"bad date", func(c *Config) { c.Feed.DateCode = "2024-10-18" }, errors.ErrConfigInvalid},
		{"short interval", func(c *Config) { c.Refresh.Interval = time.Millisecond }, errors.ErrConfigInvalid},
		{"short interval without auto fetch", func(c *Config) {
			c.Refresh.Interval = 0
			c.Refresh.AutoFetch = false
		}, nil},
		{"bad tab", func(c *Config) { c.Chart.Tab = "delta" }, errors.ErrConfigInvalid},
		{"tiny chart", func(c *Config) { c.Chart.Width = 5 }, errors.ErrConfigInvalid},
		{"negative rate", func(c *Config) { c.Proxy.Rate = -1 }, errors.ErrConfigInvalid},
		{"store without path", func(c *Config) { c.Store.Path = "" }, errors.ErrConfigInvalid},
		{"store disabled without path", func(c *Config) {
			c.Store.Enabled = false
			c.Store.Path = ""
		}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.target == nil {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.target) {
				t.Errorf("Validate() = %v, want %v", err, tt.target)
			}
		})
	}
}
