package config

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration. It is resolved once at process
// start and injected into every component by reference.
type Config struct {
	// Universe is the ordered symbol watchlist. The core never mutates it.
	Universe []string `yaml:"universe"`
	// Windows are the oscillator lookback windows in trading days.
	Windows []int `yaml:"windows"`

	Oscillator struct {
		EnvelopeLookback int     `yaml:"envelope_lookback"`
		StdevMultiplier  float64 `yaml:"stdev_multiplier"`
	} `yaml:"oscillator"`

	DataSource struct {
		PolygonBaseURL string `yaml:"polygon_base_url" envconfig:"POLYGON_BASE_URL"`
		PolygonKey     string `yaml:"polygon_key" envconfig:"POLYGON_KEY"`
		// RateCeiling is the maximum upstream calls in any rolling 60s window.
		RateCeiling int `yaml:"rate_ceiling"`
		// MaxAttempts bounds retries of a single transiently failing call.
		MaxAttempts int `yaml:"max_attempts"`
	} `yaml:"data_source"`

	// HistoryDays is how many trailing trading days each symbol should hold.
	HistoryDays int `yaml:"history_days"`

	Database struct {
		SQLitePath string `yaml:"sqlite_path" envconfig:"SQLITE_PATH"`
	} `yaml:"database"`

	Telegram struct {
		BotToken string `yaml:"bot_token" envconfig:"BOT_TOKEN"`
		ChatID   string `yaml:"chat_id" envconfig:"CHAT_ID"`
	} `yaml:"telegram"`

	Schedule struct {
		DailyCron string `yaml:"daily_cron" envconfig:"CRON_DAILY"`
	} `yaml:"schedule"`

	Proxy string `yaml:"proxy" envconfig:"HTTPS_PROXY"`
}

// Load reads config from a YAML file, applies environment variable
// overrides, then fills defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("env overrides: %w", err)
	}

	// Defaults
	if len(cfg.Windows) == 0 {
		cfg.Windows = []int{22, 66, 132}
	}
	if cfg.Oscillator.EnvelopeLookback == 0 {
		cfg.Oscillator.EnvelopeLookback = 20
	}
	if cfg.Oscillator.StdevMultiplier == 0 {
		cfg.Oscillator.StdevMultiplier = 2.0
	}
	if cfg.DataSource.PolygonBaseURL == "" {
		cfg.DataSource.PolygonBaseURL = "https://api.polygon.io"
	}
	if cfg.DataSource.RateCeiling == 0 {
		cfg.DataSource.RateCeiling = 5
	}
	if cfg.DataSource.MaxAttempts == 0 {
		cfg.DataSource.MaxAttempts = 3
	}
	if cfg.HistoryDays == 0 {
		cfg.HistoryDays = 150
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/dip_sentinel.db"
	}
	if cfg.Schedule.DailyCron == "" {
		cfg.Schedule.DailyCron = "0 30 22 * * 1-5"
	}

	return cfg, nil
}

// Validate checks that the configuration can drive a run. A failure here is
// fatal before any work starts.
func (c *Config) Validate() error {
	if len(c.Universe) == 0 {
		return fmt.Errorf("universe must not be empty")
	}
	if len(c.Windows) == 0 {
		return fmt.Errorf("windows must not be empty")
	}
	for _, w := range c.Windows {
		if w <= 0 {
			return fmt.Errorf("window %d must be positive", w)
		}
	}
	if c.Oscillator.EnvelopeLookback <= 0 {
		return fmt.Errorf("oscillator.envelope_lookback must be positive")
	}
	if c.Oscillator.StdevMultiplier <= 0 {
		return fmt.Errorf("oscillator.stdev_multiplier must be positive")
	}
	if c.DataSource.RateCeiling <= 0 {
		return fmt.Errorf("data_source.rate_ceiling must be positive")
	}
	if c.DataSource.MaxAttempts <= 0 {
		return fmt.Errorf("data_source.max_attempts must be positive")
	}
	maxWindow := 0
	for _, w := range c.Windows {
		if w > maxWindow {
			maxWindow = w
		}
	}
	if c.HistoryDays < maxWindow {
		return fmt.Errorf("history_days %d is below the largest window %d", c.HistoryDays, maxWindow)
	}
	if c.Database.SQLitePath == "" {
		return fmt.Errorf("database.sqlite_path is required")
	}
	return nil
}
