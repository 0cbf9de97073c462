// Package config loads and validates crawler configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jinwoo-dev/partywatch/internal/scrape"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	HTTP     HTTPConfig      `mapstructure:"http"`
	Headless HeadlessConfig  `mapstructure:"headless"`
	Run      RunConfig       `mapstructure:"run"`
	Publish  PublishConfig   `mapstructure:"publish"`
	Notion   NotionConfig    `mapstructure:"notion"`
	Logging  LoggingConfig   `mapstructure:"logging"`
	Sources  []scrape.Target `mapstructure:"sources"`
}

// HTTPConfig configures the plain transport.
type HTTPConfig struct {
	UserAgent      string `mapstructure:"user_agent"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	MaxRetries     int    `mapstructure:"max_retries"`
	BackoffBaseMs  int    `mapstructure:"backoff_base_ms"`
}

// HeadlessConfig configures the headless rendering subsystem.
type HeadlessConfig struct {
	Enabled        bool `mapstructure:"enabled"`
	NavTimeoutSec  int  `mapstructure:"nav_timeout_seconds"`
	SettleDelaySec int  `mapstructure:"settle_delay_seconds"`
}

// RunConfig governs orchestration pacing and record filtering.
type RunConfig struct {
	SourceDelayMs int    `mapstructure:"source_delay_ms"`
	DateFrom      string `mapstructure:"date_from"`
	KeepUndated   bool   `mapstructure:"keep_undated"`
	// ReferenceYear anchors bracket-date inference; 0 uses the current year.
	ReferenceYear int `mapstructure:"reference_year"`
}

// PublishConfig governs the destination upsert.
type PublishConfig struct {
	ExcludedURLs    []string          `mapstructure:"excluded_urls"`
	CategoryRenames map[string]string `mapstructure:"category_renames"`
	CreatePaceMs    int               `mapstructure:"create_pace_ms"`
}

// NotionConfig holds destination credentials. Usually supplied through
// PARTYWATCH_NOTION_TOKEN and PARTYWATCH_NOTION_DATABASE_ID.
type NotionConfig struct {
	Token      string `mapstructure:"token"`
	DatabaseID string `mapstructure:"database_id"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PARTYWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.timeout_seconds", 30)
	v.SetDefault("http.max_retries", 3)
	v.SetDefault("http.backoff_base_ms", 2000)
	v.SetDefault("headless.enabled", true)
	v.SetDefault("headless.nav_timeout_seconds", 30)
	v.SetDefault("headless.settle_delay_seconds", 3)
	v.SetDefault("run.source_delay_ms", 1200)
	v.SetDefault("run.keep_undated", false)
	v.SetDefault("publish.create_pace_ms", 200)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.HTTP.MaxRetries < 0 {
		return fmt.Errorf("http.max_retries must be >= 0")
	}
	if c.Run.DateFrom != "" {
		if _, err := time.Parse("2006-01-02", c.Run.DateFrom); err != nil {
			return fmt.Errorf("run.date_from must be YYYY-MM-DD: %w", err)
		}
	}
	for i, s := range c.Sources {
		if s.ID == "" || s.Site == "" || s.ListURL == "" {
			return fmt.Errorf("sources[%d] needs id, site and list_url", i)
		}
	}
	return nil
}

// HTTPTimeout returns the transport timeout as a duration.
func (c Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// BackoffBase returns the retry backoff base as a duration.
func (c Config) BackoffBase() time.Duration {
	return time.Duration(c.HTTP.BackoffBaseMs) * time.Millisecond
}

// SourceDelay returns the inter-source pacing delay as a duration.
func (c Config) SourceDelay() time.Duration {
	return time.Duration(c.Run.SourceDelayMs) * time.Millisecond
}

// CreatePace returns the post-create pacing delay as a duration.
func (c Config) CreatePace() time.Duration {
	return time.Duration(c.Publish.CreatePaceMs) * time.Millisecond
}
