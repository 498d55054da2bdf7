package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration
type Config struct {
	Storage  StorageConfig  `mapstructure:"storage"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Daemon   DaemonConfig   `mapstructure:"daemon"`
	Allergen AllergenConfig `mapstructure:"allergen"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// StorageConfig holds persistence configuration
type StorageConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// AnalysisConfig holds trigger-analysis engine configuration
type AnalysisConfig struct {
	// Window is the span of meal history scored before each reaction.
	Window time.Duration `mapstructure:"window"`
	// PatternSample is how many recent reactions the pattern analyzer samples.
	PatternSample int `mapstructure:"pattern_sample"`
	// TopK caps the ranked candidate lists; 0 keeps every candidate.
	TopK int `mapstructure:"top_k"`
}

// DaemonConfig holds the analysis daemon's scheduling configuration
type DaemonConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

// AllergenConfig holds allergen taxonomy configuration
type AllergenConfig struct {
	// TaxonomyPath optionally overrides the built-in keyword table with a
	// versioned YAML file. Empty means use the built-in table.
	TaxonomyPath string `mapstructure:"taxonomy_path"`
}

// TelegramConfig holds Telegram report delivery configuration
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	Enabled        bool          `mapstructure:"enabled"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)

	setDefaults(v)

	// Enable environment variable override
	v.SetEnvPrefix("TRIGGERLENS")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Storage defaults
	v.SetDefault("storage.db_path", "./data/triggerlens.db")

	// Analysis defaults
	v.SetDefault("analysis.window", "168h") // 7 days
	v.SetDefault("analysis.pattern_sample", 7)
	v.SetDefault("analysis.top_k", 0)

	// Daemon defaults
	v.SetDefault("daemon.poll_interval", "1m")

	// Allergen defaults
	v.SetDefault("allergen.taxonomy_path", "")

	// Telegram defaults
	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "1s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	if c.Storage.DBPath == "" {
		return fmt.Errorf("storage.db_path is required")
	}

	if c.Analysis.Window < time.Hour {
		return fmt.Errorf("analysis.window must be at least 1 hour")
	}
	if c.Analysis.PatternSample < 3 {
		return fmt.Errorf("analysis.pattern_sample must be at least 3")
	}
	if c.Analysis.TopK < 0 {
		return fmt.Errorf("analysis.top_k must not be negative")
	}

	if c.Daemon.PollInterval < time.Second {
		return fmt.Errorf("daemon.poll_interval must be at least 1 second")
	}

	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}
	if c.Telegram.MaxRetries < 1 {
		return fmt.Errorf("telegram.max_retries must be at least 1")
	}
	if c.Telegram.RetryDelayBase <= 0 {
		return fmt.Errorf("telegram.retry_delay_base must be positive")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}
