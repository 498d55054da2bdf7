package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfigFile(t, "storage:\n  db_path: ./test.db\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Storage.DBPath != "./test.db" {
		t.Errorf("db_path = %q, want ./test.db", cfg.Storage.DBPath)
	}
	if cfg.Analysis.Window != 168*time.Hour {
		t.Errorf("analysis.window = %v, want 168h", cfg.Analysis.Window)
	}
	if cfg.Analysis.PatternSample != 7 {
		t.Errorf("analysis.pattern_sample = %d, want 7", cfg.Analysis.PatternSample)
	}
	if cfg.Analysis.TopK != 0 {
		t.Errorf("analysis.top_k = %d, want 0", cfg.Analysis.TopK)
	}
	if cfg.Daemon.PollInterval != time.Minute {
		t.Errorf("daemon.poll_interval = %v, want 1m", cfg.Daemon.PollInterval)
	}
	if cfg.Telegram.Enabled {
		t.Error("telegram should be disabled by default")
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("logging defaults = %s/%s, want info/json", cfg.Logging.Level, cfg.Logging.Format)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfigFile(t, `
storage:
  db_path: /var/lib/triggerlens/history.db
analysis:
  window: 72h
  pattern_sample: 5
  top_k: 10
daemon:
  poll_interval: 30s
logging:
  level: debug
  format: text
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Analysis.Window != 72*time.Hour {
		t.Errorf("analysis.window = %v, want 72h", cfg.Analysis.Window)
	}
	if cfg.Analysis.PatternSample != 5 {
		t.Errorf("analysis.pattern_sample = %d, want 5", cfg.Analysis.PatternSample)
	}
	if cfg.Analysis.TopK != 10 {
		t.Errorf("analysis.top_k = %d, want 10", cfg.Analysis.TopK)
	}
	if cfg.Daemon.PollInterval != 30*time.Second {
		t.Errorf("daemon.poll_interval = %v, want 30s", cfg.Daemon.PollInterval)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "text" {
		t.Errorf("logging = %s/%s, want debug/text", cfg.Logging.Level, cfg.Logging.Format)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Storage:  StorageConfig{DBPath: "./test.db"},
			Analysis: AnalysisConfig{Window: 168 * time.Hour, PatternSample: 7},
			Daemon:   DaemonConfig{PollInterval: time.Minute},
			Telegram: TelegramConfig{MaxRetries: 3, RetryDelayBase: time.Second},
			Logging:  LoggingConfig{Level: "info", Format: "json"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "empty db path",
			mutate:  func(c *Config) { c.Storage.DBPath = "" },
			wantErr: true,
		},
		{
			name:    "window below one hour",
			mutate:  func(c *Config) { c.Analysis.Window = 30 * time.Minute },
			wantErr: true,
		},
		{
			name:    "pattern sample below floor",
			mutate:  func(c *Config) { c.Analysis.PatternSample = 2 },
			wantErr: true,
		},
		{
			name:    "negative top k",
			mutate:  func(c *Config) { c.Analysis.TopK = -1 },
			wantErr: true,
		},
		{
			name:    "poll interval below one second",
			mutate:  func(c *Config) { c.Daemon.PollInterval = 100 * time.Millisecond },
			wantErr: true,
		},
		{
			name: "telegram enabled without token",
			mutate: func(c *Config) {
				c.Telegram.Enabled = true
				c.Telegram.ChatID = "12345"
			},
			wantErr: true,
		},
		{
			name: "telegram enabled without chat id",
			mutate: func(c *Config) {
				c.Telegram.Enabled = true
				c.Telegram.BotToken = "token"
			},
			wantErr: true,
		},
		{
			name: "telegram fully configured",
			mutate: func(c *Config) {
				c.Telegram.Enabled = true
				c.Telegram.BotToken = "token"
				c.Telegram.ChatID = "12345"
			},
			wantErr: false,
		},
		{
			name:    "unknown log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: true,
		},
		{
			name:    "unknown log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
