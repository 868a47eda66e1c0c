package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Push     PushConfig     `yaml:"push"`
	Reminder ReminderConfig `yaml:"reminder"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// ReminderConfig holds the daily reminder trigger settings. Times are
// "HH:MM" wall-clock values in Timezone; all calendar math in the system
// runs in this single timezone.
type ReminderConfig struct {
	Times         []string      `yaml:"times"`
	Timezone      string        `yaml:"timezone"`
	BudgetSeconds int           `yaml:"budget_seconds"`
	Budget        time.Duration `yaml:"-"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 60
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if len(cfg.Reminder.Times) == 0 {
		cfg.Reminder.Times = []string{"06:00", "17:00"}
	}
	if len(cfg.Reminder.Times) > 2 {
		return nil, fmt.Errorf("reminder.times supports at most two daily triggers, got %d", len(cfg.Reminder.Times))
	}
	if cfg.Reminder.Timezone == "" {
		cfg.Reminder.Timezone = "Asia/Manila"
	}
	if cfg.Reminder.BudgetSeconds <= 0 {
		cfg.Reminder.BudgetSeconds = 120
	}
	cfg.Reminder.Budget = time.Duration(cfg.Reminder.BudgetSeconds) * time.Second

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	return &cfg, nil
}
