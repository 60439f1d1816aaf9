package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Log struct {
		Level string `yaml:"level" validate:"omitempty,oneof=trace debug info warn warning error fatal panic"`
	} `yaml:"log"`
	Redis struct {
		Addr     string `yaml:"addr" validate:"omitempty,hostname_port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db" validate:"gte=0"`
		// SessionTTL bounds how long a session liveness key survives without a refresh.
		SessionTTL string `yaml:"session_ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Progress struct {
		TTL string `yaml:"ttl"`
	} `yaml:"progress"`
	Session struct {
		SettleDelay  string `yaml:"settle_delay"`
		RestartHold  string `yaml:"restart_hold"`
		TickInterval string `yaml:"tick_interval"`
	} `yaml:"session"`
	Economy struct {
		StartingCoins    int `yaml:"starting_coins" validate:"gte=0"`
		CompletionReward int `yaml:"completion_reward" validate:"gte=0"`
	} `yaml:"economy"`
	Content struct {
		Path string `yaml:"path"`
	} `yaml:"content"`
}

// Default returns the values used when no config file is given.
func Default() Config {
	cfg := Config{}
	cfg.Server.Port = "8080"
	cfg.Log.Level = "info"
	cfg.Progress.TTL = "5m"
	cfg.Session.SettleDelay = "50ms"
	cfg.Session.RestartHold = "1200ms"
	cfg.Session.TickInterval = "1s"
	cfg.Economy.StartingCoins = 100
	cfg.Economy.CompletionReward = 10
	return cfg
}

// Load reads YAML config from path on top of Default.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks field constraints and that every duration parses.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	durations := map[string]string{
		"redis.session_ttl":     c.Redis.SessionTTL,
		"progress.ttl":          c.Progress.TTL,
		"session.settle_delay":  c.Session.SettleDelay,
		"session.restart_hold":  c.Session.RestartHold,
		"session.tick_interval": c.Session.TickInterval,
	}
	for key, raw := range durations {
		if raw == "" {
			continue
		}
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid config: %s: %w", key, err)
		}
		if d < 0 {
			return fmt.Errorf("invalid config: %s must not be negative", key)
		}
	}
	return nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
