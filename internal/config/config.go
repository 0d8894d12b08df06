package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/rusenback/vitalviz/internal/alert"
)

// MinIntervalSeconds is the floor for the sampling period.
const MinIntervalSeconds = 0.1

// Threshold is a hysteresis pair as written in the config file.
type Threshold struct {
	Enter float64 `yaml:"enter"`
	Clear float64 `yaml:"clear"`
}

// Config is the whole configuration surface. Missing fields keep their
// defaults.
type Config struct {
	IntervalSeconds float64              `yaml:"interval_seconds"`
	HistoryCapacity int                  `yaml:"history_capacity"`
	TopProcesses    int                  `yaml:"top_processes"`
	Notifications   bool                 `yaml:"notifications_enabled"`
	Listen          string               `yaml:"listen"`
	Database        string               `yaml:"database"`
	Alerts          map[string]Threshold `yaml:"alerts"`
}

// Default returns the stock configuration.
func Default() *Config {
	return &Config{
		IntervalSeconds: 1.0,
		HistoryCapacity: 60,
		TopProcesses:    10,
		Notifications:   true,
		Listen:          "127.0.0.1:8790",
		Alerts: map[string]Threshold{
			alert.QuantityCPU:    {Enter: 90, Clear: 70},
			alert.QuantityMemory: {Enter: 85, Clear: 75},
		},
	}
}

// Load reads path, layering the file over defaults. A missing file is not
// an error; the defaults serve.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.IntervalSeconds < MinIntervalSeconds {
		log.Warnf("interval_seconds %.3f below minimum, clamping to %.1f", c.IntervalSeconds, MinIntervalSeconds)
		c.IntervalSeconds = MinIntervalSeconds
	}
	if c.HistoryCapacity < 1 {
		log.Warnf("history_capacity %d below minimum, clamping to 1", c.HistoryCapacity)
		c.HistoryCapacity = 1
	}
	if c.TopProcesses < 0 {
		c.TopProcesses = 0
	}
	for q, th := range c.Alerts {
		if th.Clear >= th.Enter {
			return fmt.Errorf("alerts.%s: clear (%.1f) must be below enter (%.1f)", q, th.Clear, th.Enter)
		}
	}
	return nil
}

// Interval returns the sampling period as a duration.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds * float64(time.Second))
}

// Thresholds converts the alert table into the monitor's form.
func (c *Config) Thresholds() map[string]alert.Thresholds {
	out := make(map[string]alert.Thresholds, len(c.Alerts))
	for q, th := range c.Alerts {
		out[q] = alert.Thresholds{Enter: th.Enter, Clear: th.Clear}
	}
	return out
}

// DatabasePath resolves the sqlite file, defaulting into the state dir.
func (c *Config) DatabasePath() (string, error) {
	if c.Database != "" {
		return c.Database, nil
	}
	dir, err := StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}

// StateDir returns ~/.vitalviz, creating it if needed.
func StateDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	dir := filepath.Join(home, ".vitalviz")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("state dir: %w", err)
	}
	return dir, nil
}

// DefaultPath is the stock config file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".vitalviz", "config.yaml")
}
