// Package config loads the server configuration from a YAML file with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPort         = "8080"
	DefaultDBPath       = "calendar.db"
	DefaultFeedSchedule = "0 3 * * *"
)

// FeedConfig describes one holiday feed synced into a calendar.
type FeedConfig struct {
	// CalendarID is the calendar the feed writes its system events into.
	CalendarID string `yaml:"calendar_id" json:"calendar_id"`
	URL        string `yaml:"url" json:"url"`
	// CategoryID defaults to the study holiday category.
	CategoryID string `yaml:"category_id,omitempty" json:"category_id,omitempty"`
	Name       string `yaml:"name,omitempty" json:"name,omitempty"`
}

// Config is the top-level server configuration.
//
// Precedence: command line flags, then CALENDAR_* environment variables,
// then the YAML file, then defaults.
type Config struct {
	Port           string   `yaml:"port" env:"CALENDAR_PORT"`
	DBPath         string   `yaml:"db_path" env:"CALENDAR_DB_PATH"`
	AllowedOrigins []string `yaml:"allowed_origins" env:"CALENDAR_ALLOWED_ORIGINS" envSeparator:","`

	// FeedSchedule is a standard 5-field cron expression.
	FeedSchedule string       `yaml:"feed_schedule" env:"CALENDAR_FEED_SCHEDULE"`
	Feeds        []FeedConfig `yaml:"feeds"`
}

// DefaultConfig returns the configuration written on first run.
func DefaultConfig() *Config {
	return &Config{
		Port:           DefaultPort,
		DBPath:         DefaultDBPath,
		AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		FeedSchedule:   DefaultFeedSchedule,
		Feeds:          []FeedConfig{},
	}
}

// Normalize fills missing values with defaults.
func (c *Config) Normalize() {
	if c.Port == "" {
		c.Port = DefaultPort
	}
	if c.DBPath == "" {
		c.DBPath = DefaultDBPath
	}
	if c.AllowedOrigins == nil {
		c.AllowedOrigins = DefaultConfig().AllowedOrigins
	}
	if strings.TrimSpace(c.FeedSchedule) == "" {
		c.FeedSchedule = DefaultFeedSchedule
	}
	if c.Feeds == nil {
		c.Feeds = []FeedConfig{}
	}
}

// Validate checks the feed list.
func (c *Config) Validate() error {
	for i, f := range c.Feeds {
		if f.CalendarID == "" {
			return fmt.Errorf("feeds[%d]: calendar_id is required", i)
		}
		if f.URL == "" {
			return fmt.Errorf("feeds[%d]: url is required", i)
		}
	}
	return nil
}

// Load reads the YAML file at path and applies environment overrides.
//
// Behavior:
//   - path empty: defaults plus environment, nothing is written
//   - file missing: a default file is created with 0600 perms
//   - file present: YAML is decoded and normalized
func Load(path string) (*Config, error) {
	cfg, err := loadFile(path)
	if err != nil {
		return nil, err
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.Normalize()
	return &cfg, nil
}

// Save writes cfg to path atomically via a temp file and rename.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}
	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".calendar-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
