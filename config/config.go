/*
Package config loads the engine configuration from YAML with
environment-variable overrides.

PURPOSE: one place that decides where the server listens, which sqlite
file backs the stores, which frequency tier the scheduler alerts on,
and which cron schedules drive the alert jobs.

SEE ALSO: api/scheduler.go consumes AlertRules and Weekly; cmd/server
wires everything together.
*/
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/warp/opex-engine/calendar"
)

// AlertRule configures one recurring alert job: fire for events
// OffsetDays ahead, checked on the given cron schedule.
type AlertRule struct {
	// OffsetDays is the lead time. 0 means event-day alerts.
	OffsetDays int `yaml:"offset_days"`
	// Schedule is a standard 5-field cron expression.
	Schedule string `yaml:"schedule"`
}

// WeeklyPreview configures the weekly look-ahead digest.
type WeeklyPreview struct {
	// Schedule is a standard 5-field cron expression.
	Schedule string `yaml:"schedule"`
	// WindowDays is the length of the preview window.
	WindowDays int `yaml:"window_days"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen"`

	// DBPath is the sqlite database file. ":memory:" works for tests.
	DBPath string `yaml:"db_path"`

	// Timezone is the IANA timezone the scheduler evaluates "today" in
	// (e.g. "America/New_York").
	Timezone string `yaml:"timezone"`

	// Tier selects which event kinds the scheduler alerts on:
	// "low", "medium" or "high".
	Tier string `yaml:"tier"`

	// WebhookURL is the outbound notification endpoint. Empty means
	// log-only dry-run mode.
	WebhookURL string `yaml:"webhook_url"`

	// Alerts lists the recurring D-N alert jobs.
	Alerts []AlertRule `yaml:"alerts"`

	// Weekly configures the weekly preview digest.
	Weekly WeeklyPreview `yaml:"weekly"`
}

// DefaultConfig returns the in-memory default configuration: morning
// checks at D-2, D-1 and D-0, plus a Sunday-evening weekly preview.
func DefaultConfig() *Config {
	return &Config{
		Listen:   "127.0.0.1:8090",
		DBPath:   "opex.db",
		Timezone: "America/New_York",
		Tier:     string(calendar.TierMedium),
		Alerts: []AlertRule{
			{OffsetDays: 2, Schedule: "0 9 * * *"},
			{OffsetDays: 1, Schedule: "0 9 * * *"},
			{OffsetDays: 0, Schedule: "0 8 * * *"},
		},
		Weekly: WeeklyPreview{Schedule: "0 18 * * 0", WindowDays: 7},
	}
}

// Normalize fills in missing values so partially-filled configs still
// behave, then validates the tier and alert rules.
func (c *Config) Normalize() error {
	def := DefaultConfig()
	if c.Listen == "" {
		c.Listen = def.Listen
	}
	if c.DBPath == "" {
		c.DBPath = def.DBPath
	}
	if c.Timezone == "" {
		c.Timezone = def.Timezone
	}
	if c.Tier == "" {
		c.Tier = def.Tier
	}
	if _, err := calendar.ParseTier(c.Tier); err != nil {
		return fmt.Errorf("config tier: %w", err)
	}
	if len(c.Alerts) == 0 {
		c.Alerts = def.Alerts
	}
	for i, rule := range c.Alerts {
		if rule.OffsetDays < 0 {
			return fmt.Errorf("config alerts[%d]: %w", i, &calendar.InvalidOffsetError{Offset: rule.OffsetDays})
		}
		if rule.Schedule == "" {
			return fmt.Errorf("config alerts[%d]: schedule is empty", i)
		}
	}
	if c.Weekly.Schedule == "" {
		c.Weekly.Schedule = def.Weekly.Schedule
	}
	if c.Weekly.WindowDays <= 0 {
		c.Weekly.WindowDays = def.Weekly.WindowDays
	}
	return nil
}

// Load reads the YAML config at path, applies env overrides, and
// normalizes defaults. A missing file is not an error: the defaults
// (plus env overrides) are returned instead.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			// First run without a config file; defaults apply.
		case err != nil:
			return nil, err
		default:
			cfg = &Config{}
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing %s: %w", path, err)
			}
		}
	}

	cfg.applyEnv()
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv lets the environment override file values. Load a .env file
// first (godotenv) if you want these from a file.
func (c *Config) applyEnv() {
	if v := os.Getenv("OPEX_LISTEN"); v != "" {
		c.Listen = v
	}
	if v := os.Getenv("OPEX_DB"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("OPEX_TIMEZONE"); v != "" {
		c.Timezone = v
	}
	if v := os.Getenv("OPEX_TIER"); v != "" {
		c.Tier = v
	}
	if v := os.Getenv("OPEX_WEBHOOK_URL"); v != "" {
		c.WebhookURL = v
	}
}

// AlertTier returns the configured tier after validation.
func (c *Config) AlertTier() calendar.Tier {
	tier, err := calendar.ParseTier(c.Tier)
	if err != nil {
		// Normalize already validated; unreachable with a loaded config.
		return calendar.TierMedium
	}
	return tier
}
