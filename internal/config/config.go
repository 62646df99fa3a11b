// Package config provides YAML-based configuration loading for Switchboard.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level Switchboard configuration, loaded from switchboard.yaml.
type Config struct {
	Server          ServerConfig    `yaml:"server"`
	Operator        OperatorConfig  `yaml:"operator"`
	PollIntervalSec int             `yaml:"poll_interval_sec"`
	Retention       RetentionConfig `yaml:"retention"`
	Archive         ArchiveConfig   `yaml:"archive"`
}

// ServerConfig holds the widget-facing HTTP server settings.
type ServerConfig struct {
	Port      int    `yaml:"port"`
	StaticDir string `yaml:"static_dir"` // optional directory of widget assets
}

// OperatorConfig selects and configures the operator chat platform.
type OperatorConfig struct {
	Platform string        `yaml:"platform"` // "discord" or "slack"
	Channel  string        `yaml:"channel"`  // default destination channel for new sessions
	Discord  DiscordConfig `yaml:"discord"`
	Slack    SlackConfig   `yaml:"slack"`
}

// DiscordConfig holds Discord bot credentials.
type DiscordConfig struct {
	BotToken string `yaml:"bot_token"`
}

// SlackConfig holds Slack bot and Socket Mode credentials.
type SlackConfig struct {
	BotToken string `yaml:"bot_token"` // xoxb-...
	AppToken string `yaml:"app_token"` // xapp-...
}

// RetentionConfig controls eviction of stale sessions and message records.
type RetentionConfig struct {
	MaxAgeHours int    `yaml:"max_age_hours"` // 0 disables eviction
	Sweep       string `yaml:"sweep"`         // 5-field cron expression
}

// ArchiveConfig controls the optional SQL archive of completed traffic.
type ArchiveConfig struct {
	Enabled bool   `yaml:"enabled"`
	Driver  string `yaml:"driver"` // "sqlite" or "mysql"
	DSN     string `yaml:"dsn"`
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 3000
	}
	if c.PollIntervalSec == 0 {
		c.PollIntervalSec = 3
	}
	if c.Retention.Sweep == "" {
		c.Retention.Sweep = "0 * * * *"
	}
	if c.Archive.Driver == "" {
		c.Archive.Driver = "sqlite"
	}
	if c.Archive.Enabled && c.Archive.Driver == "sqlite" && c.Archive.DSN == "" {
		c.Archive.DSN = "switchboard.db"
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	switch c.Operator.Platform {
	case "":
		errs = append(errs, "operator.platform is required")
	case "discord":
		if c.Operator.Discord.BotToken == "" {
			errs = append(errs, "operator.discord.bot_token is required")
		}
	case "slack":
		if c.Operator.Slack.BotToken == "" {
			errs = append(errs, "operator.slack.bot_token is required")
		}
		if c.Operator.Slack.AppToken == "" {
			errs = append(errs, "operator.slack.app_token is required")
		}
	default:
		errs = append(errs, fmt.Sprintf("operator.platform %q is not supported (use discord or slack)", c.Operator.Platform))
	}
	if c.Operator.Channel == "" {
		errs = append(errs, "operator.channel is required")
	}
	if c.Archive.Enabled {
		if c.Archive.Driver != "sqlite" && c.Archive.Driver != "mysql" {
			errs = append(errs, fmt.Sprintf("archive.driver %q is not supported (use sqlite or mysql)", c.Archive.Driver))
		}
		if c.Archive.DSN == "" {
			errs = append(errs, "archive.dsn is required when archive is enabled")
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
