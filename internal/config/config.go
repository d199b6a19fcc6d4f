package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone   = "Asia/Bangkok"
	defaultRunTime    = "07:00"
	configPathEnv     = "NEWS_HARVESTER_CONFIG"
	databasePathEnv   = "NEWS_DB_PATH"
	sourceURLEnv      = "SOURCE_URL"
	sourcePatternEnv  = "SOURCE_PATTERN"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
)

// Config holds high-level settings required across the application.
type Config struct {
	Source        SourceConfig       `yaml:"source"`
	Database      DatabaseConfig     `yaml:"database"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Notifications NotificationConfig `yaml:"notifications"`
	Logging       LoggingConfig      `yaml:"logging"`
}

// SourceConfig describes the index page to scan and the link filter.
type SourceConfig struct {
	URL     string `yaml:"url"`
	Pattern string `yaml:"pattern"`
}

// DatabaseConfig describes the SQLite file location.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// SchedulerConfig defines when the daily run should trigger.
type SchedulerConfig struct {
	Time     string         `yaml:"time"`
	Timezone string         `yaml:"timezone"`
	location *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// LoggingConfig controls log verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads YAML configuration (if present) and applies environment
// overrides. An empty path falls back to the NEWS_HARVESTER_CONFIG
// environment variable.
func Load(path string) Config {
	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	return cfg
}

// Validate checks settings that must be present before any pipeline
// work begins. Missing notifier credentials are a startup error.
func (c Config) Validate() error {
	if c.Source.URL == "" {
		return fmt.Errorf("source url is required")
	}
	if c.Source.Pattern == "" {
		return fmt.Errorf("source pattern is required")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}
	if c.Notifications.Telegram.BotToken == "" {
		return fmt.Errorf("telegram bot token is required (set %s)", telegramTokenEnv)
	}
	if c.Notifications.Telegram.ChatID == "" {
		return fmt.Errorf("telegram chat id is required (set %s)", telegramChatIDEnv)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(sourceURLEnv); v != "" {
		c.Source.URL = v
	}

	if v := os.Getenv(sourcePatternEnv); v != "" {
		c.Source.Pattern = v
	}

	if v := os.Getenv(databasePathEnv); v != "" {
		c.Database.Path = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Source.URL != "" {
		base.Source.URL = override.Source.URL
	}
	if override.Source.Pattern != "" {
		base.Source.Pattern = override.Source.Pattern
	}

	if override.Database.Path != "" {
		base.Database = override.Database
	}

	if override.Scheduler.Time != "" {
		base.Scheduler.Time = override.Scheduler.Time
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Source: SourceConfig{
			URL:     "https://techcrunch.com/category/artificial-intelligence/",
			Pattern: "*/2025/*",
		},
		Database:  DatabaseConfig{Path: "articles.db"},
		Scheduler: SchedulerConfig{Time: defaultRunTime, Timezone: defaultTimezone, location: tz},
		Notifications: NotificationConfig{
			Telegram: TelegramConfig{BotToken: "", ChatID: ""},
		},
		Logging: LoggingConfig{Level: "info"},
	}
}
