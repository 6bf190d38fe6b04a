// Package config provides configuration management using viper.
// It supports loading from YAML files and environment variable overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"user-of-the-day-bot/internal/model"
)

// dateLayout is the format for override rule dates in config files.
const dateLayout = "2006-01-02"

// Config holds all application configuration.
type Config struct {
	Bot       BotConfig       `mapstructure:"bot"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Allowlist AllowlistConfig `mapstructure:"allowlist"`
	Messages  MessagesConfig  `mapstructure:"messages"`
	Seed      SeedConfig      `mapstructure:"seed"`
	Overrides []OverrideRule  `mapstructure:"-"`

	// RawOverrides is the unparsed form; Load converts it into Overrides.
	RawOverrides []RawOverrideRule `mapstructure:"overrides"`
}

// BotConfig holds Telegram bot configuration.
type BotConfig struct {
	Token string `mapstructure:"token"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	PoolSize        int           `mapstructure:"pool_size"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// AllowlistConfig holds the chats the bot is allowed to serve.
type AllowlistConfig struct {
	Chats []int64 `mapstructure:"chats"`
}

// MessagesConfig holds announcement delivery configuration.
type MessagesConfig struct {
	Delay time.Duration `mapstructure:"delay"`
}

// SeedConfig holds the optional historical seed data source.
type SeedConfig struct {
	File string `mapstructure:"file"`
}

// RawOverrideRule is an override rule as written in the config file.
type RawOverrideRule struct {
	Game     string `mapstructure:"game"`
	Start    string `mapstructure:"start"`
	End      string `mapstructure:"end"`
	Username string `mapstructure:"username"`
}

// OverrideRule pins the winner of a game to a specific username within an
// inclusive date window, bypassing random selection.
type OverrideRule struct {
	Game     model.GameType
	Start    time.Time
	End      time.Time
	Username string
}

// Active reports whether the rule applies to the given game on the given
// date. Both window bounds are inclusive.
func (r OverrideRule) Active(game model.GameType, date time.Time) bool {
	if game != r.Game {
		return false
	}
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	return !day.Before(r.Start) && !day.After(r.End)
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
}

// Load reads configuration from file and environment variables.
// It looks for config.yaml in the given directory.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Environment variables use underscore separator and uppercase,
	// e.g. BOT_TOKEN, DATABASE_HOST, DATABASE_PORT.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK - env vars can provide all config.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	overrides, err := ParseOverrides(cfg.RawOverrides)
	if err != nil {
		return nil, err
	}
	cfg.Overrides = overrides
	cfg.RawOverrides = nil

	return &cfg, nil
}

// ParseOverrides converts raw override rules into their typed form,
// validating game names and date windows.
func ParseOverrides(raw []RawOverrideRule) ([]OverrideRule, error) {
	rules := make([]OverrideRule, 0, len(raw))
	for i, r := range raw {
		game, err := model.ParseGameType(r.Game)
		if err != nil {
			return nil, fmt.Errorf("override rule %d: %w", i, err)
		}
		start, err := time.ParseInLocation(dateLayout, r.Start, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("override rule %d: invalid start date %q: %w", i, r.Start, err)
		}
		end, err := time.ParseInLocation(dateLayout, r.End, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("override rule %d: invalid end date %q: %w", i, r.End, err)
		}
		if end.Before(start) {
			return nil, fmt.Errorf("override rule %d: end date %s before start date %s", i, r.End, r.Start)
		}
		if r.Username == "" {
			return nil, fmt.Errorf("override rule %d: username is required", i)
		}
		rules = append(rules, OverrideRule{
			Game:     game,
			Start:    start,
			End:      end,
			Username: strings.TrimPrefix(r.Username, "@"),
		})
	}
	return rules, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "dayofbot")
	v.SetDefault("database.name", "dayofbot")
	v.SetDefault("database.pool_size", 10)
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")

	v.SetDefault("messages.delay", "1500ms")
}

// IsChatAllowed checks if a chat ID is in the allowlist.
// An empty allowlist allows all chats.
func (c *Config) IsChatAllowed(chatID int64) bool {
	if len(c.Allowlist.Chats) == 0 {
		return true
	}
	for _, id := range c.Allowlist.Chats {
		if id == chatID {
			return true
		}
	}
	return false
}
