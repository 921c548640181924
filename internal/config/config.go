// Package config loads and validates service configuration from a YAML file
// with environment variable overrides.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Spot     SpotConfig     `mapstructure:"spot"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig holds the HTTP API configuration
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	LogCapacity     int           `mapstructure:"log_capacity"`
}

// SpotConfig holds the upstream price API configuration
type SpotConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
	UseMock        bool          `mapstructure:"use_mock"`
}

// ScheduleConfig holds the release schedule and display window configuration.
// Zone labels the chart and aligns the display window; PriceZone interprets
// the publisher's day boundaries. The two may differ.
type ScheduleConfig struct {
	ReleaseHour   int           `mapstructure:"release_hour"`
	ReleaseMinute int           `mapstructure:"release_minute"`
	Zone          string        `mapstructure:"zone"`
	PriceZone     string        `mapstructure:"price_zone"`
	PollInterval  time.Duration `mapstructure:"poll_interval"`
	WindowCadence time.Duration `mapstructure:"window_cadence"`
}

// TelegramConfig holds Telegram notification configuration
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

	v.SetEnvPrefix("HOMEDASH")
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
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.log_capacity", 200)

	v.SetDefault("spot.base_url", "http://localhost:9090")
	v.SetDefault("spot.timeout", "30s")
	v.SetDefault("spot.max_retries", 3)
	v.SetDefault("spot.retry_delay_base", "1s")
	v.SetDefault("spot.use_mock", false)

	// Nord Pool day-ahead prices are usually published around 14:00 Helsinki
	// time; the publisher's day boundaries follow Stockholm.
	v.SetDefault("schedule.release_hour", 14)
	v.SetDefault("schedule.release_minute", 0)
	v.SetDefault("schedule.zone", "Europe/Helsinki")
	v.SetDefault("schedule.price_zone", "Europe/Stockholm")
	v.SetDefault("schedule.poll_interval", "10m")
	v.SetDefault("schedule.window_cadence", "1m")

	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "1s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Server.LogCapacity < 1 {
		return fmt.Errorf("server.log_capacity must be at least 1")
	}

	if !c.Spot.UseMock && c.Spot.BaseURL == "" {
		return fmt.Errorf("spot.base_url is required unless spot.use_mock is set")
	}
	if c.Spot.Timeout < time.Second {
		return fmt.Errorf("spot.timeout must be at least 1 second")
	}
	if c.Spot.MaxRetries < 1 {
		return fmt.Errorf("spot.max_retries must be at least 1")
	}

	if c.Schedule.ReleaseHour < 0 || c.Schedule.ReleaseHour > 23 {
		return fmt.Errorf("schedule.release_hour must be between 0 and 23")
	}
	if c.Schedule.ReleaseMinute < 0 || c.Schedule.ReleaseMinute > 59 {
		return fmt.Errorf("schedule.release_minute must be between 0 and 59")
	}
	// An unknown IANA identifier is a deployment mistake, caught here so the
	// process refuses to start instead of misscheduling at runtime.
	if _, err := time.LoadLocation(c.Schedule.Zone); err != nil {
		return fmt.Errorf("schedule.zone is not a valid IANA zone: %w", err)
	}
	if _, err := time.LoadLocation(c.Schedule.PriceZone); err != nil {
		return fmt.Errorf("schedule.price_zone is not a valid IANA zone: %w", err)
	}
	if c.Schedule.PollInterval < time.Minute {
		return fmt.Errorf("schedule.poll_interval must be at least 1 minute")
	}
	if c.Schedule.WindowCadence < time.Second {
		return fmt.Errorf("schedule.window_cadence must be at least 1 second")
	}

	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
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

// DisplayZone returns the loaded display zone. Validate must have succeeded.
func (c *Config) DisplayZone() *time.Location {
	loc, err := time.LoadLocation(c.Schedule.Zone)
	if err != nil {
		panic(fmt.Sprintf("display zone %q not validated: %v", c.Schedule.Zone, err))
	}
	return loc
}

// PriceZone returns the loaded price publication zone. Validate must have
// succeeded.
func (c *Config) PriceZone() *time.Location {
	loc, err := time.LoadLocation(c.Schedule.PriceZone)
	if err != nil {
		panic(fmt.Sprintf("price zone %q not validated: %v", c.Schedule.PriceZone, err))
	}
	return loc
}
