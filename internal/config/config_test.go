package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpfile, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Remove(tmpfile.Name()) })

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}
	return tmpfile.Name()
}

func TestLoadAndValidate(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":8080"

spot:
  base_url: "http://upstream:9090"
  timeout: 30s
  max_retries: 3

schedule:
  release_hour: 14
  release_minute: 0
  zone: "Europe/Helsinki"
  price_zone: "Europe/Stockholm"
  poll_interval: 10m
  window_cadence: 1m

telegram:
  bot_token: "test_token"
  chat_id: "test_chat_id"
  enabled: true

logging:
  level: "info"
  format: "json"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Schedule.PollInterval != 10*time.Minute {
		t.Errorf("Unexpected poll interval: %v", cfg.Schedule.PollInterval)
	}
	if cfg.Schedule.ReleaseHour != 14 {
		t.Errorf("Unexpected release hour: %d", cfg.Schedule.ReleaseHour)
	}
	if cfg.Schedule.Zone != "Europe/Helsinki" {
		t.Errorf("Unexpected zone: %s", cfg.Schedule.Zone)
	}
	if cfg.Spot.BaseURL != "http://upstream:9090" {
		t.Errorf("Unexpected base URL: %s", cfg.Spot.BaseURL)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate failed on valid config: %v", err)
	}

	if cfg.DisplayZone().String() != "Europe/Helsinki" {
		t.Errorf("Unexpected display zone: %s", cfg.DisplayZone())
	}
	if cfg.PriceZone().String() != "Europe/Stockholm" {
		t.Errorf("Unexpected price zone: %s", cfg.PriceZone())
	}
}

func TestDefaults(t *testing.T) {
	path := writeConfig(t, `
spot:
  base_url: "http://upstream:9090"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed with defaults: %v", err)
	}

	if cfg.Server.Addr != ":8080" {
		t.Errorf("Unexpected default addr: %s", cfg.Server.Addr)
	}
	if cfg.Schedule.ReleaseHour != 14 || cfg.Schedule.ReleaseMinute != 0 {
		t.Errorf("Unexpected default release time: %02d:%02d", cfg.Schedule.ReleaseHour, cfg.Schedule.ReleaseMinute)
	}
	if cfg.Schedule.PriceZone != "Europe/Stockholm" {
		t.Errorf("Unexpected default price zone: %s", cfg.Schedule.PriceZone)
	}
	if cfg.Schedule.PollInterval != 10*time.Minute {
		t.Errorf("Unexpected default poll interval: %v", cfg.Schedule.PollInterval)
	}
	if cfg.Schedule.WindowCadence != time.Minute {
		t.Errorf("Unexpected default window cadence: %v", cfg.Schedule.WindowCadence)
	}
	if cfg.Telegram.Enabled {
		t.Error("Telegram enabled by default")
	}
}

func TestValidateErrors(t *testing.T) {
	base := func() Config {
		return Config{
			Server: ServerConfig{Addr: ":8080", LogCapacity: 100},
			Spot:   SpotConfig{BaseURL: "http://upstream", Timeout: 30 * time.Second, MaxRetries: 3},
			Schedule: ScheduleConfig{
				ReleaseHour: 14, ReleaseMinute: 0,
				Zone: "Europe/Helsinki", PriceZone: "Europe/Stockholm",
				PollInterval: 10 * time.Minute, WindowCadence: time.Minute,
			},
			Logging: LoggingConfig{Level: "info", Format: "json"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantSub string
	}{
		{"release hour too large", func(c *Config) { c.Schedule.ReleaseHour = 24 }, "release_hour"},
		{"negative release minute", func(c *Config) { c.Schedule.ReleaseMinute = -1 }, "release_minute"},
		{"bad display zone", func(c *Config) { c.Schedule.Zone = "Mars/Olympus" }, "schedule.zone"},
		{"bad price zone", func(c *Config) { c.Schedule.PriceZone = "Not/AZone" }, "price_zone"},
		{"poll interval too short", func(c *Config) { c.Schedule.PollInterval = time.Second }, "poll_interval"},
		{"missing base url", func(c *Config) { c.Spot.BaseURL = "" }, "base_url"},
		{"telegram enabled without token", func(c *Config) { c.Telegram = TelegramConfig{Enabled: true, ChatID: "1"} }, "bot_token"},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, "logging.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q does not mention %q", err, tt.wantSub)
			}
		})
	}
}

func TestMockModeNeedsNoBaseURL(t *testing.T) {
	path := writeConfig(t, `
spot:
  use_mock: true
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("mock mode should not require base_url: %v", err)
	}
}
