package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := cfg.Run.Providers; len(got) != 3 || got[0] != "Booking" || got[2] != "Expedia" {
		t.Errorf("providers = %v", got)
	}
	if cfg.Run.MaxPerProvider != 15 {
		t.Errorf("max_per_provider = %d, want 15", cfg.Run.MaxPerProvider)
	}
	if cfg.Query.Timeout != 35*time.Second {
		t.Errorf("query.timeout = %v", cfg.Query.Timeout)
	}
	if cfg.Scheduler.Interval != 24*time.Hour {
		t.Errorf("scheduler.interval = %v", cfg.Scheduler.Interval)
	}
	if cfg.Brand.Queries["ar"][0] != "العييري" {
		t.Errorf("brand.queries = %v", cfg.Brand.Queries)
	}
	if cfg.Database.Enabled() {
		t.Error("database should be disabled without a DSN")
	}
	if cfg.Location().String() != "Asia/Riyadh" {
		t.Errorf("location = %v", cfg.Location())
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "ota.yaml")
	yaml := `
run:
  max_per_provider: 10
  seed: weekly
browser:
  strategies: [static, headless]
  delay_profile: cautious
scheduler:
  interval: 12h
  offset: 2h
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("OTA_RUN_PROVIDERS", "Booking,Agoda")
	t.Setenv("DECODO_USERNAME", "alice")
	t.Setenv("PORT", "9090")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Run.MaxPerProvider != 10 || cfg.Run.Seed != "weekly" {
		t.Errorf("run = %+v", cfg.Run)
	}
	if got := cfg.Run.Providers; len(got) != 2 || got[1] != "Agoda" {
		t.Errorf("providers from env = %v", got)
	}
	if got := cfg.Browser.Strategies; len(got) != 2 || got[0] != "static" {
		t.Errorf("strategies = %v", got)
	}
	if cfg.Scheduler.Interval != 12*time.Hour || cfg.Scheduler.Offset != 2*time.Hour {
		t.Errorf("scheduler = %+v", cfg.Scheduler)
	}
	if cfg.Browser.Proxy.Username != "alice" {
		t.Errorf("legacy proxy username = %q", cfg.Browser.Proxy.Username)
	}
	if cfg.MCP.Port != "9090" {
		t.Errorf("legacy port = %q", cfg.MCP.Port)
	}
}

func TestValidate(t *testing.T) {
	t.Chdir(t.TempDir())
	base, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no providers", func(c *Config) { c.Run.Providers = nil }},
		{"zero nights", func(c *Config) { c.Run.StayNights = 0 }},
		{"bad timezone", func(c *Config) { c.Run.Timezone = "Mars/Olympus" }},
		{"bad language", func(c *Config) { c.Query.LangOrder = []string{"fr"} }},
		{"bad strategy", func(c *Config) { c.Browser.Strategies = []string{"curl"} }},
		{"telegram without token", func(c *Config) { c.Report.Telegram.Enabled = true; c.Report.Telegram.ChatID = "1" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := *base
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
