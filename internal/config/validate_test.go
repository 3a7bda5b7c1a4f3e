package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	cfg := Default()
	cfg.Gemini.APIKey = "test-key"
	return cfg
}

func TestValidate_MissingKeyYieldsActionableOutput(t *testing.T) {
	cfg := Default()

	err := Validate(&cfg)
	if err == nil {
		t.Fatal("expected error when API key missing")
	}
	msg := err.Error()
	for _, want := range []string{"CONFIG_INVALID", "GEMINI_API_KEY", "Set env", "indexchat config init"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error should contain %q, got: %s", want, msg)
		}
	}
}

func TestValidate_PlaceholderTreatedAsMissing(t *testing.T) {
	cfg := Default()
	cfg.Gemini.APIKey = "${GEMINI_API_KEY}"

	if err := Validate(&cfg); err == nil {
		t.Fatal("expected error when key is placeholder")
	}
}

func TestValidate_Constraints(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"unknown driver", func(c *Config) { c.Store.Driver = "redis" }, "store.driver"},
		{"temperature too high", func(c *Config) { c.Gemini.Temperature = 2.5 }, "gemini.temperature"},
		{"negative temperature", func(c *Config) { c.Gemini.Temperature = -0.1 }, "gemini.temperature"},
		{"zero attempts", func(c *Config) { c.Retry.MaxAttempts = 0 }, "retry.max_attempts"},
		{"zero delay", func(c *Config) { c.Retry.BaseDelay.Duration = 0 }, "retry.base_delay"},
		{"empty listen", func(c *Config) { c.Server.Listen = " " }, "server.listen"},
		{"empty model", func(c *Config) { c.Gemini.Model = "" }, "gemini.model"},
		{"sqlite without path", func(c *Config) { c.Store.Driver = "sqlite"; c.Store.SQLitePath = "" }, "store.sqlite_path"},
		{"mongo without database", func(c *Config) { c.Store.Database = "" }, "store.database"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := Validate(&cfg)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q should mention %q", err, tc.want)
			}
		})
	}
}

func TestValidate_AcceptsDefaultsWithKey(t *testing.T) {
	cfg := validConfig()
	cfg.Retry.BaseDelay.Duration = time.Millisecond
	if err := Validate(&cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateStore_IgnoresMissingAPIKey(t *testing.T) {
	cfg := Default()
	cfg.Store.Driver = "sqlite"
	if err := ValidateStore(&cfg); err != nil {
		t.Fatalf("store-only validation should not need an API key: %v", err)
	}
	cfg.Store.Driver = "postgres"
	if err := ValidateStore(&cfg); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
