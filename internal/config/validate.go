package config

import (
	"fmt"
	"strings"
)

// Validate checks required fields and value constraints. The error carries an
// actionable message (e.g. "Set env: GEMINI_API_KEY=...") so the caller can exit 2.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("CONFIG_INVALID: nil config")
	}
	if cfg.Gemini.APIKey == "" || cfg.Gemini.APIKey == "${GEMINI_API_KEY}" {
		return fmt.Errorf("CONFIG_INVALID: Missing GEMINI_API_KEY\nSet env: GEMINI_API_KEY=...\nOr run: indexchat config init")
	}
	if strings.TrimSpace(cfg.Gemini.Model) == "" {
		return fmt.Errorf("CONFIG_INVALID: gemini.model must not be empty")
	}
	if cfg.Gemini.Temperature < 0 || cfg.Gemini.Temperature > 2 {
		return fmt.Errorf("CONFIG_INVALID: gemini.temperature=%v; must be between 0 and 2", cfg.Gemini.Temperature)
	}
	if err := ValidateStore(cfg); err != nil {
		return err
	}
	if strings.TrimSpace(cfg.Server.Listen) == "" {
		return fmt.Errorf("CONFIG_INVALID: server.listen must not be empty")
	}
	if cfg.Retry.MaxAttempts < 1 {
		return fmt.Errorf("CONFIG_INVALID: retry.max_attempts=%d; must be at least 1", cfg.Retry.MaxAttempts)
	}
	if cfg.Retry.BaseDelay.Duration <= 0 {
		return fmt.Errorf("CONFIG_INVALID: retry.base_delay=%s; must be positive", cfg.Retry.BaseDelay.Duration)
	}
	return nil
}

// ValidateStore checks only the store settings, for commands that never
// talk to Gemini (e.g. import).
func ValidateStore(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("CONFIG_INVALID: nil config")
	}
	if !stringIn(cfg.Store.Driver, StoreDrivers) {
		return fmt.Errorf("CONFIG_INVALID: store.driver=%q; allowed: %s", cfg.Store.Driver, strings.Join(StoreDrivers, ", "))
	}
	switch cfg.Store.Driver {
	case "mongo":
		if cfg.Store.MongoURI == "" || cfg.Store.Database == "" || cfg.Store.Collection == "" {
			return fmt.Errorf("CONFIG_INVALID: store.mongo_uri, store.database and store.collection are required for the mongo driver")
		}
	case "sqlite":
		if cfg.Store.SQLitePath == "" {
			return fmt.Errorf("CONFIG_INVALID: store.sqlite_path is required for the sqlite driver\nSet env: INDEXCHAT_SQLITE_PATH=...")
		}
	}
	return nil
}

func stringIn(s string, allowed []string) bool {
	for _, a := range allowed {
		if s == a {
			return true
		}
	}
	return false
}
