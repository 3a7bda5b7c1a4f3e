package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// FieldSource indicates where a config value originates.
type FieldSource string

const (
	SourceDefault     FieldSource = "default"
	SourceConfigFile  FieldSource = "config file"
	SourceDotEnv      FieldSource = ".env"
	SourceDotEnvLocal FieldSource = ".env.local"
	SourceEnv         FieldSource = "env"
	SourceFlag        FieldSource = "flag"
)

// Options for loading config. ConfigPath is relative to Dir if not absolute.
type Options struct {
	ConfigPath   string
	Dir          string
	SkipValidate bool // if true, do not validate (e.g. for config print)
	// Overrides apply last (flags > env > file > defaults). Nil means no CLI overrides.
	Overrides *Overrides
}

// Overrides holds CLI flag values. Only non-nil fields are applied.
type Overrides struct {
	Listen      *string
	StoreDriver *string
	Model       *string
}

// envBinding maps an environment variable onto a config field.
type envBinding struct {
	env string
	key string
	set func(*Config, string)
}

var envBindings = []envBinding{
	{"GEMINI_API_KEY", "gemini.api_key", func(c *Config, v string) { c.Gemini.APIKey = v }},
	{"GEMINI_MODEL", "gemini.model", func(c *Config, v string) { c.Gemini.Model = v }},
	{"GEMINI_BASE_URL", "gemini.base_url", func(c *Config, v string) { c.Gemini.BaseURL = v }},
	{"INDEXCHAT_STORE", "store.driver", func(c *Config, v string) { c.Store.Driver = v }},
	{"MONGODB_URI", "store.mongo_uri", func(c *Config, v string) { c.Store.MongoURI = v }},
	{"MONGODB_DB_NAME", "store.database", func(c *Config, v string) { c.Store.Database = v }},
	{"MONGODB_COLLECTION", "store.collection", func(c *Config, v string) { c.Store.Collection = v }},
	{"INDEXCHAT_SQLITE_PATH", "store.sqlite_path", func(c *Config, v string) { c.Store.SQLitePath = v }},
	{"INDEXCHAT_LISTEN", "server.listen", func(c *Config, v string) { c.Server.Listen = v }},
}

// Load builds config with precedence: defaults → config file → dotenv/env → Overrides.
// Returns an error suitable for exit code 2 when invalid.
func Load(opts Options) (*Config, error) {
	cfg := Default()
	cfg.sources = make(map[string]FieldSource)

	dotenvSources, err := loadDotEnvFiles(opts.Dir)
	if err != nil {
		return nil, fmt.Errorf("CONFIG_INVALID: failed loading dotenv files: %w", err)
	}

	configPath := opts.ConfigPath
	if configPath == "" {
		configPath = DefaultConfigPath
	}
	if !filepath.IsAbs(configPath) && opts.Dir != "" {
		configPath = filepath.Join(opts.Dir, configPath)
	}
	if err := mergeConfigFile(&cfg, configPath); err != nil {
		return nil, err
	}

	for _, b := range envBindings {
		v := strings.TrimSpace(os.Getenv(b.env))
		if v == "" {
			continue
		}
		b.set(&cfg, v)
		if src, ok := dotenvSources[b.env]; ok {
			cfg.sources[b.key] = src
		} else {
			cfg.sources[b.key] = SourceEnv
		}
	}

	if opts.Overrides != nil {
		applyOverrides(&cfg, opts.Overrides)
	}

	if !opts.SkipValidate {
		if err := Validate(&cfg); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

func mergeConfigFile(cfg *Config, path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("CONFIG_INVALID: cannot read config file %s: %w", path, err)
	}
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("CONFIG_INVALID: malformed TOML in %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("CONFIG_INVALID: unknown key %q in %s", undecoded[0].String(), path)
	}
	for _, key := range md.Keys() {
		cfg.sources[key.String()] = SourceConfigFile
	}
	return nil
}

// loadDotEnvFiles copies values from .env.local and .env into the process
// environment without overriding variables that are already set. Precedence:
// explicit env > .env.local > .env. It reports which keys it set.
func loadDotEnvFiles(dir string) (map[string]FieldSource, error) {
	set := make(map[string]FieldSource)
	files := []struct {
		name   string
		source FieldSource
	}{
		{".env.local", SourceDotEnvLocal},
		{".env", SourceDotEnv},
	}
	for _, f := range files {
		path := f.name
		if dir != "" {
			path = filepath.Join(dir, f.name)
		}
		values, err := godotenv.Read(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, err
		}
		for k, v := range values {
			if existing, ok := os.LookupEnv(k); ok && strings.TrimSpace(existing) != "" {
				continue
			}
			if err := os.Setenv(k, v); err != nil {
				return nil, err
			}
			set[k] = f.source
		}
	}
	return set, nil
}

func applyOverrides(cfg *Config, o *Overrides) {
	if o.Listen != nil {
		cfg.Server.Listen = *o.Listen
		cfg.sources["server.listen"] = SourceFlag
	}
	if o.StoreDriver != nil {
		cfg.Store.Driver = *o.StoreDriver
		cfg.sources["store.driver"] = SourceFlag
	}
	if o.Model != nil {
		cfg.Gemini.Model = *o.Model
		cfg.sources["gemini.model"] = SourceFlag
	}
}

// Source reports where the value for a dotted key (e.g. "gemini.model") came from.
func (c *Config) Source(key string) FieldSource {
	if c == nil || c.sources == nil {
		return SourceDefault
	}
	if src, ok := c.sources[key]; ok {
		return src
	}
	return SourceDefault
}
