package config

import (
	"strings"
	"time"
)

const (
	DefaultConfigPath    = ".indexchat.toml"
	DefaultModel         = "gemini-2.5-flash"
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com"
	DefaultMongoURI      = "mongodb://localhost:27017"
	DefaultDatabase      = "llm_poc_db"
	DefaultCollection    = "indexes"
	DefaultSQLitePath    = "indexchat.sqlite"
	DefaultListen        = "127.0.0.1:8000"
)

// Allowed values for constrained fields.
var StoreDrivers = []string{"mongo", "sqlite"}

type Config struct {
	Gemini Gemini `toml:"gemini"`
	Store  Store  `toml:"store"`
	Server Server `toml:"server"`
	Retry  Retry  `toml:"retry"`

	sources map[string]FieldSource
}

type Gemini struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	BaseURL     string  `toml:"base_url"`
	Temperature float64 `toml:"temperature"`
}

type Store struct {
	Driver     string `toml:"driver"`
	MongoURI   string `toml:"mongo_uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
	SQLitePath string `toml:"sqlite_path"`
}

type Server struct {
	Listen string `toml:"listen"`
}

// Retry governs the first model call only.
type Retry struct {
	MaxAttempts int      `toml:"max_attempts"`
	BaseDelay   Duration `toml:"base_delay"`
}

// Duration reads and writes Go duration strings such as "2s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

func Default() Config {
	return Config{
		Gemini: Gemini{
			Model:       DefaultModel,
			BaseURL:     DefaultGeminiBaseURL,
			Temperature: 0.1,
		},
		Store: Store{
			Driver:     "mongo",
			MongoURI:   DefaultMongoURI,
			Database:   DefaultDatabase,
			Collection: DefaultCollection,
			SQLitePath: DefaultSQLitePath,
		},
		Server: Server{
			Listen: DefaultListen,
		},
		Retry: Retry{
			MaxAttempts: 3,
			BaseDelay:   Duration{2 * time.Second},
		},
	}
}
