package config

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/BurntSushi/toml"
)

// Redacted returns a copy of config safe to print or persist: the API key is
// replaced with source metadata only.
func Redacted(cfg *Config) *Config {
	if cfg == nil {
		return nil
	}
	c := *cfg
	c.Gemini.APIKey = redactSecret(cfg.Gemini.APIKey, "GEMINI_API_KEY")
	c.sources = nil
	return &c
}

func redactSecret(value, envName string) string {
	if value == "" || value == "${"+envName+"}" {
		return ""
	}
	return "<from env " + envName + ">"
}

// EncodeTOML renders the redacted config as TOML.
func EncodeTOML(cfg *Config) ([]byte, error) {
	snap := Redacted(cfg)
	if snap == nil {
		return nil, fmt.Errorf("config is nil")
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(snap); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FieldInfo describes one effective setting for "config print".
type FieldInfo struct {
	Key    string
	Value  string
	Source FieldSource
}

// Fields lists every setting with its redacted value and where it came from,
// sorted by key.
func (c *Config) Fields() []FieldInfo {
	snap := Redacted(c)
	if snap == nil {
		return nil
	}
	values := map[string]string{
		"gemini.api_key":     snap.Gemini.APIKey,
		"gemini.model":       snap.Gemini.Model,
		"gemini.base_url":    snap.Gemini.BaseURL,
		"gemini.temperature": fmt.Sprintf("%g", snap.Gemini.Temperature),
		"store.driver":       snap.Store.Driver,
		"store.mongo_uri":    snap.Store.MongoURI,
		"store.database":     snap.Store.Database,
		"store.collection":   snap.Store.Collection,
		"store.sqlite_path":  snap.Store.SQLitePath,
		"server.listen":      snap.Server.Listen,
		"retry.max_attempts": fmt.Sprintf("%d", snap.Retry.MaxAttempts),
		"retry.base_delay":   snap.Retry.BaseDelay.Duration.String(),
	}
	out := make([]FieldInfo, 0, len(values))
	for k, v := range values {
		out = append(out, FieldInfo{Key: k, Value: v, Source: c.Source(k)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
