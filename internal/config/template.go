package config

import (
	"errors"
	"fmt"
	"os"
)

// DefaultTOML is the template written by "indexchat config init".
// The api_key placeholder is treated as unset; GEMINI_API_KEY fills it at load time.
const DefaultTOML = `[gemini]
api_key = "${GEMINI_API_KEY}"
model = "gemini-2.5-flash"
base_url = "https://generativelanguage.googleapis.com"
temperature = 0.1

[store]
# "mongo" or "sqlite"
driver = "mongo"
mongo_uri = "mongodb://localhost:27017"
database = "llm_poc_db"
collection = "indexes"
sqlite_path = "indexchat.sqlite"

[server]
listen = "127.0.0.1:8000"

[retry]
max_attempts = 3
base_delay = "2s"
`

// WriteTemplate writes DefaultTOML to path. It refuses to replace an existing
// file unless force is set.
func WriteTemplate(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		} else if !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return os.WriteFile(path, []byte(DefaultTOML), 0600)
}
