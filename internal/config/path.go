// Package config holds the settings the upload, classification and server
// paths read from viper, plus the built-in category taxonomy.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// DefaultDatabasePath is used when database.path is not configured.
const DefaultDatabasePath = "~/.local/share/spice/spice.db"

// ExpandPath resolves a leading "~" to the home directory and expands $VAR
// references. The path is returned unchanged apart from env expansion when
// the home directory is unknown.
func ExpandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return os.ExpandEnv(path)
}

// DatabasePath returns the expanded SQLite path for a configured value,
// falling back to DefaultDatabasePath. ":memory:" is passed through.
func DatabasePath(configured string) string {
	configured = strings.TrimSpace(configured)
	switch configured {
	case "":
		configured = DefaultDatabasePath
	case ":memory:":
		return configured
	}
	return ExpandPath(configured)
}
