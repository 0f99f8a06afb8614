// Package config resolves guardian's settings and file locations.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// AppName names guardian's directories under the XDG base directories.
const AppName = "guardian"

// ExpandPath resolves a leading ~ and any $VAR references in a path taken from
// flags or config.yaml.
func ExpandPath(path string) string {
	switch {
	case path == "":
		return path
	case path == "~", strings.HasPrefix(path, "~/"):
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return os.ExpandEnv(path)
}

// ConfigDir is where config.yaml and the Sheets token live:
// $XDG_CONFIG_HOME/guardian, else ~/.config/guardian.
func ConfigDir() (string, error) {
	return appDir("XDG_CONFIG_HOME", ".config")
}

// DataDir holds the run history database:
// $XDG_DATA_HOME/guardian, else ~/.local/share/guardian.
func DataDir() (string, error) {
	return appDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

// DefaultDatabasePath is the SQLite file used when database.path is unset.
func DefaultDatabasePath() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName+".db"), nil
}

func appDir(envVar, homeRelative string) (string, error) {
	if base := os.Getenv(envVar); base != "" {
		return filepath.Join(base, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, homeRelative, AppName), nil
}
