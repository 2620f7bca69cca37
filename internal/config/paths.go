// paths.go - where configuration and recordings live
package config

import (
	"log"
	"os"
	"path/filepath"
)

// AppDir is the per-user directory name.
const AppDir = "termcore"

// Dir returns the configuration directory, normally
// <UserConfigDir>/termcore, falling back to ~/.termcore.
func Dir() string {
	if base, err := os.UserConfigDir(); err == nil {
		return filepath.Join(base, AppDir)
	} else {
		log.Printf("[config] no user config dir: %v", err)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		log.Printf("[config] no home directory: %v", err)
		return "."
	}
	return filepath.Join(home, "."+AppDir)
}

// DefaultPath returns the path of config.toml.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.toml")
}

// RecordingsDir returns where session recordings are saved by default.
func RecordingsDir() string {
	return filepath.Join(Dir(), "recordings")
}
