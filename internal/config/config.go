// Package config contains everything related to configuration
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/j-veylop/ha-stats-fixer/internal/models"
	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	// DatabasePath is the recorder database. Empty means the user fills it in.
	DatabasePath         string
	Timezone             string
	Columns              models.Columns
	IncludeShortTerm     bool
	LogPath              string
	LogLevel             string
	DesktopNotifications bool
	WatchDatabase        bool
}

// Load reads configuration from .env files and environment variables.
func Load() (*Config, error) {
	// First .env found wins; godotenv never overrides variables already set.
	for _, path := range getEnvPaths() {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			break
		}
	}

	cfg := &Config{
		DatabasePath:         expandHome(getEnvString(EnvDatabasePath, "")),
		Timezone:             getEnvString(EnvTimezone, DefaultTimezone),
		IncludeShortTerm:     getEnvBool(EnvIncludeShortTerm, false),
		LogPath:              expandHome(getEnvString(EnvLogPath, getDefaultLogPath())),
		LogLevel:             getEnvString(EnvLogLevel, DefaultLogLevel),
		DesktopNotifications: getEnvBool(EnvDesktopNotifications, true),
		WatchDatabase:        getEnvBool(EnvWatchDatabase, true),
	}

	cols, err := models.ParseColumns(getEnvString(EnvColumns, DefaultColumns.String()))
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", EnvColumns, err)
	}
	cfg.Columns = cols

	if _, err := models.LoadTimezone(cfg.Timezone); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", EnvTimezone, err)
	}

	return cfg, nil
}

// getEnvPaths returns a list of paths to check for .env files.
func getEnvPaths() []string {
	var paths []string

	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}

	if dir := appConfigDir(); dir != "" {
		paths = append(paths, filepath.Join(dir, ".env"))
	}

	return paths
}

// appConfigDir returns ~/.config/ha-stats-fixer, or "" without a home directory.
func appConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appDirName)
}

// getDefaultLogPath returns the default path for the log file.
func getDefaultLogPath() string {
	dir := appConfigDir()
	if dir == "" {
		return logFileName
	}
	return filepath.Join(dir, logFileName)
}

// expandHome replaces a leading "~/" with the user's home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// getEnvString retrieves a string environment variable or returns the default.
func getEnvString(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable or returns the default.
// Accepts the values understood by strconv.ParseBool plus yes/no and on/off.
func getEnvBool(key string, defaultValue bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch value {
	case "":
		return defaultValue
	case "yes", "on":
		return true
	case "no", "off":
		return false
	}
	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}
	return defaultValue
}
