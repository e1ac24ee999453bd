package config

import "github.com/j-veylop/ha-stats-fixer/internal/models"

// Environment variable names.
const (
	EnvDatabasePath         = "DATABASE_PATH"
	EnvTimezone             = "TIMEZONE"
	EnvColumns              = "COLUMNS"
	EnvIncludeShortTerm     = "INCLUDE_SHORT_TERM"
	EnvLogPath              = "LOG_PATH"
	EnvLogLevel             = "LOG_LEVEL"
	EnvDesktopNotifications = "DESKTOP_NOTIFICATIONS"
	EnvWatchDatabase        = "WATCH_DATABASE"
)

// Defaults applied when neither a .env file nor the environment sets a value.
const (
	DefaultTimezone = "Europe/Berlin"
	DefaultColumns  = models.ColumnsSum
	DefaultLogLevel = "info"

	appDirName  = "ha-stats-fixer"
	logFileName = "hsf.log"
)
