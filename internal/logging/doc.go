// Package logging provides structured logging with per-module log level configuration.
//
// # Overview
//
// The logging system uses Go's slog package with automatic output routing:
//   - Logs to systemd journal when available (Linux systems with journald)
//   - Logs to stdout when a terminal, pipe, or file is connected
//   - Logs to both when both are available, except when systemd already
//     pipes stdout into the journal (JOURNAL_STREAM is set)
//   - Keeps recent entries in a ring buffer served by /api/logs
//
// # Usage
//
// Initialize the logging system once at startup:
//
//	logging.Initialize(logging.Config{
//		Level:  "info",      // Global log level: debug, info, warn, error
//		Format: "text",      // Output format: text or json
//		Modules: map[string]string{
//			"pca9685": "debug",  // Per-module overrides
//			"api":     "warn",
//		},
//	})
//
// Get a logger for your module:
//
//	logger := logging.GetLogger("mymodule")
//	logger.Info("Starting up", "port", 8080)
//	logger.Debug("Details", "config", cfg)
//	logger.Warn("Something unusual", "error", err)
//	logger.Error("Failed", "error", err)
//
// Add contextual attributes:
//
//	logger := logging.GetLogger("light").With("light", name)
//	logger.Info("Light turned on")  // Includes light in all logs
//
// # Log Levels
//
//	debug - Verbose debugging information
//	info  - General operational messages
//	warn  - Warning conditions
//	error - Error conditions
//
// # Output Destinations
//
// The system automatically detects available outputs:
//
//	Journal + stdout (not the journal)  → stdout, journal, buffer
//	Journal only, or stdout is journal  → journal, buffer
//	Stdout only                         → TextHandler or JSONHandler, buffer
//
// Journal availability is checked via [github.com/coreos/go-systemd/v22/journal.Enabled].
//
// # Viewing Logs
//
// When running as a systemd service or on a system with journald:
//
//	journalctl -t dioder              # All dioder logs
//	journalctl -t dioder -f           # Follow live
//	journalctl -t dioder --since "5m" # Last 5 minutes
//	journalctl -t dioder -p err       # Errors only
//
// Filter by structured fields:
//
//	journalctl -t dioder MODULE=pca9685
//	journalctl -t dioder ADDRESS=0x40
//
// # Configuration
//
// Log levels can be set globally or per-module. Module-specific levels
// override the global level for that module only. SetLevels changes them
// at runtime, which is how config file reloads are applied.
//
// Example TOML configuration:
//
//	[logging]
//	level = "info"
//	format = "text"
//	buffer_size = 1000
//
//	[logging.modules]
//	pca9685 = "debug"
//	api = "warn"
//	http = "error"
package logging
