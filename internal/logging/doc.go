// Package logging provides structured logging with per-module log level configuration.
//
// # Overview
//
// Loggers are plain *slog.Logger values tagged with a "module" attribute.
// Records fan out to every available destination:
//   - stdout when a terminal, pipe, or file is connected
//   - the systemd journal when journald is reachable
//   - an in-memory ring buffer served by the HTTP API
//
// # Usage
//
// Initialize the logging system once at startup:
//
//	logging.Initialize(logging.Config{
//		Level:  "info",
//		Format: "text",
//		Modules: map[string]string{
//			"session": "debug",
//			"api":     "warn",
//		},
//	})
//
// Get a logger for your module:
//
//	logger := logging.GetLogger("session")
//	logger.Info("Relay started", "pid", pid)
//
// # Viewing Logs
//
//	journalctl -t ipcam -f
//	journalctl -t ipcam MODULE=session
//
// # Configuration
//
//	[logging]
//	level = "info"
//	format = "text"
//	session = "debug"
package logging
