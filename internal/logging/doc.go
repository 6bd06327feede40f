// Package logging provides slog-based structured logging with per-module
// levels.
//
// Initialize once at startup, then obtain module loggers:
//
//	logging.Initialize(logging.Config{Level: "info", Format: "auto"})
//	logger := logging.GetLogger("amdipmi")
//	logger.Debug("register read", "reg", 0x42, "value", 0x02)
//
// Format "auto" selects text when stderr is a terminal and json otherwise.
// When amdem runs under systemd (journald available and stderr is not a
// terminal) records are also sent to the journal with SYSLOG_IDENTIFIER=amdem,
// so structured fields can be filtered:
//
//	journalctl -t amdem MODULE=amdipmi
package logging
