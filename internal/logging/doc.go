// Package logging assembles structured slog loggers and formatting helpers used
// across whisperstudio.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so pipeline stages automatically
// tag log lines with run IDs, stage names, segment indexes, and correlation
// IDs. The package also provides a no-op logger for tests and optional wiring.
package logging
