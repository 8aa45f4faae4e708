// Package logging assembles structured slog loggers used across audioscribe.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so API calls are tagged with
// their correlation IDs. The package also provides a no-op logger for tests
// and wiring code that cannot fail.
package logging
