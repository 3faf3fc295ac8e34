// Package logging assembles structured slog loggers and formatting helpers used
// across the archive services.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so pipeline stages tag log lines
// with submission ids, stage names and correlation ids. Per-stage level
// overrides let operators turn up a single noisy stage without flooding the
// rest of the log.
package logging
