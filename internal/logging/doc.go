// Package logging assembles the slog loggers used by the telecine tools.
//
// It owns the console and JSON handlers, level and output plumbing, the
// standard field keys, and a no-op logger for tests and wiring code that
// cannot fail. Components derive their logger with NewComponentLogger so each
// line names its source.
package logging
