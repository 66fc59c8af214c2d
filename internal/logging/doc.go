// Package logging builds the slog loggers used across msgvault.
//
// It wraps log/slog with typed attribute helpers, a compact console handler
// for interactive use, and a JSON handler for machine consumption. Loggers
// write to stdout and, when a log directory is configured, to a file beneath
// it.
//
// Components should accept a *slog.Logger and use the helpers here rather
// than constructing handlers themselves.
package logging
