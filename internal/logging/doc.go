// Package logging assembles structured slog loggers used across the kmzgen
// pipeline.
//
// It owns the console and JSON handlers, centralizes level and output plumbing,
// and exposes attribute helpers plus component loggers so every stage emits log
// lines with the same shape. A no-op logger is provided for tests and wiring
// code that cannot fail.
package logging
