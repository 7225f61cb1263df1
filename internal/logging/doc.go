// Package logging assembles structured slog loggers and formatting helpers used
// across shelver.
//
// It owns the console and JSON handlers, level and output plumbing, and
// context helpers that tag log lines with the run ID and the ledger key of the
// item in flight. NewNop provides a silent logger for tests and for wiring
// code that has no logger yet.
package logging
