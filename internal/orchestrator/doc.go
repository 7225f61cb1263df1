// Package orchestrator drives one migration run.
//
// A run takes the ledger lock, registers every item the enabled sources
// discover, then drains pending items one at a time: resolve metadata,
// fingerprint the source file, skip content already placed, build the
// target path and copy. Every outcome is written to the ledger before the
// next item starts, so an interrupted run resumes where it stopped.
//
// Dry runs drain a separate ledger so they never mark real work as done.
package orchestrator
