// Package failure defines the error markers shared by the migration pipeline.
//
// Per-item problems (a missing source file, a failed copy, an unreadable
// container) are tagged so the orchestrator can record them as failed ledger
// entries and keep going. Ledger write, lock, and configuration errors are
// fatal: IsFatal reports them so callers abort instead of losing state.
package failure
