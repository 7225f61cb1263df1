// Package ledger persists one progress record per discovered book in SQLite
// and exposes the transitions that make batch runs resumable.
//
// Records are keyed by (source_kind, source_id). Discovery registers keys
// with insert-if-absent semantics, the orchestrator drains pending keys in
// insertion order, and every terminal write moves a record out of pending
// exactly once. Only ResetFailed moves records back to pending.
//
// Schema changes bump schemaVersion in schema.go; an existing database with a
// different version is rejected with ErrSchemaMismatch.
package ledger
