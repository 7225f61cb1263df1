// Package preflight provides readiness checks for the paths and catalog
// that shelver depends on.
//
// These checks run in two contexts:
//   - The orchestrator calls RunAll before draining the ledger. A failed
//     required check aborts the run before any item is touched.
//   - The CLI "shelver check" command renders every result.
//
// Checks for disabled sources are skipped.
package preflight
