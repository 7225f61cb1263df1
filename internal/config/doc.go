// Package config loads, normalizes, and validates shelver configuration data.
//
// It supplies repository defaults (including the Japanese/English category
// folder maps and keyword tables), expands user paths with tilde shortcuts,
// reads TOML files, and honours environment fallbacks such as
// SHELVER_TARGET_DIR and SHELVER_CALIBRE_LIBRARY.
//
// Validation errors are tagged with failure.ErrConfiguration so the CLI can
// abort before any item is touched.
package config
