// Command shelver migrates an ebook collection from a Calibre library and
// loose folders into a language and genre classified target tree.
//
// Common entry points:
//
//	shelver run [--dry-run] [--limit N] [--resume] [--retry-failed]
//	shelver status | failed | retry
//	shelver preview [--limit N]
//	shelver check
//	shelver config init | validate
package main
