// Package textutil provides path-segment sanitization and rune-aware
// truncation shared by the taxonomy builder and the orchestrator.
//
// All lengths are measured in runes, never bytes, so CJK titles are cut at
// character boundaries.
package textutil
