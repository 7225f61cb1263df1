// Package metadata turns per-source book descriptions into one canonical
// record per item.
//
// The Resolver starts from catalog-declared fields or, for container files,
// the embedded metadata read by an Extractor. Missing title, authors, and
// language are then filled from the filename, field by field. Language codes
// are normalized through the language package; when no code is usable the
// title script decides, and for loose files the names of the folders they
// sit in can act as a last hint.
//
// Resolve never fails. Extraction errors are logged and treated as "no
// embedded data".
package metadata
