// Package extractor reads embedded metadata from EPUB and MOBI/AZW3 files.
//
// Extract first sniffs the file content so a mislabeled file is rejected
// before any parsing, then decodes the OPF package of an EPUB or the PalmDB,
// MOBI, and EXTH headers of a Mobipocket file. Callers treat any error as
// "no embedded metadata".
package extractor
