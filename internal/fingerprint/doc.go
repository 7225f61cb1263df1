// Package fingerprint detects when two files hold the same book.
//
// A Fingerprint starts from cheap stat data (size, extension, file name).
// Equal-size files are confirmed with a digest of the first and last 64 KiB;
// different-size files of the same format are treated as the same book only
// when their file names are nearly identical. The digest is computed at most
// once per Fingerprint.
//
// Cache holds the fingerprints of files placed during one run and answers
// "has an equivalent file already been placed?".
package fingerprint
