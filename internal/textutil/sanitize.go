package textutil

import (
	"strings"
	"unicode/utf8"
)

// MaxSegmentRunes bounds a single sanitized path segment.
const MaxSegmentRunes = 200

// segmentReplacer replaces characters that are unsafe in a path segment.
var segmentReplacer = strings.NewReplacer(
	"<", "_",
	">", "_",
	":", "_",
	"\"", "_",
	"/", "_",
	"\\", "_",
	"|", "_",
	"?", "_",
	"*", "_",
)

// Sanitize makes name safe to use as one path segment. Unsafe characters
// become underscores, leading and trailing dots and spaces are trimmed, and
// the result is cut to MaxSegmentRunes. Sanitize is idempotent.
func Sanitize(name string) string {
	name = trimSegment(segmentReplacer.Replace(name))
	if utf8.RuneCountInString(name) > MaxSegmentRunes {
		name = trimSegment(TruncateRunes(name, MaxSegmentRunes))
	}
	return name
}

// TruncateRunes returns at most n runes of s.
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

func trimSegment(s string) string {
	return strings.Trim(s, ". ")
}
