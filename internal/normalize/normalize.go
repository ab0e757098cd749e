// Package normalize provides canonicalization for urls, metadata keys, and
// metadata values. Discovery may reach the same recording through different
// scan paths, so every comparison in the merge pipeline goes through these
// helpers first.
package normalize

import (
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// URL canonicalizes a source locator so that the same file reached through
// different scan paths compares equal. Remote urls (anything with a scheme)
// are only unicode-normalized; local paths are additionally cleaned.
func URL(raw string) string {
	s := norm.NFC.String(stripNullBytes(raw))
	if s == "" {
		return s
	}
	if strings.Contains(s, "://") {
		return s
	}
	return filepath.Clean(s)
}

// Key canonicalizes a metadata key: unicode-normalized, trimmed, uppercase.
func Key(raw string) string {
	return strings.ToUpper(strings.TrimSpace(norm.NFC.String(stripNullBytes(raw))))
}

// Value sanitizes a metadata value. Some tag parsers include null terminators
// in strings, which break database values and JSON documents.
func Value(raw string) string {
	return strings.TrimSpace(norm.NFC.String(stripNullBytes(raw)))
}

// stripNullBytes drops null bytes from a string.
func stripNullBytes(s string) string {
	return strings.Map(func(r rune) rune {
		if r == 0 {
			return -1
		}
		return r
	}, s)
}
