package util

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// NormalizeInput prepares user-entered text for storage.
//   - Composes unicode to NFC so equal-looking titles compare equal
//   - Converts CRLF and lone CR line endings to LF
//   - Drops control characters other than newline and tab
//
// Surrounding whitespace is kept; titles are matched as typed.
func NormalizeInput(s string) string {
	s = norm.NFC.String(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

// NormalizeQuery prepares a search query. Queries are single-line, so any
// line break is dropped along with other control characters.
func NormalizeQuery(s string) string {
	s = norm.NFC.String(s)
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

// Truncate shortens s to at most max runes, ending in an ellipsis when cut.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	if max == 1 {
		return "…"
	}

	runes := []rune(s)
	return string(runes[:max-1]) + "…"
}

// FirstLine returns s up to the first line break.
func FirstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
