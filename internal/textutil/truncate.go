package textutil

import (
	"strings"
	"unicode/utf8"
)

// TruncateRunes shortens s to at most limit runes, ending with suffix when cut.
func TruncateRunes(s string, limit int, suffix string) string {
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	keep := limit - utf8.RuneCountInString(suffix)
	if keep < 0 {
		keep = 0
	}
	runes := []rune(s)
	return strings.TrimRightFunc(string(runes[:keep]), func(r rune) bool { return r == ' ' }) + suffix
}

// TruncateBytes shortens s to at most limit bytes without splitting a rune.
func TruncateBytes(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// Collapse joins the whitespace-separated fields of s with single spaces.
func Collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
