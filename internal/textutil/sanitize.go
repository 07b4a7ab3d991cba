package textutil

import (
	"strings"
	"unicode"
)

// SanitizeFileName makes name safe as a file or folder name on every
// platform: path separators, colons and asterisks become dashes, other
// reserved characters are dropped and surrounding space is trimmed.
func SanitizeFileName(name string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*':
			return '-'
		case '?', '"', '<', '>', '|':
			return -1
		}
		return r
	}, strings.TrimSpace(name)))
}

// Hashtag turns a keyword into a "#CamelCase" tag keeping only letters and
// digits. Returns "" when nothing usable remains.
func Hashtag(keyword string) string {
	words := strings.FieldsFunc(keyword, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(words) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteByte('#')
	for _, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		b.WriteString(string(r))
	}
	return b.String()
}
