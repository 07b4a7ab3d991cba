package textutil

import (
	"math"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Fingerprint is a term-frequency vector used to spot near-duplicate thoughts.
type Fingerprint struct {
	tokens map[string]float64
	norm   float64
}

// NewFingerprint creates a fingerprint from the provided text.
// Returns nil if the text produces no valid tokens.
func NewFingerprint(text string) *Fingerprint {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return nil
	}
	f := &Fingerprint{tokens: make(map[string]float64, len(tokens))}
	for _, token := range tokens {
		f.tokens[token]++
	}
	for _, n := range f.tokens {
		f.norm += n * n
	}
	f.norm = math.Sqrt(f.norm)
	return f
}

// Tokenize lowercases text and splits it on anything that is not a letter or
// digit, dropping tokens shorter than three runes. Cyrillic and Latin text
// tokenize the same way.
func Tokenize(text string) []string {
	terms := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return slices.DeleteFunc(terms, func(t string) bool { return utf8.RuneCountInString(t) < 3 })
}

// TokenCount returns the number of unique tokens in the fingerprint.
func (f *Fingerprint) TokenCount() int {
	if f == nil {
		return 0
	}
	return len(f.tokens)
}

// CosineSimilarity compares two term vectors. Nil or empty fingerprints
// score 0.
func CosineSimilarity(a, b *Fingerprint) float64 {
	if a.TokenCount() == 0 || b.TokenCount() == 0 {
		return 0
	}
	small, large := a, b
	if len(small.tokens) > len(large.tokens) {
		small, large = large, small
	}
	var dot float64
	for token, weight := range small.tokens {
		dot += weight * large.tokens[token]
	}
	return dot / (a.norm * b.norm)
}
