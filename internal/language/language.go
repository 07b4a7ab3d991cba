package language

import (
	"strings"
	"unicode"

	xlang "golang.org/x/text/language"
)

// cyrillicThreshold is the share of Cyrillic letters above which text is
// treated as Russian.
const cyrillicThreshold = 0.3

// Language describes a language the pipeline can narrate and publish in.
type Language struct {
	// Name is the English display name used in prompts ("Russian").
	Name string
	// Code is the ISO 639-1 code ("ru").
	Code string
	// Tag is the BCP 47 tag with the default region ("ru-RU").
	Tag xlang.Tag
	// Bible names the translation quoted for this language.
	Bible string
}

var (
	English = Language{Name: "English", Code: "en", Tag: xlang.AmericanEnglish, Bible: "King James Version (KJV)"}
	Russian = Language{Name: "Russian", Code: "ru", Tag: xlang.MustParse("ru-RU"), Bible: "Синодальный перевод (RST)"}
)

var known = []Language{English, Russian}

// Detect classifies text by the ratio of Cyrillic letters among all letters.
// Text without letters is English.
func Detect(text string) Language {
	var letters, cyrillic int
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if r >= 'Ѐ' && r <= 'ӿ' {
			cyrillic++
		}
	}
	if letters == 0 {
		return English
	}
	if float64(cyrillic)/float64(letters) > cyrillicThreshold {
		return Russian
	}
	return English
}

// Lookup resolves a stored code, tag or display name ("ru", "ru-RU",
// "Russian"). Unknown values fall back to English.
func Lookup(value string) Language {
	value = strings.TrimSpace(value)
	if value == "" {
		return English
	}
	for _, lang := range known {
		if strings.EqualFold(value, lang.Name) || strings.EqualFold(value, lang.Code) {
			return lang
		}
	}
	tag, err := xlang.Parse(value)
	if err != nil {
		return English
	}
	base, _ := tag.Base()
	for _, lang := range known {
		if b, _ := lang.Tag.Base(); b == base {
			return lang
		}
	}
	return English
}

// String returns the BCP 47 tag.
func (l Language) String() string {
	return l.Tag.String()
}
