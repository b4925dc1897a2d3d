package enums

import (
	"fmt"
	"strings"
)

// Language is a supported UI language code.
type Language string

const (
	LanguageEN Language = "en"
	LanguageES Language = "es"
	LanguageFR Language = "fr"
	LanguageDE Language = "de"
	LanguagePT Language = "pt"
)

var validLanguages = []Language{LanguageEN, LanguageES, LanguageFR, LanguageDE, LanguagePT}

// String implements fmt.Stringer.
func (l Language) String() string {
	return string(l)
}

// IsValid reports whether the value is a supported Language.
func (l Language) IsValid() bool {
	for _, candidate := range validLanguages {
		if candidate == l {
			return true
		}
	}
	return false
}

// ParseLanguage normalizes and validates a language code.
func ParseLanguage(value string) (Language, error) {
	candidate := Language(strings.ToLower(strings.TrimSpace(value)))
	if candidate.IsValid() {
		return candidate, nil
	}
	return "", fmt.Errorf("invalid language %q", value)
}
