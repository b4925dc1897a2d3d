package format

import (
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	dateLayout     = "Jan 2, 2006"
	dateTimeLayout = "Jan 2, 2006, 03:04 PM"
)

// The commerce API sends timestamps both with and without a zone.
var inputLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

var (
	slugInvalid    = regexp.MustCompile(`[^\w\s-]`)
	slugWhitespace = regexp.MustCompile(`\s+`)
	slugDashes     = regexp.MustCompile(`-+`)
)

func parseTimestamp(value string) (time.Time, bool) {
	trimmed := strings.TrimSpace(value)
	for _, layout := range inputLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Date renders an API timestamp as "Jan 2, 2006". Unparseable input is returned unchanged.
func Date(value string) string {
	t, ok := parseTimestamp(value)
	if !ok {
		return value
	}
	return t.Format(dateLayout)
}

// DateTime renders an API timestamp with hour and minute.
func DateTime(value string) string {
	t, ok := parseTimestamp(value)
	if !ok {
		return value
	}
	return t.Format(dateTimeLayout)
}

// Truncate shortens text to maxLength runes followed by "...".
func Truncate(text string, maxLength int) string {
	if maxLength < 0 || utf8.RuneCountInString(text) <= maxLength {
		return text
	}
	runes := []rune(text)
	return string(runes[:maxLength]) + "..."
}

// Slugify lower-cases text, drops punctuation and joins words with single dashes.
func Slugify(text string) string {
	slug := strings.ToLower(text)
	slug = slugInvalid.ReplaceAllString(slug, "")
	slug = strings.TrimSpace(slug)
	slug = slugWhitespace.ReplaceAllString(slug, "-")
	return slugDashes.ReplaceAllString(slug, "-")
}

// Initials returns the upper-cased first letters of both names.
func Initials(firstName, lastName string) string {
	return firstRune(firstName) + firstRune(lastName)
}

func firstRune(value string) string {
	for _, r := range strings.TrimSpace(value) {
		return string(unicode.ToUpper(r))
	}
	return ""
}

// UniqueID returns a random identifier for client-generated records.
func UniqueID() string {
	return uuid.NewString()
}
