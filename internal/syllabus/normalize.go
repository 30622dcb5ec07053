package syllabus

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxInputChars bounds normalized syllabus text so downstream prompts stay
// within model limits.
const MaxInputChars = 50000

var whitespaceRE = regexp.MustCompile(`\s+`)

// NormalizeText trims the raw extracted text, collapses whitespace runs to
// single spaces and truncates to MaxInputChars on a rune boundary.
func NormalizeText(raw string) (string, error) {
	s := strings.TrimSpace(whitespaceRE.ReplaceAllString(raw, " "))
	if s == "" {
		return "", errors.New("syllabus text is empty")
	}
	if len(s) > MaxInputChars {
		cut := MaxInputChars
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut]
	}
	return s, nil
}
