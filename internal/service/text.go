package service

import (
	"strings"
	"unicode"
)

// cleanText trims user supplied plain text and drops control characters other
// than line breaks and tabs. Markup is kept verbatim; escaping happens where
// the text is rendered.
func cleanText(value string) string {
	value = strings.ToValidUTF8(value, "")
	value = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, value)
	return strings.TrimSpace(value)
}
