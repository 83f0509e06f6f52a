package utils

import (
	"strings"
	"unicode"
)

// Humanize converts a camelCase metric key into lowercase spaced words.
// "grossSalesByChannel" becomes "gross sales by channel". Dots and
// underscores from path segments are left in place.
func Humanize(key string) string {
	var b strings.Builder
	b.Grow(len(key) + 8)

	for _, r := range key {
		if unicode.IsUpper(r) {
			b.WriteByte(' ')
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}

	return strings.TrimSpace(b.String())
}

// SplitWords breaks a metric name into lowercase word fragments, splitting
// on camelCase boundaries as well as whitespace, underscores, dots, and
// hyphens. Used for keyword matching against user prompts.
func SplitWords(name string) []string {
	var words []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			words = append(words, current.String())
			current.Reset()
		}
	}

	for _, r := range name {
		switch {
		case r == ' ' || r == '_' || r == '.' || r == '-' || r == '\t':
			flush()
		case unicode.IsUpper(r):
			flush()
			current.WriteRune(unicode.ToLower(r))
		default:
			current.WriteRune(r)
		}
	}
	flush()

	return words
}
