// Package query turns free text typed by users into the canonical form the
// partition stores are searched with.
package query

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// prefixLen is the number of leading runes kept from each token of a prefix
// query. Shorter tokens are dropped.
const prefixLen = 4

var (
	lower = cases.Lower(language.Und)

	leet = strings.NewReplacer(
		"0", "o",
		"1", "i",
		"3", "e",
		"4", "a",
		"5", "s",
		"7", "t",
	)

	mentionRe = regexp.MustCompile(`@\w+`)
)

// Normalize lower-cases text, maps leetspeak digits back to letters, turns
// every character outside [a-z0-9 ] into a space and collapses whitespace.
// The result is empty for input without any searchable characters.
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	folded := leet.Replace(lower.String(text))

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// Prefix derives the broader fallback query: tokens of at least four
// characters survive, truncated to their first four. Prefix does not
// normalize; pass it normalized text.
func Prefix(text string) string {
	var kept []string
	for _, tok := range strings.Split(text, " ") {
		runes := []rune(tok)
		if len(runes) < prefixLen {
			continue
		}
		if len(runes) > prefixLen {
			runes = runes[:prefixLen]
		}
		kept = append(kept, string(runes))
	}
	return strings.Join(kept, " ")
}

// CleanMention strips @handles from names and captions before they are
// indexed.
func CleanMention(text string) string {
	return strings.TrimSpace(mentionRe.ReplaceAllString(text, ""))
}
