// ABOUTME: Display-name extraction from chat messages
// ABOUTME: Picks the word following an introduction keyword

package backend

import (
	"strings"
	"unicode/utf8"
)

var nameKeywords = map[string]bool{
	"sou":   true,
	"chamo": true,
	"nome":  true,
}

// ExtractName returns the word after the first introduction keyword in msg,
// with surrounding punctuation removed, or "" when there is none.
func ExtractName(msg string) string {
	words := strings.Fields(msg)
	for i, w := range words {
		if !nameKeywords[strings.ToLower(w)] {
			continue
		}
		if i+1 < len(words) {
			return strings.Trim(words[i+1], ",.:;!?")
		}
		return ""
	}
	return ""
}

// acceptName reports whether an extracted name should replace current.
func acceptName(name, current string) bool {
	return name != "" &&
		name != current &&
		name != AnonymousName &&
		utf8.RuneCountInString(name) > 2
}
