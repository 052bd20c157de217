package search

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rivo/uniseg"
)

// nonWord matches every rune that is not a letter, mark, number, connector
// punctuation or whitespace.
var nonWord = regexp.MustCompile(`[^\p{L}\p{M}\p{N}\p{Pc}\s]`)

// Tokenize splits text into lowercase index terms. Single-rune tokens and
// stop words are dropped. The result is deterministic for identical input.
func Tokenize(text string) []string {
	cleaned := nonWord.ReplaceAllString(text, " ")

	var tokens []string
	state := -1
	for len(cleaned) > 0 {
		var word string
		word, cleaned, state = uniseg.FirstWordInString(cleaned, state)
		if isSpace(word) {
			continue
		}
		w := strings.ToLower(word)
		if utf8.RuneCountInString(w) <= 1 || stopWords[w] {
			continue
		}
		tokens = append(tokens, w)
	}
	return tokens
}

func isSpace(s string) bool {
	for _, r := range s {
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

// IsStopWord reports whether w (already lowercased) is filtered from indexing.
func IsStopWord(w string) bool {
	return stopWords[w]
}

// stopWords is the fixed set of English function words excluded from terms.
var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true,
	"at": true, "be": true, "been": true, "but": true, "by": true,
	"can": true, "could": true, "did": true, "do": true, "does": true,
	"for": true, "from": true, "had": true, "has": true, "have": true,
	"he": true, "her": true, "him": true, "his": true, "how": true,
	"if": true, "in": true, "into": true, "is": true, "it": true,
	"its": true, "me": true, "my": true, "no": true, "not": true,
	"of": true, "on": true, "or": true, "our": true, "she": true,
	"so": true, "such": true, "than": true, "that": true, "the": true,
	"their": true, "them": true, "then": true, "there": true, "these": true,
	"they": true, "this": true, "those": true, "to": true, "was": true,
	"we": true, "were": true, "what": true, "when": true, "where": true,
	"which": true, "who": true, "will": true, "with": true, "would": true,
	"you": true, "your": true,
}
