package analyzer

import (
	"unicode/utf8"

	porterstemmer "github.com/blevesearch/go-porterstemmer"
)

// Stem reduces an English word to its Porter stem. Words shorter than three
// characters are returned unchanged.
func Stem(word string) string {
	if utf8.RuneCountInString(word) < 3 {
		return word
	}
	return porterstemmer.StemString(word)
}

// WithStemming stems every cleaned token, so inflected forms of a word embed
// alike. It runs after the replacement rules.
func WithStemming(enabled bool) TokenizerOption {
	return func(t *Tokenizer) {
		t.stem = enabled
	}
}
