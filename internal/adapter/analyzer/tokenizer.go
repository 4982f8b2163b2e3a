package analyzer

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Tokenizer turns a raw sentence into the cleaned form that gets embedded.
type Tokenizer struct {
	rules     []Rule
	wordSplit string
	join      string
	nfkc      bool
	stem      bool
}

// TokenizerOption configures a Tokenizer.
type TokenizerOption func(*Tokenizer)

// WithUnicodeFolding applies NFKC compatibility folding before the rules run,
// so ligatures and full-width forms from extracted text match plain ASCII rules.
func WithUnicodeFolding(enabled bool) TokenizerOption {
	return func(t *Tokenizer) {
		t.nfkc = enabled
	}
}

// NewTokenizer creates a Tokenizer that splits on wordSplit and rejoins with
// join. Empty separators default to a single space.
func NewTokenizer(rules []Rule, wordSplit, join string, opts ...TokenizerOption) *Tokenizer {
	if wordSplit == "" {
		wordSplit = " "
	}
	if join == "" {
		join = " "
	}
	t := &Tokenizer{
		rules:     rules,
		wordSplit: wordSplit,
		join:      join,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Tokenize splits a sentence on the word separator, lower-cases and trims each
// token, drops empty ones and applies the replacement rules (and stemming, if
// enabled) to the rest.
func (t *Tokenizer) Tokenize(sentence string) []string {
	words := strings.Split(sentence, t.wordSplit)
	tokens := make([]string, 0, len(words))

	for _, word := range words {
		word = strings.TrimSpace(strings.ToLower(word))
		if word == "" {
			continue
		}
		if t.nfkc {
			word = norm.NFKC.String(word)
		}
		word = Clean(word, t.rules)
		if t.stem {
			word = Stem(word)
		}
		tokens = append(tokens, word)
	}

	return tokens
}

// CleanSentence returns the tokens of sentence joined with the join separator.
func (t *Tokenizer) CleanSentence(sentence string) string {
	return strings.Join(t.Tokenize(sentence), t.join)
}
