package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Page is the text of one page of a source document. Index is zero-based.
type Page struct {
	Index int
	Text  string
}

// SentenceRecord is one segmented sentence and, once embedded, its vector.
type SentenceRecord struct {
	PageIndex       int
	SentenceIndex   int
	RawSentence     string
	CleanedSentence string
	Embedding       []float32
}

// ID returns the composite external ID "{page}_{sentence}".
func (r SentenceRecord) ID() string {
	return SentenceID(r.PageIndex, r.SentenceIndex)
}

// Embedded reports whether the record carries an embedding.
func (r SentenceRecord) Embedded() bool {
	return len(r.Embedding) > 0
}

// SentenceID formats a composite external ID.
func SentenceID(page, sentence int) string {
	return strconv.Itoa(page) + "_" + strconv.Itoa(sentence)
}

// ParseSentenceID splits a composite external ID into its page and sentence indexes.
func ParseSentenceID(id string) (page, sentence int, err error) {
	head, tail, ok := strings.Cut(id, "_")
	if !ok {
		return 0, 0, fmt.Errorf("%w: malformed sentence id %q", ErrInvalidQuery, id)
	}
	page, err = strconv.Atoi(head)
	if err != nil || page < 0 {
		return 0, 0, fmt.Errorf("%w: malformed page index in %q", ErrInvalidQuery, id)
	}
	sentence, err = strconv.Atoi(tail)
	if err != nil || sentence < 0 {
		return 0, 0, fmt.Errorf("%w: malformed sentence index in %q", ErrInvalidQuery, id)
	}
	return page, sentence, nil
}

// SearchResult is a ranked sentence traced back to its page.
type SearchResult struct {
	ID            string  `json:"id"`
	PageIndex     int     `json:"page"`
	SentenceIndex int     `json:"sentence"`
	Distance      float64 `json:"distance"`
	Text          string  `json:"text"`
}

// CatalogEntry describes the last build of a document's cache.
type CatalogEntry struct {
	Key         string    `json:"key"`
	Path        string    `json:"path"`
	Pages       int       `json:"pages"`
	Sentences   int       `json:"sentences"`
	Dimension   int       `json:"dimension"`
	Model       string    `json:"model"`
	Fingerprint string    `json:"fingerprint"`
	BuildID     string    `json:"build_id"`
	BuiltAt     time.Time `json:"built_at"`
}
