package chunker

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"

	"docsearch/internal/domain"
	"docsearch/internal/port"
)

// PunktSegmenter detects sentence boundaries with the pretrained English
// Punkt model, which knows about abbreviations and initials.
type PunktSegmenter struct {
	tokenizer *sentences.DefaultSentenceTokenizer
}

func NewPunktSegmenter() (*PunktSegmenter, error) {
	tokenizer, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load punkt model: %w", err)
	}
	return &PunktSegmenter{tokenizer: tokenizer}, nil
}

func (s *PunktSegmenter) Segment(text string) []string {
	var out []string
	for _, sent := range s.tokenizer.Tokenize(text) {
		if trimmed := strings.TrimSpace(sent.Text); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// RegexpSegmenter splits on terminal punctuation. It has no model to load and
// is fully deterministic, which makes it the segmenter of choice in tests.
type RegexpSegmenter struct {
	splitter *regexp.Regexp
}

func NewRegexpSegmenter() *RegexpSegmenter {
	return &RegexpSegmenter{
		splitter: regexp.MustCompile(`[^.!?]+(?:[.!?]+|$)`),
	}
}

func (s *RegexpSegmenter) Segment(text string) []string {
	var out []string
	for _, m := range s.splitter.FindAllString(text, -1) {
		if trimmed := strings.TrimSpace(m); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// NewSegmenter builds the segmenter named by kind ("punkt" or "regexp").
func NewSegmenter(kind string) (port.Segmenter, error) {
	switch kind {
	case "punkt", "":
		return NewPunktSegmenter()
	case "regexp":
		return NewRegexpSegmenter(), nil
	default:
		return nil, fmt.Errorf("%w: unsupported segmenter: %s", domain.ErrConfiguration, kind)
	}
}
