package port

// Segmenter splits page text into sentences, in reading order.
type Segmenter interface {
	Segment(text string) []string
}
