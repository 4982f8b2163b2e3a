package port

import "context"

// Extractor produces the ordered page texts of a document. Page i of the
// result is page index i.
type Extractor interface {
	Pages(ctx context.Context, path string) ([]string, error)
}
