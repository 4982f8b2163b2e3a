package port

import "context"

// EmbedMode selects how a text is framed before encoding. Asymmetric models
// embed short queries and indexed passages differently.
type EmbedMode int

const (
	ModeDocument EmbedMode = iota
	ModeQuery
)

func (m EmbedMode) String() string {
	if m == ModeQuery {
		return "query"
	}
	return "document"
}

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Embed generates embeddings for the given texts.
	// Returns a slice of vectors, one per input text, in input order.
	Embed(ctx context.Context, texts []string, mode EmbedMode) ([][]float32, error)

	// Dimension returns the embedding vector dimension.
	Dimension() int

	// ModelName returns the name of the embedding model.
	ModelName() string
}
