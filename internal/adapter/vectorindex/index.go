// Package vectorindex provides an exact nearest-neighbor index over
// fixed-width vectors.
//
// Vectors are stored under dense internal IDs assigned from 0 in insertion
// order and never reused. Application keys (external IDs) and per-vector
// metadata are kept in plain maps beside the search structure, which lets
// results be joined back to their source without the search structure
// knowing anything about them.
package vectorindex

import (
	"context"
	"fmt"
	"sync"

	"docsearch/internal/domain"
	"docsearch/internal/port"
)

// Index maps external IDs of type K and metadata of type M onto an exact
// search structure. It is safe for concurrent readers; writers serialize.
type Index[K comparable, M any] struct {
	mu       sync.RWMutex
	search   flat
	embedder port.Embedder
	extToInt map[K]int
	intToExt map[int]K
	metadata map[int]M
}

type options struct {
	metric   Metric
	embedder port.Embedder
}

// Option configures an Index.
type Option func(*options)

// WithMetric sets the distance metric. The default is SquaredL2.
func WithMetric(m Metric) Option {
	return func(o *options) {
		if m != nil {
			o.metric = m
		}
	}
}

// WithEmbedder lets the index answer raw text queries.
func WithEmbedder(e port.Embedder) Option {
	return func(o *options) {
		o.embedder = e
	}
}

// New creates an empty index for vectors of width dim.
func New[K comparable, M any](dim int, opts ...Option) (*Index[K, M], error) {
	if dim <= 0 {
		return nil, fmt.Errorf("%w: index dimension must be positive, got %d", domain.ErrConfiguration, dim)
	}
	o := options{metric: SquaredL2}
	for _, opt := range opts {
		opt(&o)
	}
	if o.embedder != nil && o.embedder.Dimension() != dim {
		return nil, fmt.Errorf("%w: embedder %s produces %d dimensions, index expects %d",
			domain.ErrDimensionMismatch, o.embedder.ModelName(), o.embedder.Dimension(), dim)
	}
	return &Index[K, M]{
		search:   flat{dim: dim, metric: o.metric},
		embedder: o.embedder,
		extToInt: make(map[K]int),
		intToExt: make(map[int]K),
		metadata: make(map[int]M),
	}, nil
}

// Neighbor is one search result.
type Neighbor[K comparable, M any] struct {
	InternalID  int
	ID          K
	HasID       bool
	Distance    float64
	Vector      []float32
	Metadata    M
	HasMetadata bool
}

// Query selects the vector to search around. Build one with ByVector,
// ByText or ByID.
type Query[K comparable] struct {
	vector []float32
	text   string
	id     K
	kind   queryKind
}

type queryKind uint8

const (
	queryVector queryKind = 1 << iota
	queryText
	queryID
)

// ByVector searches around v, which must match the index dimension.
func ByVector[K comparable](v []float32) Query[K] {
	return Query[K]{vector: v, kind: queryVector}
}

// ByText embeds text with the index's embedder and searches around it.
func ByText[K comparable](text string) Query[K] {
	return Query[K]{text: text, kind: queryText}
}

// ByID searches around the stored vector of an indexed external ID.
func ByID[K comparable](id K) Query[K] {
	return Query[K]{id: id, kind: queryID}
}

// AddVectors appends vectors, assigning internal IDs in input order. ids and
// metadata are optional (nil); when present they must have one entry per
// vector. Nothing is inserted unless the whole batch is valid.
func (x *Index[K, M]) AddVectors(vectors [][]float32, ids []K, metadata []M) error {
	if ids != nil && len(ids) != len(vectors) {
		return fmt.Errorf("%w: %d vectors but %d ids", domain.ErrDimensionMismatch, len(vectors), len(ids))
	}
	if metadata != nil && len(metadata) != len(vectors) {
		return fmt.Errorf("%w: %d vectors but %d metadata entries", domain.ErrDimensionMismatch, len(vectors), len(metadata))
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	for i, v := range vectors {
		if len(v) != x.search.dim {
			return fmt.Errorf("%w: vector %d has %d dimensions, index expects %d",
				domain.ErrDimensionMismatch, i, len(v), x.search.dim)
		}
	}
	if ids != nil {
		batch := make(map[K]struct{}, len(ids))
		for _, id := range ids {
			if _, ok := x.extToInt[id]; ok {
				return fmt.Errorf("%w: %v is already indexed", domain.ErrDuplicateID, id)
			}
			if _, ok := batch[id]; ok {
				return fmt.Errorf("%w: %v appears twice in batch", domain.ErrDuplicateID, id)
			}
			batch[id] = struct{}{}
		}
	}

	first := x.search.add(vectors)
	for i := range vectors {
		internal := first + i
		if ids != nil {
			x.extToInt[ids[i]] = internal
			x.intToExt[internal] = ids[i]
		}
		if metadata != nil {
			x.metadata[internal] = metadata[i]
		}
	}
	return nil
}

// AddMetadata sets metadata for already indexed external IDs, replacing any
// previous value. Nothing changes unless every ID is mapped.
func (x *Index[K, M]) AddMetadata(ids []K, metadata []M) error {
	if len(ids) != len(metadata) {
		return fmt.Errorf("%w: %d ids but %d metadata entries", domain.ErrDimensionMismatch, len(ids), len(metadata))
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	internal := make([]int, len(ids))
	for i, id := range ids {
		n, ok := x.extToInt[id]
		if !ok {
			return fmt.Errorf("%w: id %v", domain.ErrNotFound, id)
		}
		internal[i] = n
	}
	for i, n := range internal {
		x.metadata[n] = metadata[i]
	}
	return nil
}

// GetVector returns a copy of the vector stored for id.
func (x *Index[K, M]) GetVector(id K) ([]float32, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if x.search.len() == 0 {
		return nil, fmt.Errorf("%w: index is empty", domain.ErrNotFound)
	}
	n, ok := x.extToInt[id]
	if !ok {
		return nil, fmt.Errorf("%w: id %v", domain.ErrNotFound, id)
	}
	return cloneVector(x.search.vectors[n]), nil
}

// GetNeighbors returns the min(k, Len()) nearest vectors to q by ascending
// distance; ties keep insertion order. With includeMetadata set, each result
// carries its metadata, and a non-empty index fails with ErrNoMetadata if
// none was ever supplied. An empty index answers with no neighbors.
func (x *Index[K, M]) GetNeighbors(ctx context.Context, q Query[K], k int, includeMetadata bool) ([]Neighbor[K, M], error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidQuery, k)
	}

	var vector []float32
	switch q.kind {
	case queryVector:
		vector = q.vector
	case queryText:
		if x.embedder == nil {
			return nil, domain.ErrNoEmbedder
		}
		vecs, err := x.embedder.Embed(ctx, []string{q.text}, port.ModeQuery)
		if err != nil {
			return nil, fmt.Errorf("failed to embed query: %w", err)
		}
		if len(vecs) != 1 {
			return nil, fmt.Errorf("embedder returned %d vectors for one query", len(vecs))
		}
		vector = vecs[0]
	case queryID:
	default:
		return nil, fmt.Errorf("%w: exactly one of vector, text or id is required", domain.ErrInvalidQuery)
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	if q.kind == queryID {
		n, ok := x.extToInt[q.id]
		if !ok {
			return nil, fmt.Errorf("%w: id %v", domain.ErrNotFound, q.id)
		}
		vector = x.search.vectors[n]
	}
	if len(vector) != x.search.dim {
		return nil, fmt.Errorf("%w: query has %d dimensions, index expects %d",
			domain.ErrDimensionMismatch, len(vector), x.search.dim)
	}
	if x.search.len() == 0 {
		return []Neighbor[K, M]{}, nil
	}
	if includeMetadata && len(x.metadata) == 0 {
		return nil, domain.ErrNoMetadata
	}

	hits := x.search.search(vector, k)
	out := make([]Neighbor[K, M], len(hits))
	for i, h := range hits {
		nb := Neighbor[K, M]{
			InternalID: h.id,
			Distance:   h.distance,
			Vector:     cloneVector(x.search.vectors[h.id]),
		}
		nb.ID, nb.HasID = x.intToExt[h.id]
		if includeMetadata {
			nb.Metadata, nb.HasMetadata = x.metadata[h.id]
		}
		out[i] = nb
	}
	return out, nil
}

// Len returns the number of indexed vectors.
func (x *Index[K, M]) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.search.len()
}

// Dimension returns the fixed vector width.
func (x *Index[K, M]) Dimension() int {
	return x.search.dim
}

// HasEmbedder reports whether text queries are supported.
func (x *Index[K, M]) HasEmbedder() bool {
	return x.embedder != nil
}

// HasMetadata reports whether any metadata has been supplied.
func (x *Index[K, M]) HasMetadata() bool {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.metadata) > 0
}

func cloneVector(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
