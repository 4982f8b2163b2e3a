package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"docsearch/internal/adapter/cache"
	"docsearch/internal/adapter/vectorindex"
	"docsearch/internal/domain"
	"docsearch/internal/port"
)

// SearchUseCase answers text queries against one loaded document.
type SearchUseCase struct {
	embedder       port.Embedder
	metric         vectorindex.Metric
	useRawMetadata bool
	queryCache     *cache.QueryCache
	cached         *cache.CachedSearcher

	mu    sync.RWMutex
	index *vectorindex.Index[string, string]
	pages []domain.Page
}

// NewSearchUseCase creates a new search use case. queryCache may be nil.
func NewSearchUseCase(embedder port.Embedder, metric vectorindex.Metric, useRawMetadata bool, queryCache *cache.QueryCache) *SearchUseCase {
	if metric == nil {
		metric = vectorindex.SquaredL2
	}
	u := &SearchUseCase{
		embedder:       embedder,
		metric:         metric,
		useRawMetadata: useRawMetadata,
		queryCache:     queryCache,
	}
	if queryCache != nil {
		u.cached = cache.NewCachedSearcher(searchFunc(u.search), queryCache)
	}
	return u
}

// Load replaces the searchable content with records, inserted in
// (page, sentence) order, and the pages they came from.
func (u *SearchUseCase) Load(records []domain.SentenceRecord, pages []domain.Page) error {
	sorted := make([]domain.SentenceRecord, len(records))
	copy(sorted, records)
	cache.SortRecords(sorted)

	dim := 0
	if u.embedder != nil {
		dim = u.embedder.Dimension()
	} else if len(sorted) > 0 {
		dim = len(sorted[0].Embedding)
	}
	if dim <= 0 {
		return fmt.Errorf("%w: cannot determine vector dimension", domain.ErrConfiguration)
	}

	opts := []vectorindex.Option{vectorindex.WithMetric(u.metric)}
	if u.embedder != nil {
		opts = append(opts, vectorindex.WithEmbedder(u.embedder))
	}
	index, err := vectorindex.New[string, string](dim, opts...)
	if err != nil {
		return err
	}

	vectors := make([][]float32, len(sorted))
	ids := make([]string, len(sorted))
	metadata := make([]string, len(sorted))
	for i, r := range sorted {
		vectors[i] = r.Embedding
		ids[i] = r.ID()
		if u.useRawMetadata {
			metadata[i] = r.RawSentence
		} else {
			metadata[i] = r.CleanedSentence
		}
	}
	if err := index.AddVectors(vectors, ids, metadata); err != nil {
		return fmt.Errorf("failed to index sentences: %w", err)
	}

	pagesCopy := make([]domain.Page, len(pages))
	copy(pagesCopy, pages)
	sort.Slice(pagesCopy, func(i, j int) bool { return pagesCopy[i].Index < pagesCopy[j].Index })

	u.mu.Lock()
	u.index = index
	u.pages = pagesCopy
	u.mu.Unlock()

	if u.queryCache != nil {
		u.queryCache.Invalidate()
	}
	return nil
}

// Search returns the k sentences nearest to text, nearest first.
func (u *SearchUseCase) Search(ctx context.Context, text string, k int) ([]domain.SearchResult, error) {
	if u.cached != nil {
		return u.cached.Search(ctx, text, k)
	}
	return u.search(ctx, text, k)
}

// SearchUncached is Search without the query cache.
func (u *SearchUseCase) SearchUncached(ctx context.Context, text string, k int) ([]domain.SearchResult, error) {
	return u.search(ctx, text, k)
}

// SearchVector returns the k sentences nearest to an already embedded query.
func (u *SearchUseCase) SearchVector(ctx context.Context, vector []float32, k int) ([]domain.SearchResult, error) {
	return u.neighbors(ctx, vectorindex.ByVector[string](vector), k)
}

func (u *SearchUseCase) search(ctx context.Context, text string, k int) ([]domain.SearchResult, error) {
	index, err := u.loaded()
	if err != nil {
		return nil, err
	}
	if !index.HasEmbedder() {
		return nil, fmt.Errorf("%w: text queries need an embedding provider", domain.ErrNoEmbedder)
	}
	return u.neighbors(ctx, vectorindex.ByText[string](text), k)
}

func (u *SearchUseCase) loaded() (*vectorindex.Index[string, string], error) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	if u.index == nil {
		return nil, fmt.Errorf("%w: no document loaded", domain.ErrNotFound)
	}
	return u.index, nil
}

func (u *SearchUseCase) neighbors(ctx context.Context, q vectorindex.Query[string], k int) ([]domain.SearchResult, error) {
	index, err := u.loaded()
	if err != nil {
		return nil, err
	}

	// Sentence text is joined in only when the loaded records carried any.
	neighbors, err := index.GetNeighbors(ctx, q, k, index.HasMetadata())
	if err != nil {
		return nil, err
	}

	results := make([]domain.SearchResult, 0, len(neighbors))
	for _, n := range neighbors {
		page, sentence, err := domain.ParseSentenceID(n.ID)
		if err != nil {
			return nil, err
		}
		results = append(results, domain.SearchResult{
			ID:            n.ID,
			PageIndex:     page,
			SentenceIndex: sentence,
			Distance:      n.Distance,
			Text:          n.Metadata,
		})
	}
	return results, nil
}

// Pages returns the loaded page texts in page order.
func (u *SearchUseCase) Pages() []domain.Page {
	u.mu.RLock()
	defer u.mu.RUnlock()
	out := make([]domain.Page, len(u.pages))
	copy(out, u.pages)
	return out
}

// Page returns one page by zero-based index.
func (u *SearchUseCase) Page(index int) (domain.Page, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	for _, p := range u.pages {
		if p.Index == index {
			return p, nil
		}
	}
	return domain.Page{}, fmt.Errorf("%w: page %d", domain.ErrNotFound, index)
}

// PageOf returns the page index encoded in a sentence ID.
func (u *SearchUseCase) PageOf(id string) (int, error) {
	page, _, err := domain.ParseSentenceID(id)
	return page, err
}

// Len returns the number of indexed sentences.
func (u *SearchUseCase) Len() int {
	u.mu.RLock()
	defer u.mu.RUnlock()
	if u.index == nil {
		return 0
	}
	return u.index.Len()
}

type searchFunc func(ctx context.Context, query string, k int) ([]domain.SearchResult, error)

func (f searchFunc) Search(ctx context.Context, query string, k int) ([]domain.SearchResult, error) {
	return f(ctx, query, k)
}
