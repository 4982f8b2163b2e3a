package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"docsearch/internal/domain"
)

// QueryCache remembers the ranked sentences returned for a query text against
// the currently loaded document. Entries expire after a TTL and the least
// recently used query is dropped when the cache is full.
//
// Rankings are prefixes of one another: the top 3 sentences are the first 3
// of the top 10. A query is stored once, at the widest k seen, and narrower
// requests are served from that entry.
type QueryCache struct {
	lru *expirable.LRU[string, ranking]
}

type ranking struct {
	k       int
	results []domain.SearchResult
}

// complete reports whether the ranking holds every indexed sentence, so that
// any k can be answered from it.
func (r ranking) complete() bool {
	return len(r.results) < r.k
}

// NewQueryCache creates a cache of up to maxSize queries that live for ttl.
func NewQueryCache(maxSize int, ttl time.Duration) *QueryCache {
	if maxSize <= 0 {
		maxSize = 100
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &QueryCache{lru: expirable.NewLRU[string, ranking](maxSize, nil, ttl)}
}

// Get returns a copy of the k nearest sentences cached for query.
func (c *QueryCache) Get(query string, k int) ([]domain.SearchResult, bool) {
	if k <= 0 {
		return nil, false
	}
	r, ok := c.lru.Get(query)
	if !ok {
		return nil, false
	}
	if k > r.k && !r.complete() {
		return nil, false
	}
	return cloneResults(r.results[:min(k, len(r.results))]), true
}

// Put stores the ranking computed for (query, k) unless a wider one is
// already held.
func (c *QueryCache) Put(query string, k int, results []domain.SearchResult) {
	if held, ok := c.lru.Peek(query); ok && (held.k >= k || held.complete()) {
		return
	}
	c.lru.Add(query, ranking{k: k, results: cloneResults(results)})
}

// Invalidate drops every entry. Call it whenever a different document is
// loaded.
func (c *QueryCache) Invalidate() {
	c.lru.Purge()
}

func (c *QueryCache) Size() int {
	return c.lru.Len()
}

func cloneResults(results []domain.SearchResult) []domain.SearchResult {
	if results == nil {
		return nil
	}
	out := make([]domain.SearchResult, len(results))
	copy(out, results)
	return out
}

// Searcher is the search contract wrapped by CachedSearcher.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]domain.SearchResult, error)
}

// CachedSearcher answers repeated queries from a QueryCache. Query text is
// used verbatim as the key, the same text the embedder sees.
type CachedSearcher struct {
	searcher Searcher
	cache    *QueryCache
}

func NewCachedSearcher(searcher Searcher, cache *QueryCache) *CachedSearcher {
	return &CachedSearcher{searcher: searcher, cache: cache}
}

func (s *CachedSearcher) Search(ctx context.Context, query string, k int) ([]domain.SearchResult, error) {
	if results, ok := s.cache.Get(query, k); ok {
		return results, nil
	}
	results, err := s.searcher.Search(ctx, query, k)
	if err != nil {
		return nil, err
	}
	s.cache.Put(query, k, results)
	return results, nil
}
