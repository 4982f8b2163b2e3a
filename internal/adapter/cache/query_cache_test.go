package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsearch/internal/domain"
)

// rankedSearcher returns k results out of a fixed corpus size.
type rankedSearcher struct {
	corpus int
	calls  int
}

func (s *rankedSearcher) Search(_ context.Context, query string, k int) ([]domain.SearchResult, error) {
	s.calls++
	n := min(k, s.corpus)
	out := make([]domain.SearchResult, n)
	for i := range out {
		out[i] = domain.SearchResult{ID: fmt.Sprintf("0_%d", i), Text: query, Distance: float64(i)}
	}
	return out, nil
}

func TestQueryCache_GetPut(t *testing.T) {
	c := NewQueryCache(10, time.Minute)

	_, hit := c.Get("sky", 5)
	assert.False(t, hit)

	c.Put("sky", 2, []domain.SearchResult{{ID: "0_0"}, {ID: "0_1"}})
	results, hit := c.Get("sky", 2)
	require.True(t, hit)
	assert.Equal(t, "0_0", results[0].ID)

	_, hit = c.Get("sky", 3)
	assert.False(t, hit, "a wider ranking cannot come from a narrower one")

	_, hit = c.Get("sky", 0)
	assert.False(t, hit)
}

func TestQueryCache_NarrowerKServedFromWider(t *testing.T) {
	c := NewQueryCache(10, time.Minute)
	c.Put("sky", 3, []domain.SearchResult{{ID: "0_0"}, {ID: "0_1"}, {ID: "1_0"}})

	results, hit := c.Get("sky", 1)
	require.True(t, hit)
	assert.Equal(t, []domain.SearchResult{{ID: "0_0"}}, results)

	c.Put("sky", 1, []domain.SearchResult{{ID: "0_0"}})
	results, hit = c.Get("sky", 3)
	require.True(t, hit, "narrower put must not replace the wider ranking")
	assert.Len(t, results, 3)
}

func TestQueryCache_CompleteRankingServesAnyK(t *testing.T) {
	c := NewQueryCache(10, time.Minute)
	// Only two sentences are indexed, so k=5 returned everything.
	c.Put("sky", 5, []domain.SearchResult{{ID: "0_0"}, {ID: "0_1"}})

	results, hit := c.Get("sky", 50)
	require.True(t, hit)
	assert.Len(t, results, 2)
}

func TestQueryCache_ResultsAreCopied(t *testing.T) {
	c := NewQueryCache(10, time.Minute)
	stored := []domain.SearchResult{{ID: "0_0", Text: "The sky is blue."}}
	c.Put("sky", 1, stored)
	stored[0].Text = "changed by caller"

	first, hit := c.Get("sky", 1)
	require.True(t, hit)
	assert.Equal(t, "The sky is blue.", first[0].Text)

	first[0].Text = "changed again"
	second, _ := c.Get("sky", 1)
	assert.Equal(t, "The sky is blue.", second[0].Text)
}

func TestQueryCache_Eviction(t *testing.T) {
	c := NewQueryCache(2, time.Minute)
	c.Put("a", 1, nil)
	c.Put("b", 1, nil)
	c.Get("a", 1)
	c.Put("c", 1, nil)

	assert.Equal(t, 2, c.Size())
	_, hit := c.Get("b", 1)
	assert.False(t, hit, "least recently used entry should be evicted")
	_, hit = c.Get("a", 1)
	assert.True(t, hit)
}

func TestQueryCache_TTL(t *testing.T) {
	c := NewQueryCache(10, 20*time.Millisecond)
	c.Put("a", 1, nil)
	time.Sleep(60 * time.Millisecond)
	_, hit := c.Get("a", 1)
	assert.False(t, hit)
}

func TestCachedSearcher_InvalidateOnReload(t *testing.T) {
	inner := &rankedSearcher{corpus: 10}
	qc := NewQueryCache(10, time.Minute)
	s := NewCachedSearcher(inner, qc)
	ctx := context.Background()

	_, err := s.Search(ctx, "sky", 3)
	require.NoError(t, err)
	_, err = s.Search(ctx, "sky", 3)
	require.NoError(t, err)
	results, err := s.Search(ctx, "sky", 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Equal(t, 1, inner.calls)

	qc.Invalidate()
	assert.Zero(t, qc.Size())
	_, err = s.Search(ctx, "sky", 3)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestCachedSearcher_QueryTextIsVerbatim(t *testing.T) {
	inner := &rankedSearcher{corpus: 10}
	s := NewCachedSearcher(inner, NewQueryCache(10, time.Minute))
	ctx := context.Background()

	_, err := s.Search(ctx, "the sky", 1)
	require.NoError(t, err)
	_, err = s.Search(ctx, "The  sky", 1)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls, "differently written queries embed differently")
}
