package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsearch/internal/port"
)

// fakeAPI serves /embeddings and returns, for each input, a vector whose
// first element is the input length.
type fakeAPI struct {
	mu       sync.Mutex
	requests []embeddingRequest
	status   int
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req embeddingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if f.status != 0 {
		http.Error(w, "boom", f.status)
		return
	}

	resp := embeddingResponse{}
	// Reverse order to exercise index-based placement.
	for i := len(req.Input) - 1; i >= 0; i-- {
		resp.Data = append(resp.Data, embeddingData{
			Index:     i,
			Embedding: []float32{float32(len(req.Input[i])), 0, 1},
		})
	}
	json.NewEncoder(w).Encode(resp)
}

func newTestEmbedder(t *testing.T, api *fakeAPI, opts Options) *OpenAIEmbedder {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	t.Setenv("TEST_EMBED_KEY", "secret")

	opts.Dimension = 3
	e, err := NewOpenAICompatibleEmbedder("TEST_EMBED_KEY", "test-model", srv.URL, opts)
	require.NoError(t, err)
	return e
}

func TestOpenAIEmbedder_BatchesAndOrder(t *testing.T) {
	api := &fakeAPI{}
	e := newTestEmbedder(t, api, Options{BatchSize: 2})

	texts := []string{"a", "bb", "ccc", "dddd", "eeeee"}
	vecs, err := e.Embed(context.Background(), texts, port.ModeDocument)
	require.NoError(t, err)
	require.Len(t, vecs, len(texts))
	for i, v := range vecs {
		assert.Equal(t, float32(len(texts[i])), v[0], "vector %d out of order", i)
	}

	assert.Len(t, api.requests, 3)
	assert.Equal(t, "test-model", api.requests[0].Model)
	assert.Equal(t, 3, e.Dimension())
	assert.Equal(t, "test-model", e.ModelName())
}

func TestOpenAIEmbedder_ModePrefixes(t *testing.T) {
	api := &fakeAPI{}
	e := newTestEmbedder(t, api, Options{Prefixes: Prefixes{Query: "search_query: ", Document: "search_document: "}})

	_, err := e.Embed(context.Background(), []string{"stars"}, port.ModeQuery)
	require.NoError(t, err)
	_, err = e.Embed(context.Background(), []string{"stars"}, port.ModeDocument)
	require.NoError(t, err)

	require.Len(t, api.requests, 2)
	assert.Equal(t, []string{"search_query: stars"}, api.requests[0].Input)
	assert.Equal(t, []string{"search_document: stars"}, api.requests[1].Input)
}

func TestOpenAIEmbedder_HTTPError(t *testing.T) {
	api := &fakeAPI{status: http.StatusTooManyRequests}
	e := newTestEmbedder(t, api, Options{})

	_, err := e.Embed(context.Background(), []string{"x"}, port.ModeDocument)
	assert.ErrorContains(t, err, "429")
}

func TestOpenAIEmbedder_DimensionCheck(t *testing.T) {
	api := &fakeAPI{}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	t.Setenv("TEST_EMBED_KEY", "secret")

	e, err := NewOpenAICompatibleEmbedder("TEST_EMBED_KEY", "text-embedding-3-small", srv.URL, Options{})
	require.NoError(t, err)

	_, err = e.Embed(context.Background(), []string{"x"}, port.ModeDocument)
	assert.ErrorContains(t, err, "expected 1536")
}

func TestOpenAIEmbedder_MissingKey(t *testing.T) {
	t.Setenv("TEST_EMBED_KEY", "")
	_, err := NewOpenAIEmbedder("TEST_EMBED_KEY", "text-embedding-3-small", Options{})
	assert.Error(t, err)
}

func TestOpenAIEmbedder_EmptyInput(t *testing.T) {
	api := &fakeAPI{}
	e := newTestEmbedder(t, api, Options{})

	vecs, err := e.Embed(context.Background(), nil, port.ModeDocument)
	require.NoError(t, err)
	assert.Nil(t, vecs)
	assert.Empty(t, api.requests)
}

func TestOllamaEmbedder_Defaults(t *testing.T) {
	e, err := NewOllamaEmbedder("mxbai-embed-large", "", Options{})
	require.NoError(t, err)
	assert.Equal(t, 1024, e.Dimension())
	assert.Equal(t, "http://localhost:11434/v1", e.baseURL)
}

func TestHashEmbedder(t *testing.T) {
	e := NewHashEmbedder(64)
	ctx := context.Background()

	vecs, err := e.Embed(ctx, []string{"the sky is blue", "The SKY is blue!", "water is wet", ""}, port.ModeDocument)
	require.NoError(t, err)
	require.Len(t, vecs, 4)

	for _, v := range vecs {
		assert.Len(t, v, 64)
	}
	assert.Equal(t, vecs[0], vecs[1], "case and punctuation should not matter")
	assert.NotEqual(t, vecs[0], vecs[2])

	var sum float64
	for _, x := range vecs[0] {
		sum += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, sum, 1e-5)

	for _, x := range vecs[3] {
		assert.Zero(t, x)
	}

	query, err := e.Embed(ctx, []string{"the sky is blue"}, port.ModeQuery)
	require.NoError(t, err)
	assert.Equal(t, vecs[0], query[0])
	assert.Equal(t, "hash", e.ModelName())
}
