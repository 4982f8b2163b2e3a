package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsearch/config"
	"docsearch/internal/domain"
)

func TestNewEmbedder(t *testing.T) {
	ec := config.DefaultConfig().Embedding
	ec.Provider = "hash"
	ec.Dimension = 32
	emb, err := newEmbedder(ec)
	require.NoError(t, err)
	assert.Equal(t, 32, emb.Dimension())
	assert.Equal(t, "hash", emb.ModelName())

	ec.Provider = "carrier-pigeon"
	_, err = newEmbedder(ec)
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	ec.Provider = "compatible"
	ec.BaseURL = ""
	_, err = newEmbedder(ec)
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	ec.Provider = "openai"
	ec.APIKeyEnv = "DOCSEARCH_TEST_UNSET_KEY"
	_, err = newEmbedder(ec)
	assert.Error(t, err)
}

func TestApp_QueryTextDocument(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(doc, []byte("The sky is blue. Stars are far.\fWater is wet."), 0644))

	cfg := config.DefaultConfig()
	cfg.Embedding.Provider = "hash"
	cfg.Embedding.Dimension = 64
	cfg.Segment.Type = "regexp"
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	a, err := NewApp(cfg, dir, logger, true, true)
	require.NoError(t, err)
	defer a.Close()

	ingested, err := a.Ingest().Ingest(context.Background(), doc, nil)
	require.NoError(t, err)
	require.Len(t, ingested.Records, 3)

	search, err := a.NewSearch()
	require.NoError(t, err)
	require.NoError(t, search.Load(ingested.Records, ingested.Pages))

	results, err := search.Search(context.Background(), "water is wet", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "1_0", results[0].ID)
	assert.Equal(t, "Water is wet.", results[0].Text)

	again, err := a.Ingest().Ingest(context.Background(), doc, nil)
	require.NoError(t, err)
	assert.True(t, again.CacheHit)
	assert.FileExists(t, config.CatalogPath(dir))
}

func TestRenderResult(t *testing.T) {
	out := renderResult(1, domain.SearchResult{ID: "2_0", PageIndex: 2, Text: "Water is wet."})
	assert.Contains(t, out, "page 3")
	assert.Contains(t, out, "Water is wet.")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "héé...", truncate("hééllo", 3))
	assert.Equal(t, "星空...", truncate("星空は遠い", 2))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "<1s", formatDuration(0))
}
