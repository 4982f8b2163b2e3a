package cli

import (
	"fmt"
	"log/slog"

	"docsearch/config"
	"docsearch/internal/adapter/analyzer"
	"docsearch/internal/adapter/cache"
	"docsearch/internal/adapter/chunker"
	"docsearch/internal/adapter/embedding"
	"docsearch/internal/adapter/extract"
	"docsearch/internal/adapter/store"
	"docsearch/internal/adapter/vectorindex"
	"docsearch/internal/domain"
	"docsearch/internal/port"
	"docsearch/internal/usecase"
)

// App holds the components shared by the commands.
type App struct {
	cfg      *config.Config
	embedder port.Embedder
	catalog  *store.Catalog
	ingest   *usecase.IngestUseCase
}

// NewApp wires the ingestion pipeline from configuration. The caller must
// Close the returned App.
func NewApp(cfg *config.Config, dir string, logger *slog.Logger, readCache, writeCache bool) (*App, error) {
	embedder, err := newEmbedder(cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	extractor, err := extract.New(cfg.Extract.Type, cfg.Extract.PDFToTextPath)
	if err != nil {
		return nil, err
	}
	segmenter, err := chunker.NewSegmenter(cfg.Segment.Type)
	if err != nil {
		return nil, err
	}

	var rules []analyzer.Rule
	if cfg.Clean.RulesFile != "" {
		rules, err = analyzer.LoadRules(cfg.Clean.RulesFile)
		if err != nil {
			return nil, err
		}
	}
	tokenizer := analyzer.NewTokenizer(rules, cfg.Ingest.WordSplit, cfg.Ingest.SentenceJoin,
		analyzer.WithUnicodeFolding(cfg.Clean.UnicodeNFKC),
		analyzer.WithStemming(cfg.Clean.Stemming))

	compression, err := cache.ParseCompression(cfg.Cache.Compression)
	if err != nil {
		return nil, err
	}
	files := cache.NewFileStore(cfg.CacheDir(dir), compression, logger)

	fingerprint, err := store.Fingerprint(cfg)
	if err != nil {
		return nil, err
	}

	if err := config.EnsureDataDir(dir); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	catalog, err := store.OpenCatalog(config.CatalogPath(dir))
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}

	ingest := usecase.NewIngestUseCase(extractor, segmenter, tokenizer, embedder, files, catalog,
		usecase.IngestOptions{
			SkipChars:         cfg.Ingest.SkipChars,
			MinSentenceLength: cfg.Ingest.MinSentenceLength,
			BatchSize:         cfg.Ingest.BatchSize,
			ReadCache:         readCache,
			WriteCache:        writeCache,
			VerifyFingerprint: cfg.Cache.VerifyFingerprint,
			Fingerprint:       fingerprint,
		}, logger)

	return &App{
		cfg:      cfg,
		embedder: embedder,
		catalog:  catalog,
		ingest:   ingest,
	}, nil
}

func (a *App) Close() error {
	return a.catalog.Close()
}

func (a *App) Ingest() *usecase.IngestUseCase {
	return a.ingest
}

func (a *App) Embedder() port.Embedder {
	return a.embedder
}

// NewSearch builds a search use case over the configured metric.
func (a *App) NewSearch() (*usecase.SearchUseCase, error) {
	metric, err := vectorindex.MetricByName(a.cfg.Index.Metric)
	if err != nil {
		return nil, err
	}
	var qc *cache.QueryCache
	if a.cfg.Search.QueryCacheSize > 0 {
		qc = cache.NewQueryCache(a.cfg.Search.QueryCacheSize, a.cfg.Search.QueryCacheTTL)
	}
	return usecase.NewSearchUseCase(a.embedder, metric, a.cfg.Ingest.UseRawMetadata, qc), nil
}

// newEmbedder creates the embedder named by the provider setting.
func newEmbedder(ec config.EmbeddingConfig) (port.Embedder, error) {
	opts := embedding.Options{
		Dimension:         ec.Dimension,
		BatchSize:         ec.BatchSize,
		RequestsPerSecond: ec.RequestsPerSecond,
		Timeout:           ec.Timeout,
		Prefixes: embedding.Prefixes{
			Query:    ec.QueryPrefix,
			Document: ec.DocumentPrefix,
		},
	}

	switch ec.Provider {
	case "openai":
		return embedding.NewOpenAIEmbedder(ec.APIKeyEnv, ec.Model, opts)
	case "jina":
		return embedding.NewJinaEmbedder(ec.APIKeyEnv, ec.Model, opts)
	case "ollama":
		return embedding.NewOllamaEmbedder(ec.Model, ec.BaseURL, opts)
	case "compatible":
		if ec.BaseURL == "" {
			return nil, fmt.Errorf("%w: embedding.base_url is required for the compatible provider", domain.ErrConfiguration)
		}
		return embedding.NewOpenAICompatibleEmbedder(ec.APIKeyEnv, ec.Model, ec.BaseURL, opts)
	case "hash":
		return embedding.NewHashEmbedder(ec.Dimension), nil
	default:
		return nil, fmt.Errorf("%w: unsupported embedding provider: %s", domain.ErrConfiguration, ec.Provider)
	}
}
