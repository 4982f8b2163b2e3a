package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"docsearch/internal/adapter/analyzer"
	"docsearch/internal/adapter/cache"
	"docsearch/internal/domain"
	"docsearch/internal/port"
)

// Ingestion stages reported to a ProgressFunc.
const (
	StageExtract = "extract"
	StageSegment = "segment"
	StageEmbed   = "embed"
	StagePersist = "persist"
)

// ProgressFunc receives stage progress. total is 0 when unknown.
type ProgressFunc func(stage string, done, total int)

// IngestOptions controls one ingestion pipeline.
type IngestOptions struct {
	SkipChars         int
	MinSentenceLength int
	BatchSize         int
	ReadCache         bool
	WriteCache        bool
	VerifyFingerprint bool
	Fingerprint       string
}

// IngestUseCase turns a document into embedded sentence records, reusing
// the artifact cache when it can.
type IngestUseCase struct {
	extractor port.Extractor
	segmenter port.Segmenter
	tokenizer *analyzer.Tokenizer
	embedder  port.Embedder
	cache     port.CacheStore
	catalog   port.Catalog
	opts      IngestOptions
	logger    *slog.Logger
}

// NewIngestUseCase creates a new ingest use case. cacheStore and catalog may
// be nil.
func NewIngestUseCase(
	extractor port.Extractor,
	segmenter port.Segmenter,
	tokenizer *analyzer.Tokenizer,
	embedder port.Embedder,
	cacheStore port.CacheStore,
	catalog port.Catalog,
	opts IngestOptions,
	logger *slog.Logger,
) *IngestUseCase {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 64
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &IngestUseCase{
		extractor: extractor,
		segmenter: segmenter,
		tokenizer: tokenizer,
		embedder:  embedder,
		cache:     cacheStore,
		catalog:   catalog,
		opts:      opts,
		logger:    logger,
	}
}

// IngestResult contains the outcome of ingesting one document.
type IngestResult struct {
	Path      string
	Key       string
	Pages     []domain.Page
	Records   []domain.SentenceRecord
	CacheHit  bool
	Rebuilt   bool // a cache existed but could not be used
	Persisted bool
	Dropped   int // sentences shorter than MinSentenceLength
	Duration  time.Duration
}

// buildContext carries the working state between pipeline stages.
type buildContext struct {
	path    string
	pages   []domain.Page
	records []domain.SentenceRecord
	dropped int
}

// Ingest runs the pipeline for one document. progress may be nil.
func (u *IngestUseCase) Ingest(ctx context.Context, path string, progress ProgressFunc) (*IngestResult, error) {
	start := time.Now()
	if progress == nil {
		progress = func(string, int, int) {}
	}
	result := &IngestResult{Path: path, Key: cache.Key(path)}

	if records, pages, ok := u.loadCached(path, result); ok {
		result.Records = records
		result.Pages = pages
		result.CacheHit = true
		result.Duration = time.Since(start)
		u.logger.Debug("loaded from cache", "path", path, "sentences", len(records))
		return result, nil
	}

	bc := &buildContext{path: path}
	if err := u.extract(ctx, bc, progress); err != nil {
		return nil, err
	}
	u.segment(bc, progress)
	if err := u.embed(ctx, bc, progress); err != nil {
		return nil, err
	}
	result.Persisted = u.persist(bc, progress)

	result.Pages = bc.pages
	result.Records = bc.records
	result.Dropped = bc.dropped
	result.Duration = time.Since(start)
	u.logger.Info("document ingested",
		"path", path,
		"pages", len(bc.pages),
		"sentences", len(bc.records),
		"dropped", bc.dropped,
		"duration", result.Duration)
	return result, nil
}

// loadCached returns the cached build for path when reading is enabled, both
// artifacts decode and the build still matches the current configuration.
func (u *IngestUseCase) loadCached(path string, result *IngestResult) ([]domain.SentenceRecord, []domain.Page, bool) {
	if !u.opts.ReadCache || u.cache == nil || !u.cache.Exists(path) {
		return nil, nil, false
	}

	if u.catalog != nil && u.opts.VerifyFingerprint {
		entry, err := u.catalog.Get(result.Key)
		switch {
		case err == nil && entry.Fingerprint != u.opts.Fingerprint:
			u.logger.Warn("cache built with different settings, rebuilding",
				"path", path, "cached", entry.Fingerprint, "current", u.opts.Fingerprint)
			result.Rebuilt = true
			return nil, nil, false
		case err != nil && !errors.Is(err, domain.ErrNotFound):
			u.logger.Warn("catalog lookup failed", "path", path, "error", err)
		}
	}

	records, pages, err := u.cache.Load(path)
	if err != nil {
		result.Rebuilt = true
		return nil, nil, false
	}
	dim := u.embedder.Dimension()
	for _, r := range records {
		if len(r.Embedding) != dim {
			u.logger.Warn("cached embeddings have a different width, rebuilding",
				"path", path, "id", r.ID(), "cached", len(r.Embedding), "expected", dim)
			result.Rebuilt = true
			return nil, nil, false
		}
	}
	return records, pages, true
}

func (u *IngestUseCase) extract(ctx context.Context, bc *buildContext, progress ProgressFunc) error {
	texts, err := u.extractor.Pages(ctx, bc.path)
	if err != nil {
		return fmt.Errorf("failed to extract %s: %w", bc.path, err)
	}

	bc.pages = make([]domain.Page, len(texts))
	for i, text := range texts {
		bc.pages[i] = domain.Page{Index: i, Text: skipRunes(text, u.opts.SkipChars)}
	}
	progress(StageExtract, len(texts), len(texts))
	return nil
}

func (u *IngestUseCase) segment(bc *buildContext, progress ProgressFunc) {
	for _, page := range bc.pages {
		for j, sentence := range u.segmenter.Segment(page.Text) {
			if u.opts.MinSentenceLength > 0 && utf8.RuneCountInString(sentence) < u.opts.MinSentenceLength {
				bc.dropped++
				continue
			}
			bc.records = append(bc.records, domain.SentenceRecord{
				PageIndex:       page.Index,
				SentenceIndex:   j,
				RawSentence:     sentence,
				CleanedSentence: u.tokenizer.CleanSentence(sentence),
			})
		}
		progress(StageSegment, page.Index+1, len(bc.pages))
	}
}

func (u *IngestUseCase) embed(ctx context.Context, bc *buildContext, progress ProgressFunc) error {
	total := len(bc.records)
	for start := 0; start < total; start += u.opts.BatchSize {
		end := min(start+u.opts.BatchSize, total)

		texts := make([]string, end-start)
		for i := range texts {
			texts[i] = bc.records[start+i].CleanedSentence
		}
		vectors, err := u.embedder.Embed(ctx, texts, port.ModeDocument)
		if err != nil {
			return fmt.Errorf("failed to embed sentences %d-%d of %s: %w", start, end, bc.path, err)
		}
		if len(vectors) != len(texts) {
			return fmt.Errorf("embedder returned %d vectors for %d sentences", len(vectors), len(texts))
		}
		for i, v := range vectors {
			bc.records[start+i].Embedding = v
		}
		progress(StageEmbed, end, total)
	}
	return nil
}

// persist writes the artifacts and the catalog entry. Failures are logged
// and reported as false; the in-memory build is still usable.
func (u *IngestUseCase) persist(bc *buildContext, progress ProgressFunc) bool {
	if !u.opts.WriteCache || u.cache == nil {
		return false
	}

	err := u.cache.Save(bc.path, bc.records, bc.pages)
	progress(StagePersist, 1, 1)
	if errors.Is(err, domain.ErrSkippedEmpty) {
		u.logger.Debug("nothing to cache", "path", bc.path)
		return false
	}
	if err != nil {
		u.logger.Warn("failed to write cache", "path", bc.path, "error", err)
		return false
	}

	if u.catalog != nil {
		entry := domain.CatalogEntry{
			Key:         cache.Key(bc.path),
			Path:        bc.path,
			Pages:       len(bc.pages),
			Sentences:   len(bc.records),
			Dimension:   u.embedder.Dimension(),
			Model:       u.embedder.ModelName(),
			Fingerprint: u.opts.Fingerprint,
		}
		if err := u.catalog.Put(entry); err != nil {
			u.logger.Warn("failed to record build in catalog", "path", bc.path, "error", err)
		}
	}
	return true
}

// skipRunes drops the first n characters of s.
func skipRunes(s string, n int) string {
	for i := range s {
		if n == 0 {
			return s[i:]
		}
		n--
	}
	return ""
}
