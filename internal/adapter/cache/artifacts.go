package cache

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"docsearch/internal/domain"
)

// Compression selects how artifacts are written. Reads detect the format
// from the leading bytes regardless of this setting.
type Compression string

const (
	CompressionNone Compression = "none"
	CompressionGzip Compression = "gzip"
	CompressionZstd Compression = "zstd"
)

var (
	gzipMagic = []byte{0x1f, 0x8b, 0x08}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// ParseCompression validates a compression name. Empty means none.
func ParseCompression(s string) (Compression, error) {
	switch c := Compression(strings.ToLower(s)); c {
	case "", CompressionNone:
		return CompressionNone, nil
	case CompressionGzip, CompressionZstd:
		return c, nil
	default:
		return "", fmt.Errorf("%w: unsupported cache compression: %s", domain.ErrConfiguration, s)
	}
}

// FileStore keeps two artifacts per document in a directory: the sentence
// records and, under the same name with a "_raw" suffix, the page texts.
// Both are written or neither is.
type FileStore struct {
	dir         string
	compression Compression
	logger      *slog.Logger
}

func NewFileStore(dir string, compression Compression, logger *slog.Logger) *FileStore {
	if compression == "" {
		compression = CompressionNone
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FileStore{dir: dir, compression: compression, logger: logger}
}

// recordJSON is the on-disk shape of one sentence record.
type recordJSON struct {
	Raw   string    `json:"sentence_raw"`
	Clean string    `json:"sentence_clean"`
	Embed []float32 `json:"embed"`
}

// Key derives the cache name for a document path: the base name up to its
// first dot, with anything outside [A-Za-z0-9_-] replaced.
func Key(documentPath string) string {
	name := filepath.Base(documentPath)
	if i := strings.Index(name, "."); i > 0 {
		name = name[:i]
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "document"
	}
	return b.String()
}

// Paths returns the record and raw page artifact paths for a document.
func (s *FileStore) Paths(documentPath string) (records, pages string) {
	base := filepath.Join(s.dir, Key(documentPath))
	return base, base + "_raw"
}

// Exists reports whether both artifacts are present.
func (s *FileStore) Exists(documentPath string) bool {
	recordsPath, pagesPath := s.Paths(documentPath)
	return fileExists(recordsPath) && fileExists(pagesPath)
}

// Load reads both artifacts. Any failure yields ErrCacheDecode and no data.
func (s *FileStore) Load(documentPath string) ([]domain.SentenceRecord, []domain.Page, error) {
	recordsPath, pagesPath := s.Paths(documentPath)

	records, err := loadRecords(recordsPath)
	if err != nil {
		s.logger.Warn("cache not usable, rebuilding from source", "path", recordsPath, "error", err)
		return nil, nil, fmt.Errorf("%w: %s: %v", domain.ErrCacheDecode, recordsPath, err)
	}
	pages, err := loadPages(pagesPath)
	if err != nil {
		s.logger.Warn("cache not usable, rebuilding from source", "path", pagesPath, "error", err)
		return nil, nil, fmt.Errorf("%w: %s: %v", domain.ErrCacheDecode, pagesPath, err)
	}
	return records, pages, nil
}

// Save writes both artifacts. It refuses, with ErrSkippedEmpty, when either
// collection is empty, leaving any existing artifacts untouched.
func (s *FileStore) Save(documentPath string, records []domain.SentenceRecord, pages []domain.Page) error {
	if len(records) == 0 || len(pages) == 0 {
		s.logger.Warn("no contents to save, cache left untouched",
			"document", documentPath, "records", len(records), "pages", len(pages))
		return domain.ErrSkippedEmpty
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	recordMap := make(map[string]recordJSON, len(records))
	for _, r := range records {
		recordMap[r.ID()] = recordJSON{Raw: r.RawSentence, Clean: r.CleanedSentence, Embed: r.Embedding}
	}
	pageMap := make(map[string]string, len(pages))
	for _, p := range pages {
		pageMap[strconv.Itoa(p.Index)] = p.Text
	}

	recordsPath, pagesPath := s.Paths(documentPath)
	recordsTmp, err := s.writeTemp(recordsPath, recordMap)
	if err != nil {
		return err
	}
	pagesTmp, err := s.writeTemp(pagesPath, pageMap)
	if err != nil {
		os.Remove(recordsTmp)
		return err
	}

	if err := os.Rename(recordsTmp, recordsPath); err != nil {
		os.Remove(recordsTmp)
		os.Remove(pagesTmp)
		return fmt.Errorf("failed to commit cache: %w", err)
	}
	if err := os.Rename(pagesTmp, pagesPath); err != nil {
		os.Remove(pagesTmp)
		os.Remove(recordsPath)
		return fmt.Errorf("failed to commit cache: %w", err)
	}
	return nil
}

// Remove deletes both artifacts if present.
func (s *FileStore) Remove(documentPath string) error {
	recordsPath, pagesPath := s.Paths(documentPath)
	for _, p := range []string{recordsPath, pagesPath} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}

func (s *FileStore) writeTemp(target string, v any) (string, error) {
	f, err := os.CreateTemp(filepath.Dir(target), filepath.Base(target)+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("failed to create cache file: %w", err)
	}
	name := f.Name()

	if err := encode(f, v, s.compression); err != nil {
		f.Close()
		os.Remove(name)
		return "", fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(name)
		return "", fmt.Errorf("failed to write cache file: %w", err)
	}
	return name, nil
}

func encode(w io.Writer, v any, compression Compression) error {
	switch compression {
	case CompressionGzip:
		zw := gzip.NewWriter(w)
		if err := json.NewEncoder(zw).Encode(v); err != nil {
			zw.Close()
			return err
		}
		return zw.Close()
	case CompressionZstd:
		zw, err := zstd.NewWriter(w)
		if err != nil {
			return err
		}
		if err := json.NewEncoder(zw).Encode(v); err != nil {
			zw.Close()
			return err
		}
		return zw.Close()
	default:
		return json.NewEncoder(w).Encode(v)
	}
}

// decode reads JSON from path, decompressing when the leading bytes carry a
// gzip or zstd magic number.
func decode(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	br := bufio.NewReader(f)
	head, _ := br.Peek(len(zstdMagic))

	var r io.Reader = br
	switch {
	case bytes.HasPrefix(head, gzipMagic):
		zr, err := gzip.NewReader(br)
		if err != nil {
			return err
		}
		defer zr.Close()
		r = zr
	case bytes.HasPrefix(head, zstdMagic):
		zr, err := zstd.NewReader(br)
		if err != nil {
			return err
		}
		defer zr.Close()
		r = zr
	}

	return json.NewDecoder(r).Decode(v)
}

func loadRecords(path string) ([]domain.SentenceRecord, error) {
	var raw map[string]recordJSON
	if err := decode(path, &raw); err != nil {
		return nil, err
	}

	records := make([]domain.SentenceRecord, 0, len(raw))
	for id, r := range raw {
		page, sentence, err := domain.ParseSentenceID(id)
		if err != nil {
			return nil, err
		}
		if len(r.Embed) == 0 {
			return nil, fmt.Errorf("record %s has no embedding", id)
		}
		records = append(records, domain.SentenceRecord{
			PageIndex:       page,
			SentenceIndex:   sentence,
			RawSentence:     r.Raw,
			CleanedSentence: r.Clean,
			Embedding:       r.Embed,
		})
	}
	SortRecords(records)
	return records, nil
}

func loadPages(path string) ([]domain.Page, error) {
	var raw map[string]string
	if err := decode(path, &raw); err != nil {
		return nil, err
	}

	pages := make([]domain.Page, 0, len(raw))
	for key, text := range raw {
		idx, err := strconv.Atoi(key)
		if err != nil || idx < 0 {
			return nil, fmt.Errorf("bad page index %q", key)
		}
		pages = append(pages, domain.Page{Index: idx, Text: text})
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].Index < pages[j].Index })
	return pages, nil
}

// SortRecords orders records by page, then sentence.
func SortRecords(records []domain.SentenceRecord) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].PageIndex != records[j].PageIndex {
			return records[i].PageIndex < records[j].PageIndex
		}
		return records[i].SentenceIndex < records[j].SentenceIndex
	})
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
