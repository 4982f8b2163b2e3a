package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for docsearch.
type Config struct {
	Ingest    IngestConfig    `yaml:"ingest"`
	Clean     CleanConfig     `yaml:"clean"`
	Segment   SegmentConfig   `yaml:"segment"`
	Extract   ExtractConfig   `yaml:"extract"`
	Cache     CacheConfig     `yaml:"cache"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Index     IndexConfig     `yaml:"index"`
	Search    SearchConfig    `yaml:"search"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// IngestConfig controls how pages become sentence records.
type IngestConfig struct {
	Includes          []string `yaml:"includes"` // Patterns for documents found by walking a directory
	Excludes          []string `yaml:"excludes"`
	SkipChars         int      `yaml:"skip_chars"`          // Leading characters dropped from every page
	MinSentenceLength int      `yaml:"min_sentence_length"` // 0 = keep all sentences
	WordSplit         string   `yaml:"word_split"`
	SentenceJoin      string   `yaml:"sentence_join"`
	BatchSize         int      `yaml:"batch_size"`
	UseRawMetadata    bool     `yaml:"use_raw_metadata"` // Index metadata is the raw sentence rather than the cleaned one
}

// CleanConfig holds the word normalization rules.
type CleanConfig struct {
	RulesFile   string `yaml:"rules_file"` // YAML file with a "replace:" mapping; empty = no rules
	UnicodeNFKC bool   `yaml:"unicode_nfkc"`
	Stemming    bool   `yaml:"stemming"` // Porter-stem cleaned tokens
}

// SegmentConfig selects the sentence segmenter.
type SegmentConfig struct {
	Type string `yaml:"type"` // "punkt", "regexp"
}

// ExtractConfig selects the page extractor.
type ExtractConfig struct {
	Type          string `yaml:"type"` // "auto", "pdf", "text"
	PDFToTextPath string `yaml:"pdftotext_path"`
}

// CacheConfig holds the artifact cache configuration.
type CacheConfig struct {
	Dir               string `yaml:"dir"`
	Read              bool   `yaml:"read"`
	Write             bool   `yaml:"write"`
	Compression       string `yaml:"compression"` // "none", "gzip", "zstd"
	VerifyFingerprint bool   `yaml:"verify_fingerprint"`
}

// EmbeddingConfig holds embedding configuration.
type EmbeddingConfig struct {
	Provider          string        `yaml:"provider"`    // "openai", "ollama", "jina", "compatible", "hash"
	Model             string        `yaml:"model"`       // e.g., "text-embedding-3-small"
	APIKeyEnv         string        `yaml:"api_key_env"` // Environment variable for API key
	BaseURL           string        `yaml:"base_url"`
	Dimension         int           `yaml:"dimension"`
	BatchSize         int           `yaml:"batch_size"`
	QueryPrefix       string        `yaml:"query_prefix"`
	DocumentPrefix    string        `yaml:"document_prefix"`
	RequestsPerSecond float64       `yaml:"requests_per_second"` // 0 = unlimited
	Timeout           time.Duration `yaml:"timeout"`
}

// IndexConfig holds vector index configuration.
type IndexConfig struct {
	Metric string `yaml:"metric"` // "l2", "cosine", "ip"
}

// SearchConfig holds query configuration.
type SearchConfig struct {
	TopK           int           `yaml:"top_k"`
	QueryCacheSize int           `yaml:"query_cache_size"` // 0 = disabled
	QueryCacheTTL  time.Duration `yaml:"query_cache_ttl"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Ingest: IngestConfig{
			Includes:       []string{"**/*.pdf", "**/*.txt"},
			Excludes:       []string{"**/.docsearch/**", "**/.git/**", "**/node_modules/**"},
			SkipChars:      0,
			WordSplit:      " ",
			SentenceJoin:   " ",
			BatchSize:      64,
			UseRawMetadata: true,
		},
		Segment: SegmentConfig{
			Type: "punkt",
		},
		Extract: ExtractConfig{
			Type:          "auto",
			PDFToTextPath: "pdftotext",
		},
		Cache: CacheConfig{
			Dir:               ".docsearch/cache",
			Read:              true,
			Write:             true,
			Compression:       "none",
			VerifyFingerprint: true,
		},
		Embedding: EmbeddingConfig{
			Provider:  "openai",
			Model:     "text-embedding-3-small",
			APIKeyEnv: "OPENAI_API_KEY",
			Dimension: 1536,
			BatchSize: 100,
			Timeout:   60 * time.Second,
		},
		Index: IndexConfig{
			Metric: "l2",
		},
		Search: SearchConfig{
			TopK:           5,
			QueryCacheSize: 256,
			QueryCacheTTL:  10 * time.Minute,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate rejects values no component can work with.
func (c *Config) Validate() error {
	if c.Ingest.SkipChars < 0 {
		return fmt.Errorf("ingest.skip_chars must not be negative, got %d", c.Ingest.SkipChars)
	}
	if c.Ingest.MinSentenceLength < 0 {
		return fmt.Errorf("ingest.min_sentence_length must not be negative, got %d", c.Ingest.MinSentenceLength)
	}
	if c.Embedding.Dimension <= 0 {
		return fmt.Errorf("embedding.dimension must be positive, got %d", c.Embedding.Dimension)
	}
	if c.Search.TopK <= 0 {
		return fmt.Errorf("search.top_k must be positive, got %d", c.Search.TopK)
	}
	return nil
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	// Relative rules files resolve against the config file's directory.
	if cfg.Clean.RulesFile != "" && !filepath.IsAbs(cfg.Clean.RulesFile) {
		cfg.Clean.RulesFile = filepath.Join(filepath.Dir(path), cfg.Clean.RulesFile)
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for docsearch.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "docsearch.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".docsearch", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// CacheDir returns the artifact cache directory, resolved against dir when
// relative.
func (c *Config) CacheDir(dir string) string {
	if filepath.IsAbs(c.Cache.Dir) {
		return c.Cache.Dir
	}
	return filepath.Join(dir, c.Cache.Dir)
}

// CatalogPath returns the path to the build catalog database.
func CatalogPath(dir string) string {
	return filepath.Join(dir, ".docsearch", "catalog.db")
}

// EnsureDataDir ensures the .docsearch directory exists.
func EnsureDataDir(dir string) error {
	return os.MkdirAll(filepath.Join(dir, ".docsearch"), 0755)
}
