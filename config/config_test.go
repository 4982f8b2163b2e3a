package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Ingest.WordSplit != " " {
		t.Errorf("expected WordSplit=' ', got %q", cfg.Ingest.WordSplit)
	}
	if cfg.Ingest.SentenceJoin != " " {
		t.Errorf("expected SentenceJoin=' ', got %q", cfg.Ingest.SentenceJoin)
	}
	if !cfg.Cache.Read || !cfg.Cache.Write {
		t.Error("expected cache read and write enabled by default")
	}
	if cfg.Search.TopK != 5 {
		t.Errorf("expected TopK=5, got %d", cfg.Search.TopK)
	}
	if cfg.Index.Metric != "l2" {
		t.Errorf("expected Metric=l2, got %s", cfg.Index.Metric)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoad_NonExistent(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	if err != nil {
		t.Errorf("expected no error for non-existent file, got %v", err)
	}
	if cfg == nil {
		t.Error("expected default config, got nil")
	}
}

func TestLoad_ValidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "docsearch.yaml")

	content := `
ingest:
  skip_chars: 12
  sentence_join: "_"
clean:
  rules_file: rules.yaml
cache:
  compression: zstd
search:
  top_k: 3
  query_cache_ttl: 30s
embedding:
  provider: hash
  dimension: 64
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Ingest.SkipChars != 12 {
		t.Errorf("expected SkipChars=12, got %d", cfg.Ingest.SkipChars)
	}
	if cfg.Ingest.SentenceJoin != "_" {
		t.Errorf("expected SentenceJoin=_, got %q", cfg.Ingest.SentenceJoin)
	}
	if cfg.Ingest.WordSplit != " " {
		t.Errorf("unset keys should keep defaults, got WordSplit=%q", cfg.Ingest.WordSplit)
	}
	if cfg.Clean.RulesFile != filepath.Join(tmpDir, "rules.yaml") {
		t.Errorf("expected rules file relative to config, got %s", cfg.Clean.RulesFile)
	}
	if cfg.Cache.Compression != "zstd" {
		t.Errorf("expected Compression=zstd, got %s", cfg.Cache.Compression)
	}
	if cfg.Search.TopK != 3 {
		t.Errorf("expected TopK=3, got %d", cfg.Search.TopK)
	}
	if cfg.Search.QueryCacheTTL != 30*time.Second {
		t.Errorf("expected QueryCacheTTL=30s, got %s", cfg.Search.QueryCacheTTL)
	}
	if cfg.Embedding.Provider != "hash" || cfg.Embedding.Dimension != 64 {
		t.Errorf("unexpected embedding config: %+v", cfg.Embedding)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "docsearch.yaml")
	if err := os.WriteFile(configPath, []byte("ingest: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(configPath); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoadFromDir(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(tmpDir, ".docsearch"), 0755); err != nil {
		t.Fatal(err)
	}
	configPath := filepath.Join(tmpDir, ".docsearch", "config.yaml")

	content := `
logging:
  level: debug
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromDir(tmpDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("expected Level=debug, got %s", cfg.Logging.Level)
	}
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docsearch.yaml")
	cfg := DefaultConfig()
	cfg.Ingest.SkipChars = 7
	cfg.Search.QueryCacheTTL = 2 * time.Minute

	if err := cfg.Save(path); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Ingest.SkipChars != 7 {
		t.Errorf("expected SkipChars=7, got %d", loaded.Ingest.SkipChars)
	}
	if loaded.Search.QueryCacheTTL != 2*time.Minute {
		t.Errorf("expected QueryCacheTTL=2m, got %s", loaded.Search.QueryCacheTTL)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative skip", func(c *Config) { c.Ingest.SkipChars = -1 }},
		{"negative min length", func(c *Config) { c.Ingest.MinSentenceLength = -3 }},
		{"zero dimension", func(c *Config) { c.Embedding.Dimension = 0 }},
		{"zero top k", func(c *Config) { c.Search.TopK = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestPaths(t *testing.T) {
	path := CatalogPath("/home/user/project")
	expected := filepath.Join("/home/user/project", ".docsearch", "catalog.db")
	if path != expected {
		t.Errorf("expected %s, got %s", expected, path)
	}

	cfg := DefaultConfig()
	if got := cfg.CacheDir("/work"); got != filepath.Join("/work", ".docsearch", "cache") {
		t.Errorf("unexpected cache dir %s", got)
	}
	cfg.Cache.Dir = "/var/cache/docsearch"
	if got := cfg.CacheDir("/work"); got != "/var/cache/docsearch" {
		t.Errorf("absolute cache dir should be kept, got %s", got)
	}
}
