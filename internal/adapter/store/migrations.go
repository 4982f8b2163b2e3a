package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"go.etcd.io/bbolt"

	"docsearch/config"
)

// CurrentSchemaVersion is the current catalog schema version.
// Increment this when making breaking changes to the entry format.
const CurrentSchemaVersion = 1

var keySchemaVersion = []byte("schema_version")

// SchemaVersion returns the stored schema version, 0 for a fresh database.
func (c *Catalog) SchemaVersion() (int, error) {
	var version int
	err := c.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketMeta).Get(keySchemaVersion)
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &version)
	})
	return version, err
}

// Migrate upgrades the catalog to CurrentSchemaVersion. A database written by
// a newer version is cleared, since its entries cannot be trusted.
func (c *Catalog) Migrate() error {
	version, err := c.SchemaVersion()
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	if version > CurrentSchemaVersion {
		if err := c.Clear(); err != nil {
			return err
		}
		version = 0
	}
	for v := version; v < CurrentSchemaVersion; v++ {
		if err := c.runMigration(v, v+1); err != nil {
			return fmt.Errorf("migration from v%d to v%d failed: %w", v, v+1, err)
		}
	}

	return c.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(CurrentSchemaVersion)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketMeta).Put(keySchemaVersion, data)
	})
}

func (c *Catalog) runMigration(from, to int) error {
	switch {
	case from == 0 && to == 1:
		// Buckets are created on open.
		return nil
	default:
		return nil
	}
}

// Clear removes every catalog entry.
func (c *Catalog) Clear() error {
	return c.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(bucketDocuments); err != nil && err != bbolt.ErrBucketNotFound {
			return err
		}
		_, err := tx.CreateBucket(bucketDocuments)
		return err
	})
}

// Fingerprint hashes the configuration that determines cache contents.
// Changes to it mean a cached build is stale and should be rebuilt.
func Fingerprint(cfg *config.Config) (string, error) {
	var rules string
	if cfg.Clean.RulesFile != "" {
		data, err := os.ReadFile(cfg.Clean.RulesFile)
		if err != nil {
			return "", fmt.Errorf("failed to read rules file: %w", err)
		}
		rules = string(data)
	}

	relevant := struct {
		SkipChars         int    `json:"skip_chars"`
		MinSentenceLength int    `json:"min_sentence_length"`
		WordSplit         string `json:"word_split"`
		SentenceJoin      string `json:"sentence_join"`
		Rules             string `json:"rules"`
		NFKC              bool   `json:"nfkc"`
		Stemming          bool   `json:"stemming"`
		Segmenter         string `json:"segmenter"`
		Provider          string `json:"provider"`
		Model             string `json:"model"`
		Dimension         int    `json:"dimension"`
		QueryPrefix       string `json:"query_prefix"`
		DocumentPrefix    string `json:"document_prefix"`
	}{
		SkipChars:         cfg.Ingest.SkipChars,
		MinSentenceLength: cfg.Ingest.MinSentenceLength,
		WordSplit:         cfg.Ingest.WordSplit,
		SentenceJoin:      cfg.Ingest.SentenceJoin,
		Rules:             rules,
		NFKC:              cfg.Clean.UnicodeNFKC,
		Stemming:          cfg.Clean.Stemming,
		Segmenter:         cfg.Segment.Type,
		Provider:          cfg.Embedding.Provider,
		Model:             cfg.Embedding.Model,
		Dimension:         cfg.Embedding.Dimension,
		QueryPrefix:       cfg.Embedding.QueryPrefix,
		DocumentPrefix:    cfg.Embedding.DocumentPrefix,
	}

	data, err := json.Marshal(relevant)
	if err != nil {
		return "", err
	}
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:8]), nil
}
