package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"docsearch/internal/domain"
)

var (
	bucketDocuments = []byte("documents")
	bucketMeta      = []byte("meta")
)

// Catalog records one entry per cached document build: where it came from,
// how big it is and the fingerprint of the configuration that produced it.
// It never stores vectors or text; those live in the artifact cache.
type Catalog struct {
	db *bbolt.DB
}

// OpenCatalog opens (or creates) the catalog database at path and brings its
// schema up to date.
func OpenCatalog(path string) (*Catalog, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketDocuments, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	c := &Catalog{db: db}
	if err := c.Migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// Close releases the database file lock.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// Put stores entry under its key, replacing any previous build. A missing
// BuildID or BuiltAt is filled in.
func (c *Catalog) Put(entry domain.CatalogEntry) error {
	if entry.Key == "" {
		return fmt.Errorf("catalog entry has no key")
	}
	if entry.BuildID == "" {
		entry.BuildID = uuid.NewString()
	}
	if entry.BuiltAt.IsZero() {
		entry.BuiltAt = time.Now().UTC()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return c.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketDocuments).Put([]byte(entry.Key), data)
	})
}

// Get returns the entry for key, or domain.ErrNotFound.
func (c *Catalog) Get(key string) (domain.CatalogEntry, error) {
	var entry domain.CatalogEntry
	err := c.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketDocuments).Get([]byte(key))
		if data == nil {
			return fmt.Errorf("%w: catalog entry %s", domain.ErrNotFound, key)
		}
		return json.Unmarshal(data, &entry)
	})
	return entry, err
}

// List returns every entry ordered by key.
func (c *Catalog) List() ([]domain.CatalogEntry, error) {
	var entries []domain.CatalogEntry
	err := c.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketDocuments).ForEach(func(k, v []byte) error {
			var entry domain.CatalogEntry
			if err := json.Unmarshal(v, &entry); err != nil {
				return fmt.Errorf("catalog entry %s: %w", k, err)
			}
			entries = append(entries, entry)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries, nil
}

// Delete removes the entry for key. Deleting a missing key is not an error.
func (c *Catalog) Delete(key string) error {
	return c.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketDocuments).Delete([]byte(key))
	})
}
