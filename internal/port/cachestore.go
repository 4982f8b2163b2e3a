package port

import "docsearch/internal/domain"

// CacheStore persists the paired page and sentence artifacts of one document.
type CacheStore interface {
	Exists(key string) bool

	Load(key string) ([]domain.SentenceRecord, []domain.Page, error)

	Save(key string, records []domain.SentenceRecord, pages []domain.Page) error

	Remove(key string) error
}

// Catalog records the fingerprint of each cached build.
type Catalog interface {
	Put(entry domain.CatalogEntry) error

	Get(key string) (domain.CatalogEntry, error)

	List() ([]domain.CatalogEntry, error)

	Delete(key string) error
}
