package usecase

import (
	"fmt"
	"log/slog"

	"docsearch/internal/domain"
	"docsearch/internal/port"
)

// PruneUseCase removes cached builds made with settings other than the
// current ones.
type PruneUseCase struct {
	cache   port.CacheStore
	catalog port.Catalog
	logger  *slog.Logger
}

func NewPruneUseCase(cacheStore port.CacheStore, catalog port.Catalog, logger *slog.Logger) *PruneUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &PruneUseCase{cache: cacheStore, catalog: catalog, logger: logger}
}

// Prune deletes the artifacts and catalog entry of every build whose
// fingerprint differs from fingerprint, and returns the removed entries.
func (u *PruneUseCase) Prune(fingerprint string) ([]domain.CatalogEntry, error) {
	entries, err := u.catalog.List()
	if err != nil {
		return nil, err
	}

	var removed []domain.CatalogEntry
	for _, e := range entries {
		if e.Fingerprint == fingerprint {
			continue
		}
		if err := u.cache.Remove(e.Path); err != nil {
			return removed, fmt.Errorf("failed to remove cache for %s: %w", e.Path, err)
		}
		if err := u.catalog.Delete(e.Key); err != nil {
			return removed, fmt.Errorf("failed to delete catalog entry %s: %w", e.Key, err)
		}
		u.logger.Debug("pruned stale build", "path", e.Path, "fingerprint", e.Fingerprint)
		removed = append(removed, e)
	}
	return removed, nil
}
