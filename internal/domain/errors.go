package domain

import "errors"

var (
	// ErrConfiguration indicates a bad replacement pattern, path or setting.
	ErrConfiguration = errors.New("configuration error")

	// ErrCacheDecode indicates a cache artifact could not be read or parsed.
	// Callers recover by rebuilding from the source document.
	ErrCacheDecode = errors.New("cache decode failed")

	// ErrSkippedEmpty indicates a cache write was refused because there was nothing to store.
	ErrSkippedEmpty = errors.New("cache write skipped: empty contents")

	// ErrDimensionMismatch indicates mismatched batch lengths or vector widths.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrNotFound indicates an unmapped external ID or an empty index.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateID indicates an external ID that is already indexed.
	ErrDuplicateID = errors.New("duplicate id")

	// ErrNoEmbedder indicates a text query against an index without an embedder.
	ErrNoEmbedder = errors.New("no embedder configured")

	// ErrNoMetadata indicates metadata was requested but never supplied.
	ErrNoMetadata = errors.New("no metadata provided")

	// ErrInvalidQuery indicates a malformed neighbor query or identifier.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrExtraction indicates the text extraction collaborator failed.
	ErrExtraction = errors.New("extraction failed")
)
