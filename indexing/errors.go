package indexing

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrEmbedderRequired is returned when no embedder is supplied.
	ErrEmbedderRequired = errors.New("embedder is required")

	// ErrLoaderRequired is returned when no corpus loader is supplied.
	ErrLoaderRequired = errors.New("corpus loader is required")

	// ErrStoreRequired is returned when no index store is supplied.
	ErrStoreRequired = errors.New("index store is required")
)
