package storage

import (
	"context"
	"io"

	"github.com/poiesic/postsearch/core"
)

// Encoder reads and writes the embeddings file of one output target.
// Implementations must be safe for concurrent use.
type Encoder interface {
	// Format is the name used in configuration, e.g. "npy".
	Format() string

	// Filename is the embeddings file name inside a target directory.
	Filename() string

	// Encode writes the snapshot's embedding matrix to w.
	Encode(w io.Writer, snap *core.Snapshot) error

	// Decode reads an embedding matrix written by Encode.
	Decode(r io.Reader) (core.EmbeddingMatrix, error)
}

// EmbeddingCache remembers vectors by content key across generate runs.
// Implementations must be thread-safe and support concurrent access.
type EmbeddingCache interface {
	// Lookup returns the cached vectors for keys. The result has the same
	// length as keys; missing entries are nil.
	Lookup(ctx context.Context, keys []core.ID) ([][]float32, error)

	// Store saves vectors under their keys. keys and vectors must have the
	// same length.
	Store(ctx context.Context, keys []core.ID, vectors [][]float32) error

	// Close releases resources held by the cache.
	Close() error
}
