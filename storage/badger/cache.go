// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/postsearch/core"
	"github.com/poiesic/postsearch/storage"
)

// EmbeddingCache implements storage.EmbeddingCache for BadgerDB.
type EmbeddingCache struct {
	backend *Backend
	owned   bool
}

var _ storage.EmbeddingCache = (*EmbeddingCache)(nil)

// NewEmbeddingCache creates a cache on top of an open backend.
// The caller keeps ownership of the backend.
func NewEmbeddingCache(backend *Backend) (*EmbeddingCache, error) {
	if backend == nil {
		return nil, errors.New("badger: backend is required")
	}
	return &EmbeddingCache{backend: backend}, nil
}

// OpenEmbeddingCache opens (or creates) a cache database in dir.
// Close releases the database.
//
// Returns storage.EmbeddingCache interface to keep callers independent of
// BadgerDB.
func OpenEmbeddingCache(dir string) (storage.EmbeddingCache, error) {
	backend, err := OpenBackend(dir, false)
	if err != nil {
		return nil, fmt.Errorf("badger: open embedding cache: %w", err)
	}
	return &EmbeddingCache{backend: backend, owned: true}, nil
}

// Close closes the database when the cache opened it.
func (c *EmbeddingCache) Close() error {
	if !c.owned || c.backend.IsClosed() {
		return nil
	}
	return c.backend.Close()
}

// Lookup returns the cached vectors for keys; missing entries are nil.
func (c *EmbeddingCache) Lookup(ctx context.Context, keys []core.ID) ([][]float32, error) {
	if c.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}

	vectors := make([][]float32, len(keys))
	err := c.backend.WithTx(func(tx *badger.Txn) error {
		for i, key := range keys {
			if err := ctx.Err(); err != nil {
				return err
			}

			item, err := tx.Get(makeEmbeddingKey(key))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}

			err = item.Value(func(val []byte) error {
				vec, err := unmarshalVector(val)
				if err != nil {
					return err
				}
				vectors[i] = vec
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	return vectors, nil
}

// Store saves vectors under their keys, replacing existing entries.
func (c *EmbeddingCache) Store(ctx context.Context, keys []core.ID, vectors [][]float32) error {
	if len(keys) != len(vectors) {
		return fmt.Errorf("badger: %d keys for %d vectors", len(keys), len(vectors))
	}
	if c.backend.IsClosed() {
		return storage.ErrStorageClosed
	}

	return c.backend.WithBatch(func(wb *badger.WriteBatch) error {
		for i, key := range keys {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := wb.Set(makeEmbeddingKey(key), marshalVector(vectors[i])); err != nil {
				return err
			}
		}
		return nil
	})
}

// Len returns the number of cached vectors.
func (c *EmbeddingCache) Len() (int, error) {
	return c.backend.CountPrefix([]byte(embeddingPrefix))
}
