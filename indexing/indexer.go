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


package indexing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/postsearch/core"
	"github.com/poiesic/postsearch/corpus"
	"github.com/poiesic/postsearch/storage"
)

// Indexer orchestrates a full rebuild of the search index.
type Indexer struct {
	loader    *corpus.Loader
	processor *BatchProcessor
	store     *storage.Store
	model     string
	logger    *slog.Logger
}

// NewIndexer creates an indexer. model is recorded in the snapshot.
func NewIndexer(loader *corpus.Loader, processor *BatchProcessor, store *storage.Store, model string, logger *slog.Logger) (*Indexer, error) {
	if loader == nil {
		return nil, ErrLoaderRequired
	}
	if processor == nil {
		return nil, ErrEmbedderRequired
	}
	if store == nil {
		return nil, ErrStoreRequired
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Indexer{
		loader:    loader,
		processor: processor,
		store:     store,
		model:     model,
		logger:    logger.With("component", "indexer"),
	}, nil
}

// Generate loads the corpus, embeds every document and replaces the
// persisted index with the result.
func (ix *Indexer) Generate(ctx context.Context) (*core.Snapshot, error) {
	started := time.Now()

	docs, err := ix.loader.Load(ctx)
	if err != nil {
		return nil, err
	}

	index := make(core.Index, len(docs))
	texts := make([]string, len(docs))
	for i, doc := range docs {
		index[i] = doc.Record
		texts[i] = doc.Text
	}

	embeddings, err := ix.processor.Process(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed corpus: %w", err)
	}

	snap, err := core.NewSnapshot(ix.model, index, embeddings)
	if err != nil {
		return nil, err
	}

	if err := ix.store.Save(ctx, snap); err != nil {
		return nil, fmt.Errorf("failed to save index: %w", err)
	}

	targets := ix.store.Targets()
	dirs := make([]string, len(targets))
	for i, t := range targets {
		dirs[i] = t.Dir
	}

	ix.logger.Info("index generated",
		"root", ix.loader.Root(),
		"targets", dirs,
		"documents", snap.Len(),
		"dimension", snap.Dimension,
		"model", snap.Model,
		"elapsed", time.Since(started).Round(time.Millisecond))

	return snap, nil
}
