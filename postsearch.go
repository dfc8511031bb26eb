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


// Package postsearch builds and queries a semantic search index over a
// directory of MDX blog posts.
package postsearch

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/poiesic/postsearch/ai"
	"github.com/poiesic/postsearch/ai/ollama"
	"github.com/poiesic/postsearch/ai/openai"
	"github.com/poiesic/postsearch/config"
	"github.com/poiesic/postsearch/core"
	"github.com/poiesic/postsearch/corpus"
	"github.com/poiesic/postsearch/indexing"
	"github.com/poiesic/postsearch/search"
	"github.com/poiesic/postsearch/storage"
	"github.com/poiesic/postsearch/storage/badger"
)

// Engine wires configuration, the embedding provider and the index store
// for the generate and search commands.
type Engine struct {
	cfg      *config.Config
	provider ai.Provider
	store    *storage.Store
	progress io.Writer
	monitor  search.SearchMonitor
	noCache  bool
	logger   *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	provider ai.Provider
	progress io.Writer
	monitor  search.SearchMonitor
	noCache  bool
	logger   *slog.Logger
}

// WithProvider uses provider instead of creating one from the configuration.
// The engine takes ownership and closes it.
func WithProvider(provider ai.Provider) EngineOption {
	return func(o *engineOptions) {
		o.provider = provider
	}
}

// WithProgress reports embedding progress to w.
func WithProgress(w io.Writer) EngineOption {
	return func(o *engineOptions) {
		o.progress = w
	}
}

// WithSearchMonitor installs hooks on every search.
func WithSearchMonitor(monitor search.SearchMonitor) EngineOption {
	return func(o *engineOptions) {
		o.monitor = monitor
	}
}

// WithoutCache disables the embedding cache regardless of cache_dir.
func WithoutCache() EngineOption {
	return func(o *engineOptions) {
		o.noCache = true
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) EngineOption {
	return func(o *engineOptions) {
		o.logger = logger
	}
}

// NewProvider creates the embedding provider selected by cfg.Provider.
func NewProvider(cfg *ai.Config) (ai.Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Provider {
	case ai.ProviderOllama:
		return ollama.NewProvider(cfg)
	default:
		return openai.NewProvider(cfg)
	}
}

// NewEngine validates cfg and creates the provider and the index store.
func NewEngine(cfg *config.Config, opts ...EngineOption) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := &engineOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}

	store, err := storage.NewStore(cfg.Targets()...)
	if err != nil {
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = NewProvider(cfg.AIConfig())
		if err != nil {
			return nil, fmt.Errorf("failed to create embedding provider: %w", err)
		}
	}

	return &Engine{
		cfg:      cfg,
		provider: provider,
		store:    store,
		progress: options.progress,
		monitor:  options.monitor,
		noCache:  options.noCache,
		logger:   options.logger,
	}, nil
}

// Close releases the embedding provider.
func (e *Engine) Close() error {
	if err := e.provider.Close(); err != nil {
		e.logger.Error("error closing AI provider", "err", err)
		return err
	}
	return nil
}

// Config returns the engine configuration.
func (e *Engine) Config() *config.Config {
	return e.cfg
}

// Store returns the index store.
func (e *Engine) Store() *storage.Store {
	return e.store
}

// Generate rebuilds the whole index from the corpus.
func (e *Engine) Generate(ctx context.Context) (*core.Snapshot, error) {
	policy, err := e.cfg.ErrorPolicy()
	if err != nil {
		return nil, err
	}
	loader := corpus.NewLoader(e.cfg.CorpusRoot,
		corpus.WithErrorPolicy(policy),
		corpus.WithLogger(e.logger),
	)

	cache := e.openCache()
	if cache != nil {
		defer func() {
			if err := cache.Close(); err != nil {
				e.logger.Warn("error closing embedding cache", "err", err)
			}
		}()
	}

	processor, err := indexing.NewBatchProcessor(e.provider.Embedder(), e.provider.Model(),
		indexing.WithPoolSize(e.cfg.Workers),
		indexing.WithBatchSize(e.cfg.Embedding.BatchSize),
		indexing.WithRetry(e.cfg.MaxRetries, e.cfg.RetryDelay.Std()),
		indexing.WithCache(cache),
		indexing.WithNormalization(e.cfg.NormalizeVectors),
		indexing.WithProgress(e.progress),
		indexing.WithBatchLogger(e.logger),
	)
	if err != nil {
		return nil, err
	}
	defer processor.Release()

	indexer, err := indexing.NewIndexer(loader, processor, e.store, e.provider.Model(), e.logger)
	if err != nil {
		return nil, err
	}
	return indexer.Generate(ctx)
}

// openCache opens the embedding cache, or returns nil when it is disabled
// or cannot be opened.
func (e *Engine) openCache() storage.EmbeddingCache {
	if e.noCache || e.cfg.CacheDir == "" {
		return nil
	}
	cache, err := badger.OpenEmbeddingCache(e.cfg.CacheDir)
	if err != nil {
		e.logger.Warn("embedding cache unavailable, embedding every document", "dir", e.cfg.CacheDir, "err", err)
		return nil
	}
	return cache
}

// Search returns up to k documents most similar to query. k <= 0 uses the
// configured top_k.
func (e *Engine) Search(ctx context.Context, query string, k int) ([]core.SearchResult, error) {
	searcher, err := search.NewSearcher(e.store, e.provider,
		search.WithTopK(e.cfg.TopK),
		search.WithNormalization(e.cfg.NormalizeVectors),
		search.WithMonitor(e.monitor),
		search.WithLogger(e.logger),
	)
	if err != nil {
		return nil, err
	}
	if k > 0 {
		return searcher.SearchN(ctx, query, k)
	}
	return searcher.Search(ctx, query)
}
