package search

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/postsearch/ai"
	"github.com/poiesic/postsearch/core"
	"github.com/poiesic/postsearch/indexing"
)

// IndexSource supplies the persisted snapshot. *storage.Store implements it.
type IndexSource interface {
	Load(ctx context.Context) (*core.Snapshot, error)
}

// Searcher answers similarity queries against a persisted index.
type Searcher struct {
	source    IndexSource
	embedder  ai.Embedder
	model     string
	topK      int
	normalize bool
	monitor   SearchMonitor
	logger    *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithMonitor installs hooks that observe each search.
func WithMonitor(monitor SearchMonitor) Option {
	return func(s *Searcher) error {
		if monitor == nil {
			monitor = &noopMonitor{}
		}
		s.monitor = monitor
		return nil
	}
}

// WithTopK sets the default number of results. Default is DefaultTopK.
func WithTopK(k int) Option {
	return func(s *Searcher) error {
		if k < 1 {
			return fmt.Errorf("top k must be at least 1, got %d", k)
		}
		s.topK = k
		return nil
	}
}

// WithNormalization toggles unit-length normalization of the query vector.
// Default is on.
func WithNormalization(enabled bool) Option {
	return func(s *Searcher) error {
		s.normalize = enabled
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(source IndexSource, provider ai.Provider, opts ...Option) (*Searcher, error) {
	if source == nil {
		return nil, ErrStoreRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	s := &Searcher{
		source:    source,
		embedder:  provider.Embedder(),
		model:     provider.Model(),
		topK:      DefaultTopK,
		normalize: true,
		monitor:   &noopMonitor{},
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	s.logger = s.logger.With("component", "searcher")
	return s, nil
}

// Search returns the default number of best matches for query.
func (s *Searcher) Search(ctx context.Context, query string) ([]core.SearchResult, error) {
	return s.SearchN(ctx, query, s.topK)
}

// SearchN returns up to k best matches for query, highest score first.
// An empty index yields no results and no error.
func (s *Searcher) SearchN(ctx context.Context, query string, k int) ([]core.SearchResult, error) {
	s.monitor.Start(query)

	snap, err := s.source.Load(ctx)
	if err != nil {
		return nil, err
	}
	s.monitor.AfterLoad(snap)

	if snap.Model != "" && snap.Model != s.model {
		s.logger.Warn("index was built with a different model", "index", snap.Model, "query", s.model)
	}

	if snap.Len() == 0 {
		s.monitor.Finish(nil)
		return []core.SearchResult{}, nil
	}

	vector, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if s.normalize {
		vector = indexing.NormalizeVector(vector)
	}
	s.monitor.AfterQueryEmbedding(vector)

	if len(vector) != snap.Dimension {
		s.logger.Warn("query dimension differs from index", "query", len(vector), "index", snap.Dimension)
	}

	ranked := Rank(vector, snap.Embeddings, k)
	results := make([]core.SearchResult, len(ranked))
	for i, r := range ranked {
		results[i] = core.SearchResult{
			Record:   snap.Index[r.Position],
			Position: r.Position,
			Score:    r.Score,
		}
	}

	s.monitor.Finish(results)
	return results, nil
}
