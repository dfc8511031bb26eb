package indexing

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/postsearch/ai"
	"github.com/poiesic/postsearch/core"
	"github.com/poiesic/postsearch/storage"
)

// BatchProcessor embeds texts in batches on a worker pool.
// Row i of the result always belongs to text i.
type BatchProcessor struct {
	embedder       ai.Embedder
	model          string
	pool           *ants.Pool
	cache          storage.EmbeddingCache
	batchSize      int
	maxRetries     int
	retryBaseDelay time.Duration
	normalize      bool
	progress       io.Writer
	logger         *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor) error

// WithPoolSize sets the worker pool size for concurrent processing.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) BatchOption {
	return func(bp *BatchProcessor) error {
		if size < 1 {
			size = 1
		}
		if bp.pool != nil {
			bp.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		bp.pool = pool
		return nil
	}
}

// WithBatchSize sets the number of texts per embedding call. Default 32.
func WithBatchSize(size int) BatchOption {
	return func(bp *BatchProcessor) error {
		if size < 1 {
			return fmt.Errorf("batch size must be at least 1, got %d", size)
		}
		bp.batchSize = size
		return nil
	}
}

// WithRetry sets the attempts per batch and the backoff base delay.
func WithRetry(maxAttempts int, baseDelay time.Duration) BatchOption {
	return func(bp *BatchProcessor) error {
		if maxAttempts <= 0 {
			return ErrInvalidMaxAttempts
		}
		bp.maxRetries = maxAttempts
		bp.retryBaseDelay = baseDelay
		return nil
	}
}

// WithCache looks vectors up in cache before calling the embedder and
// stores newly computed ones. A nil cache disables caching.
func WithCache(cache storage.EmbeddingCache) BatchOption {
	return func(bp *BatchProcessor) error {
		bp.cache = cache
		return nil
	}
}

// WithNormalization toggles unit-length normalization of output rows.
// Default is on.
func WithNormalization(enabled bool) BatchOption {
	return func(bp *BatchProcessor) error {
		bp.normalize = enabled
		return nil
	}
}

// WithProgress reports progress to w. A nil writer disables reporting.
func WithProgress(w io.Writer) BatchOption {
	return func(bp *BatchProcessor) error {
		bp.progress = w
		return nil
	}
}

// WithBatchLogger sets a custom logger.
// Default is slog.Default().
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(bp *BatchProcessor) error {
		if logger == nil {
			logger = slog.Default()
		}
		bp.logger = logger
		return nil
	}
}

// NewBatchProcessor creates a batch processor for embedder. model is the
// identifier the cache keys are scoped to.
func NewBatchProcessor(embedder ai.Embedder, model string, opts ...BatchOption) (*BatchProcessor, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	bp := &BatchProcessor{
		embedder:       embedder,
		model:          model,
		pool:           pool,
		batchSize:      32,
		maxRetries:     3,
		retryBaseDelay: time.Second,
		normalize:      true,
		logger:         slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(bp); optErr != nil {
			bp.Release()
			return nil, optErr
		}
	}

	bp.logger = bp.logger.With("component", "batch-processor")
	return bp, nil
}

// Release releases the worker pool.
// The processor should not be used after calling Release.
func (bp *BatchProcessor) Release() {
	if bp.pool != nil {
		bp.pool.Release()
	}
}

// Process returns one embedding row per text, in input order.
// The first failing batch cancels the remaining ones.
func (bp *BatchProcessor) Process(ctx context.Context, texts []string) (core.EmbeddingMatrix, error) {
	matrix := make(core.EmbeddingMatrix, len(texts))
	if len(texts) == 0 {
		return matrix, nil
	}

	keys := make([]core.ID, len(texts))
	for i, text := range texts {
		keys[i] = core.ContentKey(bp.model, text)
	}

	pending := bp.fillFromCache(ctx, keys, matrix)

	tracker := NewProgressTracker(bp.progress, "Embedding", len(texts), bp.batchSize)
	tracker.Start()
	tracker.Increment(len(texts) - len(pending))

	if len(pending) > 0 {
		bp.logger.Info("embedding documents", "documents", len(pending), "cached", len(texts)-len(pending), "batchSize", bp.batchSize)
		if err := bp.embedPending(ctx, texts, pending, matrix, tracker); err != nil {
			tracker.Finish()
			return nil, err
		}
		bp.storeInCache(ctx, keys, pending, matrix)
	}
	tracker.Finish()

	if bp.normalize {
		NormalizeMatrix(matrix)
	}
	return matrix, nil
}

// fillFromCache copies cached rows into matrix and returns the positions
// that still need embedding. Cache failures only cost a cache miss.
func (bp *BatchProcessor) fillFromCache(ctx context.Context, keys []core.ID, matrix core.EmbeddingMatrix) []int {
	pending := make([]int, 0, len(keys))
	if bp.cache == nil {
		for i := range keys {
			pending = append(pending, i)
		}
		return pending
	}

	cached, err := bp.cache.Lookup(ctx, keys)
	if err != nil {
		bp.logger.Warn("embedding cache lookup failed", "err", err)
		cached = make([][]float32, len(keys))
	}
	for i, vec := range cached {
		if vec == nil {
			pending = append(pending, i)
			continue
		}
		matrix[i] = vec
	}
	return pending
}

func (bp *BatchProcessor) storeInCache(ctx context.Context, keys []core.ID, pending []int, matrix core.EmbeddingMatrix) {
	if bp.cache == nil {
		return
	}
	newKeys := make([]core.ID, len(pending))
	vectors := make([][]float32, len(pending))
	for j, i := range pending {
		newKeys[j] = keys[i]
		vectors[j] = matrix[i]
	}
	if err := bp.cache.Store(ctx, newKeys, vectors); err != nil {
		bp.logger.Warn("embedding cache store failed", "err", err)
	}
}

// embedPending embeds texts[pending] batch by batch on the pool. Each batch
// writes only the matrix slots it owns.
func (bp *BatchProcessor) embedPending(ctx context.Context, texts []string, pending []int, matrix core.EmbeddingMatrix, tracker *ProgressTracker) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for start := 0; start < len(pending); start += bp.batchSize {
		slots := pending[start:min(start+bp.batchSize, len(pending))]

		wg.Add(1)
		submitErr := bp.pool.Submit(func() {
			defer wg.Done()
			if err := bp.embedBatch(ctx, texts, slots, matrix); err != nil {
				fail(err)
				return
			}
			tracker.Increment(len(slots))
		})
		if submitErr != nil {
			wg.Done()
			fail(fmt.Errorf("failed to submit batch: %w", submitErr))
			break
		}
	}

	wg.Wait()
	return firstErr
}

func (bp *BatchProcessor) embedBatch(ctx context.Context, texts []string, slots []int, matrix core.EmbeddingMatrix) error {
	batch := make([]string, len(slots))
	for j, i := range slots {
		batch[j] = texts[i]
	}

	var vectors [][]float32
	err := RetryWithBackoff(ctx, func(ctx context.Context) error {
		var err error
		vectors, err = bp.embedder.EmbedTexts(ctx, batch)
		return err
	}, bp.maxRetries, bp.retryBaseDelay)
	if err != nil {
		return fmt.Errorf("failed to generate embeddings after %d attempts: %w", bp.maxRetries, err)
	}

	if len(vectors) != len(slots) {
		return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(slots), len(vectors))
	}

	for j, i := range slots {
		matrix[i] = vectors[j]
	}
	return nil
}
