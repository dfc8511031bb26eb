package ai

import (
	"context"

	"golang.org/x/time/rate"
)

// rateLimitedEmbedder waits on a token bucket before every request.
type rateLimitedEmbedder struct {
	next    Embedder
	limiter *rate.Limiter
}

// NewRateLimitedEmbedder throttles embedder to rps requests per second.
// A batch counts as one request. With rps <= 0 the embedder is returned unchanged.
func NewRateLimitedEmbedder(embedder Embedder, rps float64) Embedder {
	if rps <= 0 {
		return embedder
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return &rateLimitedEmbedder{
		next:    embedder,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

func (r *rateLimitedEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.next.EmbedText(ctx, text)
}

func (r *rateLimitedEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.next.EmbedTexts(ctx, texts)
}
