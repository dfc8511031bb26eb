package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/poiesic/postsearch/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type fakeServer struct {
	mu       sync.Mutex
	requests []embeddingRequest
	status   int
}

func (f *fakeServer) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		f.mu.Lock()
		f.requests = append(f.requests, req)
		status := f.status
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if status != 0 && status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
			return
		}

		data := make([]map[string]any, len(req.Input))
		for i, text := range req.Input {
			data[i] = map[string]any{
				"object":    "embedding",
				"index":     i,
				"embedding": []float32{float32(len(text)), 1},
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"model":  req.Model,
			"data":   data,
			"usage":  map[string]int{"prompt_tokens": 1, "total_tokens": 1},
		})
	}
}

func newTestEmbedder(t *testing.T, fake *fakeServer, opts ...ai.ConfigOption) ai.Embedder {
	t.Helper()
	server := httptest.NewServer(fake.handler(t))
	t.Cleanup(server.Close)

	opts = append([]ai.ConfigOption{
		ai.WithEmbeddingHost(server.URL),
		ai.WithEmbeddingModel("all-MiniLM-L6-v2"),
	}, opts...)
	embedder, err := NewEmbedder(ai.NewConfig(opts...))
	require.NoError(t, err)
	return embedder
}

func TestEmbedder_EmbedText(t *testing.T) {
	fake := &fakeServer{}
	embedder := newTestEmbedder(t, fake)

	vec, err := embedder.EmbedText(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{5, 1}, vec)

	require.Len(t, fake.requests, 1)
	assert.Equal(t, "all-MiniLM-L6-v2", fake.requests[0].Model)
	assert.Equal(t, []string{"hello"}, fake.requests[0].Input)
}

func TestEmbedder_EmbedTextsBatches(t *testing.T) {
	fake := &fakeServer{}
	embedder := newTestEmbedder(t, fake, ai.WithBatchSize(2))

	texts := []string{"a", "bb", "ccc"}
	vecs, err := embedder.EmbedTexts(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, vecs, 3)
	assert.Equal(t, []float32{1, 1}, vecs[0])
	assert.Equal(t, []float32{2, 1}, vecs[1])
	assert.Equal(t, []float32{3, 1}, vecs[2])

	assert.Len(t, fake.requests, 2, "three texts with batch size 2 need two requests")
}

func TestEmbedder_EmptyAndMultilineInput(t *testing.T) {
	fake := &fakeServer{}
	embedder := newTestEmbedder(t, fake)

	texts := []string{"", "line one\nline two"}
	vecs, err := embedder.EmbedTexts(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, vecs, 2)

	require.Len(t, fake.requests, 1)
	assert.Equal(t, []string{" ", "line one line two"}, fake.requests[0].Input)
	assert.Equal(t, []string{"", "line one\nline two"}, texts, "caller's slice must not change")
}

func TestEmbedder_EmbedTextsNoInput(t *testing.T) {
	fake := &fakeServer{}
	embedder := newTestEmbedder(t, fake)

	vecs, err := embedder.EmbedTexts(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vecs)
	assert.Empty(t, fake.requests)
}

func TestEmbedder_ServerError(t *testing.T) {
	fake := &fakeServer{status: http.StatusInternalServerError}
	embedder := newTestEmbedder(t, fake)

	_, err := embedder.EmbedTexts(context.Background(), []string{"x"})
	assert.Error(t, err)
}

func TestNewEmbedder_InvalidConfig(t *testing.T) {
	_, err := NewEmbedder(&ai.Config{Provider: ai.ProviderOpenAI})
	assert.Error(t, err)
}

func TestNewProvider(t *testing.T) {
	fake := &fakeServer{}
	server := httptest.NewServer(fake.handler(t))
	defer server.Close()

	provider, err := NewProvider(ai.NewConfig(
		ai.WithEmbeddingHost(server.URL),
		ai.WithRequestsPerSecond(100),
	))
	require.NoError(t, err)
	defer provider.Close()

	assert.Equal(t, ai.DefaultEmbeddingModel, provider.Model())

	vec, err := provider.Embedder().EmbedText(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, []float32{3, 1}, vec)
}
