package postsearch

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/postsearch/ai"
	"github.com/poiesic/postsearch/ai/mock"
	"github.com/poiesic/postsearch/config"
	"github.com/poiesic/postsearch/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default()
	cfg.CorpusRoot = filepath.Join(root, "posts")
	cfg.Outputs = []config.Output{
		{Dir: filepath.Join(root, "tools", "search", "output"), Format: storage.FormatNPY},
		{Dir: filepath.Join(root, "public", "output"), Format: storage.FormatJSON},
	}
	cfg.CacheDir = filepath.Join(root, "cache")
	cfg.Workers = 2
	require.NoError(t, os.MkdirAll(cfg.CorpusRoot, 0o755))
	return cfg
}

func writePost(t *testing.T, cfg *config.Config, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(cfg.CorpusRoot, name), []byte(content), 0o644))
}

func TestNewEngine(t *testing.T) {
	t.Run("with mock provider", func(t *testing.T) {
		engine, err := NewEngine(testConfig(t), WithProvider(mock.NewMockProvider()))
		require.NoError(t, err)
		require.NotNil(t, engine)
		defer engine.Close()

		assert.NotNil(t, engine.Store())
		assert.NotNil(t, engine.Config())
	})

	t.Run("invalid config", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.TopK = 0

		engine, err := NewEngine(cfg, WithProvider(mock.NewMockProvider()))
		assert.Error(t, err)
		assert.Nil(t, engine)
	})

	t.Run("default provider", func(t *testing.T) {
		engine, err := NewEngine(testConfig(t))
		require.NoError(t, err)
		defer engine.Close()
	})
}

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		host     string
	}{
		{"openai", ai.ProviderOpenAI, "http://localhost:11434"},
		{"ollama", ai.ProviderOllama, "http://localhost:11434"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, err := NewProvider(ai.NewConfig(
				ai.WithProvider(tt.provider),
				ai.WithEmbeddingHost(tt.host),
			))
			require.NoError(t, err)
			defer provider.Close()
			assert.Equal(t, ai.DefaultEmbeddingModel, provider.Model())
		})
	}

	_, err := NewProvider(ai.NewConfig(ai.WithProvider("bert")))
	assert.Error(t, err)
}

func TestEngine_Close(t *testing.T) {
	provider := mock.NewMockProvider()
	engine, err := NewEngine(testConfig(t), WithProvider(provider))
	require.NoError(t, err)

	require.NoError(t, engine.Close())
	assert.True(t, provider.(*mock.MockProvider).Closed())
}

func TestEngine_GenerateAndSearch(t *testing.T) {
	cfg := testConfig(t)
	writePost(t, cfg, "go.mdx", "---\ntitle: Learning Go\n---\nGoroutines and channels.\n")
	writePost(t, cfg, "rust.mdx", "---\ntitle: Learning Rust\n---\nOwnership and borrowing.\n")
	writePost(t, cfg, "untitled.mdx", "Just some prose.\n")

	provider := mock.NewMockProvider()
	engine, err := NewEngine(cfg, WithProvider(provider))
	require.NoError(t, err)
	defer engine.Close()

	ctx := context.Background()
	snap, err := engine.Generate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, snap.Len())

	assert.FileExists(t, filepath.Join(cfg.Outputs[0].Dir, "embeddings.npy"))
	assert.FileExists(t, filepath.Join(cfg.Outputs[1].Dir, "embeddings.json"))

	// The mock maps equal text to equal vectors, so the document's own
	// normalized text is its best match.
	results, err := engine.Search(ctx, "Goroutines and channels.", 0)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "Learning Go", results[0].Record.Title)
	assert.InDelta(t, 1.0, results[0].Score, 1e-5)

	results, err = engine.Search(ctx, "Goroutines and channels.", 1)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestEngine_GenerateUsesCache(t *testing.T) {
	cfg := testConfig(t)
	writePost(t, cfg, "a.mdx", "alpha")
	writePost(t, cfg, "b.mdx", "beta")

	embedder := mock.NewMockEmbedder()
	provider := mock.NewMockProviderWithEmbedder(embedder, "")
	engine, err := NewEngine(cfg, WithProvider(provider))
	require.NoError(t, err)
	defer engine.Close()

	ctx := context.Background()
	_, err = engine.Generate(ctx)
	require.NoError(t, err)
	assert.Len(t, embedder.EmbeddedTexts(), 2)

	writePost(t, cfg, "c.mdx", "gamma")
	embedder.Reset()

	snap, err := engine.Generate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, snap.Len())
	assert.Equal(t, []string{"gamma"}, embedder.EmbeddedTexts())
}

func TestEngine_GenerateWithoutCache(t *testing.T) {
	cfg := testConfig(t)
	writePost(t, cfg, "a.mdx", "alpha")

	embedder := mock.NewMockEmbedder()
	engine, err := NewEngine(cfg, WithProvider(mock.NewMockProviderWithEmbedder(embedder, "")), WithoutCache())
	require.NoError(t, err)
	defer engine.Close()

	for i := 0; i < 2; i++ {
		_, err = engine.Generate(context.Background())
		require.NoError(t, err)
	}
	assert.Len(t, embedder.EmbeddedTexts(), 2)
	assert.NoDirExists(t, cfg.CacheDir)
}

func TestEngine_SearchMissingIndex(t *testing.T) {
	engine, err := NewEngine(testConfig(t), WithProvider(mock.NewMockProvider()))
	require.NoError(t, err)
	defer engine.Close()

	_, err = engine.Search(context.Background(), "anything", 0)
	assert.ErrorIs(t, err, storage.ErrIndexNotFound)
}
