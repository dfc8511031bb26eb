package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/postsearch/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSnapshot(t *testing.T) *core.Snapshot {
	t.Helper()
	snap, err := core.NewSnapshot("test-model",
		core.Index{
			{Path: "posts/a.mdx", Filename: "a.mdx", Title: "A"},
			{Path: "posts/b.mdx", Filename: "b.mdx", Title: "B"},
		},
		core.EmbeddingMatrix{{1, 0, 0.5}, {0, 1, -0.25}},
	)
	require.NoError(t, err)
	return snap
}

func TestStore_SaveAndLoad(t *testing.T) {
	tests := []struct {
		name   string
		format string
		file   string
	}{
		{"npy", FormatNPY, "embeddings.npy"},
		{"json", FormatJSON, "embeddings.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "out")
			store, err := NewStore(Target{Dir: dir, Format: tt.format})
			require.NoError(t, err)

			snap := testSnapshot(t)
			require.NoError(t, store.Save(context.Background(), snap))

			assert.FileExists(t, filepath.Join(dir, "index.json"))
			assert.FileExists(t, filepath.Join(dir, tt.file))
			assert.FileExists(t, filepath.Join(dir, "manifest.json"))

			loaded, err := store.Load(context.Background())
			require.NoError(t, err)
			assert.Equal(t, snap.Index, loaded.Index)
			assert.Equal(t, snap.Embeddings, loaded.Embeddings)
			assert.Equal(t, snap.ID, loaded.ID)
			assert.Equal(t, "test-model", loaded.Model)
			assert.Equal(t, 3, loaded.Dimension)
		})
	}
}

func TestStore_SaveAllTargets(t *testing.T) {
	root := t.TempDir()
	cli := filepath.Join(root, "tools", "search", "output")
	web := filepath.Join(root, "public", "output")

	store, err := NewStore(
		Target{Dir: cli, Format: FormatNPY},
		Target{Dir: web, Format: FormatJSON},
	)
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), testSnapshot(t)))

	cliIndex, err := os.ReadFile(filepath.Join(cli, "index.json"))
	require.NoError(t, err)
	webIndex, err := os.ReadFile(filepath.Join(web, "index.json"))
	require.NoError(t, err)
	assert.Equal(t, cliIndex, webIndex)

	var records []map[string]string
	require.NoError(t, json.Unmarshal(webIndex, &records))
	require.Len(t, records, 2)
	assert.Equal(t, map[string]string{"path": "posts/a.mdx", "filename": "a.mdx", "title": "A"}, records[0])

	var matrix [][]float64
	raw, err := os.ReadFile(filepath.Join(web, "embeddings.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &matrix))
	assert.Equal(t, [][]float64{{1, 0, 0.5}, {0, 1, -0.25}}, matrix)

	leftovers, err := filepath.Glob(filepath.Join(cli, ".postsearch-tmp-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestStore_SaveReplacesPriorContent(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(Target{Dir: dir, Format: FormatNPY})
	require.NoError(t, err)

	require.NoError(t, store.Save(context.Background(), testSnapshot(t)))

	smaller, err := core.NewSnapshot("m", core.Index{{Path: "p/c.mdx", Filename: "c.mdx", Title: "C"}}, core.EmbeddingMatrix{{0.1, 0.2}})
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), smaller))

	loaded, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Len())
	assert.Equal(t, "C", loaded.Index[0].Title)
	assert.Equal(t, 2, loaded.Dimension)
}

func TestStore_EmptyIndex(t *testing.T) {
	for _, format := range []string{FormatNPY, FormatJSON} {
		t.Run(format, func(t *testing.T) {
			dir := t.TempDir()
			store, err := NewStore(Target{Dir: dir, Format: format})
			require.NoError(t, err)

			snap, err := core.NewSnapshot("m", nil, nil)
			require.NoError(t, err)
			require.NoError(t, store.Save(context.Background(), snap))

			raw, err := os.ReadFile(filepath.Join(dir, "index.json"))
			require.NoError(t, err)
			assert.Equal(t, "[]\n", string(raw))

			loaded, err := store.Load(context.Background())
			require.NoError(t, err)
			assert.Zero(t, loaded.Len())
			assert.Zero(t, loaded.Embeddings.Rows())
		})
	}
}

func TestStore_LoadMissing(t *testing.T) {
	t.Run("no index", func(t *testing.T) {
		store, err := NewStore(Target{Dir: t.TempDir(), Format: FormatNPY})
		require.NoError(t, err)

		_, err = store.Load(context.Background())
		assert.ErrorIs(t, err, ErrIndexNotFound)
	})

	t.Run("index without embeddings", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "index.json"), []byte("[]"), 0o644))
		store, err := NewStore(Target{Dir: dir, Format: FormatNPY})
		require.NoError(t, err)

		_, err = store.Load(context.Background())
		assert.ErrorIs(t, err, ErrIndexNotFound)
	})
}

func TestStore_LoadCorrupt(t *testing.T) {
	tests := []struct {
		name       string
		index      string
		embeddings string
	}{
		{"bad index json", "{not json", "[[1]]"},
		{"bad embeddings json", `[{"path":"p","filename":"f","title":"t"}]`, "[[1],"},
		{"row count mismatch", `[{"path":"p","filename":"f","title":"t"}]`, "[[1],[2]]"},
		{"ragged matrix", `[{"path":"p","filename":"f","title":"t"},{"path":"q","filename":"g","title":"u"}]`, "[[1,2],[3]]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, "index.json"), []byte(tt.index), 0o644))
			require.NoError(t, os.WriteFile(filepath.Join(dir, "embeddings.json"), []byte(tt.embeddings), 0o644))

			store, err := NewStore(Target{Dir: dir, Format: FormatJSON})
			require.NoError(t, err)

			_, err = store.Load(context.Background())
			assert.ErrorIs(t, err, ErrCorruptIndex)
		})
	}
}

func TestStore_LoadTruncatedNPY(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(Target{Dir: dir, Format: FormatNPY})
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), testSnapshot(t)))

	// The header still claims two rows once the data is cut short.
	path := filepath.Join(dir, "embeddings.npy")
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.NoError(t, os.Truncate(path, info.Size()-4))

	_, err = store.Load(context.Background())
	assert.ErrorIs(t, err, ErrCorruptIndex)
}

func TestStore_LoadWithoutManifest(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(Target{Dir: dir, Format: FormatNPY})
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), testSnapshot(t)))
	require.NoError(t, os.Remove(filepath.Join(dir, "manifest.json")))

	loaded, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Len())
	assert.Empty(t, loaded.Model)
}

func TestNewStore_Errors(t *testing.T) {
	_, err := NewStore()
	assert.ErrorIs(t, err, ErrNoTargets)

	_, err = NewStore(Target{Dir: t.TempDir(), Format: "parquet"})
	assert.ErrorIs(t, err, ErrUnknownFormat)

	_, err = NewStore(Target{Format: FormatNPY})
	assert.Error(t, err)
}

func TestStore_Targets(t *testing.T) {
	store, err := NewStore(
		Target{Dir: "cli", Format: FormatNPY},
		Target{Dir: "web", Format: FormatJSON},
	)
	require.NoError(t, err)

	assert.Equal(t, []Target{
		{Dir: "cli", Format: FormatNPY},
		{Dir: "web", Format: FormatJSON},
	}, store.Targets())
}

func TestStore_SaveRejectsMisaligned(t *testing.T) {
	store, err := NewStore(Target{Dir: t.TempDir(), Format: FormatJSON})
	require.NoError(t, err)

	snap := &core.Snapshot{
		Index:      core.Index{{Path: "p", Filename: "f", Title: "t"}},
		Embeddings: core.EmbeddingMatrix{},
	}
	assert.ErrorIs(t, store.Save(context.Background(), snap), core.ErrMisaligned)
}

func TestStore_SaveCanceled(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(Target{Dir: dir, Format: FormatNPY})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, store.Save(ctx, testSnapshot(t)))
	assert.NoFileExists(t, filepath.Join(dir, "index.json"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "staged files are removed")
}
