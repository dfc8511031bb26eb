package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsPost(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"posts/hello.mdx", true},
		{"posts/HELLO.MDX", true},
		{"posts/hello.md", false},
		{"posts/hello.mdx.swp", false},
		{"posts", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, isPost(tt.path))
		})
	}
}

func TestWatchCorpus(t *testing.T) {
	root := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var rebuilds atomic.Int32
	rebuild := func(context.Context) error {
		rebuilds.Add(1)
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- watchCorpus(ctx, root, 20*time.Millisecond, rebuild, logger)
	}()

	post := filepath.Join(root, "new.mdx")
	require.Eventually(t, func() bool {
		_ = os.WriteFile(post, []byte("hello"), 0o644)
		return rebuilds.Load() > 0
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatchCorpus_MissingRoot(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	err := watchCorpus(context.Background(), filepath.Join(t.TempDir(), "missing"), time.Millisecond,
		func(context.Context) error { return nil }, logger)
	assert.Error(t, err)
}
