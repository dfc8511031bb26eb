package core

import (
	"errors"
	"testing"
)

func TestIDFromContent(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantSame bool
	}{
		{
			name:     "same content produces same ID",
			content:  "test content",
			wantSame: true,
		},
		{
			name:     "empty string",
			content:  "",
			wantSame: true,
		},
		{
			name:     "long content",
			content:  "This is a much longer piece of content that should still hash consistently",
			wantSame: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := IDFromContent(tt.content)
			id2 := IDFromContent(tt.content)

			if tt.wantSame && id1 != id2 {
				t.Errorf("IDFromContent() produced different IDs for same content: %d vs %d", id1, id2)
			}
		})
	}
}

func TestIDFromContent_Different(t *testing.T) {
	id1 := IDFromContent("content1")
	id2 := IDFromContent("content2")

	if id1 == id2 {
		t.Errorf("IDFromContent() produced same ID for different content")
	}
}

func TestContentKey_ModelScoped(t *testing.T) {
	if ContentKey("model-a", "text") == ContentKey("model-b", "text") {
		t.Errorf("ContentKey() should differ across models")
	}
	if ContentKey("model-a", "text") != ContentKey("model-a", "text") {
		t.Errorf("ContentKey() should be deterministic")
	}
	// The separator keeps "ab"+"c" apart from "a"+"bc".
	if ContentKey("ab", "c") == ContentKey("a", "bc") {
		t.Errorf("ContentKey() should not collide on shifted boundaries")
	}
}

func TestEmbeddingMatrix_Shape(t *testing.T) {
	var empty EmbeddingMatrix
	if empty.Rows() != 0 || empty.Dim() != 0 {
		t.Errorf("empty matrix shape = (%d, %d), want (0, 0)", empty.Rows(), empty.Dim())
	}

	m := EmbeddingMatrix{{1, 2, 3}, {4, 5, 6}}
	if m.Rows() != 2 || m.Dim() != 3 {
		t.Errorf("matrix shape = (%d, %d), want (2, 3)", m.Rows(), m.Dim())
	}
}

func TestNewSnapshot(t *testing.T) {
	index := Index{
		{Path: "posts/a.mdx", Filename: "a.mdx", Title: "A"},
		{Path: "posts/b.mdx", Filename: "b.mdx", Title: "B"},
	}
	embeddings := EmbeddingMatrix{{1, 0}, {0, 1}}

	snap, err := NewSnapshot("test-model", index, embeddings)
	if err != nil {
		t.Fatalf("NewSnapshot() error = %v", err)
	}

	if snap.ID == "" {
		t.Errorf("snapshot ID should be set")
	}
	if snap.Model != "test-model" {
		t.Errorf("Model = %q, want %q", snap.Model, "test-model")
	}
	if snap.Dimension != 2 {
		t.Errorf("Dimension = %d, want 2", snap.Dimension)
	}
	if snap.Len() != 2 {
		t.Errorf("Len() = %d, want 2", snap.Len())
	}

	// Mutating the inputs must not leak into the snapshot.
	index[0].Title = "changed"
	embeddings[0][0] = 42
	if snap.Index[0].Title != "A" {
		t.Errorf("snapshot index shares memory with input")
	}
	if snap.Embeddings[0][0] != 1 {
		t.Errorf("snapshot embeddings share memory with input")
	}
}

func TestNewSnapshot_Empty(t *testing.T) {
	snap, err := NewSnapshot("m", nil, nil)
	if err != nil {
		t.Fatalf("NewSnapshot() error = %v", err)
	}
	if snap.Len() != 0 || snap.Dimension != 0 {
		t.Errorf("empty snapshot = (%d, %d), want (0, 0)", snap.Len(), snap.Dimension)
	}
}

func TestNewSnapshot_Misaligned(t *testing.T) {
	index := Index{{Path: "a.mdx", Filename: "a.mdx", Title: "A"}}
	_, err := NewSnapshot("m", index, EmbeddingMatrix{{1}, {2}})
	if !errors.Is(err, ErrMisaligned) {
		t.Errorf("NewSnapshot() error = %v, want %v", err, ErrMisaligned)
	}
}
