package search

import (
	"testing"

	"github.com/poiesic/postsearch/core"
	"github.com/stretchr/testify/assert"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float32
		expected float32
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"scaled", []float32{1, 2, 3}, []float32{2, 4, 6}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"zero query", []float32{0, 0, 0}, []float32{1, 2, 3}, 0},
		{"zero row", []float32{1, 2, 3}, []float32{0, 0, 0}, 0},
		{"length mismatch", []float32{1, 2}, []float32{1, 2, 3}, 0},
		{"empty", []float32{}, []float32{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, CosineSimilarity(tt.a, tt.b), 1e-6)
		})
	}
}

func TestRank(t *testing.T) {
	matrix := core.EmbeddingMatrix{
		{1, 0},
		{0, 1},
		{0.7071, 0.7071},
	}

	ranked := Rank([]float32{1, 0}, matrix, 0)

	assert.Equal(t, []int{0, 2, 1}, positions(ranked))
	assert.InDelta(t, 1.0, ranked[0].Score, 1e-4)
	assert.InDelta(t, 0.7071, ranked[1].Score, 1e-4)
	assert.InDelta(t, 0.0, ranked[2].Score, 1e-4)
}

func TestRank_TiesKeepIndexOrder(t *testing.T) {
	matrix := core.EmbeddingMatrix{{0, 1}, {1, 0}, {0, 2}, {2, 0}, {0, 3}}

	ranked := Rank([]float32{0, 1}, matrix, 0)
	assert.Equal(t, []int{0, 2, 4, 1, 3}, positions(ranked))
}

func TestRank_Limit(t *testing.T) {
	matrix := make(core.EmbeddingMatrix, 25)
	for i := range matrix {
		matrix[i] = []float32{float32(i), 1}
	}

	tests := []struct {
		name string
		k    int
		want int
	}{
		{"default ten", DefaultTopK, 10},
		{"zero means all", 0, 25},
		{"negative means all", -1, 25},
		{"more than rows", 100, 25},
		{"one", 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, Rank([]float32{1, 0}, matrix, tt.k), tt.want)
		})
	}
}

func TestRank_Empty(t *testing.T) {
	assert.Empty(t, Rank([]float32{1, 0}, nil, 10))
}

func TestRank_ZeroQuery(t *testing.T) {
	ranked := Rank([]float32{0, 0}, core.EmbeddingMatrix{{1, 0}, {0, 1}}, 0)

	assert.Equal(t, []int{0, 1}, positions(ranked))
	for _, r := range ranked {
		assert.Zero(t, r.Score)
	}
}

func positions(ranked []Scored) []int {
	out := make([]int, len(ranked))
	for i, r := range ranked {
		out[i] = r.Position
	}
	return out
}
