package search

import (
	"math"
	"slices"

	"github.com/poiesic/postsearch/core"
)

// DefaultTopK is the number of results returned when no limit is configured.
const DefaultTopK = 10

// CosineSimilarity returns dot(a, b) / (|a| |b|).
// It returns 0 when the lengths differ or either vector has zero norm.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

// Scored is a matrix row and its similarity to the query.
type Scored struct {
	Position int
	Score    float32
}

// Rank scores every row of matrix against query and returns the best k,
// highest first. Ties keep row order. k <= 0 or k > rows returns all rows.
func Rank(query []float32, matrix core.EmbeddingMatrix, k int) []Scored {
	scored := make([]Scored, len(matrix))
	for i, row := range matrix {
		scored[i] = Scored{Position: i, Score: CosineSimilarity(query, row)}
	}

	slices.SortStableFunc(scored, func(a, b Scored) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})

	if k > 0 && k < len(scored) {
		scored = scored[:k]
	}
	return scored
}
