package indexing

import (
	"math"

	"github.com/poiesic/postsearch/core"
)

// NormalizeVector normalizes a vector to unit length.
// Returns a new vector. If the input is a zero vector, returns a zero vector.
func NormalizeVector(v []float32) []float32 {
	result := make([]float32, len(v))
	if len(v) == 0 {
		return result
	}

	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}
	if sumSquares == 0 {
		return result
	}

	magnitude := math.Sqrt(sumSquares)
	for i, val := range v {
		result[i] = float32(float64(val) / magnitude)
	}
	return result
}

// NormalizeMatrix normalizes every row in place.
func NormalizeMatrix(m core.EmbeddingMatrix) {
	for i, row := range m {
		m[i] = NormalizeVector(row)
	}
}
