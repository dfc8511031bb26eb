package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
	"github.com/google/uuid"
)

// UntitledTitle is the title given to documents without a usable front matter title.
const UntitledTitle = "Untitled"

// ID is a content-derived identifier.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// ContentKey identifies the embedding of text under a specific model.
// Two texts share a key only if both the model and the text are identical.
func ContentKey(model, text string) ID {
	return IDFromContent(model + "\x00" + text)
}

// DocumentRecord describes one indexed document.
// The JSON form is the element type of index.json.
type DocumentRecord struct {
	Path     string `json:"path"`
	Filename string `json:"filename"`
	Title    string `json:"title"`
}

// Index is the ordered list of documents. Index[i] describes EmbeddingMatrix[i].
type Index []DocumentRecord

// EmbeddingMatrix holds one embedding row per document, shape (N, D).
type EmbeddingMatrix [][]float32

// Rows returns N.
func (m EmbeddingMatrix) Rows() int {
	return len(m)
}

// Dim returns D, or 0 for an empty matrix.
func (m EmbeddingMatrix) Dim() int {
	if len(m) == 0 {
		return 0
	}
	return len(m[0])
}

// Snapshot is the immutable (Index, EmbeddingMatrix) pair written by a single
// generate run. Every output encoding is produced from the same Snapshot.
type Snapshot struct {
	ID         string
	Model      string
	Dimension  int
	CreatedAt  time.Time
	Index      Index
	Embeddings EmbeddingMatrix
}

// NewSnapshot validates alignment and returns a snapshot holding private
// copies of index and embeddings.
func NewSnapshot(model string, index Index, embeddings EmbeddingMatrix) (*Snapshot, error) {
	if err := ValidateAlignment(index, embeddings); err != nil {
		return nil, err
	}

	idx := make(Index, len(index))
	copy(idx, index)

	rows := make(EmbeddingMatrix, len(embeddings))
	for i, row := range embeddings {
		rows[i] = append([]float32(nil), row...)
	}

	return &Snapshot{
		ID:         uuid.NewString(),
		Model:      model,
		Dimension:  rows.Dim(),
		CreatedAt:  time.Now().UTC(),
		Index:      idx,
		Embeddings: rows,
	}, nil
}

// Len returns the number of documents in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.Index)
}

// SearchResult is a ranked document.
type SearchResult struct {
	Record   DocumentRecord
	Position int // row in the index
	Score    float32
}
