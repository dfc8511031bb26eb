package storage

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/poiesic/postsearch/core"
)

// FormatJSON names the nested-array JSON encoding in configuration.
const FormatJSON = "json"

// JSONEncoder writes embeddings.json as an array of number arrays, the
// layout the blog's browser search reads.
type JSONEncoder struct{}

// Format implements Encoder.
func (JSONEncoder) Format() string { return FormatJSON }

// Filename implements Encoder.
func (JSONEncoder) Filename() string { return "embeddings.json" }

// Encode implements Encoder.
func (JSONEncoder) Encode(w io.Writer, snap *core.Snapshot) error {
	rows := snap.Embeddings
	if rows == nil {
		rows = core.EmbeddingMatrix{}
	}
	return json.NewEncoder(w).Encode(rows)
}

// Decode implements Encoder.
func (JSONEncoder) Decode(r io.Reader) (core.EmbeddingMatrix, error) {
	var matrix core.EmbeddingMatrix
	if err := json.NewDecoder(r).Decode(&matrix); err != nil {
		return nil, fmt.Errorf("%w: embeddings json: %w", ErrCorruptIndex, err)
	}
	return matrix, nil
}

// EncoderFor returns the encoder registered for format.
func EncoderFor(format string) (Encoder, error) {
	switch format {
	case FormatNPY:
		return NPYEncoder{}, nil
	case FormatJSON:
		return JSONEncoder{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}
