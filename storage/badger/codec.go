package badger

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/poiesic/postsearch/storage"
)

// marshalVector encodes a vector as little-endian float32 values.
func marshalVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// unmarshalVector decodes a vector written by marshalVector.
func unmarshalVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("%w: vector of %d bytes", storage.ErrCorruptIndex, len(data))
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec, nil
}
