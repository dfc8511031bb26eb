package badger

import (
	"encoding/binary"

	"github.com/poiesic/postsearch/core"
)

// Key prefixes for different data types
const (
	embeddingPrefix = "embvec:"
)

// makeEmbeddingKey generates a key for a cached embedding by content key.
// Format: prefix + 8 bytes BigEndian content key
func makeEmbeddingKey(id core.ID) []byte {
	prefixBytes := []byte(embeddingPrefix)
	buf := make([]byte, len(prefixBytes)+8)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}
