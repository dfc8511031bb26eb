package storage

import (
	"time"

	"github.com/poiesic/postsearch/core"
)

// Manifest describes the snapshot a target directory holds.
type Manifest struct {
	ID        string    `json:"id"`
	Model     string    `json:"model"`
	Dimension int       `json:"dimension"`
	Count     int       `json:"count"`
	Format    string    `json:"format"`
	CreatedAt time.Time `json:"created_at"`
}

func newManifest(snap *core.Snapshot, format string) Manifest {
	return Manifest{
		ID:        snap.ID,
		Model:     snap.Model,
		Dimension: snap.Dimension,
		Count:     snap.Len(),
		Format:    format,
		CreatedAt: snap.CreatedAt,
	}
}
