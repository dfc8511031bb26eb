package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// stagedFile is a fully written temp file waiting to be renamed into place.
type stagedFile struct {
	tmp   string
	final string
}

// stageFile writes a temp file next to final and fsyncs it.
// The caller must commit or discard the result.
func stageFile(final string, write func(w io.Writer) error) (*stagedFile, error) {
	dir := filepath.Dir(final)
	tmp, err := os.CreateTemp(dir, ".postsearch-tmp-*")
	if err != nil {
		return nil, fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if err := write(tmp); err != nil {
		return nil, fmt.Errorf("storage: write %s: %w", filepath.Base(final), err)
	}
	if err := tmp.Sync(); err != nil {
		return nil, fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("storage: close temp: %w", err)
	}

	success = true
	return &stagedFile{tmp: tmpName, final: final}, nil
}

func (s *stagedFile) commit() error {
	if err := os.Rename(s.tmp, s.final); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	return nil
}

func (s *stagedFile) discard() {
	_ = os.Remove(s.tmp)
}
