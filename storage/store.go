// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/poiesic/postsearch/core"
	"golang.org/x/sync/errgroup"
)

const (
	indexFilename    = "index.json"
	manifestFilename = "manifest.json"
)

// Target is one output directory and the encoding of its embeddings file.
type Target struct {
	Dir    string
	Format string
}

type boundTarget struct {
	dir     string
	encoder Encoder
}

// Store writes snapshots to a set of targets and reads them back from the
// primary (first) target.
type Store struct {
	targets []boundTarget
	logger  *slog.Logger
}

// NewStore resolves an encoder for every target.
// Returns ErrNoTargets when targets is empty and ErrUnknownFormat when a
// format has no encoder.
func NewStore(targets ...Target) (*Store, error) {
	if len(targets) == 0 {
		return nil, ErrNoTargets
	}

	bound := make([]boundTarget, 0, len(targets))
	for _, t := range targets {
		if t.Dir == "" {
			return nil, fmt.Errorf("storage: target directory is required")
		}
		enc, err := EncoderFor(t.Format)
		if err != nil {
			return nil, err
		}
		bound = append(bound, boundTarget{dir: t.Dir, encoder: enc})
	}

	return &Store{
		targets: bound,
		logger:  slog.Default().With("component", "index-store"),
	}, nil
}

// Targets returns the configured targets, primary first.
func (s *Store) Targets() []Target {
	out := make([]Target, len(s.targets))
	for i, t := range s.targets {
		out[i] = Target{Dir: t.dir, Format: t.encoder.Format()}
	}
	return out
}

// Save writes snap to every target concurrently. Prior content is replaced.
func (s *Store) Save(ctx context.Context, snap *core.Snapshot) error {
	if snap == nil {
		return fmt.Errorf("storage: nil snapshot")
	}
	if err := core.ValidateAlignment(snap.Index, snap.Embeddings); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, t := range s.targets {
		g.Go(func() error {
			return s.saveTarget(ctx, t, snap)
		})
	}
	return g.Wait()
}

func (s *Store) saveTarget(ctx context.Context, t boundTarget, snap *core.Snapshot) error {
	if err := os.MkdirAll(t.dir, 0o755); err != nil {
		return fmt.Errorf("storage: mkdir %s: %w", t.dir, err)
	}

	index := snap.Index
	if index == nil {
		index = core.Index{}
	}

	writes := []struct {
		name  string
		write func(w io.Writer) error
	}{
		// Rename order matters: index.json last.
		{t.encoder.Filename(), func(w io.Writer) error { return t.encoder.Encode(w, snap) }},
		{manifestFilename, func(w io.Writer) error {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(newManifest(snap, t.encoder.Format()))
		}},
		{indexFilename, func(w io.Writer) error { return json.NewEncoder(w).Encode(index) }},
	}

	staged := make([]*stagedFile, 0, len(writes))
	defer func() {
		for _, f := range staged {
			f.discard()
		}
	}()

	for _, w := range writes {
		f, err := stageFile(filepath.Join(t.dir, w.name), w.write)
		if err != nil {
			return err
		}
		staged = append(staged, f)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	for len(staged) > 0 {
		if err := staged[0].commit(); err != nil {
			return err
		}
		staged = staged[1:]
	}

	s.logger.Debug("wrote index", "dir", t.dir, "format", t.encoder.Format(), "documents", snap.Len())
	return nil
}

// Load reads the snapshot held by the primary target.
// The manifest is optional; without it Model and ID are empty.
func (s *Store) Load(ctx context.Context) (*core.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t := s.targets[0]

	var index core.Index
	if err := readFile(filepath.Join(t.dir, indexFilename), func(r io.Reader) error {
		if err := json.NewDecoder(r).Decode(&index); err != nil {
			return fmt.Errorf("%w: index.json: %w", ErrCorruptIndex, err)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	var embeddings core.EmbeddingMatrix
	if err := readFile(filepath.Join(t.dir, t.encoder.Filename()), func(r io.Reader) error {
		var err error
		embeddings, err = t.encoder.Decode(r)
		return err
	}); err != nil {
		return nil, err
	}

	if err := core.ValidateAlignment(index, embeddings); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptIndex, err)
	}

	snap := &core.Snapshot{
		Dimension:  embeddings.Dim(),
		Index:      index,
		Embeddings: embeddings,
	}

	var manifest Manifest
	err := readFile(filepath.Join(t.dir, manifestFilename), func(r io.Reader) error {
		return json.NewDecoder(r).Decode(&manifest)
	})
	switch {
	case err == nil:
		snap.ID = manifest.ID
		snap.Model = manifest.Model
		snap.CreatedAt = manifest.CreatedAt
	case errors.Is(err, ErrIndexNotFound):
	default:
		s.logger.Warn("ignoring unreadable manifest", "dir", t.dir, "err", err)
	}

	return snap, nil
}

// readFile opens path, hands it to read and closes it.
// A missing file is reported as ErrIndexNotFound.
func readFile(path string, read func(r io.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrIndexNotFound, path)
		}
		return fmt.Errorf("storage: open %s: %w", path, err)
	}
	defer f.Close()
	return read(f)
}
