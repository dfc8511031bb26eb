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
// Package storage persists search indexes.
//
// A generate run produces one immutable core.Snapshot. Store writes it to
// every configured Target, each a directory holding:
//
//	index.json        ordered document records
//	embeddings.<ext>  the embedding matrix, encoded by the target's Encoder
//	manifest.json     model, dimension and snapshot metadata
//
// Files are staged as temp files and renamed into place. index.json is
// renamed last, so its presence marks a complete pair.
//
// # Usage
//
//	store, err := storage.NewStore(
//	    storage.Target{Dir: "tools/search/output", Format: storage.FormatNPY},
//	    storage.Target{Dir: "public/output", Format: storage.FormatJSON},
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := store.Save(ctx, snap); err != nil {
//	    log.Fatal(err)
//	}
//
// Load reads the first (primary) target only:
//
//	loaded, err := store.Load(ctx)
//	if errors.Is(err, storage.ErrIndexNotFound) {
//	    // nothing generated yet
//	}
//
// # Embedding Cache
//
// EmbeddingCache is implemented by the storage/badger package. It is an
// optimization for repeated generate runs and never changes what Save writes.
//
// # Thread Safety
//
// Store and the encoders are safe for concurrent use.
package storage
