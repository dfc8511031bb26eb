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

import "errors"

var (
	// ErrIndexNotFound indicates that index.json or the embeddings file is absent.
	ErrIndexNotFound = errors.New("index not found")

	// ErrCorruptIndex indicates the persisted index cannot be decoded or is misaligned.
	ErrCorruptIndex = errors.New("corrupt index")

	// ErrUnknownFormat indicates an embeddings format with no registered encoder.
	ErrUnknownFormat = errors.New("unknown embeddings format")

	// ErrNoTargets indicates a store created without any output target.
	ErrNoTargets = errors.New("no output targets")

	// ErrStorageClosed indicates that the storage backend is closed.
	ErrStorageClosed = errors.New("storage is closed")
)
