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


package core

import "errors"

// Domain validation errors
var (
	// ErrMisaligned indicates the index and embedding matrix have different lengths.
	ErrMisaligned = errors.New("index and embeddings are not aligned")

	// ErrRaggedMatrix indicates embedding rows of differing dimensionality.
	ErrRaggedMatrix = errors.New("embedding rows have differing dimensions")

	// ErrInvalidRecord indicates a DocumentRecord failed validation.
	ErrInvalidRecord = errors.New("invalid document record")

	// ErrEmptyFilename indicates the Filename field is empty.
	ErrEmptyFilename = errors.New("filename cannot be empty")

	// ErrEmptyPath indicates the Path field is empty.
	ErrEmptyPath = errors.New("path cannot be empty")
)
