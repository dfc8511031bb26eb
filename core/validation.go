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

import "fmt"

// ValidateRecord validates a DocumentRecord according to domain rules.
//
// Validation rules:
//   - Path must not be empty
//   - Filename must not be empty
//
// NOT validated:
//   - Title (the loader always fills it, falling back to UntitledTitle)
func ValidateRecord(record *DocumentRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidRecord)
	}

	if record.Path == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrEmptyPath)
	}

	if record.Filename == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrEmptyFilename)
	}

	return nil
}

// ValidateAlignment checks the central invariant: one embedding row per
// document, all rows of the same dimension.
func ValidateAlignment(index Index, embeddings EmbeddingMatrix) error {
	if len(index) != len(embeddings) {
		return fmt.Errorf("%w: %d documents, %d embeddings", ErrMisaligned, len(index), len(embeddings))
	}

	dim := embeddings.Dim()
	for i, row := range embeddings {
		if len(row) != dim {
			return fmt.Errorf("%w: row %d has %d values, expected %d", ErrRaggedMatrix, i, len(row), dim)
		}
	}

	for i := range index {
		if err := ValidateRecord(&index[i]); err != nil {
			return fmt.Errorf("document %d: %w", i, err)
		}
	}

	return nil
}
