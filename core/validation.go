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

// ValidateMovieRecord validates a MovieRecord according to domain rules.
//
// Validation rules:
//   - Source must be one of the known catalogs
//   - LocalID must not be empty
//
// NOT validated (populated by the batch embedder):
//   - EmbeddingText, DedupKey, Embedding
//
// Descriptive fields are deliberately unchecked: a row with no usable
// description still gets a (near-empty) embedding text and is embedded,
// never dropped.
func ValidateMovieRecord(record *MovieRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidMovieRecord)
	}

	if err := ValidateSource(record.Source); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMovieRecord, err)
	}

	if record.LocalID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidMovieRecord, ErrEmptyLocalID)
	}

	return nil
}

// ValidateSource validates that a Source is a known catalog.
func ValidateSource(source Source) error {
	switch source {
	case SourceMovieLens, SourceMovieTweetings, SourceInspired:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownSource, source)
}
