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


package engine

import "errors"

var (
	// ErrEmbedderRequired indicates that no embedder was provided.
	ErrEmbedderRequired = errors.New("embedder is required")

	// ErrIndexRequired indicates that no index was provided.
	ErrIndexRequired = errors.New("index is required")

	// ErrCatalogMismatch indicates that the movie catalog and the index
	// disagree on row count.
	ErrCatalogMismatch = errors.New("catalog row count does not match index")

	// ErrEmptyInput indicates an empty user message.
	ErrEmptyInput = errors.New("user input is empty")
)
