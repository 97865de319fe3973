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
	// ErrInvalidMovieRecord indicates a MovieRecord failed validation.
	ErrInvalidMovieRecord = errors.New("invalid movie record")

	// ErrUnknownSource indicates a Source value outside the known catalogs.
	ErrUnknownSource = errors.New("unknown movie source")

	// ErrEmptyLocalID indicates the LocalID field is empty.
	ErrEmptyLocalID = errors.New("local id cannot be empty")

	// ErrDimensionMismatch indicates two vectors of different dimensions
	// were combined where equal dimensions are required.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)
