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


package index

import (
	"errors"
	"fmt"
	"sort"

	"github.com/poiesic/tastevec/core"
)

var (
	// ErrDimensionMismatch indicates a vector whose dimension does not
	// match the index.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrEmptyIndex indicates a search against an index with no rows.
	ErrEmptyIndex = errors.New("index is empty")
)

// Hit is one search result: the row position of the matched vector and
// its inner-product score.
type Hit struct {
	Index int
	Score float32
}

// FlatIP is an exact (brute force) inner-product index. Search scans
// every row; no quantization, no approximation. Immutable after
// construction and safe for concurrent searches.
type FlatIP struct {
	vectors [][]float32
	dim     int
}

// NewFlatIP builds an index over the given rows. Row order is
// preserved; every row must share one dimension.
func NewFlatIP(vectors [][]float32) (*FlatIP, error) {
	if len(vectors) == 0 {
		return nil, ErrEmptyIndex
	}
	dim := len(vectors[0])
	if dim == 0 {
		return nil, fmt.Errorf("%w: row 0 has no elements", ErrDimensionMismatch)
	}
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("%w: row %d has %d elements, want %d",
				ErrDimensionMismatch, i, len(v), dim)
		}
	}
	return &FlatIP{vectors: vectors, dim: dim}, nil
}

// Len returns the number of rows.
func (idx *FlatIP) Len() int {
	return len(idx.vectors)
}

// Dim returns the vector dimension.
func (idx *FlatIP) Dim() int {
	return idx.dim
}

// Search returns the k rows with the highest inner product against
// query, in descending score order. Ties keep row order. Asking for
// more rows than the index holds returns every row.
func (idx *FlatIP) Search(query []float32, k int) ([]Hit, error) {
	if len(query) != idx.dim {
		return nil, fmt.Errorf("%w: query has %d elements, want %d",
			ErrDimensionMismatch, len(query), idx.dim)
	}
	if k <= 0 {
		return nil, nil
	}

	hits := make([]Hit, len(idx.vectors))
	for i, v := range idx.vectors {
		hits[i] = Hit{Index: i, Score: core.Dot(query, v)}
	}
	sort.SliceStable(hits, func(a, b int) bool {
		return hits[a].Score > hits[b].Score
	})

	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k], nil
}
