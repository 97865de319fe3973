package mock

import (
	"context"
	"hash/fnv"

	"github.com/poiesic/tastevec/core"
)

// MockEmbedder is a test double for ai.Embedder.
// It allows custom behavior injection via function fields.
type MockEmbedder struct {
	// EmbedTextsFunc is called by EmbedTexts if set.
	// If nil, uses default deterministic behavior.
	EmbedTextsFunc func(ctx context.Context, texts []string) ([][]float32, error)

	// Dims is the dimension of default deterministic vectors. Zero means 8.
	Dims int

	callCount int
	seenTexts []string
}

// NewMockEmbedder creates a mock embedder with default deterministic behavior.
// Returns the concrete type to allow test assertions.
func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{}
}

// EmbedTexts generates deterministic embeddings for multiple texts.
func (m *MockEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	m.callCount++
	m.seenTexts = append(m.seenTexts, texts...)

	if m.EmbedTextsFunc != nil {
		return m.EmbedTextsFunc(ctx, texts)
	}

	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		embeddings[i] = m.deterministicVector(text)
	}
	return embeddings, nil
}

// CallCount returns the number of EmbedTexts calls made.
func (m *MockEmbedder) CallCount() int {
	return m.callCount
}

// SeenTexts returns every text passed to EmbedTexts, in call order.
func (m *MockEmbedder) SeenTexts() []string {
	return m.seenTexts
}

// Reset clears recorded state and injected behavior.
func (m *MockEmbedder) Reset() {
	m.callCount = 0
	m.seenTexts = nil
	m.EmbedTextsFunc = nil
}

// deterministicVector creates a unit-norm embedding from a text hash so
// the same text always produces the same vector.
func (m *MockEmbedder) deterministicVector(text string) []float32 {
	dims := m.Dims
	if dims <= 0 {
		dims = 8
	}

	h := fnv.New32a()
	h.Write([]byte(text))
	seed := h.Sum32()

	vector := make([]float32, dims)
	for i := 0; i < dims; i++ {
		seed = seed*1664525 + 1013904223 // LCG constants
		vector[i] = float32(seed%1000)/1000.0 + 0.001
	}
	return core.Normalize(vector)
}
