package local

import (
	"context"
	"hash/fnv"
	"log/slog"
	"strings"
	"unicode"

	"github.com/poiesic/tastevec/ai"
	"github.com/poiesic/tastevec/core"
)

// Embedder implements ai.Embedder with an in-process feature-hashing
// model: tokens are hashed into a fixed number of buckets and the
// resulting term-frequency vector is unit-normalized. Synchronous,
// CPU-bound, no network.
//
// The vectors are deterministic, which is what the batch pipeline's
// resume-idempotence guarantee depends on.
type Embedder struct {
	dims   int
	logger *slog.Logger
}

// newEmbedder is an internal constructor that returns the concrete type.
func newEmbedder(config *ai.Config) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Embedder{
		dims:   config.LocalDimensions,
		logger: slog.Default().With("component", "local-embedder"),
	}, nil
}

// NewEmbedder creates a local embedder from the provided configuration.
//
// Returns the ai.Embedder interface to enforce abstraction.
func NewEmbedder(config *ai.Config) (ai.Embedder, error) {
	return newEmbedder(config)
}

// Dimensions returns the fixed output dimension.
func (e *Embedder) Dimensions() int {
	return e.dims
}

// EmbedTexts generates one unit-norm vector per input text, in order.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	results := make([][]float32, len(texts))
	for i, text := range texts {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		results[i] = e.embedOne(text)
	}

	e.logger.Debug("embedded texts", "count", len(texts), "dims", e.dims)
	return results, nil
}

func (e *Embedder) embedOne(text string) []float32 {
	vector := make([]float32, e.dims)
	for _, tok := range tokenize(text) {
		h := fnv.New64a()
		h.Write([]byte(tok))
		vector[int(h.Sum64()%uint64(e.dims))]++
	}
	return core.Normalize(vector)
}

func tokenize(text string) []string {
	text = strings.TrimSpace(strings.ToLower(text))
	if text == "" {
		return nil
	}
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
