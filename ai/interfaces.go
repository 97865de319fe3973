package ai

import "context"

// Embedder generates vector embeddings from text.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedTexts generates one embedding per input text, in input order,
	// all of the same fixed dimension for a given backend instance.
	// An empty input yields an empty output and no provider call.
	//
	// Implementations may batch internally and may truncate overlong
	// individual texts to a backend-specific character budget before
	// sending; both are invisible to callers. Remote backends do not
	// guarantee unit-norm vectors; callers normalize where cosine
	// similarity is required.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}
