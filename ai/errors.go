package ai

import "errors"

var (
	// ErrCountMismatch indicates a provider returned a different number
	// of vectors than texts requested. This is a fatal integration
	// error; it is never retried, padded, or truncated away.
	ErrCountMismatch = errors.New("embedding count mismatch")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")
)
